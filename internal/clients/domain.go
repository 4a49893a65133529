package clients

import "time"

// Entity is the name used in errors, events and transition logs.
const Entity = "client"

// Client is an organization invoices and projects are billed to.
type Client struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"created_at"`
}

// SearchFields implements query.Indexed.
func (c Client) SearchFields() []string { return []string{c.Name, c.Email} }

// FilterField implements query.Indexed; clients have no exact-match filters.
func (c Client) FilterField(string) (string, bool) { return "", false }

// CreateInput is the payload of a new client.
type CreateInput struct {
	Name  string `json:"name" validate:"required,max=200"`
	Email string `json:"email" validate:"omitempty,email"`
}
