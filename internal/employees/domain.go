package employees

import (
	"time"

	"github.com/odyssey-erp/console/internal/query"
)

// Entity is the name used in errors and events.
const Entity = "employee"

// Employee is a member of staff. CurrentLoad is derived from active task
// assignments on every read and never stored.
type Employee struct {
	ID          int64     `json:"id"`
	Username    string    `json:"username"`
	JobTitle    string    `json:"job_title"`
	Department  string    `json:"department"`
	Email       string    `json:"email"`
	Location    string    `json:"location"`
	IsAvailable bool      `json:"is_available"`
	Capacity    int       `json:"capacity"`
	CurrentLoad int       `json:"current_load"`
	Overloaded  bool      `json:"overloaded"`
	CreatedAt   time.Time `json:"created_at"`
}

// SearchFields implements query.Indexed.
func (e Employee) SearchFields() []string { return []string{e.Username, e.JobTitle} }

// FilterField implements query.Indexed.
func (e Employee) FilterField(key string) (string, bool) {
	if key == query.FilterDepartment {
		return e.Department, true
	}
	return "", false
}

// CreateInput is the payload of a new employee. A nil IsAvailable means available.
type CreateInput struct {
	Username    string `json:"username" validate:"required,max=100"`
	JobTitle    string `json:"job_title" validate:"max=200"`
	Department  string `json:"department" validate:"max=100"`
	Email       string `json:"email" validate:"omitempty,email"`
	Location    string `json:"location" validate:"max=100"`
	IsAvailable *bool  `json:"is_available"`
	Capacity    int    `json:"capacity" validate:"gte=0"`
}
