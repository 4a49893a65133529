package assets

import (
	"time"

	"github.com/odyssey-erp/console/internal/lifecycle"
	"github.com/odyssey-erp/console/internal/money"
	"github.com/odyssey-erp/console/internal/query"
	"github.com/odyssey-erp/console/internal/shared"
)

// Entity is the name used in errors, events and transition logs.
const Entity = "asset"

// Status enumerates asset states.
type Status string

const (
	StatusActive   Status = "active"
	StatusInRepair Status = "in_repair"
	StatusRetired  Status = "retired"
)

// Asset actions.
const (
	ActionSendToRepair lifecycle.Action = "send_to_repair"
	ActionRestore      lifecycle.Action = "restore"
	ActionRetire       lifecycle.Action = "retire"
)

// Machine is the asset lifecycle. retired is terminal.
var Machine = lifecycle.NewMachine(Entity, StatusActive, []lifecycle.Rule[Status]{
	{From: []Status{StatusActive}, Action: ActionSendToRepair, To: StatusInRepair},
	{From: []Status{StatusInRepair}, Action: ActionRestore, To: StatusActive},
	{From: []Status{StatusActive, StatusInRepair}, Action: ActionRetire, To: StatusRetired},
}, StatusRetired)

// Asset is company equipment, optionally assigned to an employee.
type Asset struct {
	ID           int64        `json:"id"`
	Name         string       `json:"name"`
	AssetType    string       `json:"asset_type"`
	SerialNumber string       `json:"serial_number,omitempty"`
	Status       Status       `json:"status"`
	AssignedTo   int64        `json:"assigned_to,omitempty"`
	PurchaseDate shared.Date  `json:"purchase_date"`
	Value        money.Amount `json:"value"`
	CreatedAt    time.Time    `json:"created_at"`
	UpdatedAt    time.Time    `json:"updated_at"`
}

// SearchFields implements query.Indexed.
func (a Asset) SearchFields() []string { return []string{a.Name, a.SerialNumber} }

// FilterField implements query.Indexed. The category filter matches asset_type.
func (a Asset) FilterField(key string) (string, bool) {
	switch key {
	case query.FilterStatus:
		return string(a.Status), true
	case query.FilterCategory:
		return a.AssetType, true
	}
	return "", false
}

// CreateInput is the payload of a new asset.
type CreateInput struct {
	Name         string       `json:"name" validate:"required,max=200"`
	AssetType    string       `json:"asset_type" validate:"required,max=100"`
	SerialNumber string       `json:"serial_number" validate:"max=100"`
	AssignedTo   int64        `json:"assigned_to" validate:"gte=0"`
	PurchaseDate shared.Date  `json:"purchase_date"`
	Value        money.Amount `json:"value"`
}

func (in CreateInput) validate() error {
	if err := shared.Validate(in); err != nil {
		return err
	}
	if in.PurchaseDate.IsZero() {
		return shared.NewValidationError("purchase_date", "is required")
	}
	if err := shared.CheckAmount("value", in.Value); err != nil {
		return err
	}
	if in.Value.IsNegative() {
		return shared.NewValidationError("value", "must not be negative")
	}
	return nil
}
