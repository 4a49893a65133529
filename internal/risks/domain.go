package risks

import (
	"time"

	"github.com/odyssey-erp/console/internal/lifecycle"
	"github.com/odyssey-erp/console/internal/query"
)

// Entity is the name used in errors, events and transition logs.
const Entity = "risk"

// Impact grades the consequence of a risk.
type Impact string

const (
	ImpactLow    Impact = "low"
	ImpactMedium Impact = "medium"
	ImpactHigh   Impact = "high"
	ImpactSevere Impact = "severe"
)

// Probability grades the likelihood of a risk.
type Probability string

const (
	ProbabilityLow    Probability = "low"
	ProbabilityMedium Probability = "medium"
	ProbabilityHigh   Probability = "high"
)

// Status enumerates risk handling states.
type Status string

const (
	StatusOpen       Status = "open"
	StatusMitigating Status = "mitigating"
	StatusClosed     Status = "closed"
)

// Risk actions.
const (
	ActionMitigate lifecycle.Action = "mitigate"
	ActionClose    lifecycle.Action = "close"
	ActionReopen   lifecycle.Action = "reopen"
)

// Machine is the risk lifecycle.
var Machine = lifecycle.NewMachine(Entity, StatusOpen, []lifecycle.Rule[Status]{
	{From: []Status{StatusOpen}, Action: ActionMitigate, To: StatusMitigating},
	{From: []Status{StatusOpen, StatusMitigating}, Action: ActionClose, To: StatusClosed},
	{From: []Status{StatusClosed}, Action: ActionReopen, To: StatusOpen},
})

// Risk is a tracked threat to delivery with an accountable owner.
type Risk struct {
	ID             int64       `json:"id"`
	Summary        string      `json:"summary"`
	Description    string      `json:"description"`
	Impact         Impact      `json:"impact"`
	Probability    Probability `json:"probability"`
	Status         Status      `json:"status"`
	MitigationPlan string      `json:"mitigation_plan,omitempty"`
	OwnerID        int64       `json:"owner_id"`
	CreatedAt      time.Time   `json:"created_at"`
	UpdatedAt      time.Time   `json:"updated_at"`
}

// High reports an unclosed risk with high or severe impact.
func (r Risk) High() bool {
	return (r.Impact == ImpactHigh || r.Impact == ImpactSevere) && r.Status != StatusClosed
}

// SearchFields implements query.Indexed.
func (r Risk) SearchFields() []string { return []string{r.Summary} }

// FilterField implements query.Indexed.
func (r Risk) FilterField(key string) (string, bool) {
	if key == query.FilterStatus {
		return string(r.Status), true
	}
	return "", false
}

// CreateInput is the payload of a new risk.
type CreateInput struct {
	Summary        string      `json:"summary" validate:"required,max=300"`
	Description    string      `json:"description" validate:"max=4000"`
	Impact         Impact      `json:"impact" validate:"required,oneof=low medium high severe"`
	Probability    Probability `json:"probability" validate:"required,oneof=low medium high"`
	MitigationPlan string      `json:"mitigation_plan" validate:"max=4000"`
	OwnerID        int64       `json:"owner_id" validate:"required,gt=0"`
}
