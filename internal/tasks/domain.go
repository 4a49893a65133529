package tasks

import (
	"time"

	"github.com/odyssey-erp/console/internal/lifecycle"
	"github.com/odyssey-erp/console/internal/query"
	"github.com/odyssey-erp/console/internal/shared"
)

// Entity is the name used in errors, events and transition logs.
const Entity = "task"

// Status enumerates task progress.
type Status string

const (
	StatusTodo       Status = "todo"
	StatusInProgress Status = "in_progress"
	StatusDone       Status = "done"
)

// Task actions.
const (
	ActionStart    lifecycle.Action = "start"
	ActionComplete lifecycle.Action = "complete"
	ActionReopen   lifecycle.Action = "reopen"
)

// Machine is the task lifecycle.
var Machine = lifecycle.NewMachine(Entity, StatusTodo, []lifecycle.Rule[Status]{
	{From: []Status{StatusTodo}, Action: ActionStart, To: StatusInProgress},
	{From: []Status{StatusTodo, StatusInProgress}, Action: ActionComplete, To: StatusDone},
	{From: []Status{StatusDone}, Action: ActionReopen, To: StatusTodo},
})

// Task is a unit of project work assigned to an employee.
type Task struct {
	ID         int64       `json:"id"`
	ProjectID  int64       `json:"project_id"`
	Title      string      `json:"title"`
	AssigneeID int64       `json:"assignee_id,omitempty"`
	Status     Status      `json:"status"`
	DueDate    shared.Date `json:"due_date"`
	CreatedAt  time.Time   `json:"created_at"`
	UpdatedAt  time.Time   `json:"updated_at"`
}

// Active reports whether the task still counts towards workload.
func (t Task) Active() bool { return t.Status != StatusDone }

// Overdue reports a past due date on an unfinished task.
func (t Task) Overdue(today shared.Date) bool {
	return t.Active() && !t.DueDate.IsZero() && t.DueDate.Before(today)
}

// SearchFields implements query.Indexed.
func (t Task) SearchFields() []string { return []string{t.Title} }

// FilterField implements query.Indexed.
func (t Task) FilterField(key string) (string, bool) {
	if key == query.FilterStatus {
		return string(t.Status), true
	}
	return "", false
}

// CreateInput is the payload of a new task.
type CreateInput struct {
	ProjectID  int64       `json:"project_id" validate:"required,gt=0"`
	Title      string      `json:"title" validate:"required,max=300"`
	AssigneeID int64       `json:"assignee_id" validate:"gte=0"`
	DueDate    shared.Date `json:"due_date"`
}
