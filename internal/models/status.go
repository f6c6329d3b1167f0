package models

// WorkflowStatus is the column a card or task sits in.
type WorkflowStatus string

const (
	StatusIcebox  WorkflowStatus = "icebox"
	StatusBacklog WorkflowStatus = "backlog"
	StatusOngoing WorkflowStatus = "ongoing"
	StatusReview  WorkflowStatus = "review"
	StatusDone    WorkflowStatus = "done"
)

func (s WorkflowStatus) Valid() bool {
	switch s {
	case StatusIcebox, StatusBacklog, StatusOngoing, StatusReview, StatusDone:
		return true
	}
	return false
}

type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
	PriorityUrgent Priority = "urgent"
)

func (p Priority) Valid() bool {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh, PriorityUrgent:
		return true
	}
	return false
}
