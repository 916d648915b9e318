package domain

import "fmt"

// Status is the lifecycle state of a budget.
type Status string

const (
	StatusDraft     Status = "draft"
	StatusScheduled Status = "scheduled"
	StatusCompleted Status = "completed"
	StatusDeclined  Status = "declined"
)

var statusLabels = map[Status]string{
	StatusDraft:     "Orçado",
	StatusScheduled: "Agendado",
	StatusCompleted: "Realizado",
	StatusDeclined:  "Declinado",
}

// Statuses returns every allowed status in display order.
func Statuses() []Status {
	return []Status{StatusDraft, StatusScheduled, StatusCompleted, StatusDeclined}
}

// ParseStatus accepts either the stored key or the pt-BR label.
func ParseStatus(s string) (Status, error) {
	for _, st := range Statuses() {
		if s == string(st) || s == statusLabels[st] {
			return st, nil
		}
	}
	return "", fmt.Errorf("unknown budget status %q", s)
}

// Label returns the pt-BR display name.
func (s Status) Label() string {
	if l, ok := statusLabels[s]; ok {
		return l
	}
	return string(s)
}

// Valid reports whether s is one of Statuses().
func (s Status) Valid() bool {
	_, ok := statusLabels[s]
	return ok
}
