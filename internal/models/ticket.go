package models

import "time"

// TicketStatus enumerates the ticket lifecycle states.
type TicketStatus string

const (
	StatusNew        TicketStatus = "new"
	StatusInProgress TicketStatus = "in_progress"
	StatusResolved   TicketStatus = "resolved"
	StatusRejected   TicketStatus = "rejected"
	StatusClosed     TicketStatus = "closed"
)

// ValidTicketStatus reports membership in the closed status set. Transitions
// between statuses are deliberately unconstrained; only membership is checked.
func ValidTicketStatus(status TicketStatus) bool {
	switch status {
	case StatusNew, StatusInProgress, StatusResolved, StatusRejected, StatusClosed:
		return true
	default:
		return false
	}
}

// Ticket represents a user-submitted request tracked through a status
// lifecycle.
type Ticket struct {
	ID          string       `db:"id" json:"id"`
	AuthorID    string       `db:"author_id" json:"author_id"`
	Title       string       `db:"title" json:"title"`
	Description string       `db:"description" json:"description"`
	Status      TicketStatus `db:"status" json:"status"`
	CreatedAt   time.Time    `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time    `db:"updated_at" json:"updated_at"`
}

// TicketView is a ticket together with its author projection and, for detail
// views, its ordered messages.
type TicketView struct {
	Ticket
	Author   UserView      `json:"author"`
	Messages []MessageView `json:"messages,omitempty"`
}

// TicketFilter captures list filtering criteria resolved at the service
// layer from the caller's role and requested status.
type TicketFilter struct {
	AuthorID        string
	Status          TicketStatus
	ExcludeFinished bool
}
