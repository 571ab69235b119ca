package subscription

// Status is the subscription lifecycle state.
type Status string

const (
	StatusPending   Status = "pending"
	StatusActive    Status = "active"
	StatusPaused    Status = "paused"
	StatusCancelled Status = "cancelled"
)

// IsTerminal reports whether the subscription can never change again.
func (s Status) IsTerminal() bool {
	return s == StatusCancelled
}
