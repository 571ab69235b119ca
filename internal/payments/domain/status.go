package domain

// Status is the payment state reported by the gateway.
type Status string

const (
	StatusApproved  Status = "approved"
	StatusRejected  Status = "rejected"
	StatusRefunded  Status = "refunded"
	StatusInProcess Status = "in_process"
	StatusPending   Status = "pending"
	StatusOther     Status = "other"
)

// StatusFromGateway maps a raw gateway status string onto the closed enum.
// Unknown statuses collapse to StatusOther rather than failing.
func StatusFromGateway(raw string) Status {
	switch Status(raw) {
	case StatusApproved, StatusRejected, StatusRefunded, StatusInProcess, StatusPending:
		return Status(raw)
	default:
		return StatusOther
	}
}
