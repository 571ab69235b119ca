package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidWebhook means no payment identifier could be resolved from a
	// webhook delivery. No state mutation happens on this error.
	ErrInvalidWebhook = errors.New("webhook carries no resolvable payment identifier")

	// ErrMissingExternalReference means the gateway payment had no external
	// reference to correlate back to an order or subscription.
	ErrMissingExternalReference = errors.New("payment has no external reference")

	// ErrInvalidExternalReference means the external reference matched neither
	// an order id nor a subscription provisioning token.
	ErrInvalidExternalReference = errors.New("external reference has unknown format")
)

// ErrorKind classifies gateway failures.
type ErrorKind string

const (
	KindQuery        ErrorKind = "query"
	KindProvisioning ErrorKind = "provisioning"
)

// GatewayError is the closed error variant for external gateway failures.
// RawStatus holds the HTTP status reported by the gateway, zero when the call
// never completed (timeout, connection failure, open circuit).
type GatewayError struct {
	Kind      ErrorKind
	Message   string
	RawStatus int
}

func (e *GatewayError) Error() string {
	if e.RawStatus > 0 {
		return fmt.Sprintf("gateway %s failure (status %d): %s", e.Kind, e.RawStatus, e.Message)
	}
	return fmt.Sprintf("gateway %s failure: %s", e.Kind, e.Message)
}

// NewQueryError wraps a status-lookup failure.
func NewQueryError(message string, rawStatus int) *GatewayError {
	return &GatewayError{Kind: KindQuery, Message: message, RawStatus: rawStatus}
}

// NewProvisioningError wraps a recurring-agreement creation failure.
func NewProvisioningError(message string, rawStatus int) *GatewayError {
	return &GatewayError{Kind: KindProvisioning, Message: message, RawStatus: rawStatus}
}

// AsGatewayError unwraps a GatewayError from an error chain.
func AsGatewayError(err error) (*GatewayError, bool) {
	var ge *GatewayError
	if errors.As(err, &ge) {
		return ge, true
	}
	return nil, false
}
