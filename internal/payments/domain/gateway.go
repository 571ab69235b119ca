package domain

import "context"

// Payment is the authoritative payment record fetched from the gateway.
type Payment struct {
	ID                string
	Status            Status
	ExternalReference string
	AmountCents       int64
}

// MerchantOrder is a gateway-side aggregate holding one or more payments.
type MerchantOrder struct {
	ID         string
	PaymentIDs []string
}

// MinPreapprovalAmountCents is the gateway's hard floor for recurring
// agreements: 15 currency units. Requests below it are rejected upstream, so
// callers check it before making any external call.
const MinPreapprovalAmountCents int64 = 1500

// PreapprovalRequest describes a recurring billing agreement to be created.
type PreapprovalRequest struct {
	Reason               string
	ExternalReference    string
	PayerEmail           string
	AmountCents          int64
	CurrencyID           string
	FrequencyCount       int
	FrequencyUnit        string
	BackURL              string
	ExcludedPaymentTypes []string
}

// Preapproval is the created recurring billing agreement.
type Preapproval struct {
	ID        string
	InitPoint string
	Status    string
}

// Gateway is the synchronous API surface of the external payment processor.
type Gateway interface {
	Payment(ctx context.Context, paymentID string) (*Payment, error)
	MerchantOrder(ctx context.Context, merchantOrderID string) (*MerchantOrder, error)
	CreatePreapproval(ctx context.Context, req PreapprovalRequest) (*Preapproval, error)
}
