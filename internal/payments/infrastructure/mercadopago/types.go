package mercadopago

import (
	"bytes"
	"encoding/json"
)

// flexID decodes gateway identifiers that arrive either as JSON numbers or
// strings, depending on the notification shape.
type flexID string

func (f *flexID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || string(data) == "null" {
		*f = ""
		return nil
	}
	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*f = flexID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return err
	}
	*f = flexID(n.String())
	return nil
}

type paymentResponse struct {
	ID                flexID  `json:"id"`
	Status            string  `json:"status"`
	ExternalReference string  `json:"external_reference"`
	TransactionAmount float64 `json:"transaction_amount"`
}

type merchantOrderResponse struct {
	ID       flexID `json:"id"`
	Payments []struct {
		ID flexID `json:"id"`
	} `json:"payments"`
}

type autoRecurring struct {
	Frequency         int     `json:"frequency"`
	FrequencyType     string  `json:"frequency_type"`
	TransactionAmount float64 `json:"transaction_amount"`
	CurrencyID        string  `json:"currency_id"`
}

type paymentTypeRef struct {
	ID string `json:"id"`
}

type preapprovalRequest struct {
	Reason               string           `json:"reason"`
	ExternalReference    string           `json:"external_reference"`
	PayerEmail           string           `json:"payer_email"`
	BackURL              string           `json:"back_url"`
	AutoRecurring        autoRecurring    `json:"auto_recurring"`
	ExcludedPaymentTypes []paymentTypeRef `json:"excluded_payment_types,omitempty"`
	Status               string           `json:"status"`
}

type preapprovalResponse struct {
	ID        flexID `json:"id"`
	InitPoint string `json:"init_point"`
	Status    string `json:"status"`
}

type errorResponse struct {
	Message string `json:"message"`
	Error   string `json:"error"`
}
