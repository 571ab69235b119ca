package api

import (
	"crypto/subtle"
	"errors"
	"io"
	"log/slog"
	"net/http"

	paymentsApplication "github.com/martinvega/vinoteca/internal/payments/application"
	payments "github.com/martinvega/vinoteca/internal/payments/domain"
)

// WebhookHandler receives payment gateway notifications.
type WebhookHandler struct {
	processor        *paymentsApplication.ProcessNotificationHandler
	secret           string
	requireSignature bool
	logger           *slog.Logger
}

// NewWebhookHandler creates the handler. requireSignature is off in
// development so local gateway simulators can post without credentials.
func NewWebhookHandler(processor *paymentsApplication.ProcessNotificationHandler, secret string, requireSignature bool, logger *slog.Logger) *WebhookHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &WebhookHandler{
		processor:        processor,
		secret:           secret,
		requireSignature: requireSignature,
		logger:           logger,
	}
}

// HandlePaymentNotification handles POST /webhooks/payment. The gateway
// treats any non-2xx answer as undelivered and retries, so validation
// failures answer 400 (retrying cannot help) while gateway and store
// failures answer 500 (retrying can).
func (h *WebhookHandler) HandlePaymentNotification(w http.ResponseWriter, r *http.Request) {
	if h.requireSignature {
		provided := r.Header.Get("X-Webhook-Secret")
		if provided == "" || subtle.ConstantTimeCompare([]byte(provided), []byte(h.secret)) != 1 {
			writeError(w, http.StatusUnauthorized, "invalid_signature", "webhook signature mismatch", "")
			return
		}
	}

	body, err := io.ReadAll(io.LimitReader(r.Body, 1<<20))
	if err != nil {
		writeError(w, http.StatusBadRequest, "unreadable_body", "could not read request body", err.Error())
		return
	}

	result, err := h.processor.Handle(r.Context(), paymentsApplication.ProcessNotificationCommand{
		Body:  body,
		Query: r.URL.Query(),
	})
	if err != nil {
		h.writeProcessingError(w, err)
		return
	}

	response := map[string]any{
		"success":       true,
		"paymentStatus": string(result.PaymentStatus),
	}
	if result.OrderID != nil {
		response["orderId"] = result.OrderID.String()
		response["orderStatus"] = result.OrderStatus
	}
	if result.SubscriptionID != nil {
		response["subscriptionId"] = result.SubscriptionID.String()
	}
	writeJSON(w, http.StatusOK, response)
}

func (h *WebhookHandler) writeProcessingError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, payments.ErrInvalidWebhook):
		writeError(w, http.StatusBadRequest, "invalid_webhook", "webhook carries no resolvable payment identifier", "")
	case errors.Is(err, payments.ErrMissingExternalReference),
		errors.Is(err, payments.ErrInvalidExternalReference):
		writeError(w, http.StatusBadRequest, "invalid_payment_data", "payment cannot be correlated to an order or subscription", err.Error())
	default:
		if gwErr, ok := payments.AsGatewayError(err); ok {
			writeError(w, http.StatusInternalServerError, "gateway_error", "payment gateway query failed", gwErr.Message)
			return
		}
		h.logger.Error("webhook processing failed", "error", err)
		writeError(w, http.StatusInternalServerError, "internal_error", "notification processing failed", "")
	}
}
