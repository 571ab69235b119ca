package mercadopago

import (
	"context"
	"encoding/json"
	"net/url"
	"strings"

	"github.com/martinvega/vinoteca/internal/payments/domain"
)

// MerchantOrderResolver resolves a merchant order to its payment list. The
// normalizer needs it for notification shapes that reference a merchant order
// instead of a payment.
type MerchantOrderResolver interface {
	MerchantOrder(ctx context.Context, merchantOrderID string) (*domain.MerchantOrder, error)
}

// Normalizer converts the gateway's heterogeneous webhook shapes into a single
// resolved payment identifier. It is the only seam where untyped external
// input is interpreted.
type Normalizer struct {
	merchantOrders MerchantOrderResolver
}

// NewNormalizer creates a webhook normalizer.
func NewNormalizer(merchantOrders MerchantOrderResolver) *Normalizer {
	return &Normalizer{merchantOrders: merchantOrders}
}

type webhookBody struct {
	Type     string `json:"type"`
	Topic    string `json:"topic"`
	Resource flexID `json:"resource"`
	Data     struct {
		ID flexID `json:"id"`
	} `json:"data"`
}

// Resolve extracts the payment identifier from a webhook delivery. The body
// may be empty, malformed, or absent; query parameters are the fallback.
// Returns ErrInvalidWebhook when no identifier can be resolved. The merchant
// order lookup is a synchronous gateway call; its failures propagate as
// gateway errors and rely on gateway-side redelivery, never on local retry.
func (n *Normalizer) Resolve(ctx context.Context, body []byte, query url.Values) (string, error) {
	var parsed webhookBody
	if len(body) > 0 {
		// A malformed body is treated the same as an absent one.
		_ = json.Unmarshal(body, &parsed)
	}

	topic := firstNonEmpty(parsed.Type, parsed.Topic, query.Get("type"), query.Get("topic"))
	resource := string(parsed.Resource)

	if id := string(parsed.Data.ID); id != "" {
		return id, nil
	}

	if topic == "payment" && resource != "" {
		if id := lastNumericSegment(resource); id != "" {
			return id, nil
		}
	}

	if topic == "merchant_order" {
		orderID := lastNumericSegment(resource)
		if orderID == "" {
			orderID = numericOnly(query.Get("id"))
		}
		if orderID != "" {
			order, err := n.merchantOrders.MerchantOrder(ctx, orderID)
			if err != nil {
				return "", err
			}
			if len(order.PaymentIDs) > 0 {
				return order.PaymentIDs[0], nil
			}
			return "", domain.ErrInvalidWebhook
		}
	}

	if id := firstNonEmpty(query.Get("data.id"), query.Get("id")); id != "" {
		return id, nil
	}

	return "", domain.ErrInvalidWebhook
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

// lastNumericSegment returns the final path segment of a resource URL or id,
// provided it is numeric.
func lastNumericSegment(resource string) string {
	trimmed := strings.TrimRight(resource, "/")
	idx := strings.LastIndex(trimmed, "/")
	segment := trimmed
	if idx >= 0 {
		segment = trimmed[idx+1:]
	}
	return numericOnly(segment)
}

func numericOnly(s string) string {
	if s == "" {
		return ""
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return ""
		}
	}
	return s
}
