// Package mercadopago wraps the Mercado Pago REST API behind the payments
// gateway port.
package mercadopago

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"math"
	"net/http"
	"time"

	"github.com/sony/gobreaker/v2"
	"golang.org/x/oauth2"

	"github.com/martinvega/vinoteca/internal/payments/domain"
)

// DefaultBaseURL is the production API endpoint.
const DefaultBaseURL = "https://api.mercadopago.com"

// CallTimeout bounds every synchronous gateway call.
const CallTimeout = 5 * time.Second

// Config holds client configuration.
type Config struct {
	BaseURL     string
	AccessToken string
	Timeout     time.Duration
}

// Client implements the payments gateway port against Mercado Pago.
type Client struct {
	httpClient *http.Client
	baseURL    string
	breaker    *gobreaker.CircuitBreaker[[]byte]
	logger     *slog.Logger
}

// NewClient creates a gateway client. The access token is injected through an
// oauth2 static token source so every request carries the bearer header.
func NewClient(cfg Config, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = CallTimeout
	}

	src := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: cfg.AccessToken})
	httpClient := oauth2.NewClient(context.Background(), src)
	httpClient.Timeout = cfg.Timeout

	breaker := gobreaker.NewCircuitBreaker[[]byte](gobreaker.Settings{
		Name:        "mercadopago",
		MaxRequests: 3,
		Interval:    time.Minute,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("gateway circuit breaker state change",
				"breaker", name, "from", from.String(), "to", to.String())
		},
	})

	return &Client{
		httpClient: httpClient,
		baseURL:    cfg.BaseURL,
		breaker:    breaker,
		logger:     logger,
	}
}

// Payment fetches the authoritative payment record.
func (c *Client) Payment(ctx context.Context, paymentID string) (*domain.Payment, error) {
	body, err := c.do(ctx, http.MethodGet, "/v1/payments/"+paymentID, nil, "", domain.KindQuery)
	if err != nil {
		return nil, err
	}

	var resp paymentResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, domain.NewQueryError(fmt.Sprintf("malformed payment response: %v", err), 0)
	}

	return &domain.Payment{
		ID:                string(resp.ID),
		Status:            domain.StatusFromGateway(resp.Status),
		ExternalReference: resp.ExternalReference,
		AmountCents:       toCents(resp.TransactionAmount),
	}, nil
}

// MerchantOrder fetches a merchant order and its payment list.
func (c *Client) MerchantOrder(ctx context.Context, merchantOrderID string) (*domain.MerchantOrder, error) {
	body, err := c.do(ctx, http.MethodGet, "/merchant_orders/"+merchantOrderID, nil, "", domain.KindQuery)
	if err != nil {
		return nil, err
	}

	var resp merchantOrderResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, domain.NewQueryError(fmt.Sprintf("malformed merchant order response: %v", err), 0)
	}

	order := &domain.MerchantOrder{ID: string(resp.ID)}
	for _, p := range resp.Payments {
		order.PaymentIDs = append(order.PaymentIDs, string(p.ID))
	}
	return order, nil
}

// CreatePreapproval creates a recurring billing agreement. The external
// reference doubles as the idempotency key so gateway-side retries of the
// same provisioning attempt cannot create a second agreement.
func (c *Client) CreatePreapproval(ctx context.Context, req domain.PreapprovalRequest) (*domain.Preapproval, error) {
	payload := preapprovalRequest{
		Reason:            req.Reason,
		ExternalReference: req.ExternalReference,
		PayerEmail:        req.PayerEmail,
		BackURL:           req.BackURL,
		AutoRecurring: autoRecurring{
			Frequency:         req.FrequencyCount,
			FrequencyType:     req.FrequencyUnit,
			TransactionAmount: fromCents(req.AmountCents),
			CurrencyID:        req.CurrencyID,
		},
		Status: "pending",
	}
	for _, id := range req.ExcludedPaymentTypes {
		payload.ExcludedPaymentTypes = append(payload.ExcludedPaymentTypes, paymentTypeRef{ID: id})
	}

	encoded, err := json.Marshal(payload)
	if err != nil {
		return nil, domain.NewProvisioningError(fmt.Sprintf("encode preapproval: %v", err), 0)
	}

	body, err := c.do(ctx, http.MethodPost, "/preapproval", encoded, req.ExternalReference, domain.KindProvisioning)
	if err != nil {
		return nil, err
	}

	var resp preapprovalResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, domain.NewProvisioningError(fmt.Sprintf("malformed preapproval response: %v", err), 0)
	}

	return &domain.Preapproval{
		ID:        string(resp.ID),
		InitPoint: resp.InitPoint,
		Status:    resp.Status,
	}, nil
}

func (c *Client) do(ctx context.Context, method, path string, body []byte, idempotencyKey string, kind domain.ErrorKind) ([]byte, error) {
	result, err := c.breaker.Execute(func() ([]byte, error) {
		var reader io.Reader
		if body != nil {
			reader = bytes.NewReader(body)
		}

		req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
		if err != nil {
			return nil, gatewayError(kind, err.Error(), 0)
		}
		req.Header.Set("Accept", "application/json")
		if body != nil {
			req.Header.Set("Content-Type", "application/json")
		}
		if idempotencyKey != "" {
			req.Header.Set("X-Idempotency-Key", idempotencyKey)
		}

		resp, err := c.httpClient.Do(req)
		if err != nil {
			return nil, gatewayError(kind, err.Error(), 0)
		}
		defer resp.Body.Close()

		data, err := io.ReadAll(resp.Body)
		if err != nil {
			return nil, gatewayError(kind, err.Error(), resp.StatusCode)
		}

		if resp.StatusCode < 200 || resp.StatusCode > 299 {
			return nil, gatewayError(kind, errorMessage(data), resp.StatusCode)
		}
		return data, nil
	})
	if err != nil {
		if _, ok := domain.AsGatewayError(err); ok {
			return nil, err
		}
		// Breaker-level failures (open circuit, too many requests).
		return nil, gatewayError(kind, err.Error(), 0)
	}
	return result, nil
}

func gatewayError(kind domain.ErrorKind, message string, rawStatus int) *domain.GatewayError {
	if kind == domain.KindProvisioning {
		return domain.NewProvisioningError(message, rawStatus)
	}
	return domain.NewQueryError(message, rawStatus)
}

func errorMessage(body []byte) string {
	var resp errorResponse
	if err := json.Unmarshal(body, &resp); err == nil {
		if resp.Message != "" {
			return resp.Message
		}
		if resp.Error != "" {
			return resp.Error
		}
	}
	return "gateway request failed"
}

func toCents(amount float64) int64 {
	return int64(math.Round(amount * 100))
}

func fromCents(cents int64) float64 {
	return float64(cents) / 100
}
