package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/google/uuid"

	billingCommands "github.com/martinvega/vinoteca/internal/billing/application/commands"
	billingQueries "github.com/martinvega/vinoteca/internal/billing/application/queries"
	"github.com/martinvega/vinoteca/internal/billing/domain/plan"
	"github.com/martinvega/vinoteca/internal/billing/domain/subscription"
	identityDomain "github.com/martinvega/vinoteca/internal/identity/domain"
	payments "github.com/martinvega/vinoteca/internal/payments/domain"
)

// SubscriptionHandler handles subscription API requests.
type SubscriptionHandler struct {
	provision       *billingCommands.ProvisionSubscriptionHandler
	pause           *billingCommands.PauseSubscriptionHandler
	reactivate      *billingCommands.ReactivateSubscriptionHandler
	cancel          *billingCommands.CancelSubscriptionHandler
	changeFrequency *billingCommands.ChangeFrequencyHandler
	changePlan      *billingCommands.ChangePlanHandler
	getSubscription *billingQueries.GetSubscriptionHandler
	listPlans       *billingQueries.ListPlansHandler
	logger          *slog.Logger
}

// SubscriptionHandlerConfig holds dependencies for the subscription handler.
type SubscriptionHandlerConfig struct {
	Provision       *billingCommands.ProvisionSubscriptionHandler
	Pause           *billingCommands.PauseSubscriptionHandler
	Reactivate      *billingCommands.ReactivateSubscriptionHandler
	Cancel          *billingCommands.CancelSubscriptionHandler
	ChangeFrequency *billingCommands.ChangeFrequencyHandler
	ChangePlan      *billingCommands.ChangePlanHandler
	GetSubscription *billingQueries.GetSubscriptionHandler
	ListPlans       *billingQueries.ListPlansHandler
	Logger          *slog.Logger
}

// NewSubscriptionHandler creates a new subscription handler.
func NewSubscriptionHandler(cfg SubscriptionHandlerConfig) *SubscriptionHandler {
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	return &SubscriptionHandler{
		provision:       cfg.Provision,
		pause:           cfg.Pause,
		reactivate:      cfg.Reactivate,
		cancel:          cfg.Cancel,
		changeFrequency: cfg.ChangeFrequency,
		changePlan:      cfg.ChangePlan,
		getSubscription: cfg.GetSubscription,
		listPlans:       cfg.ListPlans,
		logger:          cfg.Logger,
	}
}

type provisionRequest struct {
	PlanID       string            `json:"planId"`
	Frequency    string            `json:"frequency"`
	UserID       string            `json:"userId,omitempty"`
	CustomerInfo *customerInfoBody `json:"customerInfo,omitempty"`
}

type customerInfoBody struct {
	Name       string `json:"name"`
	Email      string `json:"email"`
	Line1      string `json:"addressLine1"`
	Line2      string `json:"addressLine2"`
	City       string `json:"city"`
	State      string `json:"state"`
	PostalCode string `json:"postalCode"`
}

// Provision handles POST /subscriptions/provision.
func (h *SubscriptionHandler) Provision(w http.ResponseWriter, r *http.Request) {
	var req provisionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_body", "request body is not valid JSON", err.Error())
		return
	}
	if req.PlanID == "" || req.Frequency == "" {
		writeError(w, http.StatusBadRequest, "missing_fields", "planId and frequency are required", "")
		return
	}

	planID, err := uuid.Parse(req.PlanID)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_plan_id", "planId is not a valid id", "")
		return
	}

	cmd := billingCommands.ProvisionSubscriptionCommand{
		PlanID:    planID,
		Frequency: req.Frequency,
	}

	if req.UserID != "" {
		// An authenticated caller may only provision for their own account.
		if authenticated := r.Header.Get("X-User-ID"); authenticated != "" && authenticated != req.UserID {
			writeError(w, http.StatusUnauthorized, "auth_mismatch", "userId does not match the authenticated session", "")
			return
		}
		userID, err := uuid.Parse(req.UserID)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_user_id", "userId is not a valid id", "")
			return
		}
		cmd.CustomerID = &userID
	} else {
		if req.CustomerInfo == nil || req.CustomerInfo.Email == "" {
			writeError(w, http.StatusBadRequest, "missing_fields", "guest checkout requires customerInfo with an email", "")
			return
		}
		cmd.Guest = &billingCommands.GuestInfo{
			Name:       req.CustomerInfo.Name,
			Email:      req.CustomerInfo.Email,
			Line1:      req.CustomerInfo.Line1,
			Line2:      req.CustomerInfo.Line2,
			City:       req.CustomerInfo.City,
			State:      req.CustomerInfo.State,
			PostalCode: req.CustomerInfo.PostalCode,
		}
	}

	result, err := h.provision.Handle(r.Context(), cmd)
	if err != nil {
		h.writeSubscriptionError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"subscription": map[string]any{
			"id":          result.SubscriptionID.String(),
			"customerId":  result.CustomerID.String(),
			"planId":      result.PlanID.String(),
			"frequency":   result.Frequency,
			"status":      result.Status,
			"amountCents": result.AmountCents,
		},
		"paymentUrl":  result.PaymentURL,
		"isRecurring": true,
	})
}

// Get handles GET /api/v1/subscriptions/{subscriptionID}.
func (h *SubscriptionHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := parseSubscriptionID(w, r)
	if !ok {
		return
	}
	view, err := h.getSubscription.Handle(r.Context(), billingQueries.GetSubscriptionQuery{SubscriptionID: id})
	if err != nil {
		h.writeSubscriptionError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

// Pause handles POST /api/v1/subscriptions/{subscriptionID}/pause.
func (h *SubscriptionHandler) Pause(w http.ResponseWriter, r *http.Request) {
	id, ok := parseSubscriptionID(w, r)
	if !ok {
		return
	}
	err := h.pause.Handle(r.Context(), billingCommands.PauseSubscriptionCommand{
		SubscriptionID: id,
		Reason:         decodeReason(r),
	})
	if err != nil {
		h.writeSubscriptionError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": string(subscription.StatusPaused)})
}

// Reactivate handles POST /api/v1/subscriptions/{subscriptionID}/reactivate.
func (h *SubscriptionHandler) Reactivate(w http.ResponseWriter, r *http.Request) {
	id, ok := parseSubscriptionID(w, r)
	if !ok {
		return
	}
	if err := h.reactivate.Handle(r.Context(), billingCommands.ReactivateSubscriptionCommand{SubscriptionID: id}); err != nil {
		h.writeSubscriptionError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": string(subscription.StatusActive)})
}

// Cancel handles POST /api/v1/subscriptions/{subscriptionID}/cancel.
func (h *SubscriptionHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	id, ok := parseSubscriptionID(w, r)
	if !ok {
		return
	}
	err := h.cancel.Handle(r.Context(), billingCommands.CancelSubscriptionCommand{
		SubscriptionID: id,
		Reason:         decodeReason(r),
	})
	if err != nil {
		h.writeSubscriptionError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": string(subscription.StatusCancelled)})
}

// ChangeFrequency handles PUT /api/v1/subscriptions/{subscriptionID}/frequency.
func (h *SubscriptionHandler) ChangeFrequency(w http.ResponseWriter, r *http.Request) {
	id, ok := parseSubscriptionID(w, r)
	if !ok {
		return
	}
	var body struct {
		Frequency string `json:"frequency"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil || body.Frequency == "" {
		writeError(w, http.StatusBadRequest, "missing_fields", "frequency is required", "")
		return
	}
	err := h.changeFrequency.Handle(r.Context(), billingCommands.ChangeFrequencyCommand{
		SubscriptionID: id,
		Frequency:      body.Frequency,
	})
	if err != nil {
		h.writeSubscriptionError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"frequency": body.Frequency})
}

// ChangePlan handles PUT /api/v1/subscriptions/{subscriptionID}/plan.
func (h *SubscriptionHandler) ChangePlan(w http.ResponseWriter, r *http.Request) {
	id, ok := parseSubscriptionID(w, r)
	if !ok {
		return
	}
	var body struct {
		PlanID    string `json:"planId"`
		Frequency string `json:"frequency,omitempty"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil || body.PlanID == "" {
		writeError(w, http.StatusBadRequest, "missing_fields", "planId is required", "")
		return
	}
	planID, err := uuid.Parse(body.PlanID)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_plan_id", "planId is not a valid id", "")
		return
	}
	err = h.changePlan.Handle(r.Context(), billingCommands.ChangePlanCommand{
		SubscriptionID: id,
		PlanID:         planID,
		Frequency:      body.Frequency,
	})
	if err != nil {
		h.writeSubscriptionError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"planId": body.PlanID})
}

// ListPlans handles GET /api/v1/plans.
func (h *SubscriptionHandler) ListPlans(w http.ResponseWriter, r *http.Request) {
	plans, err := h.listPlans.Handle(r.Context(), billingQueries.ListPlansQuery{})
	if err != nil {
		h.writeSubscriptionError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"plans": plans})
}

func parseSubscriptionID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(r.PathValue("subscriptionID"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_subscription_id", "subscription id is not valid", "")
		return uuid.Nil, false
	}
	return id, true
}

func decodeReason(r *http.Request) string {
	var body struct {
		Reason string `json:"reason"`
	}
	// A missing or empty body simply means no reason given.
	_ = json.NewDecoder(r.Body).Decode(&body)
	return body.Reason
}

func (h *SubscriptionHandler) writeSubscriptionError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, plan.ErrNotFound):
		writeError(w, http.StatusNotFound, "plan_not_found", "subscription plan not found", "")
	case errors.Is(err, subscription.ErrNotFound):
		writeError(w, http.StatusNotFound, "subscription_not_found", "subscription not found", "")
	case errors.Is(err, identityDomain.ErrCustomerNotFound):
		writeError(w, http.StatusNotFound, "customer_not_found", "customer not found", "")
	case errors.Is(err, billingCommands.ErrBelowMinimumAmount):
		writeError(w, http.StatusBadRequest, "amount_below_minimum", "plan price is below the minimum payable amount", err.Error())
	case errors.Is(err, subscription.ErrInvalidFrequency),
		errors.Is(err, subscription.ErrFrequencyNotOffered),
		errors.Is(err, identityDomain.ErrInvalidEmail):
		writeError(w, http.StatusBadRequest, "validation_error", err.Error(), "")
	case errors.Is(err, subscription.ErrCancelled),
		errors.Is(err, subscription.ErrNotActive),
		errors.Is(err, subscription.ErrNotPaused),
		errors.Is(err, subscription.ErrNotPending):
		writeError(w, http.StatusConflict, "invalid_state", err.Error(), "")
	default:
		if gwErr, ok := payments.AsGatewayError(err); ok {
			writeError(w, http.StatusInternalServerError, "gateway_error", "payment gateway request failed", gwErr.Message)
			return
		}
		h.logger.Error("subscription request failed", "error", err)
		writeError(w, http.StatusInternalServerError, "internal_error", "request failed", "")
	}
}
