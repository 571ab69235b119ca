package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/google/uuid"

	orderingCommands "github.com/martinvega/vinoteca/internal/ordering/application/commands"
	orderingQueries "github.com/martinvega/vinoteca/internal/ordering/application/queries"
	"github.com/martinvega/vinoteca/internal/ordering/domain/order"
)

// OrderHandler handles order API requests.
type OrderHandler struct {
	createOrder *orderingCommands.CreateOrderHandler
	getOrder    *orderingQueries.GetOrderHandler
	logger      *slog.Logger
}

// NewOrderHandler creates a new order handler.
func NewOrderHandler(createOrder *orderingCommands.CreateOrderHandler, getOrder *orderingQueries.GetOrderHandler, logger *slog.Logger) *OrderHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &OrderHandler{createOrder: createOrder, getOrder: getOrder, logger: logger}
}

type createOrderRequest struct {
	CustomerID    string `json:"customerId"`
	ShippingCents int64  `json:"shippingCents"`
	Items         []struct {
		ProductID      string `json:"productId"`
		Name           string `json:"name"`
		Quantity       int    `json:"quantity"`
		UnitPriceCents int64  `json:"unitPriceCents"`
	} `json:"items"`
}

// Create handles POST /api/v1/orders.
func (h *OrderHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createOrderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_body", "request body is not valid JSON", err.Error())
		return
	}

	customerID, err := uuid.Parse(req.CustomerID)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_customer_id", "customerId is not a valid id", "")
		return
	}

	cmd := orderingCommands.CreateOrderCommand{
		CustomerID:    customerID,
		ShippingCents: req.ShippingCents,
	}
	for _, it := range req.Items {
		productID, err := uuid.Parse(it.ProductID)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_product_id", "productId is not a valid id", "")
			return
		}
		cmd.Items = append(cmd.Items, orderingCommands.CreateOrderItem{
			ProductID:      productID,
			Name:           it.Name,
			Quantity:       it.Quantity,
			UnitPriceCents: it.UnitPriceCents,
		})
	}

	orderID, err := h.createOrder.Handle(r.Context(), cmd)
	if err != nil {
		h.writeOrderError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, map[string]string{
		"orderId": orderID.String(),
		"status":  string(order.StatusPending),
	})
}

// Get handles GET /api/v1/orders/{orderID}.
func (h *OrderHandler) Get(w http.ResponseWriter, r *http.Request) {
	orderID, err := uuid.Parse(r.PathValue("orderID"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_order_id", "order id is not valid", "")
		return
	}

	view, err := h.getOrder.Handle(r.Context(), orderingQueries.GetOrderQuery{OrderID: orderID})
	if err != nil {
		h.writeOrderError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

func (h *OrderHandler) writeOrderError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, order.ErrNotFound):
		writeError(w, http.StatusNotFound, "order_not_found", "order not found", "")
	case errors.Is(err, order.ErrNoItems), errors.Is(err, order.ErrInvalidItem):
		writeError(w, http.StatusBadRequest, "validation_error", err.Error(), "")
	default:
		h.logger.Error("order request failed", "error", err)
		writeError(w, http.StatusInternalServerError, "internal_error", "request failed", "")
	}
}
