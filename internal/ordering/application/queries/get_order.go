package queries

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/martinvega/vinoteca/internal/ordering/domain/order"
)

// OrderItemView is a read model line item.
type OrderItemView struct {
	ProductID      uuid.UUID `json:"product_id"`
	Name           string    `json:"name"`
	Quantity       int       `json:"quantity"`
	UnitPriceCents int64     `json:"unit_price_cents"`
}

// OrderView is the read model returned to API consumers.
type OrderView struct {
	ID            uuid.UUID       `json:"id"`
	CustomerID    uuid.UUID       `json:"customer_id"`
	Status        string          `json:"status"`
	Items         []OrderItemView `json:"items"`
	SubtotalCents int64           `json:"subtotal_cents"`
	ShippingCents int64           `json:"shipping_cents"`
	TotalCents    int64           `json:"total_cents"`
	Note          string          `json:"note,omitempty"`
	CreatedAt     time.Time       `json:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at"`
}

// GetOrderQuery fetches one order by id.
type GetOrderQuery struct {
	OrderID uuid.UUID
}

// GetOrderHandler serves order lookups.
type GetOrderHandler struct {
	orders order.Repository
}

func NewGetOrderHandler(orders order.Repository) *GetOrderHandler {
	return &GetOrderHandler{orders: orders}
}

func (h *GetOrderHandler) Handle(ctx context.Context, q GetOrderQuery) (OrderView, error) {
	o, err := h.orders.FindByID(ctx, q.OrderID)
	if err != nil {
		return OrderView{}, err
	}

	view := OrderView{
		ID:            o.ID(),
		CustomerID:    o.CustomerID(),
		Status:        string(o.Status()),
		SubtotalCents: o.SubtotalCents(),
		ShippingCents: o.ShippingCents(),
		TotalCents:    o.TotalCents(),
		Note:          o.Note(),
		CreatedAt:     o.CreatedAt(),
		UpdatedAt:     o.UpdatedAt(),
	}
	for _, it := range o.Items() {
		view.Items = append(view.Items, OrderItemView{
			ProductID:      it.ProductID,
			Name:           it.Name,
			Quantity:       it.Quantity,
			UnitPriceCents: it.UnitPriceCents,
		})
	}
	return view, nil
}
