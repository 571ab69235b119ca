package commands

import (
	"context"

	"github.com/google/uuid"

	"github.com/martinvega/vinoteca/internal/ordering/domain/order"
	sharedApplication "github.com/martinvega/vinoteca/internal/shared/application"
	"github.com/martinvega/vinoteca/internal/shared/infrastructure/outbox"
)

// CreateOrderItem is one requested line with its price snapshot.
type CreateOrderItem struct {
	ProductID      uuid.UUID
	Name           string
	Quantity       int
	UnitPriceCents int64
}

// CreateOrderCommand opens a pending order awaiting payment.
type CreateOrderCommand struct {
	CustomerID    uuid.UUID
	Items         []CreateOrderItem
	ShippingCents int64
}

// CreateOrderHandler persists new orders.
type CreateOrderHandler struct {
	orders     order.Repository
	outboxRepo outbox.Repository
	uow        sharedApplication.UnitOfWork
}

func NewCreateOrderHandler(orders order.Repository, outboxRepo outbox.Repository, uow sharedApplication.UnitOfWork) *CreateOrderHandler {
	return &CreateOrderHandler{orders: orders, outboxRepo: outboxRepo, uow: uow}
}

func (h *CreateOrderHandler) Handle(ctx context.Context, cmd CreateOrderCommand) (uuid.UUID, error) {
	items := make([]order.Item, 0, len(cmd.Items))
	for _, it := range cmd.Items {
		items = append(items, order.Item{
			ProductID:      it.ProductID,
			Name:           it.Name,
			Quantity:       it.Quantity,
			UnitPriceCents: it.UnitPriceCents,
		})
	}

	o, err := order.NewOrder(cmd.CustomerID, items, cmd.ShippingCents)
	if err != nil {
		return uuid.Nil, err
	}

	err = sharedApplication.WithUnitOfWork(ctx, h.uow, func(txCtx context.Context) error {
		if err := h.orders.Save(txCtx, o); err != nil {
			return err
		}
		msgs, err := outbox.MessagesFromEvents(o.DomainEvents())
		if err != nil {
			return err
		}
		if err := h.outboxRepo.SaveBatch(txCtx, msgs); err != nil {
			return err
		}
		o.ClearDomainEvents()
		return nil
	})
	if err != nil {
		return uuid.Nil, err
	}

	return o.ID(), nil
}
