package api

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	orderingCommands "github.com/martinvega/vinoteca/internal/ordering/application/commands"
	orderingQueries "github.com/martinvega/vinoteca/internal/ordering/application/queries"
)

func newOrderFixture() (*OrderHandler, *memOrderRepo) {
	orders := newMemOrderRepo()
	handler := NewOrderHandler(
		orderingCommands.NewCreateOrderHandler(orders, nullOutbox{}, noopUnitOfWork{}),
		orderingQueries.NewGetOrderHandler(orders),
		nil,
	)
	return handler, orders
}

func TestOrderHandler_Create(t *testing.T) {
	t.Run("creates a pending order with item snapshots", func(t *testing.T) {
		handler, orders := newOrderFixture()

		body, err := json.Marshal(map[string]any{
			"customerId":    uuid.New().String(),
			"shippingCents": 500,
			"items": []map[string]any{
				{"productId": uuid.New().String(), "name": "Malbec Reserva", "quantity": 2, "unitPriceCents": 3000},
				{"productId": uuid.New().String(), "name": "Torrontes", "quantity": 1, "unitPriceCents": 2500},
			},
		})
		require.NoError(t, err)

		req := httptest.NewRequest(http.MethodPost, "/api/v1/orders", bytes.NewBuffer(body))
		w := httptest.NewRecorder()
		handler.Create(w, req)

		require.Equal(t, http.StatusCreated, w.Code)
		var resp map[string]string
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.Equal(t, "pending", resp["status"])

		orderID := uuid.MustParse(resp["orderId"])
		stored := orders.orders[orderID]
		require.NotNil(t, stored)
		assert.Equal(t, int64(8500), stored.SubtotalCents())
		assert.Equal(t, int64(9000), stored.TotalCents())
	})

	t.Run("rejects an order without items", func(t *testing.T) {
		handler, _ := newOrderFixture()

		body, err := json.Marshal(map[string]any{"customerId": uuid.New().String()})
		require.NoError(t, err)

		req := httptest.NewRequest(http.MethodPost, "/api/v1/orders", bytes.NewBuffer(body))
		w := httptest.NewRecorder()
		handler.Create(w, req)

		require.Equal(t, http.StatusBadRequest, w.Code)
		var resp map[string]string
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.Equal(t, "validation_error", resp["code"])
	})

	t.Run("rejects a malformed customer id", func(t *testing.T) {
		handler, _ := newOrderFixture()

		req := httptest.NewRequest(http.MethodPost, "/api/v1/orders", bytes.NewBufferString(`{"customerId":"nope"}`))
		w := httptest.NewRecorder()
		handler.Create(w, req)

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestOrderHandler_Get(t *testing.T) {
	t.Run("answers the order view", func(t *testing.T) {
		handler, _ := newOrderFixture()

		body, err := json.Marshal(map[string]any{
			"customerId":    uuid.New().String(),
			"shippingCents": 0,
			"items": []map[string]any{
				{"productId": uuid.New().String(), "name": "Malbec Reserva", "quantity": 1, "unitPriceCents": 3000},
			},
		})
		require.NoError(t, err)

		req := httptest.NewRequest(http.MethodPost, "/api/v1/orders", bytes.NewBuffer(body))
		w := httptest.NewRecorder()
		handler.Create(w, req)
		require.Equal(t, http.StatusCreated, w.Code)

		var created map[string]string
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))

		getReq := httptest.NewRequest(http.MethodGet, "/api/v1/orders/x", nil)
		getReq.SetPathValue("orderID", created["orderId"])
		getW := httptest.NewRecorder()
		handler.Get(getW, getReq)

		require.Equal(t, http.StatusOK, getW.Code)
		var view orderingQueries.OrderView
		require.NoError(t, json.Unmarshal(getW.Body.Bytes(), &view))
		assert.Equal(t, "pending", view.Status)
		assert.Equal(t, int64(3000), view.TotalCents)
		require.Len(t, view.Items, 1)
		assert.Equal(t, "Malbec Reserva", view.Items[0].Name)
	})

	t.Run("unknown order answers 404", func(t *testing.T) {
		handler, _ := newOrderFixture()

		req := httptest.NewRequest(http.MethodGet, "/api/v1/orders/x", nil)
		req.SetPathValue("orderID", uuid.New().String())
		w := httptest.NewRecorder()
		handler.Get(w, req)

		assert.Equal(t, http.StatusNotFound, w.Code)
	})
}
