package orders

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/joao-fontenele/springbucks/internal/domain"
	"github.com/joao-fontenele/springbucks/internal/httpx"
	"github.com/joao-fontenele/springbucks/internal/messaging"
	"github.com/joao-fontenele/springbucks/internal/storage"
)

type Handler struct {
	orders    storage.Gateway[domain.CoffeeOrder]
	coffees   storage.Gateway[domain.Coffee]
	publisher messaging.Publisher
	logger    *slog.Logger
}

func NewHandler(orders storage.Gateway[domain.CoffeeOrder], coffees storage.Gateway[domain.Coffee], publisher messaging.Publisher, logger *slog.Logger) *Handler {
	return &Handler{
		orders:    orders,
		coffees:   coffees,
		publisher: publisher,
		logger:    logger,
	}
}

type createOrderRequest struct {
	Customer  string  `json:"customer"`
	State     int     `json:"state"`
	CoffeeIDs []int64 `json:"coffee_ids"`
}

var errUnknownCoffee = errors.New("unknown coffee")

func (h *Handler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	var req createOrderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpx.WriteError(w, h.logger, http.StatusBadRequest, "invalid request body")
		return
	}

	items, err := h.lookupCoffees(r.Context(), req.CoffeeIDs)
	if errors.Is(err, errUnknownCoffee) {
		httpx.WriteError(w, h.logger, http.StatusUnprocessableEntity, err.Error())
		return
	}
	if err != nil {
		httpx.WriteStorageError(w, h.logger, err, "failed to load order items")
		return
	}

	order := domain.CoffeeOrder{
		Customer: req.Customer,
		State:    req.State,
		Items:    items,
	}
	if err := h.orders.Save(r.Context(), &order); err != nil {
		httpx.WriteStorageError(w, h.logger, err, "failed to create order", "customer", req.Customer)
		return
	}

	h.publish(r.Context(), order)

	h.logger.Info("order created", "order_id", order.ID, "customer", order.Customer, "items", len(order.Items))
	httpx.WriteJSON(w, h.logger, http.StatusCreated, order)
}

func (h *Handler) HandleGet(w http.ResponseWriter, r *http.Request) {
	id, ok := httpx.PathID(r)
	if !ok {
		httpx.WriteError(w, h.logger, http.StatusBadRequest, "invalid order id")
		return
	}

	order, err := h.orders.FindByID(r.Context(), id)
	if err != nil {
		httpx.WriteStorageError(w, h.logger, err, "failed to get order", "order_id", id)
		return
	}

	h.logger.Info("order retrieved", "order_id", order.ID)
	httpx.WriteJSON(w, h.logger, http.StatusOK, order)
}

func (h *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	orders := []domain.CoffeeOrder{}
	for o, err := range h.orders.FindAll(r.Context()) {
		if err != nil {
			httpx.WriteStorageError(w, h.logger, err, "failed to list orders")
			return
		}
		orders = append(orders, o)
	}

	h.logger.Info("orders listed", "count", len(orders))
	httpx.WriteJSON(w, h.logger, http.StatusOK, orders)
}

type updateStateRequest struct {
	State *int `json:"state"`
}

func (h *Handler) HandleUpdateState(w http.ResponseWriter, r *http.Request) {
	id, ok := httpx.PathID(r)
	if !ok {
		httpx.WriteError(w, h.logger, http.StatusBadRequest, "invalid order id")
		return
	}

	var req updateStateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.State == nil {
		httpx.WriteError(w, h.logger, http.StatusBadRequest, "invalid request body")
		return
	}

	order, err := h.orders.FindByID(r.Context(), id)
	if err != nil {
		httpx.WriteStorageError(w, h.logger, err, "failed to get order", "order_id", id)
		return
	}

	order.State = *req.State
	if err := h.orders.Save(r.Context(), &order); err != nil {
		httpx.WriteStorageError(w, h.logger, err, "failed to update order state", "order_id", id)
		return
	}

	h.publish(r.Context(), order)

	h.logger.Info("order state updated", "order_id", order.ID, "state", order.State)
	httpx.WriteJSON(w, h.logger, http.StatusOK, order)
}

// HandleRemoveItem drops every reference to one coffee from an order. This
// is the explicit cleanup a coffee delete requires.
func (h *Handler) HandleRemoveItem(w http.ResponseWriter, r *http.Request) {
	id, ok := httpx.PathID(r)
	if !ok {
		httpx.WriteError(w, h.logger, http.StatusBadRequest, "invalid order id")
		return
	}

	coffeeID, err := strconv.ParseInt(r.PathValue("coffeeId"), 10, 64)
	if err != nil {
		httpx.WriteError(w, h.logger, http.StatusBadRequest, "invalid coffee id")
		return
	}

	order, err := h.orders.FindByID(r.Context(), id)
	if err != nil {
		httpx.WriteStorageError(w, h.logger, err, "failed to get order", "order_id", id)
		return
	}

	order.Items = order.WithoutCoffee(coffeeID)
	if err := h.orders.Save(r.Context(), &order); err != nil {
		httpx.WriteStorageError(w, h.logger, err, "failed to update order items", "order_id", id)
		return
	}

	h.publish(r.Context(), order)

	h.logger.Info("order item removed", "order_id", order.ID, "coffee_id", coffeeID)
	httpx.WriteJSON(w, h.logger, http.StatusOK, order)
}

func (h *Handler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	id, ok := httpx.PathID(r)
	if !ok {
		httpx.WriteError(w, h.logger, http.StatusBadRequest, "invalid order id")
		return
	}

	if err := h.orders.DeleteByID(r.Context(), id); err != nil {
		httpx.WriteStorageError(w, h.logger, err, "failed to delete order", "order_id", id)
		return
	}

	h.logger.Info("order deleted", "order_id", id)
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) lookupCoffees(ctx context.Context, ids []int64) ([]domain.Coffee, error) {
	items := make([]domain.Coffee, 0, len(ids))
	for _, id := range ids {
		coffee, err := h.coffees.FindByID(ctx, id)
		if errors.Is(err, storage.ErrNotFound) {
			return nil, fmt.Errorf("%w: %d", errUnknownCoffee, id)
		}
		if err != nil {
			return nil, err
		}
		items = append(items, coffee)
	}
	return items, nil
}

func (h *Handler) publish(ctx context.Context, order domain.CoffeeOrder) {
	if h.publisher == nil {
		return
	}
	err := h.publisher.Publish(ctx, domain.TopicOrderSaved, strconv.FormatInt(order.ID, 10), domain.NewOrderSavedEvent(order))
	if err != nil {
		h.logger.Error("failed to publish order saved event", "error", err, "order_id", order.ID)
	}
}
