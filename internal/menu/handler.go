package menu

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/joao-fontenele/springbucks/internal/domain"
	"github.com/joao-fontenele/springbucks/internal/httpx"
	"github.com/joao-fontenele/springbucks/internal/messaging"
	"github.com/joao-fontenele/springbucks/internal/money"
	"github.com/joao-fontenele/springbucks/internal/storage"
)

type Handler struct {
	coffees   storage.Gateway[domain.Coffee]
	publisher messaging.Publisher
	logger    *slog.Logger
}

func NewHandler(coffees storage.Gateway[domain.Coffee], publisher messaging.Publisher, logger *slog.Logger) *Handler {
	return &Handler{
		coffees:   coffees,
		publisher: publisher,
		logger:    logger,
	}
}

type createCoffeeRequest struct {
	Name  string      `json:"name"`
	Price money.Money `json:"price"`
}

func (h *Handler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	var req createCoffeeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpx.WriteError(w, h.logger, http.StatusBadRequest, "invalid request body")
		return
	}

	if req.Name == "" {
		httpx.WriteError(w, h.logger, http.StatusBadRequest, "missing coffee name")
		return
	}

	coffee := domain.Coffee{Name: req.Name, Price: req.Price}
	if err := h.coffees.Save(r.Context(), &coffee); err != nil {
		httpx.WriteStorageError(w, h.logger, err, "failed to save coffee", "name", req.Name)
		return
	}

	h.publish(r.Context(), coffee)

	h.logger.Info("coffee created", "coffee", coffee)
	httpx.WriteJSON(w, h.logger, http.StatusCreated, coffee)
}

func (h *Handler) HandleGet(w http.ResponseWriter, r *http.Request) {
	id, ok := httpx.PathID(r)
	if !ok {
		httpx.WriteError(w, h.logger, http.StatusBadRequest, "invalid coffee id")
		return
	}

	coffee, err := h.coffees.FindByID(r.Context(), id)
	if err != nil {
		httpx.WriteStorageError(w, h.logger, err, "failed to get coffee", "coffee_id", id)
		return
	}

	httpx.WriteJSON(w, h.logger, http.StatusOK, coffee)
}

func (h *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	coffees := []domain.Coffee{}
	for c, err := range h.coffees.FindAll(r.Context()) {
		if err != nil {
			httpx.WriteStorageError(w, h.logger, err, "failed to list coffees")
			return
		}
		coffees = append(coffees, c)
	}

	h.logger.Info("coffees listed", "count", len(coffees))
	httpx.WriteJSON(w, h.logger, http.StatusOK, coffees)
}

// HandleDelete refuses to delete a coffee that an order still references;
// the order has to drop it first.
func (h *Handler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	id, ok := httpx.PathID(r)
	if !ok {
		httpx.WriteError(w, h.logger, http.StatusBadRequest, "invalid coffee id")
		return
	}

	err := h.coffees.DeleteByID(r.Context(), id)
	if errors.Is(err, storage.ErrConstraintViolation) {
		h.logger.Warn("coffee still referenced", "coffee_id", id, "error", err)
		httpx.WriteError(w, h.logger, http.StatusConflict, "coffee is still referenced by an order")
		return
	}
	if err != nil {
		httpx.WriteStorageError(w, h.logger, err, "failed to delete coffee", "coffee_id", id)
		return
	}

	h.logger.Info("coffee deleted", "coffee_id", id)
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) publish(ctx context.Context, coffee domain.Coffee) {
	if h.publisher == nil {
		return
	}
	err := h.publisher.Publish(ctx, domain.TopicCoffeeSaved, strconv.FormatInt(coffee.ID, 10), domain.NewCoffeeSavedEvent(coffee))
	if err != nil {
		h.logger.Error("failed to publish coffee saved event", "error", err, "coffee_id", coffee.ID)
	}
}
