// Package httpx holds the JSON response helpers shared by the HTTP handlers.
package httpx

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/joao-fontenele/springbucks/internal/money"
	"github.com/joao-fontenele/springbucks/internal/storage"
)

func WriteJSON(w http.ResponseWriter, logger *slog.Logger, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		logger.Error("failed to encode response", "error", err)
	}
}

func WriteError(w http.ResponseWriter, logger *slog.Logger, status int, message string) {
	WriteJSON(w, logger, status, map[string]string{"error": message})
}

// WriteStorageError maps gateway errors onto status codes. Driver details
// only reach the log; unknown errors are reported as 500.
func WriteStorageError(w http.ResponseWriter, logger *slog.Logger, err error, msg string, args ...any) {
	switch {
	case errors.Is(err, storage.ErrNotFound):
		WriteError(w, logger, http.StatusNotFound, "not found")
	case errors.Is(err, storage.ErrConstraintViolation):
		logger.Warn(msg, append(args, "error", err)...)
		WriteError(w, logger, http.StatusConflict, "request conflicts with stored data")
	case errors.Is(err, money.ErrConversion):
		WriteError(w, logger, http.StatusBadRequest, err.Error())
	case errors.Is(err, storage.ErrConnection):
		logger.Error(msg, append(args, "error", err)...)
		WriteError(w, logger, http.StatusServiceUnavailable, "database unavailable")
	default:
		logger.Error(msg, append(args, "error", err)...)
		WriteError(w, logger, http.StatusInternalServerError, "internal server error")
	}
}

// PathID parses the {id} path value.
func PathID(r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}
