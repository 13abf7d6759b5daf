package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"car-fleet/internal/common/contextx"
	"car-fleet/internal/common/log"
	"car-fleet/internal/fleet/domain"
)

type carRequest struct {
	DriverID *int64 `json:"driver_id"`
}

type positionRequest struct {
	Latitude  *float64 `json:"latitude"`
	Longitude *float64 `json:"longitude"`
}

type driverRequest struct {
	Name string `json:"name"`
}

// -------------------- ERROR HANDLING --------------------

func (h *Handler) handleAppError(ctx context.Context, w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrCarNotFound):
		writeJSONError(ctx, w, http.StatusNotFound, "Car not found")
	case errors.Is(err, domain.ErrDriverNotFound):
		writeJSONError(ctx, w, http.StatusBadRequest, "Driver not found")
	case errors.Is(err, domain.ErrDuplicatePlate):
		writeJSONError(ctx, w, http.StatusBadRequest, "Car already exists")
	case errors.Is(err, domain.ErrAssignmentMismatch):
		writeJSONError(ctx, w, http.StatusNotFound, "This assignment does not exist")
	case errors.Is(err, domain.ErrInvalidCoordinates):
		writeJSONError(ctx, w, http.StatusBadRequest, "Invalid latitude or longitude")
	case errors.Is(err, domain.ErrInvalidPlate):
		writeJSONError(ctx, w, http.StatusBadRequest, "Invalid license plate")
	case errors.Is(err, domain.ErrInvalidDriverName):
		writeJSONError(ctx, w, http.StatusBadRequest, "Invalid driver name")
	default:
		log.Error(ctx, h.logger, "internal_error", "Unhandled application error", err)
		writeJSONError(ctx, w, http.StatusInternalServerError, "internal server error")
	}
}

// -------------------- RESPONSE HELPERS --------------------

func writeJSONError(ctx context.Context, w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	resp := map[string]any{
		"error":      message,
		"code":       status,
		"request_id": contextx.GetRequestID(ctx),
		"timestamp":  time.Now().UTC().Format(time.RFC3339),
	}
	_ = json.NewEncoder(w).Encode(resp)
}

func writeJSONInfo(ctx context.Context, w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
