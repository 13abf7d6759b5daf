package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"car-fleet/internal/common/contextx"
	"car-fleet/internal/common/log"
	"car-fleet/internal/fleet/adapters/ws"
	"car-fleet/internal/fleet/app"
	"car-fleet/internal/fleet/domain"
)

type Handler struct {
	fleet      *app.FleetService
	assignment *app.DriverAssignmentService
	ingestion  *app.PositionIngestionService
	feed       *ws.FeedHandler
	logger     *slog.Logger
}

// NewHandler constructs the API handler over the three application
// services plus the live-feed upgrader.
func NewHandler(
	fleet *app.FleetService,
	assignment *app.DriverAssignmentService,
	ingestion *app.PositionIngestionService,
	feed *ws.FeedHandler,
	logger *slog.Logger,
) *Handler {
	return &Handler{
		fleet:      fleet,
		assignment: assignment,
		ingestion:  ingestion,
		feed:       feed,
		logger:     logger,
	}
}

func (h *Handler) Router() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/cars", h.handleListCars)
	mux.HandleFunc("/car/", h.carPrefixHandler)
	mux.HandleFunc("/drivers", h.handleCreateDriver)
	mux.HandleFunc("/driver/", h.handleGetDriver)
	if h.feed != nil {
		mux.HandleFunc("/ws/positions", h.feed.HandlePositionsWS)
	}
	return mux
}

func (h *Handler) handleListCars(w http.ResponseWriter, r *http.Request) {
	ctx := contextx.WithNewRequestID(r.Context())
	if r.Method != http.MethodGet {
		writeJSONError(ctx, w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	cars, err := h.fleet.ListCars(ctx)
	if err != nil {
		h.handleAppError(ctx, w, err)
		return
	}
	writeJSONInfo(ctx, w, http.StatusOK, map[string]any{"cars": cars})
}

func (h *Handler) carPrefixHandler(w http.ResponseWriter, r *http.Request) {
	ctx := contextx.WithNewRequestID(r.Context())

	p := strings.TrimPrefix(r.URL.Path, "/car/")
	parts := strings.Split(p, "/")
	if parts[0] == "" {
		http.NotFound(w, r)
		return
	}

	plate := parts[0]
	ctx = contextx.WithPlate(ctx, plate)

	switch {
	case len(parts) == 1:
		h.handleCar(ctx, w, r, plate)
	case len(parts) == 2 && parts[1] == "position" && r.Method == http.MethodPost:
		h.handleIngestPosition(ctx, w, r, plate)
	case len(parts) == 2 && parts[1] == "positions" && r.Method == http.MethodGet:
		h.handleListPositions(ctx, w, plate)
	case len(parts) == 3 && parts[1] == "driver":
		driverID, err := strconv.ParseInt(parts[2], 10, 64)
		if err != nil {
			writeJSONError(ctx, w, http.StatusBadRequest, "driver id must be an integer")
			return
		}
		h.handleDriverAssignment(ctx, w, r, plate, driverID)
	default:
		http.NotFound(w, r)
	}
}

func (h *Handler) handleCar(ctx context.Context, w http.ResponseWriter, r *http.Request, plate string) {
	switch r.Method {
	case http.MethodGet:
		car, err := h.fleet.GetCar(ctx, plate)
		if err != nil {
			h.handleAppError(ctx, w, err)
			return
		}
		writeJSONInfo(ctx, w, http.StatusOK, car)

	case http.MethodPost:
		req, err := decodeCarRequest(r)
		if err != nil {
			writeJSONError(ctx, w, http.StatusBadRequest, "invalid JSON body")
			return
		}
		car, err := h.fleet.CreateCar(ctx, plate, req.DriverID)
		if err != nil {
			h.handleAppError(ctx, w, err)
			return
		}
		log.Info(ctx, h.logger, "car_created", fmt.Sprintf("car %d registered", car.ID))
		writeJSONInfo(ctx, w, http.StatusCreated, car)

	case http.MethodPut:
		req, err := decodeCarRequest(r)
		if err != nil {
			writeJSONError(ctx, w, http.StatusBadRequest, "invalid JSON body")
			return
		}
		car, err := h.fleet.UpdateCarDriver(ctx, plate, req.DriverID)
		if err != nil {
			h.handleAppError(ctx, w, err)
			return
		}
		writeJSONInfo(ctx, w, http.StatusOK, car)

	case http.MethodDelete:
		if err := h.fleet.DeleteCar(ctx, plate); err != nil {
			h.handleAppError(ctx, w, err)
			return
		}
		log.Info(ctx, h.logger, "car_deleted", "car and its positions removed")
		writeJSONInfo(ctx, w, http.StatusOK, map[string]any{"message": "Car deleted"})

	default:
		writeJSONError(ctx, w, http.StatusMethodNotAllowed, "method not allowed")
	}
}

func (h *Handler) handleIngestPosition(ctx context.Context, w http.ResponseWriter, r *http.Request, plate string) {
	start := time.Now()

	var req positionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Error(ctx, h.logger, "invalid_body", "Unable to decode request body", err)
		writeJSONError(ctx, w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	pos, err := h.ingestion.Ingest(ctx, plate, req.Latitude, req.Longitude, time.Now())
	if err != nil {
		h.handleAppError(ctx, w, err)
		return
	}

	writeJSONInfo(ctx, w, http.StatusCreated, pos)
	log.Info(ctx, h.logger, "position_ingested",
		fmt.Sprintf("position %d saved duration_ms=%d", pos.ID, time.Since(start).Milliseconds()))
}

func (h *Handler) handleListPositions(ctx context.Context, w http.ResponseWriter, plate string) {
	positions, err := h.ingestion.ListForCar(ctx, plate)
	if err != nil {
		h.handleAppError(ctx, w, err)
		return
	}
	writeJSONInfo(ctx, w, http.StatusOK, map[string]any{"positions": positions})
}

func (h *Handler) handleDriverAssignment(ctx context.Context, w http.ResponseWriter, r *http.Request, plate string, driverID int64) {
	switch r.Method {
	case http.MethodPost:
		car, err := h.assignment.Assign(ctx, plate, driverID)
		if err != nil {
			// an unknown driver on assignment addresses a missing
			// resource, unlike the 400 on car create/update
			if errors.Is(err, domain.ErrDriverNotFound) {
				writeJSONError(ctx, w, http.StatusNotFound, "Driver not found")
				return
			}
			h.handleAppError(ctx, w, err)
			return
		}
		log.Info(ctx, h.logger, "driver_assigned", fmt.Sprintf("driver %d assigned", driverID))
		writeJSONInfo(ctx, w, http.StatusOK, car)

	case http.MethodDelete:
		if err := h.assignment.Unassign(ctx, plate, driverID); err != nil {
			h.handleAppError(ctx, w, err)
			return
		}
		log.Info(ctx, h.logger, "driver_unassigned", fmt.Sprintf("driver %d unassigned", driverID))
		writeJSONInfo(ctx, w, http.StatusOK, map[string]any{"message": "Driver assignment deleted"})

	default:
		writeJSONError(ctx, w, http.StatusMethodNotAllowed, "method not allowed")
	}
}

func (h *Handler) handleCreateDriver(w http.ResponseWriter, r *http.Request) {
	ctx := contextx.WithNewRequestID(r.Context())
	if r.Method != http.MethodPost {
		writeJSONError(ctx, w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	var req driverRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSONError(ctx, w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	driver, err := h.fleet.CreateDriver(ctx, req.Name)
	if err != nil {
		h.handleAppError(ctx, w, err)
		return
	}
	writeJSONInfo(ctx, w, http.StatusCreated, driver)
}

func (h *Handler) handleGetDriver(w http.ResponseWriter, r *http.Request) {
	ctx := contextx.WithNewRequestID(r.Context())
	if r.Method != http.MethodGet {
		writeJSONError(ctx, w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	idStr := strings.TrimPrefix(r.URL.Path, "/driver/")
	id, err := strconv.ParseInt(idStr, 10, 64)
	if err != nil {
		writeJSONError(ctx, w, http.StatusBadRequest, "driver id must be an integer")
		return
	}

	driver, err := h.fleet.GetDriver(ctx, id)
	if err != nil {
		if errors.Is(err, domain.ErrDriverNotFound) {
			writeJSONError(ctx, w, http.StatusNotFound, "Driver not found")
			return
		}
		h.handleAppError(ctx, w, err)
		return
	}
	writeJSONInfo(ctx, w, http.StatusOK, driver)
}

// decodeCarRequest tolerates an empty body: registering a car without
// a driver needs no payload.
func decodeCarRequest(r *http.Request) (carRequest, error) {
	var req carRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && err != io.EOF {
		return carRequest{}, err
	}
	return req, nil
}
