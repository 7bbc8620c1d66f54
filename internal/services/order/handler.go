package order

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"tableside/internal/common/logger"
	"tableside/internal/domain"
	"tableside/internal/middleware"
)

type Handler struct {
	service *Service
	secret  []byte
	log     *logger.Logger
}

func NewHandler(service *Service, jwtSecret []byte) *Handler {
	return &Handler{service: service, secret: jwtSecret, log: logger.New("order-service")}
}

func (h *Handler) Register(r *mux.Router) {
	r.HandleFunc("/api/orders", h.CreateOrder).Methods(http.MethodPost)
	r.HandleFunc("/api/orders", h.ListOrders).Methods(http.MethodGet)
	r.HandleFunc("/api/orders/{id:[0-9]+}", h.GetOrder).Methods(http.MethodGet)
	r.HandleFunc("/api/stats", h.Stats).Methods(http.MethodGet)
	r.HandleFunc("/api/restaurants/{id:[0-9]+}/tables/{number}/availability",
		h.TableAvailability).Methods(http.MethodGet)

	// status transitions are staff-only
	staff := r.PathPrefix("/api/orders").Subrouter()
	staff.Use(middleware.RequireAuth(h.secret))
	staff.HandleFunc("/{id:[0-9]+}", h.UpdateStatus).Methods(http.MethodPatch)
}

func (h *Handler) CreateOrder(w http.ResponseWriter, r *http.Request) {
	var req domain.SubmitOrderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	order, err := h.service.Create(r.Context(), req)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, order)
}

func (h *Handler) ListOrders(w http.ResponseWriter, r *http.Request) {
	var f domain.OrderFilter
	q := r.URL.Query()
	if v := q.Get("restaurant_id"); v != "" {
		id, err := strconv.Atoi(v)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid restaurant_id")
			return
		}
		f.RestaurantID = &id
	}
	if v := q.Get("status"); v != "" {
		st := domain.OrderStatus(v)
		f.Status = &st
	}
	f.Page, _ = strconv.Atoi(q.Get("page"))
	f.PerPage, _ = strconv.Atoi(q.Get("per_page"))

	page, err := h.service.List(r.Context(), f)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, page)
}

func (h *Handler) GetOrder(w http.ResponseWriter, r *http.Request) {
	id, _ := strconv.Atoi(mux.Vars(r)["id"])
	order, err := h.service.Get(r.Context(), id)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, order)
}

func (h *Handler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	id, _ := strconv.Atoi(mux.Vars(r)["id"])
	var req domain.UpdateStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	changedBy := "staff"
	if claims, ok := middleware.ClaimsFrom(r.Context()); ok {
		changedBy = claims.Email
	}
	order, err := h.service.UpdateStatus(r.Context(), id, req.Status, changedBy)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, order)
}

func (h *Handler) Stats(w http.ResponseWriter, r *http.Request) {
	restaurantID, _ := strconv.Atoi(r.URL.Query().Get("restaurant_id"))
	stats, err := h.service.Stats(r.Context(), restaurantID)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

func (h *Handler) TableAvailability(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	restaurantID, _ := strconv.Atoi(vars["id"])
	out, err := h.service.TableAvailable(r.Context(), restaurantID, vars["number"])
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *Handler) writeServiceError(w http.ResponseWriter, err error) {
	var ve ValidationError
	switch {
	case errors.As(err, &ve):
		writeError(w, http.StatusUnprocessableEntity, ve.Message)
	case errors.Is(err, ErrNotFound):
		writeError(w, http.StatusNotFound, "order not found")
	case errors.Is(err, ErrIllegalTransition):
		writeError(w, http.StatusConflict, err.Error())
	default:
		h.log.Error("request_failed", err, nil)
		writeError(w, http.StatusInternalServerError, "internal server error")
	}
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, code int, msg string) {
	writeJSON(w, code, domain.ErrorResponse{Message: msg})
}
