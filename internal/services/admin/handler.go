package admin

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
	return &Handler{service: service, secret: jwtSecret, log: logger.New("admin-service")}
}

func (h *Handler) Register(r *mux.Router) {
	r.HandleFunc("/api/login", h.Login).Methods(http.MethodPost)

	// public catalog reads for the ordering page
	r.HandleFunc("/api/restaurants/{id:[0-9]+}", h.GetRestaurant).Methods(http.MethodGet)
	r.HandleFunc("/api/restaurants/{id:[0-9]+}/categories", h.ListCategories).Methods(http.MethodGet)
	r.HandleFunc("/api/restaurants/{id:[0-9]+}/menu", h.ListMenuItems).Methods(http.MethodGet)

	adm := r.PathPrefix("/api/admin").Subrouter()
	adm.Use(middleware.RequireAuth(h.secret), middleware.RequireAdmin)

	adm.HandleFunc("/restaurants", h.CreateRestaurant).Methods(http.MethodPost)
	adm.HandleFunc("/restaurants", h.ListRestaurants).Methods(http.MethodGet)
	adm.HandleFunc("/restaurants/{id:[0-9]+}", h.UpdateRestaurant).Methods(http.MethodPut)
	adm.HandleFunc("/restaurants/{id:[0-9]+}", h.DeleteRestaurant).Methods(http.MethodDelete)

	adm.HandleFunc("/categories", h.CreateCategory).Methods(http.MethodPost)
	adm.HandleFunc("/categories/{id:[0-9]+}", h.UpdateCategory).Methods(http.MethodPut)
	adm.HandleFunc("/categories/{id:[0-9]+}", h.DeleteCategory).Methods(http.MethodDelete)

	adm.HandleFunc("/items", h.CreateMenuItem).Methods(http.MethodPost)
	adm.HandleFunc("/items/{id:[0-9]+}", h.UpdateMenuItem).Methods(http.MethodPut)
	adm.HandleFunc("/items/{id:[0-9]+}", h.DeleteMenuItem).Methods(http.MethodDelete)

	adm.HandleFunc("/tables", h.CreateTable).Methods(http.MethodPost)
	adm.HandleFunc("/restaurants/{id:[0-9]+}/tables", h.ListTables).Methods(http.MethodGet)
	adm.HandleFunc("/tables/{id:[0-9]+}", h.DeleteTable).Methods(http.MethodDelete)

	adm.HandleFunc("/users", h.CreateUser).Methods(http.MethodPost)
	adm.HandleFunc("/users", h.ListUsers).Methods(http.MethodGet)
	adm.HandleFunc("/users/{id:[0-9]+}", h.DeleteUser).Methods(http.MethodDelete)
}

func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req domain.LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	out, err := h.service.Login(r.Context(), req)
	if err != nil {
		if errors.Is(err, ErrInvalidCredentials) {
			writeError(w, http.StatusUnauthorized, err.Error())
			return
		}
		h.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *Handler) CreateRestaurant(w http.ResponseWriter, r *http.Request) {
	var in domain.Restaurant
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	out, err := h.service.CreateRestaurant(r.Context(), in)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, out)
}

func (h *Handler) GetRestaurant(w http.ResponseWriter, r *http.Request) {
	id, _ := strconv.Atoi(mux.Vars(r)["id"])
	out, err := h.service.GetRestaurant(r.Context(), id)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *Handler) ListRestaurants(w http.ResponseWriter, r *http.Request) {
	out, err := h.service.ListRestaurants(r.Context())
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *Handler) UpdateRestaurant(w http.ResponseWriter, r *http.Request) {
	var in domain.Restaurant
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	in.ID, _ = strconv.Atoi(mux.Vars(r)["id"])
	out, err := h.service.UpdateRestaurant(r.Context(), in)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *Handler) DeleteRestaurant(w http.ResponseWriter, r *http.Request) {
	id, _ := strconv.Atoi(mux.Vars(r)["id"])
	if err := h.service.DeleteRestaurant(r.Context(), id); err != nil {
		h.writeServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) CreateCategory(w http.ResponseWriter, r *http.Request) {
	var in domain.Category
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	out, err := h.service.CreateCategory(r.Context(), in)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, out)
}

func (h *Handler) ListCategories(w http.ResponseWriter, r *http.Request) {
	id, _ := strconv.Atoi(mux.Vars(r)["id"])
	out, err := h.service.ListCategories(r.Context(), id)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *Handler) UpdateCategory(w http.ResponseWriter, r *http.Request) {
	var in domain.Category
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	in.ID, _ = strconv.Atoi(mux.Vars(r)["id"])
	out, err := h.service.UpdateCategory(r.Context(), in)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *Handler) DeleteCategory(w http.ResponseWriter, r *http.Request) {
	id, _ := strconv.Atoi(mux.Vars(r)["id"])
	if err := h.service.DeleteCategory(r.Context(), id); err != nil {
		h.writeServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) CreateMenuItem(w http.ResponseWriter, r *http.Request) {
	var in domain.MenuItem
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	out, err := h.service.CreateMenuItem(r.Context(), in)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, out)
}

func (h *Handler) ListMenuItems(w http.ResponseWriter, r *http.Request) {
	id, _ := strconv.Atoi(mux.Vars(r)["id"])
	out, err := h.service.ListMenuItems(r.Context(), id)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *Handler) UpdateMenuItem(w http.ResponseWriter, r *http.Request) {
	var in domain.MenuItem
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	in.ID, _ = strconv.Atoi(mux.Vars(r)["id"])
	out, err := h.service.UpdateMenuItem(r.Context(), in)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *Handler) DeleteMenuItem(w http.ResponseWriter, r *http.Request) {
	id, _ := strconv.Atoi(mux.Vars(r)["id"])
	if err := h.service.DeleteMenuItem(r.Context(), id); err != nil {
		h.writeServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) CreateTable(w http.ResponseWriter, r *http.Request) {
	var in domain.Table
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	out, err := h.service.CreateTable(r.Context(), in)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, out)
}

func (h *Handler) ListTables(w http.ResponseWriter, r *http.Request) {
	id, _ := strconv.Atoi(mux.Vars(r)["id"])
	out, err := h.service.ListTables(r.Context(), id)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *Handler) DeleteTable(w http.ResponseWriter, r *http.Request) {
	id, _ := strconv.Atoi(mux.Vars(r)["id"])
	if err := h.service.DeleteTable(r.Context(), id); err != nil {
		h.writeServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) CreateUser(w http.ResponseWriter, r *http.Request) {
	var req CreateUserRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	out, err := h.service.CreateUser(r.Context(), req)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, out)
}

func (h *Handler) ListUsers(w http.ResponseWriter, r *http.Request) {
	restaurantID, _ := strconv.Atoi(r.URL.Query().Get("restaurant_id"))
	out, err := h.service.ListUsers(r.Context(), restaurantID)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *Handler) DeleteUser(w http.ResponseWriter, r *http.Request) {
	id, _ := strconv.Atoi(mux.Vars(r)["id"])
	if err := h.service.DeleteUser(r.Context(), id); err != nil {
		h.writeServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) writeServiceError(w http.ResponseWriter, err error) {
	var ve ValidationError
	switch {
	case errors.As(err, &ve):
		writeError(w, http.StatusUnprocessableEntity, ve.Message)
	case errors.Is(err, ErrNotFound):
		writeError(w, http.StatusNotFound, "not found")
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
