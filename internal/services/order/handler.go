package order

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"soulkitchen/internal/auth"
	"soulkitchen/internal/logger"
	"soulkitchen/internal/models"
)

// Handler serves the authenticated order endpoints
type Handler struct {
	service *Service
	logger  *logger.Logger
}

// NewHandler creates a new order handler
func NewHandler(service *Service, log *logger.Logger) *Handler {
	return &Handler{
		service: service,
		logger:  log,
	}
}

// Routes mounts the order endpoints. The auth middleware runs before any
// of these, so a verified actor is always present on the context.
func (h *Handler) Routes(r chi.Router) {
	r.Post("/orders", h.CreateOrder)
	r.Get("/orders/my-orders", h.GetMyOrders)
	r.Get("/orders", h.GetAllOrders)
	r.Get("/orders/driver", h.GetDriverOrders)
	r.Get("/orders/{id}", h.GetOrderByID)
	r.Put("/orders/{id}", h.UpdateOrderStatus)
}

// CreateOrder handles POST /api/orders
func (h *Handler) CreateOrder(w http.ResponseWriter, r *http.Request) {
	requestID := logger.GenerateRequestID()

	actor, ok := auth.ActorFromContext(r.Context())
	if !ok {
		h.writeErrorResponse(w, http.StatusUnauthorized, "Authentication required", requestID)
		return
	}

	var req models.CreateOrderRequest
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&req); err != nil {
		h.logger.Error("validation_failed", "Failed to parse request body", requestID, err, nil)
		h.writeErrorResponse(w, http.StatusBadRequest, "Invalid JSON format", requestID)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 30*time.Second)
	defer cancel()

	order, err := h.service.CreateOrder(ctx, actor, &req)
	if err != nil {
		h.writeError(w, err, requestID, "order_creation_failed", map[string]interface{}{
			"user_id": actor.ID,
		})
		return
	}

	h.logger.Info("order_created", "Order created", requestID, map[string]interface{}{
		"order_id":     order.ID,
		"user_id":      actor.ID,
		"total_amount": order.TotalAmount.StringFixed(2),
	})

	h.writeJSON(w, http.StatusCreated, order)
}

// GetMyOrders handles GET /api/orders/my-orders
func (h *Handler) GetMyOrders(w http.ResponseWriter, r *http.Request) {
	requestID := logger.GenerateRequestID()

	actor, ok := auth.ActorFromContext(r.Context())
	if !ok {
		h.writeErrorResponse(w, http.StatusUnauthorized, "Authentication required", requestID)
		return
	}

	orders, err := h.service.MyOrders(r.Context(), actor)
	if err != nil {
		h.writeError(w, err, requestID, "order_query_failed", map[string]interface{}{"user_id": actor.ID})
		return
	}

	h.writeJSON(w, http.StatusOK, orders)
}

// GetAllOrders handles GET /api/orders (kitchen view)
func (h *Handler) GetAllOrders(w http.ResponseWriter, r *http.Request) {
	requestID := logger.GenerateRequestID()

	actor, ok := auth.ActorFromContext(r.Context())
	if !ok {
		h.writeErrorResponse(w, http.StatusUnauthorized, "Authentication required", requestID)
		return
	}

	orders, err := h.service.AllOrders(r.Context(), actor)
	if err != nil {
		h.writeError(w, err, requestID, "order_query_failed", map[string]interface{}{"user_id": actor.ID})
		return
	}

	h.writeJSON(w, http.StatusOK, orders)
}

// GetDriverOrders handles GET /api/orders/driver
func (h *Handler) GetDriverOrders(w http.ResponseWriter, r *http.Request) {
	requestID := logger.GenerateRequestID()

	actor, ok := auth.ActorFromContext(r.Context())
	if !ok {
		h.writeErrorResponse(w, http.StatusUnauthorized, "Authentication required", requestID)
		return
	}

	orders, err := h.service.DriverOrders(r.Context(), actor)
	if err != nil {
		h.writeError(w, err, requestID, "order_query_failed", map[string]interface{}{"user_id": actor.ID})
		return
	}

	h.writeJSON(w, http.StatusOK, orders)
}

// GetOrderByID handles GET /api/orders/{id}
func (h *Handler) GetOrderByID(w http.ResponseWriter, r *http.Request) {
	requestID := logger.GenerateRequestID()

	actor, ok := auth.ActorFromContext(r.Context())
	if !ok {
		h.writeErrorResponse(w, http.StatusUnauthorized, "Authentication required", requestID)
		return
	}

	orderID, err := parseOrderID(r)
	if err != nil {
		h.writeErrorResponse(w, http.StatusBadRequest, "order id must be a positive integer", requestID)
		return
	}

	order, err := h.service.OrderByID(r.Context(), actor, orderID)
	if err != nil {
		h.writeError(w, err, requestID, "order_query_failed", map[string]interface{}{"order_id": orderID})
		return
	}

	h.writeJSON(w, http.StatusOK, order)
}

// UpdateOrderStatus handles PUT /api/orders/{id}
func (h *Handler) UpdateOrderStatus(w http.ResponseWriter, r *http.Request) {
	requestID := logger.GenerateRequestID()

	actor, ok := auth.ActorFromContext(r.Context())
	if !ok {
		h.writeErrorResponse(w, http.StatusUnauthorized, "Authentication required", requestID)
		return
	}

	orderID, err := parseOrderID(r)
	if err != nil {
		h.writeErrorResponse(w, http.StatusBadRequest, "order id must be a positive integer", requestID)
		return
	}

	var req models.UpdateStatusRequest
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&req); err != nil {
		h.logger.Error("validation_failed", "Failed to parse request body", requestID, err, nil)
		h.writeErrorResponse(w, http.StatusBadRequest, "Invalid JSON format", requestID)
		return
	}

	order, err := h.service.UpdateStatus(r.Context(), actor, orderID, req.Status)
	if err != nil {
		h.writeError(w, err, requestID, "status_update_failed", map[string]interface{}{
			"order_id": orderID,
			"status":   req.Status,
		})
		return
	}

	h.logger.Info("status_updated", "Order status updated", requestID, map[string]interface{}{
		"order_id": orderID,
		"status":   order.Status,
		"user_id":  actor.ID,
	})

	h.writeJSON(w, http.StatusOK, order)
}

func parseOrderID(r *http.Request) (int, error) {
	id, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil || id < 1 {
		return 0, errors.New("invalid order id")
	}
	return id, nil
}

// writeError maps a service error to its HTTP status code.
func (h *Handler) writeError(w http.ResponseWriter, err error, requestID, action string, fields map[string]interface{}) {
	var ve *models.ValidationError
	switch {
	case errors.As(err, &ve):
		h.writeErrorResponse(w, http.StatusBadRequest, ve.Error(), requestID)
	case errors.Is(err, models.ErrForbidden):
		h.writeErrorResponse(w, http.StatusForbidden, "Access denied", requestID)
	case errors.Is(err, models.ErrNotFound):
		h.writeErrorResponse(w, http.StatusNotFound, "Order not found", requestID)
	default:
		h.logger.Error(action, "Request failed", requestID, err, fields)
		h.writeErrorResponse(w, http.StatusInternalServerError, "Internal server error", requestID)
	}
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}

// writeErrorResponse writes an error response in JSON format
func (h *Handler) writeErrorResponse(w http.ResponseWriter, statusCode int, message, requestID string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)

	json.NewEncoder(w).Encode(map[string]interface{}{
		"error":      message,
		"timestamp":  time.Now().UTC().Format(time.RFC3339),
		"request_id": requestID,
	})
}
