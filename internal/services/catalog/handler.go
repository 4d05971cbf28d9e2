package catalog

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"soulkitchen/internal/logger"
)

// Handler serves the public catalog endpoints
type Handler struct {
	store  *Store
	logger *logger.Logger
}

// NewHandler creates a new catalog handler
func NewHandler(store *Store, log *logger.Logger) *Handler {
	return &Handler{
		store:  store,
		logger: log,
	}
}

// Routes mounts the catalog endpoints. No auth: the menu is public.
func (h *Handler) Routes(r chi.Router) {
	r.Get("/categories", h.GetCategories)
	r.Get("/menu", h.GetMenuItems)
}

// GetCategories handles GET /api/categories
func (h *Handler) GetCategories(w http.ResponseWriter, r *http.Request) {
	requestID := logger.GenerateRequestID()

	categories, err := h.store.Categories(r.Context())
	if err != nil {
		h.logger.Error("catalog_query_failed", "Failed to load categories", requestID, err, nil)
		h.writeErrorResponse(w, http.StatusInternalServerError, "Internal server error", requestID)
		return
	}

	h.writeJSON(w, http.StatusOK, categories)
}

// GetMenuItems handles GET /api/menu?categoryId=
func (h *Handler) GetMenuItems(w http.ResponseWriter, r *http.Request) {
	requestID := logger.GenerateRequestID()

	categoryID := 0
	if raw := r.URL.Query().Get("categoryId"); raw != "" {
		id, err := strconv.Atoi(raw)
		if err != nil || id < 1 {
			h.writeErrorResponse(w, http.StatusBadRequest, "categoryId must be a positive integer", requestID)
			return
		}
		categoryID = id
	}

	items, err := h.store.MenuItems(r.Context(), categoryID)
	if err != nil {
		h.logger.Error("catalog_query_failed", "Failed to load menu items", requestID, err, map[string]interface{}{
			"category_id": categoryID,
		})
		h.writeErrorResponse(w, http.StatusInternalServerError, "Internal server error", requestID)
		return
	}

	h.writeJSON(w, http.StatusOK, items)
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
