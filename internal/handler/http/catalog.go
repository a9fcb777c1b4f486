package http

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/localpro/marketplace/internal/domain"
	"github.com/localpro/marketplace/internal/repository"
	"github.com/localpro/marketplace/internal/service"
	"github.com/localpro/marketplace/pkg/httputil"
	"github.com/localpro/marketplace/pkg/validator"
)

// CatalogHandler handles HTTP requests for service listing endpoints.
type CatalogHandler struct {
	service *service.CatalogService
	logger  *slog.Logger
}

// NewCatalogHandler creates a new catalog HTTP handler.
func NewCatalogHandler(svc *service.CatalogService, logger *slog.Logger) *CatalogHandler {
	return &CatalogHandler{
		service: svc,
		logger:  logger,
	}
}

// --- Request DTOs ---

// AvailabilitySlotRequest is one weekly availability window.
type AvailabilitySlotRequest struct {
	Day       string `json:"day" validate:"required,oneof=monday tuesday wednesday thursday friday saturday sunday"`
	StartTime string `json:"start_time" validate:"required"`
	EndTime   string `json:"end_time" validate:"required"`
}

// CreateServiceRequest is the JSON request body for creating a listing.
type CreateServiceRequest struct {
	Title        string                    `json:"title" validate:"required,max=200"`
	Description  string                    `json:"description" validate:"max=5000"`
	Category     string                    `json:"category" validate:"required,max=100"`
	Price        int64                     `json:"price" validate:"gte=0"`
	PriceUnit    string                    `json:"price_unit" validate:"required,oneof=hourly fixed"`
	Duration     int                       `json:"duration" validate:"omitempty,gte=15"`
	City         string                    `json:"city" validate:"required,max=100"`
	Address      string                    `json:"address" validate:"max=500"`
	Images       []string                  `json:"images" validate:"omitempty,dive,url"`
	Availability []AvailabilitySlotRequest `json:"availability" validate:"omitempty,dive"`
}

// UpdateServiceRequest is the JSON request body for partially updating a listing.
type UpdateServiceRequest struct {
	Title        *string                   `json:"title" validate:"omitempty,max=200"`
	Description  *string                   `json:"description" validate:"omitempty,max=5000"`
	Category     *string                   `json:"category" validate:"omitempty,max=100"`
	Price        *int64                    `json:"price" validate:"omitempty,gte=0"`
	PriceUnit    *string                   `json:"price_unit" validate:"omitempty,oneof=hourly fixed"`
	Duration     *int                      `json:"duration" validate:"omitempty,gte=15"`
	City         *string                   `json:"city" validate:"omitempty,max=100"`
	Address      *string                   `json:"address" validate:"omitempty,max=500"`
	Images       []string                  `json:"images" validate:"omitempty,dive,url"`
	Availability []AvailabilitySlotRequest `json:"availability" validate:"omitempty,dive"`
}

func toAvailability(slots []AvailabilitySlotRequest) []domain.AvailabilitySlot {
	if slots == nil {
		return nil
	}
	availability := make([]domain.AvailabilitySlot, len(slots))
	for i, s := range slots {
		availability[i] = domain.AvailabilitySlot{
			Day:       s.Day,
			StartTime: s.StartTime,
			EndTime:   s.EndTime,
		}
	}
	return availability
}

// --- Handlers ---

// CreateService handles POST /api/v1/services
func (h *CatalogHandler) CreateService(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)

	var req CreateServiceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteJSON(w, http.StatusBadRequest, httputil.Fail(&httputil.ErrorResponse{
			Code: "INVALID_INPUT", Message: "invalid request body: " + err.Error(),
		}))
		return
	}

	if err := validator.Validate(req); err != nil {
		httputil.WriteValidationError(w, err)
		return
	}

	input := service.CreateServiceInput{
		Title:        req.Title,
		Description:  req.Description,
		Category:     req.Category,
		Price:        req.Price,
		PriceUnit:    req.PriceUnit,
		Duration:     req.Duration,
		City:         req.City,
		Address:      req.Address,
		Images:       req.Images,
		Availability: toAvailability(req.Availability),
	}

	svc, err := h.service.CreateService(r.Context(), actorFromRequest(r), input)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusCreated, httputil.OK(svc))
}

// ListServices handles GET /api/v1/services
func (h *CatalogHandler) ListServices(w http.ResponseWriter, r *http.Request) {
	page, perPage, ok := parsePagination(w, r)
	if !ok {
		return
	}

	filter := repository.ServiceFilter{Page: page, PerPage: perPage}

	q := r.URL.Query()
	if v := q.Get("category"); v != "" {
		filter.Category = &v
	}
	if v := q.Get("city"); v != "" {
		filter.City = &v
	}
	if v := q.Get("search"); v != "" {
		filter.Search = &v
	}
	if v := q.Get("provider_id"); v != "" {
		filter.ProviderID = &v
	}
	if v := q.Get("min_price"); v != "" {
		p, err := strconv.ParseInt(v, 10, 64)
		if err != nil || p < 0 {
			httputil.WriteJSON(w, http.StatusBadRequest, httputil.Fail(&httputil.ErrorResponse{
				Code: "INVALID_PARAMETER", Message: "min_price must be a non-negative integer",
			}))
			return
		}
		filter.MinPrice = &p
	}
	if v := q.Get("max_price"); v != "" {
		p, err := strconv.ParseInt(v, 10, 64)
		if err != nil || p < 0 {
			httputil.WriteJSON(w, http.StatusBadRequest, httputil.Fail(&httputil.ErrorResponse{
				Code: "INVALID_PARAMETER", Message: "max_price must be a non-negative integer",
			}))
			return
		}
		filter.MaxPrice = &p
	}

	services, total, err := h.service.ListServices(r.Context(), actorFromRequest(r), filter)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.OK(httputil.NewPaginatedResponse(services, total, page, perPage)))
}

// GetService handles GET /api/v1/services/{id}
func (h *CatalogHandler) GetService(w http.ResponseWriter, r *http.Request) {
	id, ok := httputil.ParseUUID(w, chi.URLParam(r, "id"))
	if !ok {
		return
	}

	detail, err := h.service.GetService(r.Context(), actorFromRequest(r), id.String())
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.OK(detail))
}

// UpdateService handles PUT /api/v1/services/{id}
func (h *CatalogHandler) UpdateService(w http.ResponseWriter, r *http.Request) {
	id, ok := httputil.ParseUUID(w, chi.URLParam(r, "id"))
	if !ok {
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)

	var req UpdateServiceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteJSON(w, http.StatusBadRequest, httputil.Fail(&httputil.ErrorResponse{
			Code: "INVALID_INPUT", Message: "invalid request body: " + err.Error(),
		}))
		return
	}

	if err := validator.Validate(req); err != nil {
		httputil.WriteValidationError(w, err)
		return
	}

	input := service.UpdateServiceInput{
		Title:        req.Title,
		Description:  req.Description,
		Category:     req.Category,
		Price:        req.Price,
		PriceUnit:    req.PriceUnit,
		Duration:     req.Duration,
		City:         req.City,
		Address:      req.Address,
		Images:       req.Images,
		Availability: toAvailability(req.Availability),
	}

	svc, err := h.service.UpdateService(r.Context(), actorFromRequest(r), id.String(), input)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.OK(svc))
}

// DeactivateService handles DELETE /api/v1/services/{id}
func (h *CatalogHandler) DeactivateService(w http.ResponseWriter, r *http.Request) {
	id, ok := httputil.ParseUUID(w, chi.URLParam(r, "id"))
	if !ok {
		return
	}

	if err := h.service.DeactivateService(r.Context(), actorFromRequest(r), id.String()); err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
