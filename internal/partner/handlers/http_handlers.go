package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gartstein/partnerhub/internal/partner/comparison"
	"github.com/gartstein/partnerhub/internal/partner/controller"
	e "github.com/gartstein/partnerhub/internal/partner/errors"
	"github.com/gartstein/partnerhub/internal/partner/metrics"
	"github.com/gartstein/partnerhub/internal/partner/models"
	"github.com/gartstein/partnerhub/internal/partner/search"
	"github.com/gorilla/schema"
	"github.com/grpc-ecosystem/grpc-gateway/v2/runtime"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

const maxBodyBytes = 1 << 20

// PartnerController defines the partner operations the HTTP routes invoke.
type PartnerController interface {
	CreatePartner(ctx context.Context, raw models.RawPartner) (*models.Partner, error)
	GetPartner(ctx context.Context, id string) (*models.Partner, error)
	UpdatePartner(ctx context.Context, update *models.PartnerUpdate) (*models.Partner, error)
	DeletePartner(ctx context.Context, id string) error
	ListPartners(ctx context.Context, q search.Query) (search.Page, error)
	Stats(ctx context.Context) (models.Stats, error)
	ComparePartners(ctx context.Context, ids []string) []controller.ComparisonSlot
	PartnerMedia(ctx context.Context, id string) ([]models.Media, error)
	CreateMedia(ctx context.Context, media *models.Media) (*models.Media, error)
	ListMedia(ctx context.Context, filter models.MediaFilter) ([]models.Media, error)
}

// EngagementController defines the consultation and newsletter operations.
type EngagementController interface {
	SubmitConsultation(ctx context.Context, req *models.ConsultationRequest) (*models.ConsultationRequest, error)
	ListConsultations(ctx context.Context, filter models.ConsultationFilter) (*controller.ConsultationPage, error)
	Subscribe(ctx context.Context, email string) (*models.NewsletterSubscription, error)
}

// ComparisonSessions resolves the comparison selection of a session.
type ComparisonSessions interface {
	Manager(ctx context.Context, sessionID string) *comparison.Manager
}

var queryDecoder = schema.NewDecoder()

func init() {
	queryDecoder.IgnoreUnknownKeys(true)
}

// HTTPHandler serves the /v1 REST API.
type HTTPHandler struct {
	partners   PartnerController
	engagement EngagementController
	sessions   ComparisonSessions
	limiter    *IPRateLimiter
	logger     *zap.Logger
}

func NewHTTPHandler(
	partners PartnerController,
	engagement EngagementController,
	sessions ComparisonSessions,
	limiter *IPRateLimiter,
	logger *zap.Logger,
) *HTTPHandler {
	return &HTTPHandler{
		partners:   partners,
		engagement: engagement,
		sessions:   sessions,
		limiter:    limiter,
		logger:     logger.Named("http_handler"),
	}
}

// Routes builds the REST mux, including GET /metrics.
func (h *HTTPHandler) Routes() (http.Handler, error) {
	mux := runtime.NewServeMux()
	routes := []struct {
		method  string
		pattern string
		handler runtime.HandlerFunc
	}{
		{http.MethodGet, "/v1/partners", h.listPartners},
		{http.MethodPost, "/v1/partners", h.createPartner},
		{http.MethodGet, "/v1/partners/{id}", h.getPartner},
		{http.MethodPatch, "/v1/partners/{id}", h.updatePartner},
		{http.MethodDelete, "/v1/partners/{id}", h.deletePartner},
		{http.MethodGet, "/v1/partners/{id}/media", h.partnerMedia},
		{http.MethodGet, "/v1/stats", h.stats},
		{http.MethodGet, "/v1/media", h.listMedia},
		{http.MethodPost, "/v1/media", h.createMedia},
		{http.MethodGet, "/v1/directory", h.directory},
		{http.MethodGet, "/v1/compare", h.getComparison},
		{http.MethodPut, "/v1/compare", h.setComparison},
		{http.MethodPost, "/v1/compare/{id}", h.toggleComparison},
		{http.MethodDelete, "/v1/compare", h.clearComparison},
		{http.MethodPost, "/v1/consultations", h.limiter.Limit("/v1/consultations", h.submitConsultation)},
		{http.MethodGet, "/v1/consultations", h.listConsultations},
		{http.MethodPost, "/v1/newsletter", h.limiter.Limit("/v1/newsletter", h.subscribe)},
	}
	for _, rt := range routes {
		if err := mux.HandlePath(rt.method, rt.pattern, instrument(rt.method, rt.pattern, rt.handler)); err != nil {
			return nil, fmt.Errorf("failed to register %s %s: %w", rt.method, rt.pattern, err)
		}
	}

	promHandler := promhttp.Handler()
	if err := mux.HandlePath(http.MethodGet, "/metrics", func(w http.ResponseWriter, r *http.Request, _ map[string]string) {
		promHandler.ServeHTTP(w, r)
	}); err != nil {
		return nil, fmt.Errorf("failed to register metrics route: %w", err)
	}
	return mux, nil
}

func (h *HTTPHandler) listPartners(w http.ResponseWriter, r *http.Request, _ map[string]string) {
	params := h.listParams(r)
	page, err := h.partners.ListPartners(r.Context(), params.Query(nil))
	if err != nil {
		h.fail(w, "List partners failed", err)
		return
	}
	writeJSON(w, http.StatusOK, page)
}

func (h *HTTPHandler) createPartner(w http.ResponseWriter, r *http.Request, _ map[string]string) {
	var raw models.RawPartner
	if !decodeBody(w, r, &raw) {
		return
	}
	created, err := h.partners.CreatePartner(r.Context(), raw)
	if err != nil {
		h.fail(w, "Create partner failed", err)
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

func (h *HTTPHandler) getPartner(w http.ResponseWriter, r *http.Request, pathParams map[string]string) {
	partner, err := h.partners.GetPartner(r.Context(), pathParams["id"])
	if err != nil {
		h.fail(w, "Get partner failed", err)
		return
	}
	writeJSON(w, http.StatusOK, partner)
}

func (h *HTTPHandler) updatePartner(w http.ResponseWriter, r *http.Request, pathParams map[string]string) {
	var req partnerUpdateRequest
	if !decodeBody(w, r, &req) {
		return
	}
	updated, err := h.partners.UpdatePartner(r.Context(), updateToModel(pathParams["id"], req))
	if err != nil {
		h.fail(w, "Update partner failed", err)
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

func (h *HTTPHandler) deletePartner(w http.ResponseWriter, r *http.Request, pathParams map[string]string) {
	if err := h.partners.DeletePartner(r.Context(), pathParams["id"]); err != nil {
		h.fail(w, "Delete partner failed", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *HTTPHandler) partnerMedia(w http.ResponseWriter, r *http.Request, pathParams map[string]string) {
	media, err := h.partners.PartnerMedia(r.Context(), pathParams["id"])
	if err != nil {
		h.fail(w, "Get partner media failed", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"media": media})
}

func (h *HTTPHandler) stats(w http.ResponseWriter, r *http.Request, _ map[string]string) {
	stats, err := h.partners.Stats(r.Context())
	if err != nil {
		h.fail(w, "Stats failed", err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

func (h *HTTPHandler) listMedia(w http.ResponseWriter, r *http.Request, _ map[string]string) {
	var q mediaQuery
	if err := queryDecoder.Decode(&q, r.URL.Query()); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	media, err := h.partners.ListMedia(r.Context(), q.filter())
	if err != nil {
		h.fail(w, "List media failed", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"media": media})
}

func (h *HTTPHandler) createMedia(w http.ResponseWriter, r *http.Request, _ map[string]string) {
	var req mediaRequest
	if !decodeBody(w, r, &req) {
		return
	}
	created, err := h.partners.CreateMedia(r.Context(), mediaToModel(req))
	if err != nil {
		h.fail(w, "Create media failed", err)
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

type directoryResponse struct {
	Stats        models.Stats         `json:"stats"`
	Search       string               `json:"search"`
	Filters      models.FilterOptions `json:"filters"`
	Results      search.Page          `json:"results"`
	SelectedIDs  []string             `json:"selectedIds"`
	CompareLimit int                  `json:"compareLimit"`
}

// directory returns everything the directory page renders. A selectedIds
// parameter (from a shared link) replaces the session's comparison and is
// stripped from the URL with a 303 so reloads do not re-apply it.
func (h *HTTPHandler) directory(w http.ResponseWriter, r *http.Request, _ map[string]string) {
	ctx := r.Context()
	query := r.URL.Query()
	if query.Has("selectedIds") {
		mgr := h.sessions.Manager(ctx, sessionID(w, r))
		mgr.SeedFromQuery(ctx, query.Get("selectedIds"))
		query.Del("selectedIds")

		target := *r.URL
		target.RawQuery = query.Encode()
		http.Redirect(w, r, target.RequestURI(), http.StatusSeeOther)
		return
	}

	params := h.listParams(r)
	page, err := h.partners.ListPartners(ctx, params.Query(nil))
	if err != nil {
		h.fail(w, "Directory listing failed", err)
		return
	}
	stats, err := h.partners.Stats(ctx)
	if err != nil {
		h.fail(w, "Directory stats failed", err)
		return
	}
	mgr := h.sessions.Manager(ctx, sessionID(w, r))

	writeJSON(w, http.StatusOK, directoryResponse{
		Stats:        stats,
		Search:       params.Search,
		Filters:      params.Filters(),
		Results:      page,
		SelectedIDs:  mgr.Selection(),
		CompareLimit: comparison.Limit,
	})
}

type comparisonResponse struct {
	SelectedIDs []string                    `json:"selectedIds"`
	Partners    []controller.ComparisonSlot `json:"partners,omitempty"`
	Truncated   bool                        `json:"truncated,omitempty"`
	Limit       int                         `json:"limit"`
}

func (h *HTTPHandler) getComparison(w http.ResponseWriter, r *http.Request, _ map[string]string) {
	mgr := h.sessions.Manager(r.Context(), sessionID(w, r))
	ids := mgr.Selection()
	writeJSON(w, http.StatusOK, comparisonResponse{
		SelectedIDs: ids,
		Partners:    h.partners.ComparePartners(r.Context(), ids),
		Truncated:   mgr.Truncated(),
		Limit:       comparison.Limit,
	})
}

func (h *HTTPHandler) setComparison(w http.ResponseWriter, r *http.Request, _ map[string]string) {
	var req selectionRequest
	if !decodeBody(w, r, &req) {
		return
	}
	mgr := h.sessions.Manager(r.Context(), sessionID(w, r))
	ids := mgr.SetSelection(r.Context(), req.IDs)
	writeJSON(w, http.StatusOK, comparisonResponse{
		SelectedIDs: ids,
		Truncated:   mgr.Truncated(),
		Limit:       comparison.Limit,
	})
}

func (h *HTTPHandler) toggleComparison(w http.ResponseWriter, r *http.Request, pathParams map[string]string) {
	mgr := h.sessions.Manager(r.Context(), sessionID(w, r))
	ids, err := mgr.Toggle(r.Context(), pathParams["id"])
	if errors.Is(err, e.ErrCapacityExceeded) {
		metrics.ComparisonRejections.Inc()
		writeJSON(w, http.StatusConflict, map[string]any{
			"error":       fmt.Sprintf("You can compare max %d partners at a time", comparison.Limit),
			"selectedIds": ids,
		})
		return
	}
	if err != nil {
		h.fail(w, "Toggle comparison failed", err)
		return
	}
	writeJSON(w, http.StatusOK, comparisonResponse{SelectedIDs: ids, Limit: comparison.Limit})
}

func (h *HTTPHandler) clearComparison(w http.ResponseWriter, r *http.Request, _ map[string]string) {
	h.sessions.Manager(r.Context(), sessionID(w, r)).Clear(r.Context())
	w.WriteHeader(http.StatusNoContent)
}

func (h *HTTPHandler) submitConsultation(w http.ResponseWriter, r *http.Request, _ map[string]string) {
	var req models.ConsultationRequest
	if !decodeBody(w, r, &req) {
		return
	}
	created, err := h.engagement.SubmitConsultation(r.Context(), &req)
	if err != nil {
		h.fail(w, "Submit consultation failed", err)
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

func (h *HTTPHandler) listConsultations(w http.ResponseWriter, r *http.Request, _ map[string]string) {
	var q consultationQuery
	if err := queryDecoder.Decode(&q, r.URL.Query()); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	page, err := h.engagement.ListConsultations(r.Context(), q.filter())
	if err != nil {
		h.fail(w, "List consultations failed", err)
		return
	}
	writeJSON(w, http.StatusOK, page)
}

func (h *HTTPHandler) subscribe(w http.ResponseWriter, r *http.Request, _ map[string]string) {
	var req newsletterRequest
	if !decodeBody(w, r, &req) {
		return
	}
	sub, err := h.engagement.Subscribe(r.Context(), req.Email)
	if err != nil {
		h.fail(w, "Subscribe failed", err)
		return
	}
	writeJSON(w, http.StatusCreated, sub)
}

// listParams decodes the listing query. Malformed values are dropped rather
// than failing the request.
func (h *HTTPHandler) listParams(r *http.Request) search.ListParams {
	params, err := search.ParseListParams(r.URL.Query())
	if err != nil {
		h.logger.Debug("Ignoring malformed list parameters", zap.Error(err))
	}
	return params
}

func (h *HTTPHandler) fail(w http.ResponseWriter, msg string, err error) {
	status, text := mapServiceError(err)
	if status >= http.StatusInternalServerError {
		h.logger.Error(msg, zap.Error(err))
	} else {
		h.logger.Debug(msg, zap.Error(err))
	}
	writeError(w, status, text)
}

// mapServiceError converts domain errors into an HTTP status and a message
// safe to show to clients.
func mapServiceError(err error) (int, string) {
	switch {
	case errors.Is(err, e.ErrNotFound):
		return http.StatusNotFound, err.Error()
	case errors.Is(err, e.ErrDuplicateName), errors.Is(err, e.ErrCapacityExceeded):
		return http.StatusConflict, err.Error()
	case errors.Is(err, e.ErrInvalidInput), errors.Is(err, e.ErrValidation), errors.Is(err, e.ErrMissingID):
		return http.StatusBadRequest, err.Error()
	case errors.Is(err, e.ErrTransientFetch), errors.Is(err, e.ErrStorageUnavailable):
		return http.StatusServiceUnavailable, "service temporarily unavailable, please retry"
	default:
		return http.StatusInternalServerError, "internal error"
	}
}

func decodeBody(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(v); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return false
	}
	return true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

// instrument records request count and latency under the route pattern.
func instrument(method, pattern string, next runtime.HandlerFunc) runtime.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request, pathParams map[string]string) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next(rec, r, pathParams)
		metrics.HTTPRequests.WithLabelValues(method, pattern, strconv.Itoa(rec.status)).Inc()
		metrics.HTTPDuration.WithLabelValues(method, pattern).Observe(time.Since(start).Seconds())
	}
}
