package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/auditflow/auditflow/internal/models"
	"github.com/auditflow/auditflow/internal/service"
)

// maxSearchNameLen caps the length of saved search names.
const maxSearchNameLen = 256

// SearchHandler serves saved search, active search, and pump endpoints.
type SearchHandler struct {
	repo SearchRepository
	pump Pumper
	log  *logrus.Logger
}

// NewSearchHandler creates a SearchHandler with the given dependencies.
func NewSearchHandler(repo SearchRepository, pump Pumper, log *logrus.Logger) *SearchHandler {
	return &SearchHandler{repo: repo, pump: pump, log: log}
}

// createSavedSearchRequest is the body of POST /search/saved.
type createSavedSearchRequest struct {
	Name  string                 `json:"name" binding:"required"`
	Query models.QueryDescriptor `json:"query"`
}

// CreateSaved handles POST /api/v1/search/saved.
func (h *SearchHandler) CreateSaved(c *gin.Context) {
	scope, ok := getScope(c)
	if !ok {
		return
	}

	var req createSavedSearchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, ErrCodeInvalidRequest, "invalid request body")

		return
	}

	if len(req.Name) > maxSearchNameLen {
		respondError(c, http.StatusBadRequest, ErrCodeValidationError, "name exceeds maximum length")

		return
	}

	// Reject unknown descriptor versions at creation time too; storing a
	// descriptor that can never be pumped helps nobody. A zero version means
	// the caller omitted it, default to the current one.
	if req.Query.Version == 0 {
		req.Query.Version = models.DescriptorVersion1
	}
	if err := req.Query.Validate(); err != nil {
		respondError(c, http.StatusBadRequest, ErrCodeValidationError, err.Error())

		return
	}

	saved, err := h.repo.CreateSavedSearch(c.Request.Context(), scope, req.Name, req.Query)
	if err != nil {
		h.log.WithError(err).Error("create saved search")
		respondError(c, http.StatusInternalServerError, ErrCodeInternalError, "internal server error")

		return
	}

	h.log.WithFields(logrus.Fields{"action": "search.saved.create", "saved_search_id": saved.ID}).Info("audit")

	c.JSON(http.StatusCreated, saved)
}

// GetSaved handles GET /api/v1/search/saved/:id.
func (h *SearchHandler) GetSaved(c *gin.Context) {
	scope, ok := getScope(c)
	if !ok {
		return
	}

	id := c.Param("id")
	if err := validatePathID(id); err != nil {
		respondError(c, http.StatusBadRequest, ErrCodeInvalidRequest, err.Error())

		return
	}

	saved, err := h.repo.GetSavedSearch(c.Request.Context(), scope, id)
	if err != nil {
		if models.IsNotFound(err) {
			respondError(c, http.StatusNotFound, ErrCodeNotFound, err.Error())

			return
		}

		h.log.WithError(err).Error("get saved search")
		respondError(c, http.StatusInternalServerError, ErrCodeInternalError, "internal server error")

		return
	}

	c.JSON(http.StatusOK, saved)
}

// DeleteSaved handles DELETE /api/v1/search/saved/:id. Active searches that
// reference the deleted search are left alone; their next pump reports the
// dangling reference.
func (h *SearchHandler) DeleteSaved(c *gin.Context) {
	scope, ok := getScope(c)
	if !ok {
		return
	}

	id := c.Param("id")
	if err := validatePathID(id); err != nil {
		respondError(c, http.StatusBadRequest, ErrCodeInvalidRequest, err.Error())

		return
	}

	if err := h.repo.DeleteSavedSearch(c.Request.Context(), scope, id); err != nil {
		if models.IsNotFound(err) {
			respondError(c, http.StatusNotFound, ErrCodeNotFound, err.Error())

			return
		}

		h.log.WithError(err).Error("delete saved search")
		respondError(c, http.StatusInternalServerError, ErrCodeInternalError, "internal server error")

		return
	}

	h.log.WithFields(logrus.Fields{"action": "search.saved.delete", "saved_search_id": id}).Info("audit")

	c.Status(http.StatusNoContent)
}

// createActiveSearchRequest is the body of POST /search/active.
type createActiveSearchRequest struct {
	SavedSearchID string `json:"saved_search_id" binding:"required"`
}

// CreateActive handles POST /api/v1/search/active. The saved search must
// exist at creation time; it may still be deleted later, which the pump
// reports per-request.
func (h *SearchHandler) CreateActive(c *gin.Context) {
	scope, ok := getScope(c)
	if !ok {
		return
	}

	var req createActiveSearchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, ErrCodeInvalidRequest, "invalid request body")

		return
	}

	if _, err := h.repo.GetSavedSearch(c.Request.Context(), scope, req.SavedSearchID); err != nil {
		if models.IsNotFound(err) {
			respondError(c, http.StatusNotFound, ErrCodeNotFound, err.Error())

			return
		}

		h.log.WithError(err).Error("resolve saved search")
		respondError(c, http.StatusInternalServerError, ErrCodeInternalError, "internal server error")

		return
	}

	active, err := h.repo.CreateActiveSearch(c.Request.Context(), scope, req.SavedSearchID)
	if err != nil {
		h.log.WithError(err).Error("create active search")
		respondError(c, http.StatusInternalServerError, ErrCodeInternalError, "internal server error")

		return
	}

	h.log.WithFields(logrus.Fields{"action": "search.active.create", "active_search_id": active.ID}).Info("audit")

	c.JSON(http.StatusCreated, active)
}

// GetActive handles GET /api/v1/search/active/:id.
func (h *SearchHandler) GetActive(c *gin.Context) {
	scope, ok := getScope(c)
	if !ok {
		return
	}

	id := c.Param("id")
	if err := validatePathID(id); err != nil {
		respondError(c, http.StatusBadRequest, ErrCodeInvalidRequest, err.Error())

		return
	}

	active, err := h.repo.GetActiveSearch(c.Request.Context(), scope, id)
	if err != nil {
		if models.IsNotFound(err) {
			respondError(c, http.StatusNotFound, ErrCodeNotFound, err.Error())

			return
		}

		h.log.WithError(err).Error("get active search")
		respondError(c, http.StatusInternalServerError, ErrCodeInternalError, "internal server error")

		return
	}

	c.JSON(http.StatusOK, active)
}

// pumpRequestBody is the optional body of the pump endpoint.
type pumpRequestBody struct {
	Mask *models.MaskDescriptor `json:"mask"`
}

// Pump handles POST /api/v1/search/active/:id/pump and its id-less form
// POST /api/v1/search/active/pump?id=. The engine owns all semantics; this
// handler only shapes the request and maps errors to statuses.
func (h *SearchHandler) Pump(c *gin.Context) {
	scope, ok := getScope(c)
	if !ok {
		return
	}

	id := c.Param("id")
	if id == "" {
		id = c.Query("id")
	}

	var body pumpRequestBody
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&body); err != nil {
			respondError(c, http.StatusBadRequest, ErrCodeInvalidRequest, "invalid request body")

			return
		}
	}

	req := service.PumpRequest{
		ActiveSearchID: id,
		PageSize:       parseInt(c.Query("page_size"), 0),
		Next:           c.Query("next"),
		Mask:           body.Mask,
	}

	result, err := h.pump.Pump(c.Request.Context(), scope, req)
	if err != nil {
		h.respondPumpError(c, err)

		return
	}

	h.log.WithFields(logrus.Fields{
		"action":           "search.pump",
		"active_search_id": id,
		"returned":         len(result.Records),
	}).Info("audit")

	c.JSON(http.StatusOK, result)
}

// respondPumpError maps pump engine errors onto HTTP statuses. The engine's
// messages are part of the API contract and pass through verbatim.
func (h *SearchHandler) respondPumpError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, models.ErrMissingActiveSearchID):
		respondError(c, http.StatusBadRequest, ErrCodeInvalidRequest, err.Error())
	case errors.Is(err, models.ErrInvalidCursor):
		respondError(c, http.StatusBadRequest, ErrCodeInvalidRequest, err.Error())
	case models.IsNotFound(err):
		respondError(c, http.StatusNotFound, ErrCodeNotFound, err.Error())
	case service.IsBadPumpRequest(err):
		respondError(c, http.StatusBadRequest, ErrCodeValidationError, err.Error())
	default:
		h.log.WithError(err).Error("pump active search")
		respondError(c, http.StatusInternalServerError, ErrCodeInternalError, "internal server error")
	}
}
