package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/auditflow/auditflow/internal/models"
)

// EventHandler serves event ingestion endpoints.
type EventHandler struct {
	ingest EventIngestor
	log    *logrus.Logger
}

// NewEventHandler creates an EventHandler with the given ingestor and logger.
func NewEventHandler(ingest EventIngestor, log *logrus.Logger) *EventHandler {
	return &EventHandler{ingest: ingest, log: log}
}

// Create handles POST /api/v1/project/:projectId/event. The event is accepted
// onto the durable queue and indexed asynchronously; the 201 carries the
// derived document id so callers can correlate before it becomes searchable.
func (h *EventHandler) Create(c *gin.Context) {
	scope, ok := getScope(c)
	if !ok {
		return
	}

	// The path project must match the token's scope. The 401 is independent
	// of whether the project exists so tokens cannot probe for projects.
	if c.Param("projectId") != scope.ProjectID {
		respondError(c, http.StatusUnauthorized, ErrCodeUnauthorized, "token not authorized for this project")

		return
	}

	var event models.AuditEvent
	if err := c.ShouldBindJSON(&event); err != nil {
		respondError(c, http.StatusBadRequest, ErrCodeInvalidRequest, "invalid request body")

		return
	}

	receipt, err := h.ingest.CreateEvent(c.Request.Context(), scope, &event)
	if err != nil {
		if models.IsValidationError(err) {
			respondError(c, http.StatusBadRequest, ErrCodeValidationError, err.Error())

			return
		}

		h.log.WithError(err).Error("create event")
		respondError(c, http.StatusInternalServerError, ErrCodeInternalError, "internal server error")

		return
	}

	h.log.WithFields(logrus.Fields{
		"action":     "event.create",
		"project_id": scope.ProjectID,
		"doc_id":     receipt.DocumentID,
	}).Info("audit")

	c.JSON(http.StatusCreated, receipt)
}
