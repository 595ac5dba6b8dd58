package api

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/nursing-narrative-mcp-server/internal/domain"
	"github.com/nursing-narrative-mcp-server/internal/feedback"
	"github.com/nursing-narrative-mcp-server/internal/middleware"
	"github.com/nursing-narrative-mcp-server/internal/service"
)

type agreementView struct {
	feedback.FormatAgreement
	Rate float64 `json:"rate"`
}

func (s *Server) handleHealth(c *gin.Context) {
	status := http.StatusOK
	components := gin.H{}
	for name, check := range s.checks {
		if err := check(c.Request.Context()); err != nil {
			status = http.StatusServiceUnavailable
			components[name] = err.Error()
			continue
		}
		components[name] = "ok"
	}

	state := "healthy"
	if status != http.StatusOK {
		state = "degraded"
	}
	c.JSON(status, gin.H{
		"status":     state,
		"timestamp":  time.Now().UTC(),
		"version":    Version,
		"components": components,
	})
}

func (s *Server) handleFormats(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"formats": s.narratives.Formats()})
}

func (s *Server) bindDraftRequest(c *gin.Context) (service.DraftRequest, bool) {
	var req service.DraftRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.respondError(c, http.StatusBadRequest, domain.ErrInvalidInput, "invalid request body", err)
		return req, false
	}
	return req, true
}

func (s *Server) handleClassify(c *gin.Context) {
	req, ok := s.bindDraftRequest(c)
	if !ok {
		return
	}
	detected, err := s.narratives.Classify(req)
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, detected)
}

func (s *Server) handleExtract(c *gin.Context) {
	req, ok := s.bindDraftRequest(c)
	if !ok {
		return
	}
	fields, err := s.narratives.Extract(req)
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, fields)
}

func (s *Server) handleDraft(c *gin.Context) {
	req, ok := s.bindDraftRequest(c)
	if !ok {
		return
	}
	result, err := s.narratives.Draft(c.Request.Context(), req)
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (s *Server) handleCompose(c *gin.Context) {
	req, ok := s.bindDraftRequest(c)
	if !ok {
		return
	}
	note, err := s.narratives.Compose(c.Request.Context(), req)
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, note)
}

func (s *Server) handleRecordFeedback(c *gin.Context) {
	var req service.FeedbackRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.respondError(c, http.StatusBadRequest, domain.ErrInvalidInput, "invalid request body", err)
		return
	}
	fb, err := s.narratives.RecordFeedback(c.Request.Context(), req)
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, fb)
}

func (s *Server) handleListFeedback(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))

	list, total, err := s.narratives.ListFeedback(c.Request.Context(), limit, offset)
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"feedback": list, "total": total})
}

func (s *Server) handleFeedbackAgreement(c *gin.Context) {
	agreement, err := s.narratives.FeedbackAgreement(c.Request.Context())
	if err != nil {
		s.writeError(c, err)
		return
	}
	views := make([]agreementView, 0, len(agreement))
	for _, a := range agreement {
		views = append(views, agreementView{FormatAgreement: a, Rate: a.Rate()})
	}
	c.JSON(http.StatusOK, gin.H{"agreement": views})
}

// writeError maps service errors onto DraftError responses.
func (s *Server) writeError(c *gin.Context, err error) {
	var vErr *domain.ValidationError
	switch {
	case errors.As(err, &vErr):
		s.respondError(c, http.StatusBadRequest, domain.ErrValidation, vErr.Error(), nil)
	case errors.Is(err, domain.ErrEmptyNarrative), errors.Is(err, domain.ErrInvalidFormat):
		s.respondError(c, http.StatusBadRequest, domain.ErrInvalidInput, err.Error(), nil)
	case errors.Is(err, domain.ErrNotFound):
		s.respondError(c, http.StatusNotFound, domain.ErrNotFoundCode, err.Error(), nil)
	case errors.Is(err, service.ErrFeedbackDisabled):
		s.respondError(c, http.StatusServiceUnavailable, domain.ErrStorage, err.Error(), nil)
	case errors.Is(err, domain.ErrUpstreamUnavailable):
		s.respondError(c, http.StatusServiceUnavailable, domain.ErrUpstream, "completion service unavailable", err)
	default:
		s.respondError(c, http.StatusInternalServerError, domain.ErrInternalServer, "internal error", err)
	}
}

func (s *Server) respondError(c *gin.Context, status int, code, message string, cause error) {
	requestID := c.GetString(middleware.CorrelationIDKey)
	details := ""
	if cause != nil {
		details = cause.Error()
		entry := s.logger.WithFields(logrus.Fields{
			"code":                      code,
			middleware.CorrelationIDKey: requestID,
		}).WithError(cause)
		if status >= http.StatusInternalServerError {
			entry.Error(message)
		} else {
			entry.Debug(message)
		}
	}
	if status == http.StatusInternalServerError {
		details = ""
	}
	c.AbortWithStatusJSON(status, domain.NewDraftError(code, message, details, requestID))
}
