package http

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/dealscout/dealscout/internal/domain/catalog"
	"github.com/dealscout/dealscout/internal/domain/session"
	apperrors "github.com/dealscout/dealscout/pkg/errors"
)

// Handler wires the HTTP transport to the session domain.
type Handler struct {
	sessions      *session.Manager
	trendingLimit int
	logger        *slog.Logger
}

// NewHandler constructs the root HTTP handler.
func NewHandler(sessions *session.Manager, trendingLimit int, logger *slog.Logger) *Handler {
	return &Handler{
		sessions:      sessions,
		trendingLimit: trendingLimit,
		logger:        logger.With("component", "http.handler"),
	}
}

type queryRequest struct {
	Query string `json:"query"`
}

type selectRequest struct {
	ID string `json:"id"`
}

// CreateSession starts a new search session.
func (h *Handler) CreateSession(c *gin.Context) {
	s := h.sessions.Create()
	c.JSON(http.StatusCreated, gin.H{"sessionId": s.ID})
}

// CloseSession tears a session down.
func (h *Handler) CloseSession(c *gin.Context) {
	if !h.sessions.Close(c.Param("id")) {
		abortWithError(c, NewHTTPError(http.StatusNotFound, "session_not_found", "unknown session", nil))
		return
	}
	c.Status(http.StatusNoContent)
}

// SetQuery feeds a query edit into the session debouncer.
func (h *Handler) SetQuery(c *gin.Context) {
	s, ok := h.lookup(c)
	if !ok {
		return
	}
	var req queryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, NewHTTPError(http.StatusBadRequest, "invalid_request", errMessage(err), err))
		return
	}
	s.SetQuery(req.Query)
	c.JSON(http.StatusAccepted, s.View())
}

// Search applies a query immediately, skipping the quiet period.
func (h *Handler) Search(c *gin.Context) {
	s, ok := h.lookup(c)
	if !ok {
		return
	}
	var req queryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, NewHTTPError(http.StatusBadRequest, "invalid_request", errMessage(err), err))
		return
	}
	s.Search(req.Query)
	c.JSON(http.StatusAccepted, s.View())
}

// LoadMore appends the next batch to the current result set.
func (h *Handler) LoadMore(c *gin.Context) {
	s, ok := h.lookup(c)
	if !ok {
		return
	}
	if err := s.LoadMore(c.Request.Context()); err != nil {
		h.abortDomainError(c, "load_more_failed", err)
		return
	}
	c.JSON(http.StatusOK, s.View())
}

// Select enters the detail view for one product.
func (h *Handler) Select(c *gin.Context) {
	s, ok := h.lookup(c)
	if !ok {
		return
	}
	var req selectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, NewHTTPError(http.StatusBadRequest, "invalid_request", errMessage(err), err))
		return
	}
	if err := s.Select(c.Request.Context(), req.ID); err != nil {
		h.abortDomainError(c, "select_failed", err)
		return
	}
	c.JSON(http.StatusOK, s.View())
}

// Back returns from the detail view to the result list.
func (h *Handler) Back(c *gin.Context) {
	s, ok := h.lookup(c)
	if !ok {
		return
	}
	s.Back()
	c.JSON(http.StatusOK, s.View())
}

// SetFilters replaces the filter configuration.
func (h *Handler) SetFilters(c *gin.Context) {
	s, ok := h.lookup(c)
	if !ok {
		return
	}
	var opts catalog.FilterOptions
	if err := c.ShouldBindJSON(&opts); err != nil {
		abortWithError(c, NewHTTPError(http.StatusBadRequest, "invalid_request", errMessage(err), err))
		return
	}
	if err := s.SetFilters(opts); err != nil {
		h.abortDomainError(c, "invalid_filters", err)
		return
	}
	c.JSON(http.StatusOK, s.View())
}

// GetView returns the current rendering snapshot.
func (h *Handler) GetView(c *gin.Context) {
	s, ok := h.lookup(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, s.View())
}

// Trending lists the most frequent stabilized queries.
func (h *Handler) Trending(c *gin.Context) {
	items, err := h.sessions.Trending(c.Request.Context(), h.trendingLimit)
	if err != nil {
		abortWithError(c, NewHTTPError(http.StatusInternalServerError, "trending_failed", errMessage(err), err))
		return
	}
	c.JSON(http.StatusOK, gin.H{"trending": items})
}

// Healthz is the liveness probe.
func (h *Handler) Healthz(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (h *Handler) lookup(c *gin.Context) (*session.Session, bool) {
	s, ok := h.sessions.Get(c.Param("id"))
	if !ok {
		abortWithError(c, NewHTTPError(http.StatusNotFound, "session_not_found", "unknown session", nil))
		return nil, false
	}
	return s, true
}

func (h *Handler) abortDomainError(c *gin.Context, code string, err error) {
	status := http.StatusInternalServerError
	switch apperrors.CodeOf(err) {
	case apperrors.CodeInvalidInput:
		status = http.StatusBadRequest
	case apperrors.CodeNotFound:
		status = http.StatusNotFound
	case apperrors.CodeRemoteError:
		status = http.StatusBadGateway
	}
	abortWithError(c, NewHTTPError(status, code, errMessage(err), err))
}

func errMessage(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}
