package api

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"ironready/coach-api/internal/domain"
	"ironready/coach-api/internal/retrieval"

	"github.com/gin-gonic/gin"
)

// ExerciseCatalog is the read side of the exercise index.
type ExerciseCatalog interface {
	Documents() ([]domain.ExerciseDocument, error)
	Info() (embedder string, count int, ok bool)
}

// IndexReloader replaces the active exercise index.
type IndexReloader interface {
	Reload(ctx context.Context) error
}

// ExerciseHandler serves the exercise corpus and its admin operations.
type ExerciseHandler struct {
	catalog  ExerciseCatalog
	reloader IndexReloader
	logger   *slog.Logger
}

// NewExerciseHandler creates a new ExerciseHandler.
func NewExerciseHandler(catalog ExerciseCatalog, reloader IndexReloader, logger *slog.Logger) *ExerciseHandler {
	return &ExerciseHandler{catalog: catalog, reloader: reloader, logger: logger}
}

type IndexInfoResponse struct {
	Embedder  string `json:"embedder"`
	Documents int    `json:"documents"`
}

// ListExercises godoc
// @Summary The exercise corpus plans are built from
// @Tags Exercises
// @Produce json
// @Security BearerAuth
// @Success 200 {array} domain.ExerciseDocument
// @Failure 503 {object} gin.H "Exercise index not loaded"
// @Router /exercises [get]
func (h *ExerciseHandler) ListExercises(c *gin.Context) {
	docs, err := h.catalog.Documents()
	if err != nil {
		if errors.Is(err, retrieval.ErrIndexUnavailable) {
			abortWithError(c, http.StatusServiceUnavailable, err.Error())
			return
		}
		respondServiceError(c, h.logger, err, "Failed to list exercises.")
		return
	}
	c.JSON(http.StatusOK, docs)
}

// ReloadIndex godoc
// @Summary Reload the exercise index snapshot
// @Description Admin only. Fetches the published snapshot and swaps it in; the previous index stays active on failure.
// @Tags Admin
// @Produce json
// @Security BearerAuth
// @Success 200 {object} IndexInfoResponse
// @Failure 403 {object} gin.H "Not an admin"
// @Failure 503 {object} gin.H "Snapshot could not be loaded"
// @Router /admin/index/reload [post]
func (h *ExerciseHandler) ReloadIndex(c *gin.Context) {
	if err := h.reloader.Reload(c.Request.Context()); err != nil {
		h.logger.Warn("exercise index reload failed", "error", err)
		abortWithError(c, http.StatusServiceUnavailable, "Failed to reload exercise index: "+err.Error())
		return
	}
	embedder, count, _ := h.catalog.Info()
	c.JSON(http.StatusOK, IndexInfoResponse{Embedder: embedder, Documents: count})
}
