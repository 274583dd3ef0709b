// internal/api/workout_handler.go
package api

import (
	"log/slog"
	"net/http"

	"ironready/coach-api/internal/domain"
	"ironready/coach-api/internal/service"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type WorkoutHandler struct {
	generator      service.PlanGenerator
	workoutService service.WorkoutService
	sessionService service.SessionService
	logger         *slog.Logger
}

func NewWorkoutHandler(
	generator service.PlanGenerator,
	workoutService service.WorkoutService,
	sessionService service.SessionService,
	logger *slog.Logger,
) *WorkoutHandler {
	return &WorkoutHandler{
		generator:      generator,
		workoutService: workoutService,
		sessionService: sessionService,
		logger:         logger,
	}
}

// --- DTOs ---

type SkippedDayResponse struct {
	Index  int    `json:"index"`
	Reason string `json:"reason"`
	Detail string `json:"detail"`
}

type GeneratePlanResponse struct {
	GenerationID string                  `json:"generation_id"`
	Persisted    int                     `json:"persisted"`
	Days         []domain.WorkoutPlanDay `json:"days"`
	Skipped      []SkippedDayResponse    `json:"skipped"`
}

type StartSessionRequest struct {
	PlanDayID string `json:"plan_day_id" binding:"required"`
}

type SetLogRequest struct {
	ExerciseName string   `json:"exercise_name" binding:"required"`
	SetNumber    int      `json:"set_number" binding:"required"`
	RepsDone     int      `json:"reps_done"`
	WeightUsed   *float64 `json:"weight_used"`
	Notes        string   `json:"notes"`
}

type CompleteSessionResponse struct {
	Session    *domain.WorkoutSession  `json:"session"`
	Recoveries []domain.RecoveryRecord `json:"recoveries"`
}

// --- Plans ---

// GeneratePlan godoc
// @Summary Generate a 7-day plan for the caller
// @Description Retrieves matching exercises, asks the model for a week plan, validates every day and stores the accepted days.
// @Tags Workouts
// @Produce json
// @Security BearerAuth
// @Success 201 {object} GeneratePlanResponse
// @Failure 422 {object} gin.H "Onboarding not completed"
// @Failure 502 {object} gin.H "Model output unusable or no valid day"
// @Failure 503 {object} gin.H "Exercise index unavailable"
// @Failure 500 {object} gin.H "Internal Server Error"
// @Router /workouts/generate [post]
func (h *WorkoutHandler) GeneratePlan(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	plan, err := h.generator.Generate(c.Request.Context(), userID)
	if err != nil {
		respondServiceError(c, h.logger, err, "Failed to generate plan.")
		return
	}

	resp := GeneratePlanResponse{
		GenerationID: plan.GenerationID,
		Persisted:    len(plan.Days),
		Days:         plan.Days,
		Skipped:      make([]SkippedDayResponse, 0, len(plan.Skipped)),
	}
	for _, s := range plan.Skipped {
		resp.Skipped = append(resp.Skipped, SkippedDayResponse{Index: s.Index, Reason: string(s.Reason), Detail: s.Detail})
	}
	c.JSON(http.StatusCreated, resp)
}

// ListPlanDays godoc
// @Summary All stored plan days of the caller
// @Tags Workouts
// @Produce json
// @Security BearerAuth
// @Success 200 {array} domain.WorkoutPlanDay
// @Router /workouts [get]
func (h *WorkoutHandler) ListPlanDays(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	days, err := h.workoutService.ListPlanDays(c.Request.Context(), userID)
	if err != nil {
		respondServiceError(c, h.logger, err, "Failed to retrieve workouts.")
		return
	}
	c.JSON(http.StatusOK, days)
}

// GetPlan godoc
// @Summary Today's day or the whole week of the latest plan
// @Tags Workouts
// @Produce json
// @Security BearerAuth
// @Param view query string false "today (default) or weekly"
// @Success 200 {object} service.PlanView
// @Failure 400 {object} gin.H "Unknown view"
// @Router /workouts/plan [get]
func (h *WorkoutHandler) GetPlan(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	view, err := h.workoutService.PlanView(c.Request.Context(), userID, c.DefaultQuery("view", service.ViewToday))
	if err != nil {
		respondServiceError(c, h.logger, err, "Failed to retrieve plan.")
		return
	}
	c.JSON(http.StatusOK, view)
}

// --- Sessions ---

// StartSession godoc
// @Summary Start a workout session for a plan day
// @Tags Workouts
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body StartSessionRequest true "Plan day"
// @Success 201 {object} domain.WorkoutSession
// @Failure 403 {object} gin.H "Plan day belongs to another user"
// @Failure 404 {object} gin.H "Plan day not found"
// @Router /workouts/sessions [post]
func (h *WorkoutHandler) StartSession(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	var req StartSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, "Validation error: "+err.Error())
		return
	}
	planDayID, err := primitive.ObjectIDFromHex(req.PlanDayID)
	if err != nil {
		abortWithError(c, http.StatusBadRequest, "Invalid plan_day_id format.")
		return
	}

	session, err := h.sessionService.Start(c.Request.Context(), userID, planDayID)
	if err != nil {
		respondServiceError(c, h.logger, err, "Failed to start session.")
		return
	}
	c.JSON(http.StatusCreated, session)
}

// CompleteSession godoc
// @Summary Complete a session and update recovery per trained muscle group
// @Tags Workouts
// @Produce json
// @Security BearerAuth
// @Param id path string true "Session ID"
// @Success 200 {object} CompleteSessionResponse
// @Failure 403 {object} gin.H "Session belongs to another user"
// @Failure 404 {object} gin.H "Session not found"
// @Failure 409 {object} gin.H "Session already completed"
// @Failure 500 {object} gin.H "Internal Server Error"
// @Router /workouts/sessions/{id}/complete [put]
func (h *WorkoutHandler) CompleteSession(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	sessionID, ok := pathObjectID(c, "id")
	if !ok {
		return
	}

	res, err := h.sessionService.Complete(c.Request.Context(), sessionID, userID)
	if err != nil {
		respondServiceError(c, h.logger, err, "Failed to complete session.")
		return
	}
	c.JSON(http.StatusOK, CompleteSessionResponse{Session: res.Session, Recoveries: res.Recoveries})
}

// LogSet godoc
// @Summary Record one set on an open session
// @Tags Workouts
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Session ID"
// @Param body body SetLogRequest true "Set"
// @Success 201 {object} domain.SetLog
// @Failure 409 {object} gin.H "Session already completed"
// @Router /workouts/sessions/{id}/logs [post]
func (h *WorkoutHandler) LogSet(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	sessionID, ok := pathObjectID(c, "id")
	if !ok {
		return
	}
	var req SetLogRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, "Validation error: "+err.Error())
		return
	}

	setLog, err := h.sessionService.LogSet(c.Request.Context(), userID, sessionID, service.SetLogInput{
		ExerciseName: req.ExerciseName,
		SetNumber:    req.SetNumber,
		RepsDone:     req.RepsDone,
		WeightUsed:   req.WeightUsed,
		Notes:        req.Notes,
	})
	if err != nil {
		respondServiceError(c, h.logger, err, "Failed to log set.")
		return
	}
	c.JSON(http.StatusCreated, setLog)
}

// ListSetLogs godoc
// @Summary Sets recorded on a session
// @Tags Workouts
// @Produce json
// @Security BearerAuth
// @Param id path string true "Session ID"
// @Success 200 {array} domain.SetLog
// @Router /workouts/sessions/{id}/logs [get]
func (h *WorkoutHandler) ListSetLogs(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	sessionID, ok := pathObjectID(c, "id")
	if !ok {
		return
	}

	logs, err := h.sessionService.ListSetLogs(c.Request.Context(), userID, sessionID)
	if err != nil {
		respondServiceError(c, h.logger, err, "Failed to retrieve set logs.")
		return
	}
	if logs == nil {
		logs = []domain.SetLog{}
	}
	c.JSON(http.StatusOK, logs)
}
