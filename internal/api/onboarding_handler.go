package api

import (
	"log/slog"
	"net/http"
	"time"

	"ironready/coach-api/internal/service"

	"github.com/gin-gonic/gin"
)

type OnboardingHandler struct {
	onboardingService service.OnboardingService
	logger            *slog.Logger
}

func NewOnboardingHandler(onboardingService service.OnboardingService, logger *slog.Logger) *OnboardingHandler {
	return &OnboardingHandler{onboardingService: onboardingService, logger: logger}
}

type SportCategoryRequest struct {
	SportCategory string `json:"sport_category" binding:"required"`
}

type SportSubCategoryRequest struct {
	SportSubCategory string `json:"sport_sub_category" binding:"required"`
}

type PersonalInfoRequest struct {
	BirthDate string  `json:"birth_date" binding:"required"` // YYYY-MM-DD
	Gender    string  `json:"gender" binding:"required"`
	HeightCm  float64 `json:"height_cm" binding:"required"`
	WeightKg  float64 `json:"weight_kg" binding:"required"`
}

type CompleteOnboardingRequest struct {
	StrengthLevels map[string]float64 `json:"strength_levels"`
	TrainingDays   []string           `json:"training_days" binding:"required"`
}

// SelectSportCategory godoc
// @Summary Select the main sport category
// @Tags Onboarding
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body SportCategoryRequest true "Sport category"
// @Success 200 {object} gin.H "message and next_step"
// @Router /onboarding/sport-category [patch]
func (h *OnboardingHandler) SelectSportCategory(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	var req SportCategoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, "Validation error: "+err.Error())
		return
	}

	next, err := h.onboardingService.SelectSportCategory(c.Request.Context(), userID, req.SportCategory)
	if err != nil {
		respondServiceError(c, h.logger, err, "Failed to save sport category.")
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Sport category selected", "next_step": next})
}

// SelectSportSubCategory godoc
// @Summary Select the sport sub-category (Combat only)
// @Tags Onboarding
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body SportSubCategoryRequest true "Sport sub-category"
// @Success 200 {object} gin.H
// @Failure 400 {object} gin.H "Category has no sub-categories"
// @Router /onboarding/sport-sub-category [patch]
func (h *OnboardingHandler) SelectSportSubCategory(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	var req SportSubCategoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, "Validation error: "+err.Error())
		return
	}

	if err := h.onboardingService.SelectSportSubCategory(c.Request.Context(), userID, req.SportSubCategory); err != nil {
		respondServiceError(c, h.logger, err, "Failed to save sport sub-category.")
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Sub-category selected"})
}

// UpdatePersonalInfo godoc
// @Summary Store birth date, gender, height and weight
// @Tags Onboarding
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body PersonalInfoRequest true "Personal info"
// @Success 200 {object} gin.H
// @Router /onboarding/personal-info [patch]
func (h *OnboardingHandler) UpdatePersonalInfo(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	var req PersonalInfoRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, "Validation error: "+err.Error())
		return
	}
	birth, err := time.Parse("2006-01-02", req.BirthDate)
	if err != nil {
		abortWithError(c, http.StatusBadRequest, "birth_date must be YYYY-MM-DD")
		return
	}

	profile, err := h.onboardingService.UpdatePersonalInfo(c.Request.Context(), userID, service.PersonalInfo{
		BirthDate: birth,
		Gender:    req.Gender,
		HeightCm:  req.HeightCm,
		WeightKg:  req.WeightKg,
	})
	if err != nil {
		respondServiceError(c, h.logger, err, "Failed to save personal info.")
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Personal info updated", "age": profile.Age})
}

// Complete godoc
// @Summary Finish onboarding with strength levels and training days
// @Tags Onboarding
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body CompleteOnboardingRequest true "Strength levels and training days"
// @Success 200 {object} gin.H
// @Router /onboarding/complete [patch]
func (h *OnboardingHandler) Complete(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	var req CompleteOnboardingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, "Validation error: "+err.Error())
		return
	}

	if _, err := h.onboardingService.Complete(c.Request.Context(), userID, req.StrengthLevels, req.TrainingDays); err != nil {
		respondServiceError(c, h.logger, err, "Failed to complete onboarding.")
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Onboarding completed successfully"})
}
