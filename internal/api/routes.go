package api

import (
	"log/slog"
	"net/http"

	"ironready/coach-api/internal/domain"
	"ironready/coach-api/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Services groups everything the routes call into.
type Services struct {
	Auth          service.AuthService
	Onboarding    service.OnboardingService
	Generator     service.PlanGenerator
	Workouts      service.WorkoutService
	Sessions      service.SessionService
	Recoveries    service.RecoveryService
	Notifications service.NotificationService
	Catalog       ExerciseCatalog
	IndexReloader IndexReloader
}

// NewRouter builds the engine with request id, logging and recovery middleware.
func NewRouter(logger *slog.Logger) *gin.Engine {
	router := gin.New()
	router.Use(RequestContext(), RequestLogger(logger), gin.Recovery())
	return router
}

func SetupRoutes(router *gin.Engine, jwtSecret string, svc Services, logger *slog.Logger) {
	authHandler := NewAuthHandler(svc.Auth, logger)
	onboardingHandler := NewOnboardingHandler(svc.Onboarding, logger)
	workoutHandler := NewWorkoutHandler(svc.Generator, svc.Workouts, svc.Sessions, logger)
	recoveryHandler := NewRecoveryHandler(svc.Recoveries, svc.Notifications, logger)
	exerciseHandler := NewExerciseHandler(svc.Catalog, svc.IndexReloader, logger)

	authMiddleware := AuthMiddleware(jwtSecret)

	router.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "pong"})
	})
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	apiV1 := router.Group("/api/v1")
	{
		authGroup := apiV1.Group("/auth")
		{
			authGroup.POST("/register", authHandler.Register)
			authGroup.POST("/login", authHandler.Login)
		}
	}

	protected := apiV1.Group("")
	protected.Use(authMiddleware)
	{
		protected.GET("/me", authHandler.Me)

		onboardingGroup := protected.Group("/onboarding")
		{
			onboardingGroup.PATCH("/sport-category", onboardingHandler.SelectSportCategory)
			onboardingGroup.PATCH("/sport-sub-category", onboardingHandler.SelectSportSubCategory)
			onboardingGroup.PATCH("/personal-info", onboardingHandler.UpdatePersonalInfo)
			onboardingGroup.PATCH("/complete", onboardingHandler.Complete)
		}

		workoutGroup := protected.Group("/workouts")
		{
			workoutGroup.POST("/generate", workoutHandler.GeneratePlan)
			workoutGroup.GET("", workoutHandler.ListPlanDays)
			workoutGroup.GET("/plan", workoutHandler.GetPlan)

			workoutGroup.POST("/sessions", workoutHandler.StartSession)
			workoutGroup.PUT("/sessions/:id/complete", workoutHandler.CompleteSession)
			workoutGroup.POST("/sessions/:id/logs", workoutHandler.LogSet)
			workoutGroup.GET("/sessions/:id/logs", workoutHandler.ListSetLogs)
		}

		recoveryGroup := protected.Group("/recoveries")
		{
			recoveryGroup.GET("", recoveryHandler.ListRecoveries)
			recoveryGroup.GET("/body-diagram", recoveryHandler.BodyDiagram)
		}

		notificationGroup := protected.Group("/notifications")
		{
			notificationGroup.GET("", recoveryHandler.ListNotifications)
			notificationGroup.PATCH("/:id/read", recoveryHandler.MarkNotificationRead)
		}

		protected.GET("/exercises", exerciseHandler.ListExercises)

		adminGroup := protected.Group("/admin")
		adminGroup.Use(RoleMiddleware(domain.RoleAdmin))
		{
			adminGroup.POST("/index/reload", exerciseHandler.ReloadIndex)
		}
	}
}
