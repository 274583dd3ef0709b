// internal/service/plan_generator.go
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"ironready/coach-api/internal/domain"
	"ironready/coach-api/internal/llm"
	"ironready/coach-api/internal/logger"
	"ironready/coach-api/internal/metrics"
	"ironready/coach-api/internal/repository"
	"ironready/coach-api/internal/retrieval"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// --- Error Definitions ---
var (
	ErrPrecondition         = errors.New("onboarding must be completed before generating a plan")
	ErrRetrievalUnavailable = errors.New("exercise retrieval unavailable")
	ErrGenerationFormat     = errors.New("plan generation returned an unusable response")
	ErrNoValidPlan          = errors.New("plan generation produced no valid days")
	ErrPersistence          = errors.New("failed to persist changes")
)

const PlanGeneratedMessage = "New workout plan generated! Check your plan now."

// GenerationState is a step of one generation run.
type GenerationState string

const (
	StateRetrieving GenerationState = "RETRIEVING"
	StatePrompting  GenerationState = "PROMPTING"
	StateGenerating GenerationState = "GENERATING"
	StateParsing    GenerationState = "PARSING"
	StateValidating GenerationState = "VALIDATING"
	StatePersisting GenerationState = "PERSISTING"
	StateDone       GenerationState = "DONE"
)

// FailureKind classifies a failed run.
type FailureKind string

const (
	KindPrecondition         FailureKind = "precondition"
	KindRetrievalUnavailable FailureKind = "retrieval_unavailable"
	KindGenerationFormat     FailureKind = "generation_format"
	KindNoValidPlan          FailureKind = "no_valid_plan"
	KindPersistence          FailureKind = "persistence"
)

var kindSentinels = map[FailureKind]error{
	KindPrecondition:         ErrPrecondition,
	KindRetrievalUnavailable: ErrRetrievalUnavailable,
	KindGenerationFormat:     ErrGenerationFormat,
	KindNoValidPlan:          ErrNoValidPlan,
	KindPersistence:          ErrPersistence,
}

// GenerationError is the FAILED(kind) exit of a run. errors.Is matches both
// the kind's sentinel and the underlying cause.
type GenerationError struct {
	State GenerationState
	Kind  FailureKind
	Err   error
}

func (e *GenerationError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("plan generation failed while %s: %s", e.State, kindSentinels[e.Kind])
	}
	return fmt.Sprintf("plan generation failed while %s: %s: %v", e.State, kindSentinels[e.Kind], e.Err)
}

func (e *GenerationError) Unwrap() []error {
	errs := []error{kindSentinels[e.Kind]}
	if e.Err != nil {
		errs = append(errs, e.Err)
	}
	return errs
}

// ExerciseRetriever is the corpus search the generator depends on.
type ExerciseRetriever interface {
	Retrieve(ctx context.Context, query string, k int) ([]domain.ExerciseDocument, error)
}

// GeneratedPlan is the persisted batch plus the entries that were dropped.
type GeneratedPlan struct {
	GenerationID string
	Days         []domain.WorkoutPlanDay // Monday first
	Skipped      []DayResult
}

type PlanGenerator interface {
	Generate(ctx context.Context, userID primitive.ObjectID) (*GeneratedPlan, error)
}

// PlanGeneratorConfig holds model settings and profile defaults.
type PlanGeneratorConfig struct {
	Model       string
	Temperature float64
	MaxTokens   int
	Timeout     time.Duration
	TopK        int
	Location    *time.Location
	Defaults    ProfileDefaults
}

type planGenerator struct {
	cfg           PlanGeneratorConfig
	userRepo      repository.UserRepository
	planDayRepo   repository.PlanDayRepository
	notifications repository.NotificationRepository
	tx            repository.Transactor
	retriever     ExerciseRetriever
	model         llm.ChatModel
	logger        *slog.Logger
	now           func() time.Time
}

// NewPlanGenerator creates a new plan generator.
func NewPlanGenerator(
	cfg PlanGeneratorConfig,
	userRepo repository.UserRepository,
	planDayRepo repository.PlanDayRepository,
	notifications repository.NotificationRepository,
	tx repository.Transactor,
	retriever ExerciseRetriever,
	model llm.ChatModel,
	logger *slog.Logger,
) PlanGenerator {
	if cfg.TopK <= 0 {
		cfg.TopK = 10
	}
	if cfg.Location == nil {
		cfg.Location = time.UTC
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 60 * time.Second
	}
	return &planGenerator{
		cfg:           cfg,
		userRepo:      userRepo,
		planDayRepo:   planDayRepo,
		notifications: notifications,
		tx:            tx,
		retriever:     retriever,
		model:         model,
		logger:        logger,
		now:           time.Now,
	}
}

func fail(state GenerationState, kind FailureKind, err error) error {
	metrics.PlanGenerations.WithLabelValues(string(kind)).Inc()
	return &GenerationError{State: state, Kind: kind, Err: err}
}

// Generate runs RETRIEVING → PROMPTING → GENERATING → PARSING → VALIDATING →
// PERSISTING → DONE for one user.
func (g *planGenerator) Generate(ctx context.Context, userID primitive.ObjectID) (*GeneratedPlan, error) {
	log := logger.FromContext(ctx, g.logger).With("user_id", userID.Hex())
	started := g.now()
	defer func() {
		metrics.PlanGenerationDuration.Observe(g.now().Sub(started).Seconds())
	}()

	user, err := g.userRepo.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fail(StateRetrieving, KindPersistence, err)
	}
	if !user.Profile.IsOnboarded {
		return nil, fail(StateRetrieving, KindPrecondition, nil)
	}
	profile := g.cfg.Defaults.Resolve(user.Profile)

	// RETRIEVING
	docs, err := g.retriever.Retrieve(ctx, RetrievalQuery(profile), g.cfg.TopK)
	if err != nil {
		log.Error("exercise retrieval failed", "error", err)
		return nil, fail(StateRetrieving, KindRetrievalUnavailable, err)
	}

	// PROMPTING
	prompt := BuildPlanPrompt(profile, retrieval.RenderContext(docs))

	// GENERATING
	genCtx, cancel := context.WithTimeout(ctx, g.cfg.Timeout)
	raw, err := g.model.Complete(genCtx, llm.Request{
		Model:       g.cfg.Model,
		System:      prompt.System,
		User:        prompt.User,
		Temperature: g.cfg.Temperature,
		MaxTokens:   g.cfg.MaxTokens,
		JSONMode:    true,
	})
	cancel()
	if err != nil {
		log.Error("plan model call failed", "error", err)
		return nil, fail(StateGenerating, KindGenerationFormat, err)
	}

	// PARSING
	entries, err := parseWeekPlan(raw)
	if err != nil {
		log.Warn("unusable plan response", "error", err)
		return nil, fail(StateParsing, KindGenerationFormat, err)
	}

	// VALIDATING
	generatedAt := g.now().UTC()
	week := PlanWeek{
		UserID:       user.ID,
		GenerationID: uuid.NewString(),
		TrainingDays: profile.TrainingDays,
		Today:        g.now().In(g.cfg.Location),
		GeneratedAt:  generatedAt,
	}
	results := validateDays(entries, week)

	plan := &GeneratedPlan{GenerationID: week.GenerationID}
	for _, r := range results {
		if r.Accepted() {
			plan.Days = append(plan.Days, *r.Day)
			continue
		}
		plan.Skipped = append(plan.Skipped, r)
		metrics.PlanDaysSkipped.WithLabelValues(string(r.Reason)).Inc()
		log.Warn("skipping generated plan day", "index", r.Index, "reason", r.Reason, "detail", r.Detail)
	}
	if len(plan.Days) == 0 {
		return nil, fail(StateValidating, KindNoValidPlan, fmt.Errorf("%d entries, none valid", len(entries)))
	}
	sort.Slice(plan.Days, func(i, j int) bool { return plan.Days[i].DayIndex < plan.Days[j].DayIndex })

	// PERSISTING
	err = g.tx.WithinTransaction(ctx, func(txCtx context.Context) error {
		return g.planDayRepo.InsertBatch(txCtx, plan.Days)
	})
	if err != nil {
		log.Error("persisting plan failed", "error", err)
		return nil, fail(StatePersisting, KindPersistence, err)
	}

	// DONE
	metrics.PlanGenerations.WithLabelValues(metrics.OutcomeSuccess).Inc()
	log.Info("workout plan generated", "generation_id", plan.GenerationID, "days", len(plan.Days), "skipped", len(plan.Skipped))

	if _, err := g.notifications.Create(ctx, &domain.Notification{UserID: user.ID, Message: PlanGeneratedMessage}); err != nil {
		log.Warn("plan notification not created", "error", err)
	}
	return plan, nil
}
