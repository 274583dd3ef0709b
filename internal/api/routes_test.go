package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"ironready/coach-api/internal/domain"
	"ironready/coach-api/internal/retrieval"
	"ironready/coach-api/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v4"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

const testSecret = "test-secret"

// Stubs embed the service interface; calling a method a test did not set up panics.

type stubGenerator struct {
	err  error
	plan *service.GeneratedPlan
}

func (s *stubGenerator) Generate(ctx context.Context, userID primitive.ObjectID) (*service.GeneratedPlan, error) {
	return s.plan, s.err
}

type stubSessions struct {
	service.SessionService
	completeErr error
	completed   *service.CompletedSession
}

func (s *stubSessions) Complete(ctx context.Context, sessionID, userID primitive.ObjectID) (*service.CompletedSession, error) {
	return s.completed, s.completeErr
}

type stubWorkouts struct {
	service.WorkoutService
	gotView string
}

func (s *stubWorkouts) PlanView(ctx context.Context, userID primitive.ObjectID, view string) (*service.PlanView, error) {
	s.gotView = view
	if view != service.ViewToday && view != service.ViewWeekly {
		return nil, service.ErrInvalidInput
	}
	return &service.PlanView{View: view}, nil
}

type stubNotifications struct {
	service.NotificationService
	unreadOnly bool
	markErr    error
}

func (s *stubNotifications) List(ctx context.Context, userID primitive.ObjectID, unreadOnly bool) ([]domain.Notification, error) {
	s.unreadOnly = unreadOnly
	return []domain.Notification{}, nil
}

func (s *stubNotifications) MarkRead(ctx context.Context, userID, notificationID primitive.ObjectID) error {
	return s.markErr
}

type stubReloader struct {
	calls int
	err   error
}

func (s *stubReloader) Reload(ctx context.Context) error {
	s.calls++
	return s.err
}

type testServer struct {
	router        *gin.Engine
	generator     *stubGenerator
	sessions      *stubSessions
	workouts      *stubWorkouts
	notifications *stubNotifications
	reloader      *stubReloader
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	ts := &testServer{
		generator:     &stubGenerator{},
		sessions:      &stubSessions{},
		workouts:      &stubWorkouts{},
		notifications: &stubNotifications{},
		reloader:      &stubReloader{},
	}
	ts.router = NewRouter(logger)
	SetupRoutes(ts.router, testSecret, Services{
		Generator:     ts.generator,
		Sessions:      ts.sessions,
		Workouts:      ts.workouts,
		Notifications: ts.notifications,
		Catalog:       retrieval.NewIndex(),
		IndexReloader: ts.reloader,
	}, logger)
	return ts
}

func signToken(t *testing.T, role domain.Role, expiresIn time.Duration) string {
	t.Helper()
	now := time.Now()
	claims := &service.JWTClaims{
		UserID: primitive.NewObjectID().Hex(),
		Role:   role,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(expiresIn)),
			IssuedAt:  jwt.NewNumericDate(now.Add(-time.Hour)),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(testSecret))
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return token
}

func (ts *testServer) do(t *testing.T, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			t.Fatal(err)
		}
		reader = bytes.NewReader(data)
	}
	req := httptest.NewRequest(method, path, reader)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	ts.router.ServeHTTP(w, req)
	return w
}

func errorMessage(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()
	var body struct {
		Error string `json:"error"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("response is not a JSON error: %s", w.Body.String())
	}
	return body.Error
}

func TestPing(t *testing.T) {
	ts := newTestServer(t)
	w := ts.do(t, http.MethodGet, "/ping", "", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if w.Header().Get(RequestIDHeader) == "" {
		t.Error("expected a generated request id header")
	}
}

func TestRequestIDIsEchoed(t *testing.T) {
	ts := newTestServer(t)
	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	req.Header.Set(RequestIDHeader, "req-123")
	w := httptest.NewRecorder()
	ts.router.ServeHTTP(w, req)
	if got := w.Header().Get(RequestIDHeader); got != "req-123" {
		t.Errorf("expected echoed request id, got %q", got)
	}
}

func TestMetricsEndpoint(t *testing.T) {
	ts := newTestServer(t)
	ts.do(t, http.MethodGet, "/ping", "", nil)
	w := ts.do(t, http.MethodGet, "/metrics", "", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), "http_request_duration_seconds") {
		t.Error("expected request latency histogram in metrics output")
	}
}

func TestAuthMiddleware(t *testing.T) {
	ts := newTestServer(t)

	tests := []struct {
		name    string
		header  string
		wantMsg string
	}{
		{"missing header", "", "Authorization header is missing"},
		{"wrong scheme", "Basic abc", "Authorization header format must be Bearer {token}"},
		{"garbage token", "Bearer not.a.token", "Invalid token"},
		{"expired token", "Bearer " + signToken(t, domain.RoleUser, -time.Minute), "Token has expired"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/api/v1/notifications", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			w := httptest.NewRecorder()
			ts.router.ServeHTTP(w, req)
			if w.Code != http.StatusUnauthorized {
				t.Fatalf("expected 401, got %d", w.Code)
			}
			if msg := errorMessage(t, w); !strings.HasPrefix(msg, tt.wantMsg) {
				t.Errorf("expected message starting %q, got %q", tt.wantMsg, msg)
			}
		})
	}
}

func TestGeneratePlanErrorMapping(t *testing.T) {
	ts := newTestServer(t)
	token := signToken(t, domain.RoleUser, time.Hour)

	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantMsg    string
	}{
		{"precondition", &service.GenerationError{State: service.StateRetrieving, Kind: service.KindPrecondition},
			http.StatusUnprocessableEntity, service.ErrPrecondition.Error()},
		{"retrieval", &service.GenerationError{State: service.StateRetrieving, Kind: service.KindRetrievalUnavailable, Err: retrieval.ErrIndexUnavailable},
			http.StatusServiceUnavailable, service.ErrRetrievalUnavailable.Error()},
		{"format", &service.GenerationError{State: service.StateParsing, Kind: service.KindGenerationFormat, Err: errors.New("unexpected end of JSON input")},
			http.StatusBadGateway, service.ErrGenerationFormat.Error()},
		{"no valid plan", &service.GenerationError{State: service.StateValidating, Kind: service.KindNoValidPlan},
			http.StatusBadGateway, service.ErrNoValidPlan.Error()},
		{"persistence", &service.GenerationError{State: service.StatePersisting, Kind: service.KindPersistence, Err: errors.New("write conflict")},
			http.StatusInternalServerError, service.ErrPersistence.Error()},
		{"unknown", errors.New("connection reset"),
			http.StatusInternalServerError, "Failed to generate plan."},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ts.generator.err = tt.err
			w := ts.do(t, http.MethodPost, "/api/v1/workouts/generate", token, nil)
			if w.Code != tt.wantStatus {
				t.Fatalf("expected %d, got %d (%s)", tt.wantStatus, w.Code, w.Body.String())
			}
			if msg := errorMessage(t, w); msg != tt.wantMsg {
				t.Errorf("expected message %q, got %q", tt.wantMsg, msg)
			}
		})
	}
}

func TestGeneratePlanCreated(t *testing.T) {
	ts := newTestServer(t)
	ts.generator.plan = &service.GeneratedPlan{
		GenerationID: "gen-1",
		Days:         []domain.WorkoutPlanDay{{Day: "Monday", Status: domain.DayToday}},
		Skipped:      []service.DayResult{{Index: 3, Reason: service.SkipMissingField, Detail: "focus is empty"}},
	}

	w := ts.do(t, http.MethodPost, "/api/v1/workouts/generate", signToken(t, domain.RoleUser, time.Hour), nil)
	if w.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d (%s)", w.Code, w.Body.String())
	}
	var resp GeneratePlanResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if resp.GenerationID != "gen-1" || resp.Persisted != 1 {
		t.Errorf("unexpected response: %+v", resp)
	}
	if len(resp.Skipped) != 1 || resp.Skipped[0].Reason != string(service.SkipMissingField) {
		t.Errorf("expected skipped day to be reported, got %+v", resp.Skipped)
	}
}

func TestCompleteSessionErrorMapping(t *testing.T) {
	ts := newTestServer(t)
	token := signToken(t, domain.RoleUser, time.Hour)
	path := "/api/v1/workouts/sessions/" + primitive.NewObjectID().Hex() + "/complete"

	tests := []struct {
		name       string
		err        error
		wantStatus int
	}{
		{"not found", service.ErrSessionNotFound, http.StatusNotFound},
		{"forbidden", service.ErrSessionForbidden, http.StatusForbidden},
		{"already completed", service.ErrSessionAlreadyCompleted, http.StatusConflict},
		{"persistence", errors.Join(service.ErrPersistence, errors.New("transaction aborted")), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ts.sessions.completeErr = tt.err
			w := ts.do(t, http.MethodPut, path, token, nil)
			if w.Code != tt.wantStatus {
				t.Fatalf("expected %d, got %d (%s)", tt.wantStatus, w.Code, w.Body.String())
			}
		})
	}
}

func TestCompleteSessionInvalidID(t *testing.T) {
	ts := newTestServer(t)
	w := ts.do(t, http.MethodPut, "/api/v1/workouts/sessions/nope/complete", signToken(t, domain.RoleUser, time.Hour), nil)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", w.Code)
	}
}

func TestGetPlanView(t *testing.T) {
	ts := newTestServer(t)
	token := signToken(t, domain.RoleUser, time.Hour)

	w := ts.do(t, http.MethodGet, "/api/v1/workouts/plan", token, nil)
	if w.Code != http.StatusOK || ts.workouts.gotView != service.ViewToday {
		t.Fatalf("expected default today view, got %d view=%q", w.Code, ts.workouts.gotView)
	}

	w = ts.do(t, http.MethodGet, "/api/v1/workouts/plan?view=monthly", token, nil)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for unknown view, got %d", w.Code)
	}
}

func TestNotifications(t *testing.T) {
	ts := newTestServer(t)
	token := signToken(t, domain.RoleUser, time.Hour)

	w := ts.do(t, http.MethodGet, "/api/v1/notifications?unread_only=true", token, nil)
	if w.Code != http.StatusOK || !ts.notifications.unreadOnly {
		t.Fatalf("expected unread filter to be passed, got %d unread=%v", w.Code, ts.notifications.unreadOnly)
	}

	path := "/api/v1/notifications/" + primitive.NewObjectID().Hex() + "/read"
	w = ts.do(t, http.MethodPatch, path, token, nil)
	if w.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", w.Code)
	}

	ts.notifications.markErr = service.ErrNotificationNotFound
	w = ts.do(t, http.MethodPatch, path, token, nil)
	if w.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", w.Code)
	}
}

func TestExercisesIndexUnavailable(t *testing.T) {
	ts := newTestServer(t)
	w := ts.do(t, http.MethodGet, "/api/v1/exercises", signToken(t, domain.RoleUser, time.Hour), nil)
	if w.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503 before an index is loaded, got %d", w.Code)
	}
}

func TestAdminReloadRequiresAdminRole(t *testing.T) {
	ts := newTestServer(t)

	w := ts.do(t, http.MethodPost, "/api/v1/admin/index/reload", signToken(t, domain.RoleUser, time.Hour), nil)
	if w.Code != http.StatusForbidden {
		t.Fatalf("expected 403 for a regular user, got %d", w.Code)
	}
	if ts.reloader.calls != 0 {
		t.Fatal("reload must not run for a regular user")
	}

	w = ts.do(t, http.MethodPost, "/api/v1/admin/index/reload", signToken(t, domain.RoleAdmin, time.Hour), nil)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200 for an admin, got %d (%s)", w.Code, w.Body.String())
	}
	if ts.reloader.calls != 1 {
		t.Errorf("expected one reload, got %d", ts.reloader.calls)
	}

	ts.reloader.err = errors.New("snapshot missing")
	w = ts.do(t, http.MethodPost, "/api/v1/admin/index/reload", signToken(t, domain.RoleAdmin, time.Hour), nil)
	if w.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503 when reload fails, got %d", w.Code)
	}
}

func TestStatusForError(t *testing.T) {
	tests := []struct {
		err       error
		want      int
		wantKnown bool
	}{
		{service.ErrInvalidInput, http.StatusBadRequest, true},
		{service.ErrAuthenticationFailed, http.StatusUnauthorized, true},
		{service.ErrUserAlreadyExists, http.StatusConflict, true},
		{service.ErrSubCategoryNotApplicable, http.StatusBadRequest, true},
		{service.ErrPlanDayForbidden, http.StatusForbidden, true},
		{errors.New("anything else"), http.StatusInternalServerError, false},
	}
	for _, tt := range tests {
		got, known := statusForError(tt.err)
		if got != tt.want || known != tt.wantKnown {
			t.Errorf("statusForError(%v) = %d, %v; want %d, %v", tt.err, got, known, tt.want, tt.wantKnown)
		}
	}
}
