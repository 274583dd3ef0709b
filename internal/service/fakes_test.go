package service

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"ironready/coach-api/internal/domain"
	"ironready/coach-api/internal/llm"
	"ironready/coach-api/internal/repository"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

var errStoreDown = errors.New("store unavailable")

// memStore backs every fake repository. WithinTransaction snapshots the
// whole store and restores it when fn fails.
type memStore struct {
	mu            sync.Mutex
	users         map[primitive.ObjectID]domain.User
	planDays      []domain.WorkoutPlanDay
	sessions      map[primitive.ObjectID]domain.WorkoutSession
	setLogs       []domain.SetLog
	recoveries    map[string]domain.RecoveryRecord
	notifications []domain.Notification

	failInsertBatch  error
	failUpsertMuscle string
	failNotification error
	forceConflict    bool
	txCount          int
}

func newMemStore() *memStore {
	return &memStore{
		users:      map[primitive.ObjectID]domain.User{},
		sessions:   map[primitive.ObjectID]domain.WorkoutSession{},
		recoveries: map[string]domain.RecoveryRecord{},
	}
}

type memState struct {
	users         map[primitive.ObjectID]domain.User
	planDays      []domain.WorkoutPlanDay
	sessions      map[primitive.ObjectID]domain.WorkoutSession
	setLogs       []domain.SetLog
	recoveries    map[string]domain.RecoveryRecord
	notifications []domain.Notification
}

func (s *memStore) snapshot() memState {
	st := memState{
		users:         map[primitive.ObjectID]domain.User{},
		planDays:      append([]domain.WorkoutPlanDay(nil), s.planDays...),
		sessions:      map[primitive.ObjectID]domain.WorkoutSession{},
		setLogs:       append([]domain.SetLog(nil), s.setLogs...),
		recoveries:    map[string]domain.RecoveryRecord{},
		notifications: append([]domain.Notification(nil), s.notifications...),
	}
	for k, v := range s.users {
		st.users[k] = v
	}
	for k, v := range s.sessions {
		st.sessions[k] = v
	}
	for k, v := range s.recoveries {
		st.recoveries[k] = v
	}
	return st
}

func (s *memStore) restore(st memState) {
	s.users = st.users
	s.planDays = st.planDays
	s.sessions = st.sessions
	s.setLogs = st.setLogs
	s.recoveries = st.recoveries
	s.notifications = st.notifications
}

func (s *memStore) WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	s.mu.Lock()
	s.txCount++
	saved := s.snapshot()
	s.mu.Unlock()

	if err := fn(ctx); err != nil {
		s.mu.Lock()
		s.restore(saved)
		s.mu.Unlock()
		return err
	}
	return nil
}

func (s *memStore) addUser(u domain.User) domain.User {
	s.mu.Lock()
	defer s.mu.Unlock()
	if u.ID.IsZero() {
		u.ID = primitive.NewObjectID()
	}
	s.users[u.ID] = u
	return u
}

func (s *memStore) addPlanDay(d domain.WorkoutPlanDay) domain.WorkoutPlanDay {
	s.mu.Lock()
	defer s.mu.Unlock()
	if d.ID.IsZero() {
		d.ID = primitive.NewObjectID()
	}
	s.planDays = append(s.planDays, d)
	return d
}

func (s *memStore) addSession(ws domain.WorkoutSession) domain.WorkoutSession {
	s.mu.Lock()
	defer s.mu.Unlock()
	if ws.ID.IsZero() {
		ws.ID = primitive.NewObjectID()
	}
	s.sessions[ws.ID] = ws
	return ws
}

func (s *memStore) planDayCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.planDays)
}

func (s *memStore) notificationMessages() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, 0, len(s.notifications))
	for _, n := range s.notifications {
		out = append(out, n.Message)
	}
	return out
}

func (s *memStore) recovery(userID primitive.ObjectID, muscle string) (domain.RecoveryRecord, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.recoveries[userID.Hex()+"|"+muscle]
	return rec, ok
}

func (s *memStore) session(id primitive.ObjectID) domain.WorkoutSession {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sessions[id]
}

// --- users ---

type fakeUsers struct{ *memStore }

func (f fakeUsers) Create(ctx context.Context, user *domain.User) (primitive.ObjectID, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, u := range f.users {
		if u.Email == user.Email {
			return primitive.NilObjectID, repository.ErrDuplicate
		}
	}
	user.ID = primitive.NewObjectID()
	f.users[user.ID] = *user
	return user.ID, nil
}

func (f fakeUsers) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, u := range f.users {
		if u.Email == email {
			return &u, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (f fakeUsers) GetByID(ctx context.Context, id primitive.ObjectID) (*domain.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.users[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &u, nil
}

func (f fakeUsers) UpdateProfile(ctx context.Context, id primitive.ObjectID, profile domain.Profile) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.users[id]
	if !ok {
		return repository.ErrNotFound
	}
	u.Profile = profile
	f.users[id] = u
	return nil
}

// --- plan days ---

type fakePlanDays struct{ *memStore }

func (f fakePlanDays) InsertBatch(ctx context.Context, days []domain.WorkoutPlanDay) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failInsertBatch != nil {
		return f.failInsertBatch
	}
	for i := range days {
		days[i].ID = primitive.NewObjectID()
		f.planDays = append(f.planDays, days[i])
	}
	return nil
}

func (f fakePlanDays) GetByID(ctx context.Context, id primitive.ObjectID) (*domain.WorkoutPlanDay, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, d := range f.planDays {
		if d.ID == id {
			return &d, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (f fakePlanDays) ListByUser(ctx context.Context, userID primitive.ObjectID) ([]domain.WorkoutPlanDay, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []domain.WorkoutPlanDay
	for _, d := range f.planDays {
		if d.UserID == userID {
			out = append(out, d)
		}
	}
	return out, nil
}

func (f fakePlanDays) LatestGeneration(ctx context.Context, userID primitive.ObjectID) ([]domain.WorkoutPlanDay, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var latest string
	var latestAt time.Time
	found := false
	for _, d := range f.planDays {
		if d.UserID == userID && !d.GeneratedAt.Before(latestAt) {
			latest, latestAt, found = d.GenerationID, d.GeneratedAt, true
		}
	}
	if !found {
		return nil, repository.ErrNotFound
	}
	var out []domain.WorkoutPlanDay
	for _, d := range f.planDays {
		if d.UserID == userID && d.GenerationID == latest {
			out = append(out, d)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].DayIndex < out[j].DayIndex })
	return out, nil
}

// --- sessions ---

type fakeSessions struct{ *memStore }

func (f fakeSessions) Create(ctx context.Context, ws *domain.WorkoutSession) (primitive.ObjectID, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	ws.ID = primitive.NewObjectID()
	f.sessions[ws.ID] = *ws
	return ws.ID, nil
}

func (f fakeSessions) GetByID(ctx context.Context, id primitive.ObjectID) (*domain.WorkoutSession, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	ws, ok := f.sessions[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &ws, nil
}

func (f fakeSessions) MarkCompleted(ctx context.Context, id primitive.ObjectID, endTime time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	ws, ok := f.sessions[id]
	if !ok || ws.Completed || f.forceConflict {
		return repository.ErrConflict
	}
	ws.Completed = true
	ws.EndTime = &endTime
	f.sessions[id] = ws
	return nil
}

func (f fakeSessions) AddSetLog(ctx context.Context, l *domain.SetLog) (primitive.ObjectID, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	l.ID = primitive.NewObjectID()
	f.setLogs = append(f.setLogs, *l)
	return l.ID, nil
}

func (f fakeSessions) ListSetLogs(ctx context.Context, sessionID primitive.ObjectID) ([]domain.SetLog, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []domain.SetLog
	for _, l := range f.setLogs {
		if l.SessionID == sessionID {
			out = append(out, l)
		}
	}
	return out, nil
}

// --- recoveries ---

type fakeRecoveries struct{ *memStore }

func (f fakeRecoveries) Upsert(ctx context.Context, in repository.RecoveryUpsert) (*domain.RecoveryRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if in.MuscleGroup == f.failUpsertMuscle {
		return nil, errStoreDown
	}
	key := in.UserID.Hex() + "|" + in.MuscleGroup
	rec, ok := f.recoveries[key]
	if !ok {
		rec = domain.RecoveryRecord{ID: primitive.NewObjectID(), UserID: in.UserID, MuscleGroup: in.MuscleGroup, CreatedAt: in.Now}
	}
	updated := in.Now
	if ok && !updated.After(rec.LastUpdated) {
		updated = rec.LastUpdated.Add(time.Millisecond)
	}
	rec.Status = in.Status
	rec.Tip = in.Tip
	rec.LastExertionAt = in.LastExertionAt
	rec.LastUpdated = updated
	f.recoveries[key] = rec
	return &rec, nil
}

func (f fakeRecoveries) ListForUser(ctx context.Context, userID primitive.ObjectID) ([]domain.RecoveryRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []domain.RecoveryRecord
	for _, r := range f.recoveries {
		if r.UserID == userID {
			out = append(out, r)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].MuscleGroup < out[j].MuscleGroup })
	return out, nil
}

func (f fakeRecoveries) ForEach(ctx context.Context, fn func(domain.RecoveryRecord) error) error {
	f.mu.Lock()
	var out []domain.RecoveryRecord
	for _, r := range f.recoveries {
		out = append(out, r)
	}
	f.mu.Unlock()
	for _, r := range out {
		if err := fn(r); err != nil {
			return err
		}
	}
	return nil
}

func (f fakeRecoveries) RefreshStatus(ctx context.Context, id primitive.ObjectID, seen time.Time, status domain.RecoveryStatus, tip string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for k, r := range f.recoveries {
		if r.ID == id {
			if !r.LastUpdated.Equal(seen) {
				return repository.ErrConflict
			}
			r.Status = status
			r.Tip = &tip
			f.recoveries[k] = r
			return nil
		}
	}
	return repository.ErrConflict
}

// --- notifications ---

type fakeNotifications struct{ *memStore }

func (f fakeNotifications) Create(ctx context.Context, n *domain.Notification) (primitive.ObjectID, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failNotification != nil {
		return primitive.NilObjectID, f.failNotification
	}
	n.ID = primitive.NewObjectID()
	f.notifications = append(f.notifications, *n)
	return n.ID, nil
}

func (f fakeNotifications) ListByUser(ctx context.Context, userID primitive.ObjectID, unreadOnly bool) ([]domain.Notification, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []domain.Notification
	for _, n := range f.notifications {
		if n.UserID == userID && (!unreadOnly || !n.IsRead) {
			out = append(out, n)
		}
	}
	return out, nil
}

func (f fakeNotifications) MarkRead(ctx context.Context, id, userID primitive.ObjectID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i, n := range f.notifications {
		if n.ID == id && n.UserID == userID {
			f.notifications[i].IsRead = true
			return nil
		}
	}
	return repository.ErrNotFound
}

// --- model, retriever, tips ---

type fakeModel struct {
	mu       sync.Mutex
	requests []llm.Request
	respond  func(ctx context.Context, req llm.Request) (string, error)
}

func (m *fakeModel) Complete(ctx context.Context, req llm.Request) (string, error) {
	m.mu.Lock()
	m.requests = append(m.requests, req)
	m.mu.Unlock()
	return m.respond(ctx, req)
}

func (m *fakeModel) calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.requests)
}

func replyWith(s string) *fakeModel {
	return &fakeModel{respond: func(context.Context, llm.Request) (string, error) { return s, nil }}
}

type fakeRetriever struct {
	docs    []domain.ExerciseDocument
	err     error
	queries []string
}

func (r *fakeRetriever) Retrieve(ctx context.Context, query string, k int) ([]domain.ExerciseDocument, error) {
	r.queries = append(r.queries, query)
	if r.err != nil {
		return nil, r.err
	}
	if len(r.docs) > k {
		return r.docs[:k], nil
	}
	return r.docs, nil
}

type fakeTips struct {
	tip     string
	err     error
	muscles []string
}

func (t *fakeTips) Enhance(ctx context.Context, muscle, intensity string, maxWords int) (string, error) {
	t.muscles = append(t.muscles, muscle)
	if t.err != nil {
		return "", t.err
	}
	return t.tip + " (" + muscle + ")", nil
}

func recoveryUpsert(userID primitive.ObjectID, muscle string, tip *string) repository.RecoveryUpsert {
	return repository.RecoveryUpsert{
		UserID:         userID,
		MuscleGroup:    muscle,
		Status:         domain.RecoveryRed,
		Tip:            tip,
		LastExertionAt: &wednesday,
		Now:            wednesday,
	}
}
