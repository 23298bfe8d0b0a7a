package services

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"oriemap-backend/internal/models"
)

type fakeModel struct {
	mu      sync.Mutex
	reply   string
	err     error
	chunks  []string
	history []models.Message
	calls   int
	block   chan struct{} // when set, the call waits until closed
}

func (f *fakeModel) StreamMentorReply(ctx context.Context, history []models.Message, message string, onChunk func(string)) (string, error) {
	f.mu.Lock()
	f.calls++
	f.history = append([]models.Message{}, history...)
	block := f.block
	f.mu.Unlock()

	if block != nil {
		select {
		case <-block:
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}

	if f.err != nil {
		return "", f.err
	}
	for _, c := range f.chunks {
		onChunk(c)
	}
	return f.reply, nil
}

type fakeStore struct {
	mu         sync.Mutex
	sessions   map[uuid.UUID]*models.ChatSession
	creates    int
	replaces   int
	getErr     error
	createErr  error
	replaceErr error
}

func newFakeStore() *fakeStore {
	return &fakeStore{sessions: make(map[uuid.UUID]*models.ChatSession)}
}

func (f *fakeStore) ListByUser(ctx context.Context, userID uuid.UUID) ([]*models.ChatSession, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	var out []*models.ChatSession
	for _, s := range f.sessions {
		if s.UserID == userID {
			out = append(out, s)
		}
	}
	return out, nil
}

func (f *fakeStore) GetByID(ctx context.Context, id uuid.UUID) (*models.ChatSession, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.getErr != nil {
		return nil, f.getErr
	}
	s, ok := f.sessions[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	copied := *s
	copied.Messages = append([]models.Message{}, s.Messages...)
	return &copied, nil
}

func (f *fakeStore) Create(ctx context.Context, s *models.ChatSession) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.createErr != nil {
		return f.createErr
	}
	f.creates++
	copied := *s
	f.sessions[s.ID] = &copied
	return nil
}

func (f *fakeStore) ReplaceMessages(ctx context.Context, id uuid.UUID, messages []models.Message) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.replaceErr != nil {
		return f.replaceErr
	}
	f.replaces++
	if s, ok := f.sessions[id]; ok {
		s.Messages = append([]models.Message{}, messages...)
	}
	return nil
}

func (f *fakeStore) Rename(ctx context.Context, id, userID uuid.UUID, title string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if s, ok := f.sessions[id]; ok && s.UserID == userID {
		s.Title = title
	}
	return nil
}

func (f *fakeStore) Delete(ctx context.Context, id, userID uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if s, ok := f.sessions[id]; ok && s.UserID == userID {
		delete(f.sessions, id)
	}
	return nil
}

type recordingSink struct {
	partials  []string
	completed *models.SendMessageResponse
	failed    error
}

func (r *recordingSink) OnPartial(text string)                      { r.partials = append(r.partials, text) }
func (r *recordingSink) OnComplete(res *models.SendMessageResponse) { r.completed = res }
func (r *recordingSink) OnFailed(err error)                         { r.failed = err }

func newTestMentor(model *fakeModel, store *fakeStore) *MentorService {
	return NewMentorService(model, store, nil, 6, time.Second)
}

func TestSendTurn_EmptyMessage(t *testing.T) {
	svc := newTestMentor(&fakeModel{reply: "hi"}, newFakeStore())

	for _, in := range []string{"", "   ", "\n\t"} {
		if _, err := svc.SendTurn(context.Background(), uuid.New(), nil, in, nil); !errors.Is(err, ErrEmptyMessage) {
			t.Errorf("input %q: expected ErrEmptyMessage, got %v", in, err)
		}
	}
}

func TestSendTurn_CreatesSessionAfterFirstReply(t *testing.T) {
	model := &fakeModel{reply: "Chào bạn, rất vui được giúp!", chunks: []string{"Chào", "Chào bạn"}}
	store := newFakeStore()
	svc := newTestMentor(model, store)

	sink := &recordingSink{}
	userID := uuid.New()

	res, err := svc.SendTurn(context.Background(), userID, nil, "Em muốn học CNTT", sink)
	if err != nil {
		t.Fatalf("SendTurn failed: %v", err)
	}

	if store.creates != 1 {
		t.Fatalf("expected exactly one session create, got %d", store.creates)
	}
	if res.Session == nil || res.Session.UserID != userID {
		t.Fatal("expected the new session to belong to the user")
	}
	if res.Session.Title != "Em muốn học CNTT" {
		t.Errorf("unexpected session title: %q", res.Session.Title)
	}
	if len(res.Session.Messages) != 2 {
		t.Fatalf("expected 2 messages (user + model), got %d", len(res.Session.Messages))
	}
	if res.Session.Messages[0].Role != models.RoleUser || res.Session.Messages[1].Role != models.RoleModel {
		t.Errorf("unexpected message roles: %+v", res.Session.Messages)
	}
	if res.Reply != model.reply {
		t.Errorf("expected reply %q, got %q", model.reply, res.Reply)
	}

	if len(sink.partials) != 2 || sink.partials[1] != "Chào bạn" {
		t.Errorf("unexpected partial snapshots: %v", sink.partials)
	}
	if sink.completed == nil {
		t.Error("expected OnComplete to fire")
	}
	if sink.failed != nil {
		t.Errorf("unexpected OnFailed: %v", sink.failed)
	}
}

func TestSendTurn_TitleTruncation(t *testing.T) {
	long := strings.Repeat("ă", 45)
	model := &fakeModel{reply: "ok"}
	store := newFakeStore()
	svc := newTestMentor(model, store)

	res, err := svc.SendTurn(context.Background(), uuid.New(), nil, long, nil)
	if err != nil {
		t.Fatalf("SendTurn failed: %v", err)
	}

	want := strings.Repeat("ă", 30) + "..."
	if res.Session.Title != want {
		t.Errorf("expected truncated title %q, got %q", want, res.Session.Title)
	}
}

func TestSendTurn_AppendsToExistingSession(t *testing.T) {
	model := &fakeModel{reply: "reply two"}
	store := newFakeStore()
	svc := newTestMentor(model, store)

	userID := uuid.New()
	session := &models.ChatSession{
		ID:     uuid.New(),
		UserID: userID,
		Title:  "old",
		Messages: []models.Message{
			{Role: models.RoleUser, Text: "first"},
			{Role: models.RoleModel, Text: "reply one"},
		},
	}
	store.Create(context.Background(), session)
	store.creates = 0

	res, err := svc.SendTurn(context.Background(), userID, &session.ID, "second", nil)
	if err != nil {
		t.Fatalf("SendTurn failed: %v", err)
	}

	if store.creates != 0 {
		t.Errorf("expected no new session, got %d creates", store.creates)
	}
	if len(res.Session.Messages) != 4 {
		t.Fatalf("expected 4 messages after second turn, got %d", len(res.Session.Messages))
	}
	if res.Session.Messages[2].Text != "second" || res.Session.Messages[3].Text != "reply two" {
		t.Errorf("unexpected appended messages: %+v", res.Session.Messages[2:])
	}

	persisted, _ := store.GetByID(context.Background(), session.ID)
	if len(persisted.Messages) != 4 {
		t.Errorf("expected persisted history of 4 messages, got %d", len(persisted.Messages))
	}
}

func TestSendTurn_HistoryWindow(t *testing.T) {
	model := &fakeModel{reply: "ok"}
	store := newFakeStore()
	svc := newTestMentor(model, store)

	userID := uuid.New()
	var history []models.Message
	for i := 0; i < 10; i++ {
		history = append(history, models.Message{Role: models.RoleUser, Text: "m"})
	}
	session := &models.ChatSession{ID: uuid.New(), UserID: userID, Messages: history}
	store.Create(context.Background(), session)

	if _, err := svc.SendTurn(context.Background(), userID, &session.ID, "next", nil); err != nil {
		t.Fatalf("SendTurn failed: %v", err)
	}

	if len(model.history) != 6 {
		t.Errorf("expected a 6 message window sent to the model, got %d", len(model.history))
	}

	persisted, _ := store.GetByID(context.Background(), session.ID)
	if len(persisted.Messages) != 12 {
		t.Errorf("expected full 12 message history persisted, got %d", len(persisted.Messages))
	}
}

func TestSendTurn_FailureAppendsFallback(t *testing.T) {
	model := &fakeModel{err: errors.New("upstream boom")}
	store := newFakeStore()
	svc := newTestMentor(model, store)

	userID := uuid.New()
	session := &models.ChatSession{
		ID:       uuid.New(),
		UserID:   userID,
		Messages: []models.Message{{Role: models.RoleModel, Text: mentorGreeting}},
	}
	store.Create(context.Background(), session)

	sink := &recordingSink{}
	res, err := svc.SendTurn(context.Background(), userID, &session.ID, "hỏi gì đó", sink)

	if !errors.Is(err, ErrMentorUnavailable) {
		t.Fatalf("expected ErrMentorUnavailable, got %v", err)
	}
	if res == nil || !res.Degraded {
		t.Fatal("expected a degraded response alongside the error")
	}
	if res.Reply != mentorFallback {
		t.Errorf("expected fallback reply, got %q", res.Reply)
	}

	persisted, _ := store.GetByID(context.Background(), session.ID)
	if len(persisted.Messages) != 3 {
		t.Fatalf("expected user + fallback appended, got %d messages", len(persisted.Messages))
	}
	if persisted.Messages[2].Text != mentorFallback {
		t.Errorf("expected persisted fallback, got %q", persisted.Messages[2].Text)
	}

	if sink.failed == nil {
		t.Error("expected OnFailed to fire")
	}
	if sink.completed != nil {
		t.Error("OnComplete must not fire on a failed turn")
	}
}

func TestSendTurn_FailureOnNewConversationLeavesNothing(t *testing.T) {
	model := &fakeModel{err: errors.New("upstream boom")}
	store := newFakeStore()
	svc := newTestMentor(model, store)

	res, err := svc.SendTurn(context.Background(), uuid.New(), nil, "xin chào", nil)

	if !errors.Is(err, ErrMentorUnavailable) {
		t.Fatalf("expected ErrMentorUnavailable, got %v", err)
	}
	if res != nil {
		t.Errorf("expected no response for a failed first turn, got %+v", res)
	}
	if store.creates != 0 || len(store.sessions) != 0 {
		t.Errorf("expected no session persisted, got %d", len(store.sessions))
	}
}

func TestSendTurn_CreateFailureFiresOnFailed(t *testing.T) {
	model := &fakeModel{reply: "ok", chunks: []string{"o", "ok"}}
	store := newFakeStore()
	store.createErr = errors.New("disk full")
	svc := newTestMentor(model, store)

	sink := &recordingSink{}
	res, err := svc.SendTurn(context.Background(), uuid.New(), nil, "xin chào", sink)

	if err == nil {
		t.Fatal("expected an error when the session cannot be persisted")
	}
	if res != nil {
		t.Errorf("expected no response on persistence failure, got %+v", res)
	}
	if sink.failed == nil {
		t.Error("expected OnFailed after partials when persistence fails")
	}
	if sink.completed != nil {
		t.Error("OnComplete must not fire when persistence fails")
	}
}

func TestSendTurn_ReplaceFailureFiresOnFailed(t *testing.T) {
	model := &fakeModel{reply: "ok"}
	store := newFakeStore()
	svc := newTestMentor(model, store)

	userID := uuid.New()
	session := &models.ChatSession{ID: uuid.New(), UserID: userID}
	store.Create(context.Background(), session)
	store.replaceErr = errors.New("connection reset")

	sink := &recordingSink{}
	_, err := svc.SendTurn(context.Background(), userID, &session.ID, "tiếp theo", sink)

	if err == nil {
		t.Fatal("expected an error when the history cannot be persisted")
	}
	if sink.failed == nil {
		t.Error("expected OnFailed when persistence fails")
	}
	if sink.completed != nil {
		t.Error("OnComplete must not fire when persistence fails")
	}
}

func TestSendTurn_UnknownSessionIsNotFound(t *testing.T) {
	svc := newTestMentor(&fakeModel{reply: "ok"}, newFakeStore())

	id := uuid.New()
	_, err := svc.SendTurn(context.Background(), uuid.New(), &id, "hi", nil)

	var notFound *NotFoundError
	if !errors.As(err, &notFound) {
		t.Errorf("expected NotFoundError for an unknown session, got %v", err)
	}
}

func TestSendTurn_StoreErrorIsNotNotFound(t *testing.T) {
	store := newFakeStore()
	store.getErr = errors.New("pool closed")
	svc := newTestMentor(&fakeModel{reply: "ok"}, store)

	id := uuid.New()
	_, err := svc.SendTurn(context.Background(), uuid.New(), &id, "hi", nil)

	var notFound *NotFoundError
	if errors.As(err, &notFound) {
		t.Fatal("a transient store error must not be reported as not-found")
	}
	if !errors.Is(err, store.getErr) {
		t.Errorf("expected the store error passed through, got %v", err)
	}
}

func TestSendTurn_RejectsConcurrentTurn(t *testing.T) {
	block := make(chan struct{})
	model := &fakeModel{reply: "slow", block: block}
	store := newFakeStore()
	svc := newTestMentor(model, store)

	userID := uuid.New()
	session := &models.ChatSession{ID: uuid.New(), UserID: userID}
	store.Create(context.Background(), session)

	done := make(chan struct{})
	go func() {
		defer close(done)
		svc.SendTurn(context.Background(), userID, &session.ID, "first", nil)
	}()

	// Wait until the first turn is inside the model call
	deadline := time.After(time.Second)
	for {
		model.mu.Lock()
		started := model.calls > 0
		model.mu.Unlock()
		if started {
			break
		}
		select {
		case <-deadline:
			t.Fatal("first turn never reached the model")
		case <-time.After(5 * time.Millisecond):
		}
	}

	if _, err := svc.SendTurn(context.Background(), userID, &session.ID, "second", nil); !errors.Is(err, ErrTurnInFlight) {
		t.Errorf("expected ErrTurnInFlight, got %v", err)
	}

	close(block)
	<-done

	// The gate releases once the first turn finishes
	if _, err := svc.SendTurn(context.Background(), userID, &session.ID, "third", nil); err != nil {
		t.Errorf("expected gate released after first turn, got %v", err)
	}
}

func TestSendTurn_OwnershipChecked(t *testing.T) {
	model := &fakeModel{reply: "ok"}
	store := newFakeStore()
	svc := newTestMentor(model, store)

	owner := uuid.New()
	session := &models.ChatSession{ID: uuid.New(), UserID: owner}
	store.Create(context.Background(), session)

	_, err := svc.SendTurn(context.Background(), uuid.New(), &session.ID, "hi", nil)

	var forbidden *ForbiddenError
	if !errors.As(err, &forbidden) {
		t.Errorf("expected ForbiddenError for another user's session, got %v", err)
	}
}

func TestSendTurn_StripsChartFromReply(t *testing.T) {
	raw := "Xem biểu đồ:\n```json\n{\"type\":\"chart\",\"chartType\":\"pie\",\"title\":\"t\",\"labels\":[\"a\"],\"data\":[1]}\n```"
	model := &fakeModel{reply: raw}
	store := newFakeStore()
	svc := newTestMentor(model, store)

	res, err := svc.SendTurn(context.Background(), uuid.New(), nil, "chart please", nil)
	if err != nil {
		t.Fatalf("SendTurn failed: %v", err)
	}

	if res.Chart == nil || res.Chart.ChartType != "pie" {
		t.Fatalf("expected pie chart, got %+v", res.Chart)
	}
	if strings.Contains(res.Reply, "```") {
		t.Errorf("reply still contains the chart block: %q", res.Reply)
	}

	// The raw model text, block included, is what gets persisted
	if got := res.Session.Messages[1].Text; got != raw {
		t.Errorf("expected raw reply persisted, got %q", got)
	}
}

func TestClearSession_ResetsToGreeting(t *testing.T) {
	model := &fakeModel{reply: "ok"}
	store := newFakeStore()
	svc := newTestMentor(model, store)

	userID := uuid.New()
	session := &models.ChatSession{
		ID:     uuid.New(),
		UserID: userID,
		Title:  "keep me",
		Messages: []models.Message{
			{Role: models.RoleUser, Text: "a"},
			{Role: models.RoleModel, Text: "b"},
		},
	}
	store.Create(context.Background(), session)

	cleared, err := svc.ClearSession(context.Background(), userID, session.ID)
	if err != nil {
		t.Fatalf("ClearSession failed: %v", err)
	}

	if cleared.Title != "keep me" {
		t.Errorf("expected title preserved, got %q", cleared.Title)
	}
	if len(cleared.Messages) != 1 || cleared.Messages[0].Text != mentorGreeting {
		t.Errorf("expected history reset to greeting, got %+v", cleared.Messages)
	}
}

func TestDeriveSessionTitle(t *testing.T) {
	if got := deriveSessionTitle("ngắn"); got != "ngắn" {
		t.Errorf("short title changed: %q", got)
	}

	exact := strings.Repeat("x", 30)
	if got := deriveSessionTitle(exact); got != exact {
		t.Errorf("title at the limit should be unchanged, got %q", got)
	}
}
