package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"oriemap-backend/internal/models"
)

const (
	mentorGreeting = "Chào bạn! Tôi là OrieMap AI Mentor. Tôi ở đây để giúp bạn định hướng nghề nghiệp, chọn trường và xây dựng lộ trình học tập. Bạn đang quan tâm đến lĩnh vực nào?"
	mentorFallback = "⚠️ Rất tiếc, tôi đang gặp sự cố kỹ thuật. Vui lòng thử lại sau giây lát."

	sessionTitleLimit = 30
)

var (
	ErrEmptyMessage      = errors.New("message must not be empty")
	ErrTurnInFlight      = errors.New("a mentor turn is already in flight for this session")
	ErrMentorUnavailable = errors.New("mentor is unavailable")
)

type mentorModel interface {
	StreamMentorReply(ctx context.Context, history []models.Message, message string, onChunk func(string)) (string, error)
}

type mentorSessionStore interface {
	ListByUser(ctx context.Context, userID uuid.UUID) ([]*models.ChatSession, error)
	GetByID(ctx context.Context, id uuid.UUID) (*models.ChatSession, error)
	Create(ctx context.Context, s *models.ChatSession) error
	ReplaceMessages(ctx context.Context, id uuid.UUID, messages []models.Message) error
	Rename(ctx context.Context, id, userID uuid.UUID, title string) error
	Delete(ctx context.Context, id, userID uuid.UUID) error
}

// StreamSink observes one mentor turn: zero or more growing text snapshots,
// then exactly one OnComplete or OnFailed. Nothing is delivered after the
// terminal event.
type StreamSink interface {
	OnPartial(text string)
	OnComplete(result *models.SendMessageResponse)
	OnFailed(err error)
}

// MentorService drives the send-a-message-get-a-reply interaction: it owns
// the per-session turn gating, forwards a capped history window to Gemini,
// reconciles the result into the session store, and fans progress out to the
// caller's sink and the WebSocket channel.
type MentorService struct {
	model         mentorModel
	sessions      mentorSessionStore
	publish       func(ctx context.Context, userID uuid.UUID, msg models.WSMessage)
	historyWindow int
	timeout       time.Duration

	mu       sync.Mutex
	inflight map[string]struct{}
}

func NewMentorService(
	model mentorModel,
	sessions mentorSessionStore,
	publish func(ctx context.Context, userID uuid.UUID, msg models.WSMessage),
	historyWindow int,
	timeout time.Duration,
) *MentorService {
	if historyWindow <= 0 {
		historyWindow = 6
	}
	if timeout <= 0 {
		timeout = 60 * time.Second
	}

	return &MentorService{
		model:         model,
		sessions:      sessions,
		publish:       publish,
		historyWindow: historyWindow,
		timeout:       timeout,
		inflight:      make(map[string]struct{}),
	}
}

// SendTurn submits one user message. A nil sessionID starts a new
// conversation; the session record is only created once the model has
// replied, so an aborted first turn leaves nothing behind. The returned
// response carries the display text (chart block stripped), the optional
// chart, and the up-to-date session snapshot.
//
// On upstream failure an existing session gets the fixed fallback message
// appended and persisted, and both the degraded response and
// ErrMentorUnavailable are returned; a brand-new conversation returns only
// the error.
func (s *MentorService) SendTurn(ctx context.Context, userID uuid.UUID, sessionID *uuid.UUID, text string, sink StreamSink) (*models.SendMessageResponse, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, ErrEmptyMessage
	}

	// One turn at a time per conversation; unstarted conversations gate
	// per user so a double submit cannot create two sessions.
	key := "new:" + userID.String()
	if sessionID != nil {
		key = sessionID.String()
	}
	if !s.acquire(key) {
		return nil, ErrTurnInFlight
	}
	defer s.release(key)

	var session *models.ChatSession
	if sessionID != nil {
		var err error
		session, err = s.sessions.GetByID(ctx, *sessionID)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return nil, &NotFoundError{Message: "Chat session not found"}
			}
			return nil, err
		}
		if session.UserID != userID {
			return nil, &ForbiddenError{Message: "Access denied"}
		}
	}

	history := []models.Message{}
	if session != nil {
		history = session.Messages
	}

	// Only the most recent messages go to the model; the persisted
	// history is never truncated by this window.
	window := history
	if len(window) > s.historyWindow {
		window = window[len(window)-s.historyWindow:]
	}

	callCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	sid := ""
	if session != nil {
		sid = session.ID.String()
	}

	reply, err := s.model.StreamMentorReply(callCtx, window, text, func(snapshot string) {
		if sink != nil {
			sink.OnPartial(snapshot)
		}
		s.publishWS(userID, "chat_partial", models.ChatPartial{SessionID: sid, Text: snapshot})
	})
	if err != nil {
		return s.failTurn(userID, session, text, sink, err)
	}

	display, chart := ParseMentorReply(reply)

	// The raw model text is persisted so reloading a session re-parses to
	// the same display text and chart.
	userMsg := models.Message{Role: models.RoleUser, Text: text}
	modelMsg := models.Message{Role: models.RoleModel, Text: reply}

	// Persistence must survive the caller walking away mid-stream: a paid
	// model reply is never dropped on the floor.
	writeCtx := context.WithoutCancel(ctx)

	if session == nil {
		session = &models.ChatSession{
			ID:       uuid.New(),
			UserID:   userID,
			Title:    deriveSessionTitle(text),
			Messages: []models.Message{userMsg, modelMsg},
		}
		if err := s.sessions.Create(writeCtx, session); err != nil {
			err = fmt.Errorf("failed to persist chat session: %w", err)
			// The sink got partials already, so it still needs its one
			// terminal event.
			if sink != nil {
				sink.OnFailed(err)
			}
			return nil, err
		}
	} else {
		session.Messages = append(session.Messages, userMsg, modelMsg)
		if err := s.sessions.ReplaceMessages(writeCtx, session.ID, session.Messages); err != nil {
			err = fmt.Errorf("failed to persist chat history: %w", err)
			if sink != nil {
				sink.OnFailed(err)
			}
			return nil, err
		}
	}

	result := &models.SendMessageResponse{Session: session, Reply: display, Chart: chart}
	if sink != nil {
		sink.OnComplete(result)
	}
	s.publishWS(userID, "chat_completed", models.ChatCompleted{
		SessionID: session.ID.String(),
		Reply:     display,
		Chart:     chart,
	})

	return result, nil
}

func (s *MentorService) failTurn(userID uuid.UUID, session *models.ChatSession, text string, sink StreamSink, cause error) (*models.SendMessageResponse, error) {
	log.Printf("mentor call failed for user %s: %v", userID, cause)

	if sink != nil {
		defer sink.OnFailed(ErrMentorUnavailable)
	}

	// A conversation that never got a reply is not worth a session record.
	if session == nil {
		return nil, ErrMentorUnavailable
	}

	session.Messages = append(session.Messages,
		models.Message{Role: models.RoleUser, Text: text},
		models.Message{Role: models.RoleModel, Text: mentorFallback},
	)
	if err := s.sessions.ReplaceMessages(context.Background(), session.ID, session.Messages); err != nil {
		log.Printf("failed to persist fallback message for session %s: %v", session.ID, err)
	}

	result := &models.SendMessageResponse{Session: session, Reply: mentorFallback, Degraded: true}
	return result, ErrMentorUnavailable
}

// Session pass-throughs

func (s *MentorService) ListSessions(ctx context.Context, userID uuid.UUID) ([]*models.ChatSession, error) {
	return s.sessions.ListByUser(ctx, userID)
}

func (s *MentorService) GetSession(ctx context.Context, userID, id uuid.UUID) (*models.ChatSession, error) {
	session, err := s.sessions.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, &NotFoundError{Message: "Chat session not found"}
		}
		return nil, err
	}
	if session.UserID != userID {
		return nil, &ForbiddenError{Message: "Access denied"}
	}
	return session, nil
}

func (s *MentorService) RenameSession(ctx context.Context, userID, id uuid.UUID, title string) error {
	title = strings.TrimSpace(title)
	if title == "" {
		return &ValidationError{Fields: map[string]string{"title": "Title is required"}}
	}
	return s.sessions.Rename(ctx, id, userID, title)
}

func (s *MentorService) DeleteSession(ctx context.Context, userID, id uuid.UUID) error {
	return s.sessions.Delete(ctx, id, userID)
}

// ClearSession resets a session's history to the fixed greeting, keeping the
// id and title.
func (s *MentorService) ClearSession(ctx context.Context, userID, id uuid.UUID) (*models.ChatSession, error) {
	session, err := s.GetSession(ctx, userID, id)
	if err != nil {
		return nil, err
	}

	session.Messages = []models.Message{{Role: models.RoleModel, Text: mentorGreeting}}
	if err := s.sessions.ReplaceMessages(ctx, id, session.Messages); err != nil {
		return nil, err
	}
	return session, nil
}

// Greeting returns the fixed opening message shown for a conversation that
// has no session yet.
func (s *MentorService) Greeting() models.Message {
	return models.Message{Role: models.RoleModel, Text: mentorGreeting}
}

func (s *MentorService) acquire(key string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, busy := s.inflight[key]; busy {
		return false
	}
	s.inflight[key] = struct{}{}
	return true
}

func (s *MentorService) release(key string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.inflight, key)
}

func (s *MentorService) publishWS(userID uuid.UUID, msgType string, payload interface{}) {
	if s.publish == nil {
		return
	}
	s.publish(context.Background(), userID, models.WSMessage{Type: msgType, Payload: payload})
}

func deriveSessionTitle(firstMessage string) string {
	runes := []rune(firstMessage)
	if len(runes) <= sessionTitleLimit {
		return firstMessage
	}
	return string(runes[:sessionTitleLimit]) + "..."
}
