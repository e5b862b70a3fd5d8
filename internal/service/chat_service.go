package service

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"andse-chat/internal/chat"
	"andse-chat/internal/domain"
	"andse-chat/internal/llm"
	"andse-chat/internal/repository"
)

// Longitud máxima del título derivado del primer mensaje.
const lazyTitleRunes = 40

// Ventana de historia que se pasa al motor como contexto.
const historyWindow = 20

// ChatService orquesta un envío: persiste el turno del usuario, streamea la
// respuesta del motor como eventos del canal y finaliza el mensaje del
// asistente.
type ChatService struct {
	logger       *zap.Logger
	sessions     repository.SessionRepository
	messages     repository.MessageRepository
	engine       llm.StreamClient
	broadcaster  chat.Broadcaster
	systemPrompt string

	locksMu      sync.Mutex
	sessionLocks map[string]*sync.Mutex
}

func NewChatService(
	logger *zap.Logger,
	sessions repository.SessionRepository,
	messages repository.MessageRepository,
	engine llm.StreamClient,
	broadcaster chat.Broadcaster,
	systemPrompt string,
) *ChatService {
	return &ChatService{
		logger:       logger,
		sessions:     sessions,
		messages:     messages,
		engine:       engine,
		broadcaster:  broadcaster,
		systemPrompt: systemPrompt,
		sessionLocks: make(map[string]*sync.Mutex),
	}
}

// lockSession serializa los envíos de una misma sesión: los chunks de un
// stream nunca se entrelazan con los de otro. Entre sesiones distintas no
// hay garantía de orden.
func (s *ChatService) lockSession(id string) func() {
	s.locksMu.Lock()
	mu, ok := s.sessionLocks[id]
	if !ok {
		mu = &sync.Mutex{}
		s.sessionLocks[id] = mu
	}
	s.locksMu.Unlock()

	mu.Lock()
	return mu.Unlock
}

// HandleSend procesa un mensaje compuesto para la sesión dada; con sessionID
// vacío crea la sesión de manera lazy. Devuelve la sesión afectada.
func (s *ChatService) HandleSend(ctx context.Context, sessionID, text string, attachment *domain.Attachment) (domain.Session, error) {
	if text == "" && attachment == nil {
		return domain.Session{}, chat.ErrEmptyMessage
	}

	session, firstExchange, err := s.resolveSession(ctx, sessionID, text)
	if err != nil {
		return domain.Session{}, err
	}

	unlock := s.lockSession(session.ID)
	defer unlock()

	// Historia previa al turno actual, acotada a la ventana de contexto.
	history, err := s.messages.ListBySessionID(ctx, session.ID)
	if err != nil {
		s.logger.Warn("history fetch failed", zap.Error(err), zap.String("session_id", session.ID))
		history = nil
	}
	if len(history) > historyWindow {
		history = history[len(history)-historyWindow:]
	}

	now := time.Now().UTC()
	userMsg := domain.Message{
		ID:         uuid.NewString(),
		SessionID:  session.ID,
		Sender:     domain.RoleUser,
		Content:    text,
		Attachment: attachment,
		CreatedAt:  now,
	}
	if err := s.messages.Create(ctx, userMsg); err != nil {
		return domain.Session{}, err
	}
	if err := s.sessions.Touch(ctx, session.ID, now); err != nil {
		s.logger.Warn("session touch failed", zap.Error(err), zap.String("session_id", session.ID))
	}

	s.broadcaster.Broadcast(session.ID, chat.Event{Name: chat.EventTypingStart, SessionID: session.ID})

	acc := chat.NewChunkAccumulator(session.ID)
	_, err = s.engine.StreamChat(ctx, s.systemPrompt, history, text, func(chunk string) {
		if err := acc.Append(chunk); err != nil {
			return
		}
		s.broadcaster.Broadcast(session.ID, chat.Event{
			Name:      chat.EventMessageChunk,
			SessionID: session.ID,
			Chunk:     chunk,
		})
	})

	// typing_end se emite también cuando el motor falla, para que ningún
	// receptor quede con una respuesta abierta huérfana.
	s.broadcaster.Broadcast(session.ID, chat.Event{Name: chat.EventTypingEnd, SessionID: session.ID})

	if err != nil {
		s.logger.Error("engine stream failed", zap.Error(err), zap.String("session_id", session.ID))
		return domain.Session{}, err
	}

	reply := acc.Finalize()
	assistantMsg := domain.Message{
		ID:        uuid.NewString(),
		SessionID: session.ID,
		Sender:    domain.RoleAssistant,
		Content:   reply,
		CreatedAt: time.Now().UTC(),
	}
	if err := s.messages.Create(ctx, assistantMsg); err != nil {
		return domain.Session{}, err
	}

	if firstExchange {
		s.suggestTitle(ctx, &session, text, reply)
	}

	return session, nil
}

// OpenSession crea la sesión para un primer envío sin id, con el título
// derivado del texto. El llamador del canal de streaming debe suscribir la
// conexión al id nuevo antes de despachar el envío, o los eventos de la
// respuesta no le llegan.
func (s *ChatService) OpenSession(ctx context.Context, text string) (domain.Session, error) {
	now := time.Now().UTC()
	session := domain.Session{
		ID:        uuid.NewString(),
		Title:     deriveTitle(text),
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.sessions.Create(ctx, session); err != nil {
		return domain.Session{}, err
	}
	return session, nil
}

func (s *ChatService) resolveSession(ctx context.Context, sessionID, text string) (domain.Session, bool, error) {
	if sessionID == "" {
		session, err := s.OpenSession(ctx, text)
		if err != nil {
			return domain.Session{}, false, err
		}
		return session, true, nil
	}

	session, err := s.sessions.GetByID(ctx, sessionID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Session{}, false, ErrSessionNotFound
		}
		return domain.Session{}, false, err
	}
	return session, session.MessageCount == 0, nil
}

// suggestTitle pide un título al motor tras el primer intercambio; un fallo
// acá no es fatal, la sesión conserva su título derivado.
func (s *ChatService) suggestTitle(ctx context.Context, session *domain.Session, userInput, reply string) {
	title, err := s.engine.SuggestTitle(ctx, userInput, reply)
	if err != nil || title == "" {
		if err != nil {
			s.logger.Warn("title suggestion failed", zap.Error(err), zap.String("session_id", session.ID))
		}
		return
	}
	if err := s.sessions.UpdateTitle(ctx, session.ID, title); err != nil {
		s.logger.Warn("title update failed", zap.Error(err), zap.String("session_id", session.ID))
		return
	}
	session.Title = title
	s.broadcaster.Broadcast(session.ID, chat.Event{
		Name:      chat.EventUpdateTitle,
		SessionID: session.ID,
		Title:     title,
	})
}

// deriveTitle recorta el primer mensaje a 40 runas, como título provisorio.
func deriveTitle(text string) string {
	if text == "" {
		return domain.DefaultSessionTitle
	}
	runes := []rune(text)
	if len(runes) <= lazyTitleRunes {
		return text
	}
	return string(runes[:lazyTitleRunes]) + "..."
}
