package service

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"andse-chat/internal/domain"
	"andse-chat/internal/repository"
)

// ErrSessionNotFound indica un id de sesión desconocido para la persistencia.
var ErrSessionNotFound = errors.New("session not found")

// SessionService es el registro de sesiones: fuente de verdad de qué
// conversaciones existen.
type SessionService struct {
	logger   *zap.Logger
	sessions repository.SessionRepository
	messages repository.MessageRepository
}

func NewSessionService(logger *zap.Logger, sessions repository.SessionRepository, messages repository.MessageRepository) *SessionService {
	return &SessionService{
		logger:   logger,
		sessions: sessions,
		messages: messages,
	}
}

// List devuelve las sesiones ordenadas por última actividad. Falla suave:
// si la persistencia no responde se loguea y se devuelve una lista vacía,
// nunca error.
func (s *SessionService) List(ctx context.Context) []domain.Session {
	sessions, err := s.sessions.List(ctx)
	if err != nil {
		s.logger.Warn("list sessions failed", zap.Error(err))
		return []domain.Session{}
	}
	if sessions == nil {
		sessions = []domain.Session{}
	}
	return sessions
}

// Create registra una sesión nueva con título placeholder; queda visible en
// el próximo List.
func (s *SessionService) Create(ctx context.Context) (domain.Session, error) {
	now := time.Now().UTC()
	session := domain.Session{
		ID:        uuid.NewString(),
		Title:     domain.DefaultSessionTitle,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.sessions.Create(ctx, session); err != nil {
		return domain.Session{}, err
	}
	return session, nil
}

// History devuelve los mensajes de la sesión en orden cronológico.
func (s *SessionService) History(ctx context.Context, id string) ([]domain.Message, error) {
	if _, err := s.sessions.GetByID(ctx, id); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrSessionNotFound
		}
		return nil, err
	}

	messages, err := s.messages.ListBySessionID(ctx, id)
	if err != nil {
		return nil, err
	}
	if messages == nil {
		messages = []domain.Message{}
	}
	return messages, nil
}

// Delete elimina la sesión junto con sus mensajes.
func (s *SessionService) Delete(ctx context.Context, id string) error {
	err := s.sessions.Delete(ctx, id)
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrSessionNotFound
	}
	return err
}
