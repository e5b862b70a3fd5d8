package service

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"andse-chat/internal/speech"
)

var (
	ErrTranscriptionFailed = errors.New("transcription failed")
	ErrRateLimited         = errors.New("too many transcription requests")
	ErrTimeout             = errors.New("transcription timed out")
)

// TranscribeService recibe los bytes de audio capturados y devuelve el
// transcript, con límite de frecuencia por cliente y timeout acotado.
type TranscribeService struct {
	logger      *zap.Logger
	transcriber speech.Transcriber
	limiter     TranscribeRateLimiter
	timeout     time.Duration
}

func NewTranscribeService(logger *zap.Logger, transcriber speech.Transcriber, limiter TranscribeRateLimiter, timeout time.Duration) *TranscribeService {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &TranscribeService{
		logger:      logger,
		transcriber: transcriber,
		limiter:     limiter,
		timeout:     timeout,
	}
}

// Transcribe corre el STT con timeout propio; clientKey identifica al
// cliente para el rate limit (vacío lo saltea).
func (s *TranscribeService) Transcribe(ctx context.Context, clientKey string, audio []byte, filename string) (string, error) {
	if s.limiter != nil && clientKey != "" && !s.limiter.Allow(clientKey) {
		return "", ErrRateLimited
	}
	if len(audio) == 0 {
		return "", ErrTranscriptionFailed
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	text, err := s.transcriber.Transcribe(ctx, audio, filename)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			s.logger.Warn("stt timed out", zap.Duration("timeout", s.timeout))
			return "", ErrTimeout
		}
		s.logger.Warn("stt failed", zap.Error(err))
		return "", ErrTranscriptionFailed
	}
	return text, nil
}
