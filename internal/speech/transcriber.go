package speech

import (
	"context"
	"errors"
)

// Transcriber define la interfaz hacia el proveedor externo de speech-to-text.
type Transcriber interface {
	Transcribe(ctx context.Context, audio []byte, filename string) (string, error)
}

type disabledTranscriber struct {
	reason string
}

// NewDisabledTranscriber devuelve un Transcriber que siempre falla; se usa
// cuando el proveedor STT no está configurado.
func NewDisabledTranscriber(reason string) Transcriber {
	return &disabledTranscriber{reason: reason}
}

func (t *disabledTranscriber) Transcribe(_ context.Context, _ []byte, _ string) (string, error) {
	if t.reason == "" {
		return "", errors.New("speech transcriber disabled")
	}
	return "", errors.New(t.reason)
}
