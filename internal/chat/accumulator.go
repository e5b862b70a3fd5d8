package chat

import (
	"errors"
	"strings"
)

// ErrResponseClosed indica un append sobre una respuesta ya finalizada.
var ErrResponseClosed = errors.New("streaming response already finalized")

// ChunkAccumulator arma una respuesta lógica a partir de chunks ordenados.
// Vale como máximo uno abierto por sesión; después de Finalize no hay reset,
// una respuesta nueva requiere una instancia nueva.
type ChunkAccumulator struct {
	sessionID string
	buf       strings.Builder
	open      bool
}

func NewChunkAccumulator(sessionID string) *ChunkAccumulator {
	return &ChunkAccumulator{sessionID: sessionID, open: true}
}

func (a *ChunkAccumulator) SessionID() string {
	return a.sessionID
}

// Append concatena el chunk en orden de llegada, sin dedup ni reordenado.
func (a *ChunkAccumulator) Append(chunk string) error {
	if !a.open {
		return ErrResponseClosed
	}
	a.buf.WriteString(chunk)
	return nil
}

// Finalize devuelve el texto acumulado y cierra la respuesta.
func (a *ChunkAccumulator) Finalize() string {
	a.open = false
	return a.buf.String()
}

// IsOpen reporta si todavía se aceptan chunks.
func (a *ChunkAccumulator) IsOpen() bool {
	return a.open
}
