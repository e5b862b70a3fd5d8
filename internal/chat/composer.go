package chat

import (
	"errors"
	"strings"

	"andse-chat/internal/domain"
)

// ErrEmptyMessage indica un flush sin texto ni adjunto; nunca debe llegar
// al transporte.
var ErrEmptyMessage = errors.New("empty message")

// Composite es el turno de usuario listo para enviarse como un solo mensaje.
type Composite struct {
	Text       string
	Attachment *domain.Attachment
}

// Composer acumula el texto pendiente y como máximo un adjunto staged hasta
// el próximo envío. No es seguro para uso concurrente: el controlador de
// sesión serializa todas las mutaciones.
type Composer struct {
	pendingText string
	staged      *domain.Attachment
}

func NewComposer() *Composer {
	return &Composer{}
}

// SetText reemplaza el texto pendiente con lo tipeado por el usuario.
func (c *Composer) SetText(text string) {
	c.pendingText = text
}

// StageTranscript asigna el transcript sobre el texto pendiente: la voz
// reemplaza lo tipeado, no lo extiende.
func (c *Composer) StageTranscript(text string) {
	c.pendingText = text
}

// StageFile guarda el adjunto con política last-write-wins: un segundo
// archivo reemplaza al anterior, no se encola.
func (c *Composer) StageFile(attachment domain.Attachment) {
	c.staged = &attachment
}

// ClearAttachment descarta el adjunto staged a pedido explícito del usuario.
func (c *Composer) ClearAttachment() {
	c.staged = nil
}

// HasContent reporta si hay algo para enviar.
func (c *Composer) HasContent() bool {
	return strings.TrimSpace(c.pendingText) != "" || c.staged != nil
}

// Flush devuelve el estado actual y resetea ambos campos. Es el único punto
// que consume el adjunto staged; con estado vacío falla con ErrEmptyMessage
// y no modifica nada.
func (c *Composer) Flush() (Composite, error) {
	text := strings.TrimSpace(c.pendingText)
	if text == "" && c.staged == nil {
		return Composite{}, ErrEmptyMessage
	}

	composite := Composite{
		Text:       text,
		Attachment: c.staged,
	}
	c.pendingText = ""
	c.staged = nil
	return composite, nil
}
