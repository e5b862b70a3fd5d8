package client

import (
	"errors"

	"go.uber.org/zap"

	"andse-chat/internal/chat"
)

// ConnectionState es el estado del transporte, a nivel proceso.
type ConnectionState string

const (
	StateConnecting ConnectionState = "connecting"
	StateOnline     ConnectionState = "online"
	StateOffline    ConnectionState = "offline"
)

// ErrNoActiveSession indica un envío sin sesión activa acordada con el
// canal; el llamador debe crear o elegir una sesión primero.
var ErrNoActiveSession = errors.New("no active session")

// Transport envía eventos outbound por el canal de streaming.
type Transport interface {
	Send(event chat.Event) error
	Close() error
}

// Listener recibe las transiciones observables para que la UI reaccione.
// Cualquier campo nil se ignora.
type Listener struct {
	OnTyping   func(sessionID string, typing bool)
	OnChunk    func(sessionID, chunk string)
	OnResponse func(sessionID, fullText string)
	OnTitle    func(sessionID, title string)
}

// Controller es el dueño del estado conversacional del cliente: sesión
// activa, composer, respuesta en curso y máquina de estados del stream.
// Todos los métodos deben llamarse desde el único goroutine que aplica
// eventos; los pipelines de captura entran por el composer vía el mismo
// goroutine.
type Controller struct {
	logger    *zap.Logger
	transport Transport
	listener  Listener

	composer      *chat.Composer
	activeSession string
	stream        *chat.StreamState
	response      *chat.ChunkAccumulator
	connState     ConnectionState
}

func NewController(logger *zap.Logger, transport Transport, listener Listener) *Controller {
	return &Controller{
		logger:    logger,
		transport: transport,
		listener:  listener,
		composer:  chat.NewComposer(),
		stream:    chat.NewStreamState(),
		connState: StateConnecting,
	}
}

func (c *Controller) Composer() *chat.Composer {
	return c.composer
}

func (c *Controller) ActiveSession() string {
	return c.activeSession
}

func (c *Controller) ConnState() ConnectionState {
	return c.connState
}

// SetConnected refleja las señales connect/disconnect del transporte; es la
// única fuente de transición de ConnectionState.
func (c *Controller) SetConnected(online bool) {
	if online {
		c.connState = StateOnline
		return
	}
	c.connState = StateOffline
}

// Join cambia la sesión activa y suscribe el transporte. Una respuesta en
// vuelo de la sesión anterior se abandona: la persistencia del lado
// servidor no depende de este receptor.
func (c *Controller) Join(sessionID string) error {
	if sessionID == "" {
		return ErrNoActiveSession
	}
	if err := c.transport.Send(chat.Event{Name: chat.EventJoin, SessionID: sessionID}); err != nil {
		return err
	}
	c.activeSession = sessionID
	c.stream = chat.NewStreamState()
	c.response = nil
	return nil
}

// Send hace flush del composer y despacha el mensaje compuesto. No espera
// acknowledgment; el próximo envío puede salir enseguida.
func (c *Controller) Send() error {
	if c.activeSession == "" {
		return ErrNoActiveSession
	}
	composite, err := c.composer.Flush()
	if err != nil {
		return err
	}
	return c.transport.Send(chat.Event{
		Name:       chat.EventSendMessage,
		SessionID:  c.activeSession,
		Message:    composite.Text,
		Attachment: composite.Attachment,
	})
}

// Apply aplica un evento inbound en orden de llegada. Eventos de sesiones
// no activas se descartan, no se bufferean.
func (c *Controller) Apply(event chat.Event) {
	// El servidor abre una sesión nueva ante un envío sin id y suscribe esta
	// conexión; sin sesión activa la adoptamos para recibir el stream que
	// sigue. Con otra sesión activa el anuncio se descarta como el resto.
	if event.Name == chat.EventSessionCreated && c.activeSession == "" {
		c.activeSession = event.SessionID
		c.stream = chat.NewStreamState()
		c.response = nil
		if c.listener.OnTitle != nil && event.Title != "" {
			c.listener.OnTitle(event.SessionID, event.Title)
		}
		return
	}

	if event.SessionID != c.activeSession {
		c.logger.Debug("discarding event for inactive session",
			zap.String("event", event.Name), zap.String("session_id", event.SessionID))
		return
	}

	switch event.Name {
	case chat.EventTypingStart:
		c.stream.OnTypingStart()
		c.notifyTyping(true)

	case chat.EventMessageChunk:
		if c.stream.OnChunk() {
			c.response = chat.NewChunkAccumulator(event.SessionID)
		}
		if err := c.response.Append(event.Chunk); err != nil {
			c.logger.Warn("chunk after finalize", zap.String("session_id", event.SessionID))
			return
		}
		if c.listener.OnChunk != nil {
			c.listener.OnChunk(event.SessionID, event.Chunk)
		}

	case chat.EventTypingEnd:
		c.stream.OnTypingEnd()
		c.notifyTyping(false)
		if c.response != nil && c.response.IsOpen() {
			full := c.response.Finalize()
			if c.listener.OnResponse != nil {
				c.listener.OnResponse(event.SessionID, full)
			}
		}
		c.response = nil

	case chat.EventUpdateTitle:
		if c.listener.OnTitle != nil {
			c.listener.OnTitle(event.SessionID, event.Title)
		}

	default:
		c.logger.Debug("unknown event", zap.String("event", event.Name))
	}
}

// Response expone la respuesta en curso, para inspección de la UI.
func (c *Controller) Response() *chat.ChunkAccumulator {
	return c.response
}

func (c *Controller) Phase() chat.StreamPhase {
	return c.stream.Phase()
}

func (c *Controller) notifyTyping(typing bool) {
	if c.listener.OnTyping != nil {
		c.listener.OnTyping(c.activeSession, typing)
	}
}
