package http

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"andse-chat/internal/chat"
	"andse-chat/internal/service"
)

// WSHandler atiende el endpoint de streaming: upgrade a websocket y loop de
// lectura que despacha join y send_message.
type WSHandler struct {
	logger   *zap.Logger
	hub      *chat.Hub
	chatServ *service.ChatService
	upgrader websocket.Upgrader
}

func NewWSHandler(logger *zap.Logger, hub *chat.Hub, chatServ *service.ChatService) *WSHandler {
	return &WSHandler{
		logger:   logger,
		hub:      hub,
		chatServ: chatServ,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
			// El origen lo controla el reverse proxy; acá aceptamos todo
			// igual que el CORS abierto del resto de la API.
			CheckOrigin: func(*http.Request) bool { return true },
		},
	}
}

// Serve maneja GET /chat/ws.
func (h *WSHandler) Serve(c *gin.Context) {
	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.logger.Warn("ws upgrade failed", zap.Error(err))
		return
	}

	defer func() {
		h.hub.Leave(conn)
		_ = conn.Close()
	}()

	for {
		var event chat.Event
		if err := conn.ReadJSON(&event); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				h.logger.Warn("ws read failed", zap.Error(err))
			}
			return
		}

		switch event.Name {
		case chat.EventJoin:
			h.hub.Join(conn, event.SessionID)

		case chat.EventSendMessage:
			// No hay acknowledgment de envío: el generado corre aparte y
			// el loop queda libre para el próximo frame.
			go h.handleSend(conn, event)

		default:
			h.logger.Debug("ignoring unknown ws event", zap.String("event", event.Name))
		}
	}
}

func (h *WSHandler) handleSend(conn chat.Conn, event chat.Event) {
	// El request puede cerrarse antes de que termine el stream; el generado
	// usa su propio contexto para que la respuesta se persista igual.
	ctx := context.Background()

	// Sin session_id el envío abre una sesión nueva. La conexión que manda
	// se suscribe al id recién creado antes de que arranque el stream, y el
	// id se le anuncia para que adopte la sesión; si no, la respuesta se
	// emitiría hacia un pool al que nadie mira.
	if event.SessionID == "" {
		if event.Message == "" && event.Attachment == nil {
			h.logger.Warn("discarding empty send without session")
			return
		}
		session, err := h.chatServ.OpenSession(ctx, event.Message)
		if err != nil {
			h.logger.Error("open session failed", zap.Error(err))
			return
		}
		event.SessionID = session.ID
		h.hub.Join(conn, session.ID)
		h.hub.Broadcast(session.ID, chat.Event{
			Name:      chat.EventSessionCreated,
			SessionID: session.ID,
			Title:     session.Title,
		})
	}

	_, err := h.chatServ.HandleSend(ctx, event.SessionID, event.Message, event.Attachment)
	if err != nil {
		h.logger.Warn("send failed",
			zap.Error(err), zap.String("session_id", event.SessionID))
	}
}
