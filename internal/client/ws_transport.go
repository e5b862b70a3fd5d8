package client

import (
	"context"

	"github.com/gorilla/websocket"

	"andse-chat/internal/chat"
)

// WSTransport implementa Transport sobre una conexión gorilla/websocket.
type WSTransport struct {
	conn *websocket.Conn
}

// DialWS abre la conexión al endpoint de streaming del servidor.
func DialWS(ctx context.Context, url, token string) (*WSTransport, error) {
	headers := map[string][]string{}
	if token != "" {
		headers["Authorization"] = []string{"Bearer " + token}
	}
	conn, resp, err := websocket.DefaultDialer.DialContext(ctx, url, headers)
	if resp != nil && resp.Body != nil {
		resp.Body.Close()
	}
	if err != nil {
		return nil, err
	}
	return &WSTransport{conn: conn}, nil
}

func (t *WSTransport) Send(event chat.Event) error {
	return t.conn.WriteJSON(event)
}

// ReadLoop lee frames hasta que la conexión muera y aplica cada evento con
// apply; el llamador lo corre en un único goroutine para preservar el orden
// de llegada.
func (t *WSTransport) ReadLoop(apply func(chat.Event)) error {
	for {
		var event chat.Event
		if err := t.conn.ReadJSON(&event); err != nil {
			return err
		}
		apply(event)
	}
}

func (t *WSTransport) Close() error {
	return t.conn.Close()
}
