package chat

import (
	"sync"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

// Conn abstrae la conexión websocket para poder testear el pool sin red.
// *websocket.Conn la satisface directamente.
type Conn interface {
	WriteMessage(messageType int, data []byte) error
	Close() error
}

// ConnectionPool agrupa las conexiones suscriptas a una sesión y centraliza
// el broadcast con poda de conexiones muertas.
type ConnectionPool struct {
	sessionID string
	logger    *zap.Logger

	mu    sync.Mutex
	conns map[Conn]struct{}
}

func NewConnectionPool(sessionID string, logger *zap.Logger) *ConnectionPool {
	return &ConnectionPool{
		sessionID: sessionID,
		logger:    logger,
		conns:     map[Conn]struct{}{},
	}
}

func (p *ConnectionPool) Add(conn Conn) {
	if conn == nil {
		return
	}
	p.mu.Lock()
	p.conns[conn] = struct{}{}
	p.mu.Unlock()
}

func (p *ConnectionPool) Remove(conn Conn) {
	if conn == nil {
		return
	}
	p.mu.Lock()
	delete(p.conns, conn)
	p.mu.Unlock()
}

// Broadcast escribe el frame a todas las conexiones; una escritura fallida
// saca la conexión del pool y la cierra.
func (p *ConnectionPool) Broadcast(data []byte) {
	if len(data) == 0 {
		return
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	for conn := range p.conns {
		if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
			p.logger.Warn("ws broadcast failed, dropping connection",
				zap.Error(err), zap.String("session_id", p.sessionID))
			delete(p.conns, conn)
			_ = conn.Close()
		}
	}
}

func (p *ConnectionPool) Count() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.conns)
}

func (p *ConnectionPool) CloseAll() {
	p.mu.Lock()
	defer p.mu.Unlock()
	for conn := range p.conns {
		_ = conn.Close()
		delete(p.conns, conn)
	}
}
