package chat

import (
	"encoding/json"
	"sync"

	"go.uber.org/zap"
)

// Broadcaster publica eventos inbound hacia los suscriptores de una sesión.
type Broadcaster interface {
	Broadcast(sessionID string, event Event)
}

// Hub multiplexa las conexiones websocket por session id. Una conexión está
// suscripta a una sola sesión a la vez: join la mueve de pool.
type Hub struct {
	logger *zap.Logger

	mu      sync.Mutex
	pools   map[string]*ConnectionPool
	subs    map[Conn]string
}

func NewHub(logger *zap.Logger) *Hub {
	return &Hub{
		logger: logger,
		pools:  map[string]*ConnectionPool{},
		subs:   map[Conn]string{},
	}
}

// Join suscribe la conexión a la sesión; debe preceder a cualquier evento
// inbound esperado para ese id.
func (h *Hub) Join(conn Conn, sessionID string) {
	if conn == nil || sessionID == "" {
		return
	}
	h.mu.Lock()
	if prev, ok := h.subs[conn]; ok && prev != sessionID {
		if pool := h.pools[prev]; pool != nil {
			pool.Remove(conn)
		}
	}
	pool, ok := h.pools[sessionID]
	if !ok {
		pool = NewConnectionPool(sessionID, h.logger)
		h.pools[sessionID] = pool
	}
	h.subs[conn] = sessionID
	h.mu.Unlock()

	pool.Add(conn)
}

// Leave desuscribe la conexión; el pool vacío se descarta.
func (h *Hub) Leave(conn Conn) {
	if conn == nil {
		return
	}
	h.mu.Lock()
	sessionID, ok := h.subs[conn]
	delete(h.subs, conn)
	var pool *ConnectionPool
	if ok {
		pool = h.pools[sessionID]
	}
	h.mu.Unlock()

	if pool != nil {
		pool.Remove(conn)
		h.mu.Lock()
		if pool.Count() == 0 {
			delete(h.pools, sessionID)
		}
		h.mu.Unlock()
	}
}

// Broadcast serializa el evento y lo publica en el pool de la sesión. Sin
// suscriptores el evento se descarta: el receptor no bufferea.
func (h *Hub) Broadcast(sessionID string, event Event) {
	h.mu.Lock()
	pool := h.pools[sessionID]
	h.mu.Unlock()
	if pool == nil {
		return
	}

	data, err := json.Marshal(event)
	if err != nil {
		h.logger.Error("marshal event failed", zap.Error(err), zap.String("event", event.Name))
		return
	}
	pool.Broadcast(data)
}

// CloseAll cierra todas las conexiones suscriptas y vacía los pools; se
// llama en el shutdown del servidor.
func (h *Hub) CloseAll() {
	h.mu.Lock()
	pools := make([]*ConnectionPool, 0, len(h.pools))
	for _, pool := range h.pools {
		pools = append(pools, pool)
	}
	h.pools = map[string]*ConnectionPool{}
	h.subs = map[Conn]string{}
	h.mu.Unlock()

	for _, pool := range pools {
		pool.CloseAll()
	}
}

// Subscribers reporta cuántas conexiones miran la sesión.
func (h *Hub) Subscribers(sessionID string) int {
	h.mu.Lock()
	pool := h.pools[sessionID]
	h.mu.Unlock()
	if pool == nil {
		return 0
	}
	return pool.Count()
}
