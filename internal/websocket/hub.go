// internal/websocket/hub.go
package websocket

import (
	"context"
	"sync"

	wstypes "retention-service/internal/domain/websocket"
	"retention-service/internal/observability"

	"go.uber.org/zap"
)

// Hub tracks live connections per view. Several tabs may follow one view;
// each page update goes to all of them.
type Hub struct {
	clients map[string]map[*Client]bool
	mu      sync.RWMutex

	// Registration/unregistration
	register   chan *Client
	unregister chan *Client

	broadcast chan *BroadcastMessage
	// closed once Run has returned
	done chan struct{}

	// Handler registry for modular message handling
	handlerRegistry *HandlerRegistry

	metrics *observability.Metrics
	logger  *zap.Logger
}

type BroadcastMessage struct {
	ViewID  string
	Message *wstypes.WSMessage
}

func NewHub(metrics *observability.Metrics, logger *zap.Logger) *Hub {
	return &Hub{
		clients:         make(map[string]map[*Client]bool),
		register:        make(chan *Client),
		unregister:      make(chan *Client),
		broadcast:       make(chan *BroadcastMessage, 256),
		done:            make(chan struct{}),
		handlerRegistry: NewHandlerRegistry(),
		metrics:         metrics,
		logger:          logger,
	}
}

// RegisterHandler registers a message handler. Call before Run.
func (h *Hub) RegisterHandler(handler MessageHandler) error {
	return h.handlerRegistry.Register(handler)
}

// HandleClientMessage dispatches a client message to its handler. It
// reports whether a handler took the message.
func (h *Hub) HandleClientMessage(ctx context.Context, client *Client, msg *wstypes.WSMessage) (bool, error) {
	handler, exists := h.handlerRegistry.Lookup(msg.Type)
	if !exists {
		return false, nil
	}
	return true, handler.HandleMessage(ctx, client, msg)
}

func (h *Hub) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			h.shutdown()
			return

		case client := <-h.register:
			h.registerClient(client)

		case client := <-h.unregister:
			h.unregisterClient(client)

		case msg := <-h.broadcast:
			h.BroadcastMessage(msg)
		}
	}
}

// Register hands a connection to the hub. It returns false once the hub
// has shut down.
func (h *Hub) Register(client *Client) bool {
	select {
	case h.register <- client:
		return true
	case <-h.done:
		return false
	}
}

// Unregister removes a connection and closes it.
func (h *Hub) Unregister(client *Client) {
	select {
	case h.unregister <- client:
	case <-h.done:
		client.Close()
	}
}

func (h *Hub) registerClient(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.clients[client.viewID] == nil {
		h.clients[client.viewID] = make(map[*Client]bool)
	}
	h.clients[client.viewID][client] = true
	h.metrics.SocketOpened()

	h.logger.Info("view socket connected",
		zap.String("view_id", client.viewID),
		zap.Int("total", h.totalClients()),
	)
}

func (h *Hub) unregisterClient(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	clients, ok := h.clients[client.viewID]
	if !ok {
		return
	}
	if _, exists := clients[client]; !exists {
		return
	}
	delete(clients, client)
	client.Close()
	h.metrics.SocketClosed()
	if len(clients) == 0 {
		delete(h.clients, client.viewID)
	}

	h.logger.Info("view socket disconnected",
		zap.String("view_id", client.viewID),
		zap.Int("total", h.totalClients()),
	)
}

func (h *Hub) BroadcastMessage(msg *BroadcastMessage) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for client := range h.clients[msg.ViewID] {
		client.SendMessage(msg.Message)
	}
}

// BroadcastPage queues a page update for every connection of a view.
func (h *Hub) BroadcastPage(viewID string, page any) {
	msg := &BroadcastMessage{
		ViewID:  viewID,
		Message: wstypes.NewMessage(wstypes.EventTypeViewPage, page),
	}
	select {
	case h.broadcast <- msg:
	case <-h.done:
	}
}

// Connected returns how many connections follow a view.
func (h *Hub) Connected(viewID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients[viewID])
}

func (h *Hub) TotalClients() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.totalClients()
}

func (h *Hub) totalClients() int {
	total := 0
	for _, clients := range h.clients {
		total += len(clients)
	}
	return total
}

func (h *Hub) shutdown() {
	close(h.done)

	h.mu.Lock()
	defer h.mu.Unlock()

	for viewID, clients := range h.clients {
		for client := range clients {
			client.Close()
			h.metrics.SocketClosed()
		}
		delete(h.clients, viewID)
	}
}
