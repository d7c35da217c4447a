package api

import (
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"ai-scorecard/backend/internal/scorecard"
)

// wsClient wraps a websocket connection with write locking.
type wsClient struct {
	conn *websocket.Conn
	mu   sync.Mutex
}

// ReportNotifier keeps track of active websocket clients and broadcasts
// report generation events.
type ReportNotifier struct {
	mu         sync.Mutex
	clients    map[*wsClient]struct{}
	lastStatus *scorecard.Event
	hooks      []func(scorecard.Event)
}

// NewReportNotifier constructs a notifier instance.
func NewReportNotifier() *ReportNotifier {
	return &ReportNotifier{clients: make(map[*wsClient]struct{})}
}

// Register attaches a websocket connection and replays the last status.
func (n *ReportNotifier) Register(conn *websocket.Conn) *wsClient {
	client := &wsClient{conn: conn}
	n.mu.Lock()
	n.clients[client] = struct{}{}
	status := n.lastStatus
	n.mu.Unlock()

	if status != nil {
		_ = client.writeJSON(*status)
	}
	return client
}

// Unregister removes the websocket client from the notifier and closes the socket.
func (n *ReportNotifier) Unregister(client *wsClient) {
	if client == nil {
		return
	}
	n.mu.Lock()
	delete(n.clients, client)
	n.mu.Unlock()
	_ = client.conn.Close()
}

// OnEvent registers fn to run for every broadcast event before it is sent.
func (n *ReportNotifier) OnEvent(fn func(scorecard.Event)) {
	n.mu.Lock()
	n.hooks = append(n.hooks, fn)
	n.mu.Unlock()
}

// Notify implements scorecard.Notifier.
func (n *ReportNotifier) Notify(event scorecard.Event) {
	n.Broadcast(event)
}

// Broadcast sends the supplied event to all registered websocket clients.
func (n *ReportNotifier) Broadcast(event scorecard.Event) {
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now().UTC()
	}

	n.mu.Lock()
	hooks := n.hooks
	n.mu.Unlock()
	for _, hook := range hooks {
		hook(event)
	}

	n.mu.Lock()
	snapshot := event
	n.lastStatus = &snapshot

	for client := range n.clients {
		if err := client.writeJSON(event); err != nil {
			delete(n.clients, client)
			_ = client.conn.Close()
		}
	}
	n.mu.Unlock()
}

func (c *wsClient) writeJSON(payload interface{}) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.conn == nil {
		return nil
	}
	c.conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
	return c.conn.WriteJSON(payload)
}

// LastStatus returns a copy of the most recent event.
func (n *ReportNotifier) LastStatus() *scorecard.Event {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.lastStatus == nil {
		return nil
	}
	copy := *n.lastStatus
	return &copy
}

// Clients reports how many websocket clients are attached.
func (n *ReportNotifier) Clients() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.clients)
}
