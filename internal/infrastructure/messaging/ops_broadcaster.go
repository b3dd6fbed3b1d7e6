package messaging

import (
	"encoding/json"
	"log"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/ForesightHQ/foresight-go/internal/infrastructure/caching/manager"
	"github.com/ForesightHQ/foresight-go/internal/infrastructure/caching/stores"
	"github.com/ForesightHQ/foresight-go/internal/infrastructure/observability/performance"
)

// OpsClient represents a single connected ops dashboard client.
type OpsClient struct {
	Conn *websocket.Conn
	Send chan []byte
}

// OpsSnapshot is the counts-only payload sent to the ops dashboard on each
// tick. Session identifiers appear; uploaded data never does.
type OpsSnapshot struct {
	Timestamp      time.Time                       `json:"timestamp"`
	SessionCount   int                             `json:"sessionCount"`
	ActiveCount    int                             `json:"activeCount"`
	DormantCount   int                             `json:"dormantCount"`
	WithDataCount  int                             `json:"withDataCount"`
	WithResults    int                             `json:"withResultsCount"`
	SSEConnections int                             `json:"sseConnections"`
	Sessions       []stores.SessionSummary         `json:"sessions"`
	Performance    map[string]any                  `json:"performance"`
	Alerts         []*performance.PerformanceAlert `json:"alerts"`
}

// OpsBroadcaster manages all connected ops dashboard clients and broadcasts
// store snapshots on a fixed interval.
type OpsBroadcaster struct {
	clients      map[*OpsClient]bool
	register     chan *OpsClient
	unregister   chan *OpsClient
	storeManager *manager.Manager
	sse          *SSEBroadcaster
	perfTracker  *performance.Tracker
	interval     time.Duration
	mu           sync.RWMutex
}

// NewOpsBroadcaster creates a new broadcaster instance.
func NewOpsBroadcaster(sm *manager.Manager, sse *SSEBroadcaster, pt *performance.Tracker, interval time.Duration) *OpsBroadcaster {
	return &OpsBroadcaster{
		clients:      make(map[*OpsClient]bool),
		register:     make(chan *OpsClient),
		unregister:   make(chan *OpsClient),
		storeManager: sm,
		sse:          sse,
		perfTracker:  pt,
		interval:     interval,
	}
}

// Run starts the broadcaster's main loop. This should be run as a goroutine.
func (b *OpsBroadcaster) Run() {
	ticker := time.NewTicker(b.interval)
	defer ticker.Stop()

	for {
		select {
		case client := <-b.register:
			b.mu.Lock()
			b.clients[client] = true
			log.Printf("Ops client registered (%d connected)", len(b.clients))
			b.mu.Unlock()

		case client := <-b.unregister:
			b.mu.Lock()
			if _, ok := b.clients[client]; ok {
				delete(b.clients, client)
				close(client.Send)
			}
			log.Printf("Ops client unregistered (%d connected)", len(b.clients))
			b.mu.Unlock()

		case <-ticker.C:
			b.broadcastSnapshot()
		}
	}
}

// Register queues a client for registration.
func (b *OpsBroadcaster) Register(client *OpsClient) {
	b.register <- client
}

// Unregister queues a client for unregistration.
func (b *OpsBroadcaster) Unregister(client *OpsClient) {
	b.unregister <- client
}

// broadcastSnapshot gathers and sends the store snapshot to all clients.
func (b *OpsBroadcaster) broadcastSnapshot() {
	b.mu.RLock()
	clientCount := len(b.clients)
	b.mu.RUnlock()
	if clientCount == 0 {
		return
	}

	snapshot := b.BuildSnapshot()
	message, err := json.Marshal(snapshot)
	if err != nil {
		log.Printf("Error marshaling ops snapshot: %v", err)
		return
	}

	b.mu.RLock()
	for client := range b.clients {
		select {
		case client.Send <- message:
		default:
		}
	}
	b.mu.RUnlock()
}

// BuildSnapshot assembles the current counts-only view of the system.
func (b *OpsBroadcaster) BuildSnapshot() OpsSnapshot {
	summaries := b.storeManager.Sessions().Summaries()

	snapshot := OpsSnapshot{
		Timestamp:      time.Now().UTC(),
		SessionCount:   len(summaries),
		SSEConnections: b.sse.TotalConnections(),
		Sessions:       summaries,
	}

	now := time.Now()
	for _, s := range summaries {
		if now.Sub(s.LastActivity) <= 15*time.Minute {
			snapshot.ActiveCount++
		} else {
			snapshot.DormantCount++
		}
		if s.HasData {
			snapshot.WithDataCount++
		}
		if s.HasResults {
			snapshot.WithResults++
		}
	}

	if b.perfTracker != nil {
		snapshot.Performance = b.perfTracker.GetOverallStats()
		snapshot.Alerts = b.perfTracker.GetAlerts()
	}

	return snapshot
}
