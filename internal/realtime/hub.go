package realtime

import (
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
)

type ChangeType string

const (
	ChangeInsert ChangeType = "INSERT"
	ChangeUpdate ChangeType = "UPDATE"
	ChangeDelete ChangeType = "DELETE"
)

// Change describes one row-level mutation of a collection
type Change struct {
	Table     string     `json:"table"`
	Type      ChangeType `json:"type"`
	ID        string     `json:"id"`
	Timestamp time.Time  `json:"commit_timestamp"`
}

// Publisher is what services depend on to announce their writes
type Publisher interface {
	Publish(table string, changeType ChangeType, id string)
}

const subscriberBuffer = 64

type Hub struct {
	logger *zap.Logger

	mu     sync.RWMutex
	nextID int
	subs   map[int]*Subscription
}

func NewHub(logger *zap.Logger) *Hub {
	return &Hub{
		logger: logger,
		subs:   map[int]*Subscription{},
	}
}

// Subscription receives the changes of the tables it was opened for. An
// empty table set receives everything.
type Subscription struct {
	C <-chan Change

	ch     chan Change
	id     int
	tables map[string]bool
	hub    *Hub
	once   sync.Once
}

func (h *Hub) Subscribe(tables ...string) *Subscription {
	ch := make(chan Change, subscriberBuffer)
	sub := &Subscription{C: ch, ch: ch, tables: map[string]bool{}, hub: h}
	for _, t := range tables {
		if t = strings.TrimSpace(t); t != "" {
			sub.tables[t] = true
		}
	}

	h.mu.Lock()
	h.nextID++
	sub.id = h.nextID
	h.subs[sub.id] = sub
	h.mu.Unlock()
	return sub
}

// Close detaches the subscription and closes C
func (s *Subscription) Close() {
	s.once.Do(func() {
		s.hub.mu.Lock()
		delete(s.hub.subs, s.id)
		s.hub.mu.Unlock()
		close(s.ch)
	})
}

func (s *Subscription) wants(table string) bool {
	return len(s.tables) == 0 || s.tables[table]
}

// Publish fans the change out without blocking; slow subscribers lose events
func (h *Hub) Publish(table string, changeType ChangeType, id string) {
	change := Change{Table: table, Type: changeType, ID: id, Timestamp: time.Now().UTC()}

	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, sub := range h.subs {
		if !sub.wants(table) {
			continue
		}
		select {
		case sub.ch <- change:
		default:
			h.logger.Warn("realtime subscriber lagging, dropping change",
				zap.String("table", table), zap.String("id", id))
		}
	}
}

func (h *Hub) Subscribers() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subs)
}
