package services

import (
	"sync"

	"github.com/netfleet/backend/internal/core/ports"
	"github.com/netfleet/backend/internal/domain"
	"github.com/netfleet/backend/internal/infrastructure/logger"
)

// maxClosedTopics bounds how many finished task streams stay replayable for
// late subscribers before the oldest are dropped.
const maxClosedTopics = 256

// subscriberBuffer is the per-observer channel capacity on top of the history
// replay. A subscriber that falls this far behind starts losing events.
const subscriberBuffer = 64

// Broadcaster fans out task events, topic per task id. Publishing never
// blocks: each subscriber has a bounded buffer and overflow is dropped at the
// observer boundary.
type Broadcaster struct {
	mu          sync.RWMutex
	topics      map[string]*topic
	closedOrder []string
	historySize int
	log         *logger.Logger
}

type topic struct {
	mu      sync.Mutex
	history []domain.Event
	subs    map[uint64]*subscription
	nextID  uint64
	closed  bool
}

type subscription struct {
	ch     chan domain.Event
	cancel func()
	once   sync.Once
}

func (s *subscription) Events() <-chan domain.Event { return s.ch }

func (s *subscription) Close() { s.once.Do(s.cancel) }

func NewBroadcaster(historySize int, log *logger.Logger) *Broadcaster {
	return &Broadcaster{
		topics:      make(map[string]*topic),
		historySize: historySize,
		log:         log,
	}
}

func (b *Broadcaster) topicFor(taskID string, create bool) *topic {
	b.mu.RLock()
	t, ok := b.topics[taskID]
	b.mu.RUnlock()
	if ok || !create {
		return t
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	if t, ok = b.topics[taskID]; ok {
		return t
	}
	t = &topic{subs: make(map[uint64]*subscription)}
	b.topics[taskID] = t
	return t
}

// Publish delivers ev to all subscribers of its task. A task_finished event
// closes the topic: subscriber channels are closed once the terminal event is
// buffered, and the topic stays replayable for late subscribers.
func (b *Broadcaster) Publish(ev domain.Event) {
	t := b.topicFor(ev.TaskID, true)

	t.mu.Lock()
	if t.closed {
		t.mu.Unlock()
		return
	}
	t.history = append(t.history, ev)
	if len(t.history) > b.historySize {
		t.history = t.history[len(t.history)-b.historySize:]
	}
	for id, sub := range t.subs {
		select {
		case sub.ch <- ev:
		default:
			if b.log != nil {
				b.log.Debugw("broadcaster_subscriber_lagging", "task_id", ev.TaskID, "subscriber", id)
			}
		}
	}
	if ev.Type == domain.EventTaskFinished {
		t.closed = true
		for _, sub := range t.subs {
			close(sub.ch)
		}
		t.subs = make(map[uint64]*subscription)
	}
	t.mu.Unlock()

	if ev.Type == domain.EventTaskFinished {
		b.retireTopic(ev.TaskID)
	}
}

// Subscribe attaches a new observer to one task's stream. Buffered history is
// replayed first; if the task already finished the returned channel is closed
// right after the replay.
func (b *Broadcaster) Subscribe(taskID string) ports.Subscription {
	t := b.topicFor(taskID, true)

	t.mu.Lock()
	defer t.mu.Unlock()

	ch := make(chan domain.Event, len(t.history)+subscriberBuffer)
	for _, ev := range t.history {
		ch <- ev
	}

	if t.closed {
		close(ch)
		return &subscription{ch: ch, cancel: func() {}}
	}

	id := t.nextID
	t.nextID++
	sub := &subscription{ch: ch}
	sub.cancel = func() {
		t.mu.Lock()
		if _, ok := t.subs[id]; ok {
			delete(t.subs, id)
			close(ch)
		}
		t.mu.Unlock()
	}
	t.subs[id] = sub
	return sub
}

// retireTopic records a closed topic and drops the oldest ones beyond the cap.
func (b *Broadcaster) retireTopic(taskID string) {
	b.mu.Lock()
	b.closedOrder = append(b.closedOrder, taskID)
	for len(b.closedOrder) > maxClosedTopics {
		old := b.closedOrder[0]
		b.closedOrder = b.closedOrder[1:]
		delete(b.topics, old)
	}
	b.mu.Unlock()
}
