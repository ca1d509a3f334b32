// Package notify keeps the list of transient notifications shown to a user.
package notify

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/xaenox/second-brain/internal/metrics"
	"github.com/xaenox/second-brain/internal/models"
	"go.uber.org/zap"
)

// DefaultTTL is how long a notification stays visible.
const DefaultTTL = 5000 * time.Millisecond

// Center is an ordered queue of notifications, each removed after its TTL
// or on manual dismissal, whichever comes first.
type Center struct {
	mu          sync.Mutex
	items       []models.Notification
	timers      map[string]*time.Timer
	subscribers map[int]func(models.Notification)
	nextSub     int
	closed      bool

	ttl     time.Duration
	now     func() time.Time
	metrics metrics.Recorder
	logger  *zap.Logger
}

type Option func(*Center)

func WithTTL(ttl time.Duration) Option {
	return func(c *Center) {
		if ttl > 0 {
			c.ttl = ttl
		}
	}
}

func WithClock(now func() time.Time) Option {
	return func(c *Center) { c.now = now }
}

func WithMetrics(r metrics.Recorder) Option {
	return func(c *Center) { c.metrics = r }
}

func NewCenter(logger *zap.Logger, opts ...Option) *Center {
	c := &Center{
		timers:      make(map[string]*time.Timer),
		subscribers: make(map[int]func(models.Notification)),
		ttl:         DefaultTTL,
		now:         time.Now,
		metrics:     metrics.Nop{},
		logger:      logger,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Add appends a notification and schedules its removal after the TTL.
// An empty severity means SeverityError. It returns the new id.
func (c *Center) Add(message string, severity models.Severity) string {
	if severity == "" {
		severity = models.SeverityError
	}
	n := models.Notification{
		ID:        uuid.NewString(),
		Message:   message,
		Severity:  severity,
		Timestamp: c.now().UnixMilli(),
	}

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return n.ID
	}
	c.items = append(c.items, n)
	id := n.ID
	c.timers[id] = time.AfterFunc(c.ttl, func() { c.expire(id) })
	subs := make([]func(models.Notification), 0, len(c.subscribers))
	for _, fn := range c.subscribers {
		subs = append(subs, fn)
	}
	c.mu.Unlock()

	c.metrics.RecordNotification(string(severity))
	c.logger.Debug("Notification added",
		zap.String("id", n.ID),
		zap.String("severity", string(severity)),
		zap.String("message", message))

	for _, fn := range subs {
		fn(n)
	}
	return n.ID
}

// Remove drops the notification with the given id. Unknown ids are ignored,
// so a manual dismissal and the expiry timer may both call it.
func (c *Center) Remove(id string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.remove(id)
}

func (c *Center) expire(id string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	delete(c.timers, id)
	c.remove(id)
}

func (c *Center) remove(id string) {
	for i, n := range c.items {
		if n.ID == id {
			c.items = append(c.items[:i:i], c.items[i+1:]...)
			return
		}
	}
}

// Clear empties the list immediately.
func (c *Center) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.items = nil
	c.stopTimers()
}

// List returns the visible notifications in insertion order.
func (c *Center) List() []models.Notification {
	c.mu.Lock()
	defer c.mu.Unlock()

	out := make([]models.Notification, len(c.items))
	copy(out, c.items)
	return out
}

// Subscribe registers fn to be called with every added notification.
// The returned func removes the subscription.
func (c *Center) Subscribe(fn func(models.Notification)) func() {
	c.mu.Lock()
	defer c.mu.Unlock()

	id := c.nextSub
	c.nextSub++
	c.subscribers[id] = fn
	return func() {
		c.mu.Lock()
		defer c.mu.Unlock()
		delete(c.subscribers, id)
	}
}

// Close stops pending expiry timers and drops subscribers. Later calls to
// Add are ignored.
func (c *Center) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.closed = true
	c.items = nil
	c.stopTimers()
	c.subscribers = make(map[int]func(models.Notification))
}

func (c *Center) stopTimers() {
	for id, t := range c.timers {
		t.Stop()
		delete(c.timers, id)
	}
}
