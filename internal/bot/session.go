package bot

import (
	"context"
	"fmt"
	"sync"

	"github.com/xaenox/second-brain/internal/auth"
	"github.com/xaenox/second-brain/internal/content"
	"github.com/xaenox/second-brain/internal/models"
	"github.com/xaenox/second-brain/internal/notify"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// chatSession is everything one chat needs: its own token, notifications,
// content mirror and sidebar selection.
type chatSession struct {
	auth    *auth.Session
	notes   *notify.Center
	content *content.ViewModel
	limiter *rate.Limiter

	mu         sync.Mutex
	filter     content.Filter
	loaded     bool
	confirming map[int64]bool
	teardown   []func()
}

func tokenKey(chatID int64) string {
	return fmt.Sprintf("%s:%d", auth.DefaultTokenKey, chatID)
}

func (b *Bot) session(ctx context.Context, chatID int64) (*chatSession, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if s, ok := b.sessions[chatID]; ok {
		return s, nil
	}

	logger := b.logger.With(zap.Int64("chat_id", chatID))
	sess := auth.NewSession(b.store, tokenKey(chatID), b.client, logger)
	if err := sess.Init(ctx); err != nil {
		return nil, err
	}

	notes := notify.NewCenter(logger,
		notify.WithTTL(b.notifyTTL),
		notify.WithMetrics(b.metrics))

	opts := []content.Option{}
	if b.suggester != nil {
		opts = append(opts, content.WithSuggester(b.suggester))
	}
	vm := content.NewViewModel(b.client.WithAuth(sess), sess, notes, logger, opts...)

	s := &chatSession{
		auth:       sess,
		notes:      notes,
		content:    vm,
		limiter:    rate.NewLimiter(b.rateLimit, b.burst),
		filter:     content.Filter{Type: content.FilterAll, Recency: content.FilterAll},
		confirming: make(map[int64]bool),
	}

	s.teardown = append(s.teardown,
		notes.Subscribe(func(n models.Notification) {
			b.sendMessage(chatID, notify.ColorFor(n.Severity).Badge()+" "+n.Message)
		}),
		sess.Subscribe(func(st auth.State) {
			s.reset()
			if st == auth.Expired {
				b.sendMessage(chatID, "🔒 Your session has expired. Use /login <email> <password> to sign in again.")
			}
		}),
	)

	b.sessions[chatID] = s
	return s, nil
}

func (s *chatSession) reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.loaded = false
	s.confirming = make(map[int64]bool)
}

// ensureLoaded fetches the content once per auth state change.
func (s *chatSession) ensureLoaded(ctx context.Context) {
	s.mu.Lock()
	loaded := s.loaded
	s.loaded = true
	s.mu.Unlock()

	if !loaded {
		s.content.Fetch(ctx)
	}
}

func (s *chatSession) selectFilter(choice string) content.Filter {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.filter = s.filter.Select(choice)
	return s.filter
}

func (s *chatSession) currentFilter() content.Filter {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.filter
}

// confirm records the first /delete of an id and reports whether the
// second one has arrived.
func (s *chatSession) confirm(id int64, confirmed bool) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if confirmed && s.confirming[id] {
		delete(s.confirming, id)
		return true
	}
	s.confirming[id] = true
	return false
}

func (s *chatSession) close() {
	for _, fn := range s.teardown {
		fn()
	}
	s.content.Close()
	s.notes.Close()
	s.auth.Close()
}
