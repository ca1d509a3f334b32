// Package content derives the visible list of saved links from a local
// mirror of the user's content and runs the create and delete flows.
package content

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/xaenox/second-brain/internal/api"
	"github.com/xaenox/second-brain/internal/models"
	"go.uber.org/zap"
)

var (
	// ErrDeleteInFlight is returned when a delete for the same id has not finished.
	ErrDeleteInFlight = errors.New("delete already in progress")
	ErrCreateInFlight = errors.New("create already in progress")
)

// API is the backend surface used by the view model.
type API interface {
	ListContent(ctx context.Context) ([]models.ContentItem, error)
	CreateContent(ctx context.Context, draft models.ContentDraft) error
	DeleteContent(ctx context.Context, id int64) error
}

// AuthGate reports whether a token is present.
type AuthGate interface {
	Authenticated() bool
}

type Notifier interface {
	Add(message string, severity models.Severity) string
}

// TagSuggester proposes tags for a draft submitted without any.
type TagSuggester interface {
	Suggest(ctx context.Context, title, link string) []string
}

type OpState int

const (
	Idle OpState = iota
	Submitting
)

type ViewModel struct {
	mu        sync.RWMutex
	items     []models.ContentItem
	loading   bool
	lastError string
	deleting  map[int64]bool
	creating  bool
	closed    bool

	api       API
	auth      AuthGate
	notify    Notifier
	suggester TagSuggester
	now       func() time.Time
	logger    *zap.Logger
}

type Option func(*ViewModel)

func WithSuggester(s TagSuggester) Option {
	return func(v *ViewModel) { v.suggester = s }
}

func WithClock(now func() time.Time) Option {
	return func(v *ViewModel) { v.now = now }
}

func NewViewModel(client API, auth AuthGate, notify Notifier, logger *zap.Logger, opts ...Option) *ViewModel {
	v := &ViewModel{
		deleting: make(map[int64]bool),
		api:      client,
		auth:     auth,
		notify:   notify,
		now:      time.Now,
		logger:   logger,
	}
	for _, opt := range opts {
		opt(v)
	}
	return v
}

// Fetch replaces the mirror with the backend's list. Failures are reported
// through the notifier and leave the mirror as it was. Overlapping calls are
// not sequenced: whichever response completes last is kept.
func (v *ViewModel) Fetch(ctx context.Context) {
	if !v.auth.Authenticated() {
		v.setLastError("Please login to view content")
		v.toast("Authentication required. Please login.", models.SeverityWarning)
		return
	}

	v.mu.Lock()
	v.loading = true
	v.mu.Unlock()

	items, err := v.api.ListContent(ctx)

	v.mu.Lock()
	v.loading = false
	if v.closed {
		v.mu.Unlock()
		v.logger.Debug("Dropping content fetched after close")
		return
	}
	if err != nil {
		v.lastError = "Failed to fetch content"
		v.mu.Unlock()
		v.report(err)
		return
	}
	v.items = items
	v.lastError = ""
	v.mu.Unlock()
	v.logger.Debug("Content mirror replaced", zap.Int("count", len(items)))
}

// Items returns a copy of the mirror.
func (v *ViewModel) Items() []models.ContentItem {
	v.mu.RLock()
	defer v.mu.RUnlock()

	out := make([]models.ContentItem, len(v.items))
	copy(out, v.items)
	return out
}

// Visible applies f to the mirror.
func (v *ViewModel) Visible(f Filter) []models.ContentItem {
	return ApplyFilters(v.Items(), f, v.now())
}

func (v *ViewModel) Loading() bool {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.loading
}

// LastError is the page-level error of the last fetch, empty after a success.
func (v *ViewModel) LastError() string {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.lastError
}

// DeleteState reports whether a delete for id is in flight.
func (v *ViewModel) DeleteState(id int64) OpState {
	v.mu.RLock()
	defer v.mu.RUnlock()
	if v.deleting[id] {
		return Submitting
	}
	return Idle
}

func (v *ViewModel) CreateState() OpState {
	v.mu.RLock()
	defer v.mu.RUnlock()
	if v.creating {
		return Submitting
	}
	return Idle
}

// Delete removes id on the backend and then from the mirror.
func (v *ViewModel) Delete(ctx context.Context, id int64) error {
	v.mu.Lock()
	if v.deleting[id] {
		v.mu.Unlock()
		return ErrDeleteInFlight
	}
	v.deleting[id] = true
	v.mu.Unlock()

	err := v.api.DeleteContent(ctx, id)

	v.mu.Lock()
	delete(v.deleting, id)
	if err == nil && !v.closed {
		v.items = removeItem(v.items, id)
	}
	v.mu.Unlock()

	if err != nil {
		v.report(err)
		return err
	}
	v.toast("Content deleted successfully", models.SeveritySuccess)
	return nil
}

func removeItem(items []models.ContentItem, id int64) []models.ContentItem {
	out := make([]models.ContentItem, 0, len(items))
	for _, item := range items {
		if item.ID != id {
			out = append(out, item)
		}
	}
	return out
}

// Create validates the draft, submits it and refetches the full list.
// Validation failures are returned as api.ValidationErrors without any
// request being made.
func (v *ViewModel) Create(ctx context.Context, draft models.ContentDraft) error {
	if !v.auth.Authenticated() {
		v.toast("Please login to create content", models.SeverityWarning)
		return api.ErrAuthRequired
	}
	draft.Title = strings.TrimSpace(draft.Title)
	draft.Link = strings.TrimSpace(draft.Link)
	if errs := Validate(draft); errs != nil {
		return errs
	}
	ct, _ := models.ParseContentType(draft.Type)
	draft.Type = string(ct)

	v.mu.Lock()
	if v.creating {
		v.mu.Unlock()
		return ErrCreateInFlight
	}
	v.creating = true
	v.mu.Unlock()
	defer func() {
		v.mu.Lock()
		v.creating = false
		v.mu.Unlock()
	}()

	if len(draft.Tags) == 0 && v.suggester != nil {
		draft.Tags = v.suggester.Suggest(ctx, draft.Title, draft.Link)
	}

	if err := v.api.CreateContent(ctx, draft); err != nil {
		v.report(err)
		return err
	}
	v.toast("Content created successfully", models.SeveritySuccess)
	v.Fetch(ctx)
	return nil
}

// Close drops results of requests still in flight. Requests themselves are
// not aborted; cancel ctx for that.
func (v *ViewModel) Close() {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.closed = true
}

func (v *ViewModel) setLastError(msg string) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.lastError = msg
}

// report turns err into exactly one notification.
func (v *ViewModel) report(err error) {
	v.logger.Error("API Error", zap.Error(err))
	severity := models.SeverityError
	if errors.Is(err, api.ErrAuthRequired) {
		severity = models.SeverityWarning
	}
	v.toast(api.Message(err), severity)
}

// toast forwards to the notifier unless the view model is closed. It must be
// called without v.mu held; subscribers may read the view model.
func (v *ViewModel) toast(message string, severity models.Severity) {
	v.mu.RLock()
	closed := v.closed
	v.mu.RUnlock()
	if closed {
		return
	}
	v.notify.Add(message, severity)
}
