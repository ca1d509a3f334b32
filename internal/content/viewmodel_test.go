package content

import (
	"context"
	"errors"
	"reflect"
	"sync"
	"testing"
	"time"

	"github.com/xaenox/second-brain/internal/api"
	"github.com/xaenox/second-brain/internal/models"
	"go.uber.org/zap"
)

type fakeAPI struct {
	mu        sync.Mutex
	items     []models.ContentItem
	listErr   error
	createErr error
	deleteErr error
	lists     int
	created   []models.ContentDraft
	deleted   []int64
	block     chan struct{}
}

func (f *fakeAPI) ListContent(context.Context) ([]models.ContentItem, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lists++
	if f.listErr != nil {
		return nil, f.listErr
	}
	out := make([]models.ContentItem, len(f.items))
	copy(out, f.items)
	return out, nil
}

func (f *fakeAPI) CreateContent(_ context.Context, d models.ContentDraft) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.createErr != nil {
		return f.createErr
	}
	f.created = append(f.created, d)
	f.items = append(f.items, models.ContentItem{ID: int64(100 + len(f.created)), Title: d.Title, Type: d.Type, Link: d.Link})
	return nil
}

func (f *fakeAPI) DeleteContent(_ context.Context, id int64) error {
	if f.block != nil {
		<-f.block
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deleted = append(f.deleted, id)
	return f.deleteErr
}

type fakeAuth bool

func (a fakeAuth) Authenticated() bool { return bool(a) }

type recordedNote struct {
	message  string
	severity models.Severity
}

type fakeNotifier struct {
	mu    sync.Mutex
	notes []recordedNote
}

func (n *fakeNotifier) Add(message string, severity models.Severity) string {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.notes = append(n.notes, recordedNote{message, severity})
	return message
}

func (n *fakeNotifier) last() recordedNote {
	n.mu.Lock()
	defer n.mu.Unlock()
	if len(n.notes) == 0 {
		return recordedNote{}
	}
	return n.notes[len(n.notes)-1]
}

type fixedSuggester []string

func (s fixedSuggester) Suggest(context.Context, string, string) []string { return s }

func seeded() *fakeAPI {
	return &fakeAPI{items: []models.ContentItem{
		{ID: 1, Title: "a", Type: "article"},
		{ID: 2, Title: "b", Type: "youtube"},
		{ID: 3, Title: "c", Type: "twitter"},
	}}
}

func TestViewModel_FetchWithoutTokenSkipsNetwork(t *testing.T) {
	backend := seeded()
	notes := &fakeNotifier{}
	vm := NewViewModel(backend, fakeAuth(false), notes, zap.NewNop())

	vm.Fetch(context.Background())

	if backend.lists != 0 {
		t.Errorf("ListContent called %d times without a token", backend.lists)
	}
	if len(vm.Items()) != 0 {
		t.Errorf("mirror = %v, want empty", vm.Items())
	}
	if got := notes.last(); got.severity != models.SeverityWarning {
		t.Errorf("notification = %+v, want a warning", got)
	}
}

func TestViewModel_FetchReplacesMirror(t *testing.T) {
	backend := seeded()
	vm := NewViewModel(backend, fakeAuth(true), &fakeNotifier{}, zap.NewNop())

	vm.Fetch(context.Background())
	if got := ids(vm.Items()); !reflect.DeepEqual(got, []int64{1, 2, 3}) {
		t.Fatalf("mirror ids = %v", got)
	}
	if vm.Loading() {
		t.Error("Loading() still true after Fetch")
	}
}

func TestViewModel_FetchFailureKeepsMirror(t *testing.T) {
	backend := seeded()
	notes := &fakeNotifier{}
	vm := NewViewModel(backend, fakeAuth(true), notes, zap.NewNop())
	vm.Fetch(context.Background())

	backend.listErr = &api.ServerError{Status: 500}
	vm.Fetch(context.Background())

	if got := ids(vm.Items()); !reflect.DeepEqual(got, []int64{1, 2, 3}) {
		t.Errorf("mirror changed after failed fetch: %v", got)
	}
	if got := notes.last(); got.severity != models.SeverityError || got.message != "Request failed with status 500" {
		t.Errorf("notification = %+v", got)
	}
	if vm.LastError() != "Failed to fetch content" {
		t.Errorf("LastError = %q", vm.LastError())
	}
}

func TestViewModel_DeleteRemovesOnlyThatID(t *testing.T) {
	backend := seeded()
	notes := &fakeNotifier{}
	vm := NewViewModel(backend, fakeAuth(true), notes, zap.NewNop())
	vm.Fetch(context.Background())

	if err := vm.Delete(context.Background(), 2); err != nil {
		t.Fatal(err)
	}
	if got := ids(vm.Items()); !reflect.DeepEqual(got, []int64{1, 3}) {
		t.Errorf("mirror ids = %v, want [1 3]", got)
	}
	if got := notes.last(); got.severity != models.SeveritySuccess {
		t.Errorf("notification = %+v, want success", got)
	}
	if backend.lists != 1 {
		t.Errorf("delete triggered a refetch")
	}

	// unknown id leaves the mirror alone
	if err := vm.Delete(context.Background(), 99); err != nil {
		t.Fatal(err)
	}
	if got := ids(vm.Items()); !reflect.DeepEqual(got, []int64{1, 3}) {
		t.Errorf("mirror ids after unknown delete = %v", got)
	}
}

func TestViewModel_DeleteFailureKeepsMirror(t *testing.T) {
	backend := seeded()
	notes := &fakeNotifier{}
	vm := NewViewModel(backend, fakeAuth(true), notes, zap.NewNop())
	vm.Fetch(context.Background())

	backend.deleteErr = &api.ServerError{Status: 404, Message: "not found"}
	if err := vm.Delete(context.Background(), 1); err == nil {
		t.Fatal("expected error")
	}
	if got := ids(vm.Items()); !reflect.DeepEqual(got, []int64{1, 2, 3}) {
		t.Errorf("mirror ids = %v", got)
	}
	if got := notes.last(); got.message != "not found" || got.severity != models.SeverityError {
		t.Errorf("notification = %+v", got)
	}
}

func TestViewModel_DeleteGuardsDoubleSubmit(t *testing.T) {
	backend := seeded()
	backend.block = make(chan struct{})
	vm := NewViewModel(backend, fakeAuth(true), &fakeNotifier{}, zap.NewNop())

	done := make(chan error, 1)
	go func() { done <- vm.Delete(context.Background(), 1) }()

	for vm.DeleteState(1) != Submitting {
		time.Sleep(time.Millisecond)
	}
	if err := vm.Delete(context.Background(), 1); !errors.Is(err, ErrDeleteInFlight) {
		t.Errorf("second Delete err = %v, want ErrDeleteInFlight", err)
	}

	close(backend.block)
	if err := <-done; err != nil {
		t.Fatal(err)
	}
	if len(backend.deleted) != 1 {
		t.Errorf("backend saw %d deletes, want 1", len(backend.deleted))
	}
	if vm.DeleteState(1) != Idle {
		t.Error("delete state not reset")
	}
}

func TestViewModel_CreateValidationSkipsNetwork(t *testing.T) {
	backend := seeded()
	vm := NewViewModel(backend, fakeAuth(true), &fakeNotifier{}, zap.NewNop())

	err := vm.Create(context.Background(), models.ContentDraft{Title: "", Link: "ftp://x.com", Type: "article"})
	var ve api.ValidationErrors
	if !errors.As(err, &ve) {
		t.Fatalf("err = %v, want ValidationErrors", err)
	}
	if ve["title"] == "" || ve["link"] == "" {
		t.Errorf("missing field errors: %v", ve)
	}
	if len(backend.created) != 0 || backend.lists != 0 {
		t.Error("backend contacted despite validation failure")
	}
}

func TestViewModel_CreateRefetches(t *testing.T) {
	backend := seeded()
	notes := &fakeNotifier{}
	vm := NewViewModel(backend, fakeAuth(true), notes, zap.NewNop(), WithSuggester(fixedSuggester{"video"}))

	err := vm.Create(context.Background(), models.ContentDraft{Title: " talk ", Link: "https://youtube.com/x", Type: "YouTube"})
	if err != nil {
		t.Fatal(err)
	}
	if len(backend.created) != 1 {
		t.Fatalf("created = %v", backend.created)
	}
	got := backend.created[0]
	if got.Type != "youtube" || got.Title != "talk" || !reflect.DeepEqual(got.Tags, []string{"video"}) {
		t.Errorf("submitted draft = %+v", got)
	}
	if backend.lists != 1 {
		t.Errorf("lists = %d, want a refetch", backend.lists)
	}
	if n := len(vm.Items()); n != 4 {
		t.Errorf("mirror has %d items after create, want 4", n)
	}
	if vm.CreateState() != Idle {
		t.Error("create state not reset")
	}
}

func TestViewModel_CreateKeepsUserTags(t *testing.T) {
	backend := seeded()
	vm := NewViewModel(backend, fakeAuth(true), &fakeNotifier{}, zap.NewNop(), WithSuggester(fixedSuggester{"video"}))

	draft := models.ContentDraft{Title: "t", Link: "https://x.com", Type: "article", Tags: []string{"mine"}}
	if err := vm.Create(context.Background(), draft); err != nil {
		t.Fatal(err)
	}
	if got := backend.created[0].Tags; !reflect.DeepEqual(got, []string{"mine"}) {
		t.Errorf("tags = %v", got)
	}
}

func TestViewModel_CloseDropsLateResults(t *testing.T) {
	backend := seeded()
	notes := &fakeNotifier{}
	vm := NewViewModel(backend, fakeAuth(true), notes, zap.NewNop())
	vm.Close()

	vm.Fetch(context.Background())
	if len(vm.Items()) != 0 {
		t.Error("fetch after Close populated the mirror")
	}
}

func TestViewModel_DeleteAfterCloseSendsNoToast(t *testing.T) {
	backend := seeded()
	notes := &fakeNotifier{}
	vm := NewViewModel(backend, fakeAuth(true), notes, zap.NewNop())
	vm.Fetch(context.Background())
	vm.Close()

	if err := vm.Delete(context.Background(), 2); err != nil {
		t.Fatal(err)
	}
	if got := notes.last(); got.message != "" {
		t.Errorf("toast after Close: %+v", got)
	}
}

// readingNotifier reads the view model back from inside Add, as a chat
// subscriber rendering the list would.
type readingNotifier struct {
	vm    *ViewModel
	reads int
}

func (n *readingNotifier) Add(message string, _ models.Severity) string {
	_ = n.vm.Items()
	_ = n.vm.Loading()
	_ = n.vm.DeleteState(2)
	_ = n.vm.LastError()
	n.reads++
	return message
}

func TestViewModel_NotifierMayReadBack(t *testing.T) {
	backend := seeded()
	notes := &readingNotifier{}
	vm := NewViewModel(backend, fakeAuth(true), notes, zap.NewNop())
	notes.vm = vm

	done := make(chan struct{})
	go func() {
		defer close(done)
		ctx := context.Background()
		vm.Fetch(ctx)
		vm.Delete(ctx, 2)
		backend.mu.Lock()
		backend.listErr = errors.New("boom")
		backend.deleteErr = errors.New("boom")
		backend.mu.Unlock()
		vm.Fetch(ctx)
		vm.Delete(ctx, 1)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("notifier deadlocked reading the view model")
	}
	if notes.reads != 3 {
		t.Errorf("reads = %d, want 3", notes.reads)
	}
}
