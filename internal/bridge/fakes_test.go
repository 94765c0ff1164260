package bridge

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/desertthunder/shelfbridge/internal/models"
	"github.com/desertthunder/shelfbridge/internal/services"
	"github.com/desertthunder/shelfbridge/internal/shared"
	"github.com/desertthunder/shelfbridge/internal/stream"
	"golang.org/x/oauth2"
)

type emitted struct {
	event   string
	payload any
}

// fakeConn is a scripted [stream.Conn]. Closing inbox simulates a transport drop.
type fakeConn struct {
	mu     sync.Mutex
	emits  []emitted
	inbox  chan stream.Message
	closed chan struct{}
	once   sync.Once
	onEmit func(c *fakeConn, event string, payload any)
}

func newFakeConn(onEmit func(c *fakeConn, event string, payload any)) *fakeConn {
	return &fakeConn{
		inbox:  make(chan stream.Message, 32),
		closed: make(chan struct{}),
		onEmit: onEmit,
	}
}

func (c *fakeConn) Emit(event string, payload any) error {
	c.mu.Lock()
	c.emits = append(c.emits, emitted{event, payload})
	c.mu.Unlock()
	if c.onEmit != nil {
		c.onEmit(c, event, payload)
	}
	return nil
}

func (c *fakeConn) Next(ctx context.Context) (stream.Message, error) {
	select {
	case <-ctx.Done():
		return stream.Message{}, ctx.Err()
	case <-c.closed:
		return stream.Message{}, stream.ErrClosed
	case m, ok := <-c.inbox:
		if !ok {
			return stream.Message{}, stream.ErrClosed
		}
		return m, nil
	}
}

func (c *fakeConn) Close() error {
	c.once.Do(func() { close(c.closed) })
	return nil
}

func (c *fakeConn) push(event, data string) {
	m := stream.Message{Event: event}
	if data != "" {
		m.Data = []byte(data)
	}
	c.inbox <- m
}

func (c *fakeConn) count(event string) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	n := 0
	for _, e := range c.emits {
		if e.event == event {
			n++
		}
	}
	return n
}

func (c *fakeConn) isClosed() bool {
	select {
	case <-c.closed:
		return true
	default:
		return false
	}
}

// acceptingConn answers auth with init and the subscribe with events, then drops.
func acceptingConn(events ...string) *fakeConn {
	return newFakeConn(func(c *fakeConn, event string, _ any) {
		switch event {
		case eventAuth:
			c.push(eventInit, `{"user":{"id":"u1"}}`)
		case eventSubscribe:
			for _, e := range events {
				c.push(shared.DefaultEvent, e)
			}
			close(c.inbox)
		}
	})
}

// rejectingConn answers auth with auth_failed, after leaking a progress event.
func rejectingConn() *fakeConn {
	return newFakeConn(func(c *fakeConn, event string, _ any) {
		if event == eventAuth {
			c.push(shared.DefaultEvent, `{"data":{"libraryItemId":"early","progress":0.1}}`)
			c.push(eventAuthFailed, "")
		}
	})
}

type dialResult struct {
	conn stream.Conn
	err  error
}

type fakeDialer struct {
	mu      sync.Mutex
	results []dialResult
	calls   int
}

func (d *fakeDialer) Dial(ctx context.Context) (stream.Conn, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.calls++
	if len(d.results) == 0 {
		return nil, errors.New("no more connections")
	}
	r := d.results[0]
	d.results = d.results[1:]
	return r.conn, r.err
}

type fakeResolver struct {
	mu     sync.Mutex
	static bool
	tokens []string
	errs   []error
	calls  int
}

func (r *fakeResolver) Resolve(ctx context.Context) (*oauth2.Token, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	i := r.calls
	r.calls++
	if i < len(r.errs) && r.errs[i] != nil {
		return nil, &AuthError{Reason: "fake", Err: r.errs[i]}
	}
	token := "token"
	if i < len(r.tokens) {
		token = r.tokens[i]
	}
	return bearer(token), nil
}

func (r *fakeResolver) Static() bool { return r.static }

func (r *fakeResolver) Calls() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.calls
}

type fakeCache struct {
	mu      sync.Mutex
	token   string
	saved   []string
	cleared int
}

func (c *fakeCache) Load() (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.token == "" {
		return "", shared.ErrMissingCredentials
	}
	return c.token, nil
}

func (c *fakeCache) Save(token string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.token = token
	c.saved = append(c.saved, token)
	return nil
}

func (c *fakeCache) Clear() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.token = ""
	c.cleared++
	return nil
}

// sleepRecorder replaces the backoff sleep so tests do not wait.
type sleepRecorder struct {
	mu    sync.Mutex
	naps  []time.Duration
	after func()
}

func (s *sleepRecorder) sleep(ctx context.Context, d time.Duration) error {
	s.mu.Lock()
	s.naps = append(s.naps, d)
	after := s.after
	s.mu.Unlock()
	if after != nil {
		after()
	}
	return ctx.Err()
}

func (s *sleepRecorder) Naps() []time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]time.Duration(nil), s.naps...)
}

type fakeLookup struct {
	mu    sync.Mutex
	items map[string]*services.LibraryItem
	err   error
	calls int
	seen  []string
}

func (l *fakeLookup) GetItem(ctx context.Context, token *oauth2.Token, itemID string) (*services.LibraryItem, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.calls++
	l.seen = append(l.seen, token.AccessToken)
	if l.err != nil {
		return nil, l.err
	}
	item, ok := l.items[itemID]
	if !ok {
		return nil, shared.ErrItemNotFound
	}
	return item, nil
}

func itemWithASIN(id, asin string) *services.LibraryItem {
	return &services.LibraryItem{ID: id, Metadata: &services.ItemMetadata{ASIN: asin, Title: "Title " + id}}
}

type fakeRecorder struct {
	items map[string]string
	err   error
}

func (r *fakeRecorder) RecordItem(itemID, externalID, title, author string) error {
	if r.items == nil {
		r.items = map[string]string{}
	}
	r.items[itemID] = externalID
	return r.err
}

// fakeTracker is a last-write-wins progress store keyed by ASIN.
type fakeTracker struct {
	mu       sync.Mutex
	progress map[string]float64
	requests []services.ProgressRequest
	err      error
}

func (t *fakeTracker) PutProgress(ctx context.Context, req services.ProgressRequest) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.requests = append(t.requests, req)
	if t.err != nil {
		return t.err
	}
	if t.progress == nil {
		t.progress = map[string]float64{}
	}
	t.progress[req.ID.AudibleID] = req.Progress
	return nil
}

func (t *fakeTracker) Calls() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.requests)
}

type staticCreds struct{ token *oauth2.Token }

func (s staticCreds) Credential() *oauth2.Token { return s.token }

type eventLog struct {
	mu     sync.Mutex
	events []models.RawProgressEvent
	onAdd  func(n int)
}

func (l *eventLog) sink(ctx context.Context, ev models.RawProgressEvent) {
	l.mu.Lock()
	l.events = append(l.events, ev)
	n := len(l.events)
	l.mu.Unlock()
	if l.onAdd != nil {
		l.onAdd(n)
	}
}

func (l *eventLog) IDs() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	ids := make([]string, len(l.events))
	for i, e := range l.events {
		ids[i] = e.SourceItemID
	}
	return ids
}
