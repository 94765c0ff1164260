package bridge

import (
	"context"
	"errors"
	"fmt"
	"io"
	"reflect"
	"testing"
	"time"

	"github.com/desertthunder/shelfbridge/internal/models"
	"github.com/desertthunder/shelfbridge/internal/shared"
)

const testBackoff = 10 * time.Millisecond

func progressJSON(id string, progress float64) string {
	return fmt.Sprintf(`{"data":{"libraryItemId":%q,"progress":%v,"currentTime":630,"duration":1500}}`, id, progress)
}

func newTestManager(d Dialer, r CredentialResolver) (*Manager, *sleepRecorder) {
	cfg := ManagerConfig{Backoff: testBackoff, AuthTimeout: 50 * time.Millisecond}
	m := NewManager(d, r, NewSession(), cfg, shared.NewLogger(io.Discard))
	rec := &sleepRecorder{}
	m.sleep = rec.sleep
	return m, rec
}

func runManager(t *testing.T, m *Manager, ctx context.Context, sink EventSink) error {
	t.Helper()
	done := make(chan error, 1)
	go func() { done <- m.Run(ctx, sink) }()

	select {
	case err := <-done:
		return err
	case <-time.After(5 * time.Second):
		t.Fatal("manager did not stop")
		return nil
	}
}

func drain(ch chan Update) []Update {
	var out []Update
	for {
		select {
		case u := <-ch:
			out = append(out, u)
		default:
			return out
		}
	}
}

func TestManager(t *testing.T) {
	t.Run("Subscribes Once Per Session", func(t *testing.T) {
		conn1 := acceptingConn(progressJSON("L1", 0.1), progressJSON("L2", 0.2))
		conn2 := acceptingConn(progressJSON("L3", 0.3))
		dialer := &fakeDialer{results: []dialResult{{conn: conn1}, {conn: conn2}}}
		resolver := &fakeResolver{}
		m, rec := newTestManager(dialer, resolver)

		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()
		events := &eventLog{onAdd: func(n int) {
			if n == 3 {
				cancel()
			}
		}}

		if err := runManager(t, m, ctx, events.sink); !errors.Is(err, context.Canceled) {
			t.Errorf("expected context.Canceled, got %v", err)
		}

		if got := events.IDs(); !reflect.DeepEqual(got, []string{"L1", "L2", "L3"}) {
			t.Errorf("unexpected events %v", got)
		}
		for i, c := range []*fakeConn{conn1, conn2} {
			if n := c.count(eventSubscribe); n != 1 {
				t.Errorf("connection %d: expected 1 subscribe, got %d", i+1, n)
			}
			if !c.isClosed() {
				t.Errorf("connection %d was not closed", i+1)
			}
		}
		if resolver.Calls() != 1 {
			t.Errorf("expected credential to survive reconnect, resolver called %d times", resolver.Calls())
		}
		if naps := rec.Naps(); len(naps) != 0 {
			t.Errorf("expected no failure backoff after a clean drop, got %v", naps)
		}
		if m.Session().State() != Disconnected || m.Session().Subscribed() {
			t.Errorf("expected disconnected, unsubscribed session, got %s", m.Session().State())
		}
	})

	t.Run("Spaces Reconnects After Clean Drop", func(t *testing.T) {
		conn1 := acceptingConn(progressJSON("L1", 0.1))
		conn2 := acceptingConn(progressJSON("L2", 0.2))
		dialer := &fakeDialer{results: []dialResult{{conn: conn1}, {conn: conn2}}}

		cfg := ManagerConfig{Backoff: time.Second, AuthTimeout: 50 * time.Millisecond}
		m := NewManager(dialer, &fakeResolver{}, NewSession(), cfg, shared.NewLogger(io.Discard))
		failures, pacing := &sleepRecorder{}, &sleepRecorder{}
		m.sleep = failures.sleep
		m.pace = pacing.sleep

		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()
		events := &eventLog{onAdd: func(n int) {
			if n == 2 {
				cancel()
			}
		}}

		runManager(t, m, ctx, events.sink)

		naps := pacing.Naps()
		if len(naps) < 2 {
			t.Fatalf("expected a limiter wait before each dial, got %v", naps)
		}
		if naps[0] != 0 {
			t.Errorf("expected first attempt to start at once, waited %v", naps[0])
		}
		if naps[1] < 900*time.Millisecond || naps[1] > time.Second {
			t.Errorf("expected second dial to wait about one backoff, waited %v", naps[1])
		}
		if got := failures.Naps(); len(got) != 0 {
			t.Errorf("expected no failure backoff after a clean drop, got %v", got)
		}
	})

	t.Run("Subscribe Names Progress Event", func(t *testing.T) {
		conn := acceptingConn()
		m, _ := newTestManager(&fakeDialer{results: []dialResult{{conn: conn}}}, &fakeResolver{})

		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()
		m.sleep = func(ctx context.Context, d time.Duration) error {
			cancel()
			return ctx.Err()
		}
		runManager(t, m, ctx, func(context.Context, models.RawProgressEvent) {})

		var req subscribeRequest
		for _, e := range conn.emits {
			if e.event == eventSubscribe {
				req = e.payload.(subscribeRequest)
			}
		}
		if !reflect.DeepEqual(req.Events, []string{shared.DefaultEvent}) {
			t.Errorf("unexpected subscribe payload %+v", req)
		}
	})

	t.Run("Auth Rejected Returns To Disconnected With Backoff", func(t *testing.T) {
		conn1 := rejectingConn()
		conn2 := acceptingConn(progressJSON("L1", 0.42))
		dialer := &fakeDialer{results: []dialResult{{conn: conn1}, {conn: conn2}}}
		resolver := &fakeResolver{tokens: []string{"first", "second"}}
		cache := &fakeCache{}
		m, rec := newTestManager(dialer, resolver)
		m.SetCredentialCache(cache)
		updates := make(chan Update, 64)
		m.SetUpdates(updates)

		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()
		events := &eventLog{onAdd: func(int) { cancel() }}

		runManager(t, m, ctx, events.sink)

		if got := events.IDs(); !reflect.DeepEqual(got, []string{"L1"}) {
			t.Errorf("expected only the post-auth event, got %v", got)
		}
		if naps := rec.Naps(); !reflect.DeepEqual(naps, []time.Duration{testBackoff}) {
			t.Errorf("expected one backoff of %s, got %v", testBackoff, naps)
		}
		if resolver.Calls() != 2 {
			t.Errorf("expected rejected credential to be re-resolved, got %d calls", resolver.Calls())
		}
		if cache.cleared != 1 || !reflect.DeepEqual(cache.saved, []string{"first", "second"}) {
			t.Errorf("unexpected cache activity: cleared=%d saved=%v", cache.cleared, cache.saved)
		}
		if conn2.count(eventSubscribe) != 1 || conn1.count(eventSubscribe) != 0 {
			t.Error("expected subscribe only on the accepted connection")
		}

		var first string
		var states []State
		for _, u := range drain(updates) {
			if u.Kind != StateChanged {
				continue
			}
			if first == "" {
				first = u.SessionID
			}
			if u.SessionID == first {
				states = append(states, u.State)
			}
		}
		want := []State{Connecting, Connected, Authenticating, Disconnected}
		if !reflect.DeepEqual(states, want) {
			t.Errorf("expected states %v, got %v", want, states)
		}
	})

	t.Run("Static Token Survives Rejection", func(t *testing.T) {
		dialer := &fakeDialer{results: []dialResult{{conn: rejectingConn()}, {conn: acceptingConn(progressJSON("L1", 0.5))}}}
		resolver := &fakeResolver{static: true}
		cache := &fakeCache{}
		m, _ := newTestManager(dialer, resolver)
		m.SetCredentialCache(cache)

		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()
		events := &eventLog{onAdd: func(int) { cancel() }}
		runManager(t, m, ctx, events.sink)

		if resolver.Calls() != 1 {
			t.Errorf("expected static token to be resolved once, got %d", resolver.Calls())
		}
		if len(cache.saved) != 0 || cache.cleared != 0 {
			t.Error("expected static tokens to bypass the cache")
		}
	})

	t.Run("Uses Cached Credential", func(t *testing.T) {
		conn := acceptingConn(progressJSON("L1", 0.5))
		resolver := &fakeResolver{}
		m, _ := newTestManager(&fakeDialer{results: []dialResult{{conn: conn}}}, resolver)
		m.SetCredentialCache(&fakeCache{token: "cached"})

		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()
		events := &eventLog{onAdd: func(int) { cancel() }}
		runManager(t, m, ctx, events.sink)

		if resolver.Calls() != 0 {
			t.Errorf("expected resolver to be skipped, got %d calls", resolver.Calls())
		}
		if conn.emits[0].event != eventAuth || conn.emits[0].payload != "cached" {
			t.Errorf("expected auth with cached token, got %+v", conn.emits[0])
		}
	})

	t.Run("Auth Timeout Backs Off", func(t *testing.T) {
		silent := newFakeConn(nil)
		dialer := &fakeDialer{results: []dialResult{{conn: silent}, {conn: acceptingConn(progressJSON("L1", 0.5))}}}
		m, rec := newTestManager(dialer, &fakeResolver{})

		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()
		events := &eventLog{onAdd: func(int) { cancel() }}
		runManager(t, m, ctx, events.sink)

		if len(rec.Naps()) != 1 {
			t.Errorf("expected one backoff, got %v", rec.Naps())
		}
		if !silent.isClosed() || silent.count(eventSubscribe) != 0 {
			t.Error("expected silent connection to be closed without subscribing")
		}
	})

	t.Run("Dial And Resolve Failures Are Not Fatal", func(t *testing.T) {
		wasted := newFakeConn(nil)
		dialer := &fakeDialer{results: []dialResult{
			{err: shared.ErrTransport},
			{conn: wasted},
			{conn: acceptingConn(progressJSON("L1", 0.5))},
		}}
		resolver := &fakeResolver{errs: []error{errors.New("login refused")}}
		m, rec := newTestManager(dialer, resolver)

		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()
		events := &eventLog{onAdd: func(int) { cancel() }}
		runManager(t, m, ctx, events.sink)

		if got := events.IDs(); !reflect.DeepEqual(got, []string{"L1"}) {
			t.Errorf("unexpected events %v", got)
		}
		if len(rec.Naps()) != 2 {
			t.Errorf("expected two backoffs, got %v", rec.Naps())
		}
		if !wasted.isClosed() || wasted.count(eventAuth) != 0 {
			t.Error("expected connection without credential to be closed before auth")
		}
	})

	t.Run("Cancellation Closes Stream", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()
		conn := newFakeConn(func(c *fakeConn, event string, _ any) {
			switch event {
			case eventAuth:
				c.push(eventInit, "")
			case eventSubscribe:
				go cancel()
			}
		})
		m, _ := newTestManager(&fakeDialer{results: []dialResult{{conn: conn}}}, &fakeResolver{})

		err := runManager(t, m, ctx, func(context.Context, models.RawProgressEvent) {})
		if !errors.Is(err, context.Canceled) {
			t.Errorf("expected context.Canceled, got %v", err)
		}
		if !conn.isClosed() {
			t.Error("expected stream to be closed on cancellation")
		}
		if m.Session().State() != Disconnected {
			t.Errorf("expected disconnected, got %s", m.Session().State())
		}
	})

	t.Run("Sink Context Survives Cancellation", func(t *testing.T) {
		conn := acceptingConn(progressJSON("L1", 0.5))
		m, _ := newTestManager(&fakeDialer{results: []dialResult{{conn: conn}}}, &fakeResolver{})

		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()
		var sinkErr error = errors.New("sink not called")
		runManager(t, m, ctx, func(sctx context.Context, ev models.RawProgressEvent) {
			cancel()
			sinkErr = sctx.Err()
		})

		if sinkErr != nil {
			t.Errorf("expected in-flight work to keep a live context, got %v", sinkErr)
		}
	})

	t.Run("Skips Unrelated And Malformed Events", func(t *testing.T) {
		conn := newFakeConn(func(c *fakeConn, event string, _ any) {
			switch event {
			case eventAuth:
				c.push(eventInit, "")
			case eventSubscribe:
				c.push("item_updated", `{"id":"x"}`)
				c.push(shared.DefaultEvent, `{`)
				c.push(shared.DefaultEvent, progressJSON("L1", 0.5))
				close(c.inbox)
			}
		})
		m, _ := newTestManager(&fakeDialer{results: []dialResult{{conn: conn}}}, &fakeResolver{})

		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()
		events := &eventLog{onAdd: func(int) { cancel() }}
		runManager(t, m, ctx, events.sink)

		if got := events.IDs(); !reflect.DeepEqual(got, []string{"L1"}) {
			t.Errorf("unexpected events %v", got)
		}
	})
}

func TestSession(t *testing.T) {
	s := NewSession()
	if s.State() != Disconnected || s.Credential() != nil || s.Subscribed() {
		t.Fatal("expected empty session")
	}

	s.begin("abc")
	s.setCredential(bearer("tok"))
	s.setState(Authenticated)
	s.setSubscribed(true)
	if s.ID() != "abc" || s.State() != Authenticated || !s.Subscribed() {
		t.Errorf("unexpected session %s %s %v", s.ID(), s.State(), s.Subscribed())
	}

	s.setState(Disconnected)
	if s.Subscribed() {
		t.Error("expected subscription to end with the connection")
	}
	if s.Credential() == nil {
		t.Error("expected credential to survive disconnect")
	}

	if Authenticating.String() != "authenticating" || State(42).String() != "unknown" {
		t.Error("unexpected state names")
	}
}
