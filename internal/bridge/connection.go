package bridge

import (
	"context"
	"errors"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/shelfbridge/internal/models"
	"github.com/desertthunder/shelfbridge/internal/shared"
	"github.com/desertthunder/shelfbridge/internal/stream"
	"golang.org/x/oauth2"
	"golang.org/x/time/rate"
)

// Socket.IO events exchanged with Audiobookshelf
const (
	eventAuth         = "auth"
	eventInit         = "init"
	eventAuthFailed   = "auth_failed"
	eventInvalidToken = "invalid_token"
	eventSubscribe    = "subscribe"
)

// EventSink receives progress events in order. The manager waits for it to return before reading the next event.
type EventSink func(ctx context.Context, ev models.RawProgressEvent)

// Dialer opens stream connections. [*stream.Client] implements it.
type Dialer interface {
	Dial(ctx context.Context) (stream.Conn, error)
}

// CredentialResolver is implemented by [*Resolver].
type CredentialResolver interface {
	Resolve(ctx context.Context) (*oauth2.Token, error)
	Static() bool
}

// CredentialCache stores a logged-in token between runs (see repositories.CredentialCacheAdapter).
type CredentialCache interface {
	Load() (string, error)
	Save(token string) error
	Clear() error
}

// ManagerConfig holds the manager's timing and topic settings. Zero values use the shared defaults.
type ManagerConfig struct {
	Event       string
	Backoff     time.Duration
	AuthTimeout time.Duration
}

type subscribeRequest struct {
	Events []string `json:"events"`
}

// Manager keeps one authenticated subscription to the source event stream.
type Manager struct {
	dialer   Dialer
	resolver CredentialResolver
	cache    CredentialCache
	session  *Session
	limiter  *rate.Limiter
	updates  chan<- Update
	logger   *log.Logger

	event       string
	backoff     time.Duration
	authTimeout time.Duration
	sleep       func(ctx context.Context, d time.Duration) error // failure backoff
	pace        func(ctx context.Context, d time.Duration) error // limiter delay between attempts
}

// NewManager creates a manager that writes its state to session.
func NewManager(dialer Dialer, resolver CredentialResolver, session *Session, cfg ManagerConfig, logger *log.Logger) *Manager {
	if cfg.Event == "" {
		cfg.Event = shared.DefaultEvent
	}
	if cfg.Backoff <= 0 {
		cfg.Backoff = shared.DefaultBackoff
	}
	if cfg.AuthTimeout <= 0 {
		cfg.AuthTimeout = shared.DefaultAuthTimeout
	}
	if logger == nil {
		logger = shared.NewLogger(nil)
	}

	return &Manager{
		dialer:      dialer,
		resolver:    resolver,
		session:     session,
		limiter:     rate.NewLimiter(rate.Every(cfg.Backoff), 1),
		logger:      logger,
		event:       cfg.Event,
		backoff:     cfg.Backoff,
		authTimeout: cfg.AuthTimeout,
		sleep:       sleep,
		pace:        sleep,
	}
}

// SetCredentialCache enables reuse of logged-in tokens. It is ignored for static tokens.
func (m *Manager) SetCredentialCache(c CredentialCache) {
	m.cache = c
}

// SetUpdates enables non-blocking status updates.
func (m *Manager) SetUpdates(ch chan<- Update) {
	m.updates = ch
}

// Session returns the session the manager writes.
func (m *Manager) Session() *Session {
	return m.session
}

// Run connects, authenticates, subscribes and forwards progress events to sink until ctx is done.
//
// Failed attempts are logged and retried after the fixed backoff. Run returns ctx.Err() on cancellation.
func (m *Manager) Run(ctx context.Context, sink EventSink) error {
	defer m.transition(Disconnected)

	for {
		if err := m.pace(ctx, m.limiter.Reserve().Delay()); err != nil {
			return ctx.Err()
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}

		err := m.connect(ctx, sink)
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if err == nil {
			continue
		}

		m.logger.Warn("connection attempt failed", "session", m.session.ID(), "error", err, "retry_in", m.backoff)
		if err := m.sleep(ctx, m.backoff); err != nil {
			return ctx.Err()
		}
	}
}

// connect runs one connection from dial to drop. A nil return means the session was authenticated and later ended.
func (m *Manager) connect(ctx context.Context, sink EventSink) error {
	m.session.begin(shared.GenerateID())
	sendUpdate(m.updates, stateUpdate(m.session.ID(), Connecting))
	m.logger.Info("connecting", "session", m.session.ID())

	conn, err := m.dialer.Dial(ctx)
	if err != nil {
		m.transition(Disconnected)
		return &TransportError{Op: "dial", Err: err}
	}
	stop := context.AfterFunc(ctx, func() { conn.Close() })
	defer func() {
		stop()
		conn.Close()
		m.transition(Disconnected)
	}()

	m.transition(Connected)
	m.transition(Authenticating)
	if err := m.authenticate(ctx, conn); err != nil {
		return err
	}
	m.transition(Authenticated)

	if err := conn.Emit(eventSubscribe, subscribeRequest{Events: []string{m.event}}); err != nil {
		return &TransportError{Op: "subscribe", Err: err}
	}
	m.session.setSubscribed(true)
	sendUpdate(m.updates, subscribedUpdate(m.session.ID(), m.event))
	m.logger.Info("subscribed", "session", m.session.ID(), "event", m.event)

	return m.receive(ctx, conn, sink)
}

func (m *Manager) authenticate(ctx context.Context, conn stream.Conn) error {
	token, err := m.credential(ctx)
	if err != nil {
		return err
	}
	if err := conn.Emit(eventAuth, token.AccessToken); err != nil {
		return &TransportError{Op: "auth", Err: err}
	}

	authCtx, cancel := context.WithTimeout(ctx, m.authTimeout)
	defer cancel()

	for {
		msg, err := conn.Next(authCtx)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			if errors.Is(err, context.DeadlineExceeded) {
				return &AuthError{Reason: "no answer within " + m.authTimeout.String(), Err: shared.ErrAuthTimeout}
			}
			return &TransportError{Op: "authenticate", Err: err}
		}

		switch msg.Event {
		case eventInit:
			m.logger.Info("authenticated", "session", m.session.ID())
			return nil
		case eventAuthFailed, eventInvalidToken:
			m.discard()
			return &AuthError{Reason: "server rejected credential", Err: shared.ErrAuthRejected}
		default:
			m.logger.Debug("ignoring event before authentication", "event", msg.Event)
		}
	}
}

// credential returns the held token, then a cached one, then a freshly resolved one.
func (m *Manager) credential(ctx context.Context) (*oauth2.Token, error) {
	if token := m.session.Credential(); token != nil {
		return token, nil
	}

	useCache := m.cache != nil && !m.resolver.Static()
	if useCache {
		if raw, err := m.cache.Load(); err == nil && raw != "" {
			m.logger.Debug("using cached credential", "token", shared.MaskToken(raw))
			token := bearer(raw)
			m.session.setCredential(token)
			return token, nil
		}
	}

	token, err := m.resolver.Resolve(ctx)
	if err != nil {
		return nil, err
	}
	m.session.setCredential(token)

	if useCache {
		if err := m.cache.Save(token.AccessToken); err != nil {
			m.logger.Debug("failed to cache credential", "error", err)
		}
	}
	return token, nil
}

// discard drops a rejected credential so the next attempt logs in again. Static tokens are kept.
func (m *Manager) discard() {
	if m.resolver.Static() {
		m.logger.Warn("configured token was rejected", "session", m.session.ID())
		return
	}

	m.session.setCredential(nil)
	if m.cache != nil {
		if err := m.cache.Clear(); err != nil {
			m.logger.Debug("failed to clear cached credential", "error", err)
		}
	}
}

func (m *Manager) receive(ctx context.Context, conn stream.Conn, sink EventSink) error {
	for {
		msg, err := conn.Next(ctx)
		if err != nil {
			if ctx.Err() == nil {
				m.logger.Warn("stream dropped", "session", m.session.ID(), "error", err)
			}
			return nil
		}

		if msg.Event != m.event {
			m.logger.Debug("received event", "event", msg.Event)
			continue
		}

		ev, err := ParseProgressEvent(msg.Data)
		if err != nil {
			m.logger.Warn("dropping malformed progress event", "error", err)
			continue
		}
		sink(context.WithoutCancel(ctx), ev)
	}
}

func (m *Manager) transition(st State) {
	if m.session.State() == st {
		return
	}
	m.session.setState(st)
	sendUpdate(m.updates, stateUpdate(m.session.ID(), st))
	m.logger.Debug("state changed", "session", m.session.ID(), "state", st)
}

func sleep(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
