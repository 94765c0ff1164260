package stream

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/shelfbridge/internal/shared"
	"github.com/gorilla/websocket"
)

const (
	writeTimeout       = 10 * time.Second
	handshakeTimeout   = 10 * time.Second
	defaultReadTimeout = 45 * time.Second
	queueSize          = 64
)

// ErrClosed is returned by [Conn.Next] and [Conn.Emit] after the connection ends.
var ErrClosed = fmt.Errorf("connection closed")

// Conn is an established Socket.IO connection.
type Conn interface {
	// Emit sends a named event. A nil payload sends the event without arguments.
	Emit(event string, payload any) error
	// Next blocks until the next event arrives, the connection drops, or ctx is done.
	Next(ctx context.Context) (Message, error)
	Close() error
}

// Client dials Socket.IO servers.
type Client struct {
	baseURL string
	header  http.Header
	dialer  *websocket.Dialer
	logger  *log.Logger
}

// NewClient creates a client for the server at baseURL (http, https, ws or wss).
func NewClient(baseURL string, logger *log.Logger) *Client {
	if logger == nil {
		logger = shared.NewLogger(nil)
	}
	return &Client{
		baseURL: baseURL,
		header:  http.Header{},
		dialer:  websocket.DefaultDialer,
		logger:  logger,
	}
}

// SocketURL returns the websocket endpoint derived from baseURL.
func SocketURL(baseURL string) (string, error) {
	u, err := url.Parse(strings.TrimSpace(baseURL))
	if err != nil {
		return "", fmt.Errorf("invalid server url: %w", err)
	}
	if u.Host == "" {
		return "", fmt.Errorf("invalid server url %q: missing host", baseURL)
	}

	switch u.Scheme {
	case "https", "wss":
		u.Scheme = "wss"
	case "http", "ws", "":
		u.Scheme = "ws"
	default:
		return "", fmt.Errorf("unsupported scheme %q", u.Scheme)
	}
	u.Path = strings.TrimRight(u.Path, "/") + "/socket.io/"
	u.RawQuery = "EIO=4&transport=websocket"
	u.Fragment = ""
	return u.String(), nil
}

// Dial connects, completes the Engine.IO and namespace handshakes and starts reading.
//
// Cancelling ctx during the handshake closes the socket at once. Errors wrap [shared.ErrTransport].
func (c *Client) Dial(ctx context.Context) (Conn, error) {
	target, err := SocketURL(c.baseURL)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", shared.ErrTransport, err)
	}

	wc, _, err := c.dialer.DialContext(ctx, target, c.header)
	if err != nil {
		return nil, fmt.Errorf("%w: dial %s: %v", shared.ErrTransport, target, err)
	}

	s := &socket{
		wc:     wc,
		logger: c.logger,
		msgs:   make(chan Message, queueSize),
		done:   make(chan struct{}),
	}
	stop := context.AfterFunc(ctx, func() { wc.Close() })
	err = s.handshake(ctx)
	if !stop() {
		wc.Close()
		return nil, fmt.Errorf("%w: %w", shared.ErrTransport, ctx.Err())
	}
	if err != nil {
		wc.Close()
		return nil, fmt.Errorf("%w: %v", shared.ErrTransport, err)
	}

	c.logger.Debug("socket connected", "url", target, "sid", s.sid)
	go s.readLoop()
	return s, nil
}

type socket struct {
	wc      *websocket.Conn
	logger  *log.Logger
	sid     string
	timeout time.Duration

	writeMu sync.Mutex
	msgs    chan Message
	done    chan struct{}
	once    sync.Once
	err     error // written by readLoop before msgs is closed
}

func (s *socket) handshake(ctx context.Context) error {
	deadline := time.Now().Add(handshakeTimeout)
	if d, ok := ctx.Deadline(); ok && d.Before(deadline) {
		deadline = d
	}
	s.wc.SetReadDeadline(deadline)

	_, b, err := s.wc.ReadMessage()
	if err != nil {
		return fmt.Errorf("read open packet: %w", err)
	}
	open, err := parseOpen(b)
	if err != nil {
		return err
	}
	s.sid = open.SID
	s.timeout = open.readTimeout()

	if err := s.write([]byte{eioMessage, sioConnect}); err != nil {
		return fmt.Errorf("join namespace: %w", err)
	}

	for {
		_, b, err := s.wc.ReadMessage()
		if err != nil {
			return fmt.Errorf("await namespace ack: %w", err)
		}
		switch {
		case len(b) == 1 && b[0] == eioPing:
			if err := s.write([]byte{eioPong}); err != nil {
				return err
			}
		case len(b) >= 2 && b[0] == eioMessage && b[1] == sioConnect:
			return nil
		case len(b) >= 2 && b[0] == eioMessage && b[1] == sioConnectError:
			return fmt.Errorf("namespace rejected: %s", snippet(b[2:]))
		default:
			s.logger.Debug("ignoring packet during handshake", "packet", snippet(b))
		}
	}
}

func (s *socket) readLoop() {
	defer close(s.msgs)

	for {
		s.wc.SetReadDeadline(time.Now().Add(s.timeout))
		op, b, err := s.wc.ReadMessage()
		if err != nil {
			s.err = s.readError(err)
			return
		}
		if op != websocket.TextMessage || len(b) == 0 {
			continue
		}

		switch b[0] {
		case eioPing:
			if err := s.write(append([]byte{eioPong}, b[1:]...)); err != nil {
				s.err = err
				return
			}
		case eioClose:
			s.err = fmt.Errorf("%w: server closed the session", ErrClosed)
			return
		case eioMessage:
			if len(b) < 2 {
				continue
			}
			switch b[1] {
			case sioEvent:
				m, err := decodeEvent(b[2:])
				if err != nil {
					s.logger.Debug("dropping malformed event", "error", err)
					continue
				}
				select {
				case s.msgs <- m:
				case <-s.done:
					s.err = ErrClosed
					return
				}
			case sioDisconnect:
				s.err = fmt.Errorf("%w: server disconnected the namespace", ErrClosed)
				return
			default:
				s.logger.Debug("ignoring packet", "packet", snippet(b))
			}
		}
	}
}

func (s *socket) readError(err error) error {
	select {
	case <-s.done:
		return ErrClosed
	default:
	}
	return fmt.Errorf("%w: %v", shared.ErrTransport, err)
}

func (s *socket) write(b []byte) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	s.wc.SetWriteDeadline(time.Now().Add(writeTimeout))
	if err := s.wc.WriteMessage(websocket.TextMessage, b); err != nil {
		return fmt.Errorf("%w: write: %v", shared.ErrTransport, err)
	}
	return nil
}

func (s *socket) Emit(event string, payload any) error {
	select {
	case <-s.done:
		return ErrClosed
	default:
	}

	frame, err := encodeEvent(event, payload)
	if err != nil {
		return err
	}
	return s.write(frame)
}

func (s *socket) Next(ctx context.Context) (Message, error) {
	select {
	case <-ctx.Done():
		return Message{}, ctx.Err()
	case m, ok := <-s.msgs:
		if !ok {
			return Message{}, s.err
		}
		return m, nil
	}
}

// Close leaves the namespace and closes the websocket. It is safe to call more than once.
func (s *socket) Close() error {
	var err error
	s.once.Do(func() {
		close(s.done)
		s.write([]byte{eioMessage, sioDisconnect})
		err = s.wc.Close()
	})
	return err
}
