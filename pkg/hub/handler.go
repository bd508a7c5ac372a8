package hub

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/Dusk-Labs/dim-sub002/pkg/auth"
	"github.com/Dusk-Labs/dim-sub002/pkg/events"
	"github.com/Dusk-Labs/dim-sub002/pkg/logger"
	"go.uber.org/zap"
	"nhooyr.io/websocket"
	"nhooyr.io/websocket/wsjson"
)

const (
	DefaultAuthWindow = 10 * time.Millisecond
	writeTimeout      = 5 * time.Second
	sinkBuffer        = 64
)

// Verifier checks the token a client authenticates with
type Verifier interface {
	Verify(token string) (*auth.Claims, error)
}

type authRequest struct {
	Type  string `json:"type"`
	Token string `json:"token"`
}

type HandlerOption func(*handler)

// WithAuthWindow sets how long a client has to authenticate after connecting
func WithAuthWindow(d time.Duration) HandlerOption {
	return func(h *handler) {
		if d > 0 {
			h.authWindow = d
		}
	}
}

// WithOriginPatterns allows cross origin websocket connections from the given hosts
func WithOriginPatterns(patterns ...string) HandlerOption {
	return func(h *handler) {
		h.origins = patterns
	}
}

type handler struct {
	hub        *Hub
	verifier   Verifier
	authWindow time.Duration
	origins    []string
}

// Handler upgrades a request to a websocket subscriber of the hub
func (h *Hub) Handler(verifier Verifier, opts ...HandlerOption) http.Handler {
	hd := &handler{hub: h, verifier: verifier, authWindow: DefaultAuthWindow}
	for _, opt := range opts {
		opt(hd)
	}
	return hd
}

func (hd *handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	log := logger.FromCtx(r.Context(), "remote_addr", r.RemoteAddr)

	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{OriginPatterns: hd.origins})
	if err != nil {
		log.Debugw("websocket accept failed", zap.Error(err))
		return
	}
	defer conn.CloseNow()

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	frames := make(chan []byte)
	go func() {
		defer close(frames)
		for {
			_, data, err := conn.Read(ctx)
			if err != nil {
				return
			}
			select {
			case frames <- data:
			case <-ctx.Done():
				return
			}
		}
	}()

	claims, ok := hd.authenticate(frames)
	if !ok {
		writeCtx, cancelWrite := context.WithTimeout(ctx, writeTimeout)
		_ = wsjson.Write(writeCtx, conn, events.AuthErr())
		cancelWrite()
		conn.Close(websocket.StatusPolicyViolation, "authentication failed")
		return
	}

	sink := newSink(conn)
	// the reply goes through the sink so it precedes any broadcast
	_ = sink.Send(events.AuthOk())
	if err := hd.hub.Track(r.RemoteAddr, sink, claims.UserID); err != nil {
		conn.Close(websocket.StatusGoingAway, "shutting down")
		return
	}
	log.Debugw("subscriber authenticated", "user", claims.UserID)

	go sink.run(ctx)

	// inbound frames are ignored once authenticated
	for {
		select {
		case _, ok := <-frames:
			if !ok {
				_ = hd.hub.Forget(r.RemoteAddr)
				sink.Close()
				return
			}
		case <-sink.done:
			_ = hd.hub.Forget(r.RemoteAddr)
			return
		}
	}
}

func (hd *handler) authenticate(frames <-chan []byte) (*auth.Claims, bool) {
	timer := time.NewTimer(hd.authWindow)
	defer timer.Stop()

	select {
	case <-timer.C:
		return nil, false
	case data, ok := <-frames:
		if !ok {
			return nil, false
		}
		var req authRequest
		if err := json.Unmarshal(data, &req); err != nil || req.Type != "authenticate" {
			return nil, false
		}
		claims, err := hd.verifier.Verify(req.Token)
		if err != nil {
			return nil, false
		}
		return claims, true
	}
}

// wsSink buffers messages for one connection. A full buffer fails the send, which
// gets the subscriber dropped on the hub's next tick.
type wsSink struct {
	conn *websocket.Conn
	out  chan events.Message
	done chan struct{}
	once sync.Once
}

func newSink(conn *websocket.Conn) *wsSink {
	return &wsSink{
		conn: conn,
		out:  make(chan events.Message, sinkBuffer),
		done: make(chan struct{}),
	}
}

func (s *wsSink) Send(msg events.Message) error {
	select {
	case <-s.done:
		return ErrClosed
	default:
	}

	select {
	case s.out <- msg:
		return nil
	default:
		return ErrSinkFull
	}
}

func (s *wsSink) Close() error {
	s.once.Do(func() {
		close(s.done)
	})
	return nil
}

func (s *wsSink) run(ctx context.Context) {
	defer s.conn.Close(websocket.StatusNormalClosure, "")
	for {
		select {
		case <-ctx.Done():
			s.Close()
			return
		case <-s.done:
			return
		case msg := <-s.out:
			writeCtx, cancel := context.WithTimeout(ctx, writeTimeout)
			err := wsjson.Write(writeCtx, s.conn, msg)
			cancel()
			if err != nil {
				s.Close()
				return
			}
		}
	}
}
