package xfyun

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

// ================== Frame State ==================

// frameState tracks the outgoing frame sequence of one session.
// Transitions are monotonic: frameFirst -> frameContinue -> frameLast.
type frameState int

const (
	frameFirst frameState = iota
	frameContinue
	frameLast
)

func (s frameState) String() string {
	switch s {
	case frameFirst:
		return "first"
	case frameContinue:
		return "continue"
	case frameLast:
		return "last"
	}
	return "unknown"
}

// wireStatus is the data.status value for a frame state
func (s frameState) wireStatus() int {
	switch s {
	case frameFirst:
		return StatusFirst
	case frameLast:
		return StatusLast
	}
	return StatusContinue
}

// ================== Protocol Capability ==================

// sessionProtocol is the per-variant capability set injected into a
// session: an outgoing frame-envelope builder and an incoming response
// translator. Recognition and evaluation differ only here.
type sessionProtocol interface {
	// frames builds the wire envelopes for one outgoing chunk.
	// state is the state the chunk is sent in; last marks the terminal
	// chunk. A variant may front-load control frames by returning more
	// than one envelope.
	frames(state frameState, last bool, audio []byte) ([]any, error)

	// translate decodes one incoming wire message into its normalized
	// form. A decode failure is fatal to the session.
	translate(raw []byte) (*Message, error)
}

// ================== Session Core ==================

const closeWriteWait = time.Second

// session owns one socket and multiplexes the outgoing frame stream and
// the incoming message stream. It is created open (the dial handshake has
// completed) and closes either when the remote signals the terminal
// status, on transport close/error, or on Close.
type session struct {
	conn  *websocket.Conn
	proto sessionProtocol
	id    string

	mu     sync.Mutex
	state  frameState
	closed bool

	recvChan  chan *Message
	errChan   chan error
	closeChan chan struct{}
	closeOnce sync.Once
}

// dialSession connects and starts the receive loop.
// The caller is suspended until the transport handshake completes.
func dialSession(ctx context.Context, dialer *websocket.Dialer, url string, proto sessionProtocol) (*session, error) {
	conn, _, err := dialer.DialContext(ctx, url, nil)
	if err != nil {
		return nil, wrapError(err, "connect websocket")
	}

	s := &session{
		conn:      conn,
		proto:     proto,
		id:        uuid.New().String(),
		recvChan:  make(chan *Message, 100),
		errChan:   make(chan error, 1),
		closeChan: make(chan struct{}),
	}

	go s.receiveLoop()

	return s, nil
}

// send serializes one audio chunk into wire frames and writes them in
// order. Only valid while the session is open and before the last frame;
// misuse is reported synchronously.
func (s *session) send(audio []byte, last bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrSessionClosed
	}
	if s.state == frameLast {
		return ErrStreamEnded
	}

	state := s.state
	if last {
		state = frameLast
	}

	frames, err := s.proto.frames(s.state, last, audio)
	if err != nil {
		return wrapError(err, "build frame")
	}

	for _, frame := range frames {
		if err := s.conn.WriteJSON(frame); err != nil {
			return wrapError(err, "send frame")
		}
	}

	slog.Debug("xfyun: sent frames",
		"session", s.id, "state", state.String(), "count", len(frames), "bytes", len(audio))

	if last {
		s.state = frameLast
	} else if s.state == frameFirst {
		s.state = frameContinue
	}

	return nil
}

// Close aborts the session. Safe to call multiple times and concurrently
// with the receive loop.
func (s *session) Close() error {
	s.closeOnce.Do(func() {
		s.mu.Lock()
		s.closed = true
		s.mu.Unlock()
		close(s.closeChan)
		s.conn.Close()
	})
	return nil
}

// markClosed flips the session to closed without tearing down channels;
// used by the receive loop when the transport is already gone.
func (s *session) markClosed() {
	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()
}

// pendingErr drains a buffered fatal error once the message stream is
// over. fail buffers the error before closing the channels, so a
// consumer that observes the closed stream first must check here or the
// failure would look like a clean close.
func (s *session) pendingErr() error {
	select {
	case err := <-s.errChan:
		return err
	default:
		return nil
	}
}

// fail delivers a fatal error and closes the session
func (s *session) fail(err error) {
	select {
	case s.errChan <- err:
	default:
	}
	s.Close()
}

func (s *session) receiveLoop() {
	defer close(s.recvChan)

	for {
		select {
		case <-s.closeChan:
			return
		default:
		}

		_, data, err := s.conn.ReadMessage()
		if err != nil {
			if !websocket.IsCloseError(err, websocket.CloseNormalClosure) {
				select {
				case s.errChan <- wrapError(err, "read message"):
				default:
				}
			}
			s.markClosed()
			return
		}

		msg, err := s.proto.translate(data)
		if err != nil {
			// Undecodable payload is fatal
			s.fail(wrapError(err, "decode message"))
			return
		}
		if msg == nil {
			continue
		}

		slog.Debug("xfyun: received message",
			"session", s.id, "code", msg.Code, "status", msg.Status, "sid", msg.Sid)

		select {
		case s.recvChan <- msg:
		case <-s.closeChan:
			return
		}

		if msg.Status == StatusLast {
			// Logical completion. The vendor closes with a delay
			// (recognition immediately, evaluation after seconds),
			// so initiate the close on our end.
			s.conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
				time.Now().Add(closeWriteWait))
			s.markClosed()
			s.conn.Close()
			return
		}
	}
}
