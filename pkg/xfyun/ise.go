package xfyun

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"io"
	"iter"
	"time"
)

// ISEService provides streaming pronunciation evaluation
type ISEService struct {
	client *Client
}

// newISEService creates the evaluation service
func newISEService(c *Client) *ISEService {
	return &ISEService{client: c}
}

// OpenSession opens a streaming evaluation session.
// The call returns once the transport handshake completes.
func (s *ISEService) OpenSession(ctx context.Context, opts *ISEOptions) (*ISESession, error) {
	if opts == nil || opts.Text == "" {
		return nil, &Error{Code: -1, Message: "evaluation requires reference text"}
	}
	if opts.Category == "" {
		opts.Category = CategorySentence
	}

	url, err := wsAuthURL(s.client.config.iseURL, s.client.config.creds.ISE, time.Now())
	if err != nil {
		return nil, err
	}

	sess, err := dialSession(ctx, s.client.config.dialer, url, &iseProtocol{
		app:  s.client.config.creds.ISE,
		opts: opts,
	})
	if err != nil {
		return nil, err
	}

	return &ISESession{
		s:        sess,
		category: opts.Category,
	}, nil
}

// ================== Evaluation Session ==================

// ISESession represents an active streaming evaluation session
type ISESession struct {
	s        *session
	category Category
}

// SendAudio submits one audio chunk. The final partial chunk must be
// tagged with last; there is no empty sentinel in the evaluation protocol.
func (s *ISESession) SendAudio(audio []byte, last bool) error {
	return s.s.send(audio, last)
}

// SendStream submits FrameSize chunks read from r, tagging the final
// chunk as last
func (s *ISESession) SendStream(r io.Reader) error {
	buf := make([]byte, FrameSize)
	var pending []byte
	for {
		n, err := io.ReadFull(r, buf)
		if err == io.EOF || err == io.ErrUnexpectedEOF {
			if n > 0 {
				if pending != nil {
					if serr := s.SendAudio(pending, false); serr != nil {
						return serr
					}
				}
				return s.SendAudio(buf[:n], true)
			}
			return s.SendAudio(pending, true)
		}
		if err != nil {
			return wrapError(err, "read audio")
		}
		if pending != nil {
			if serr := s.SendAudio(pending, false); serr != nil {
				return serr
			}
		}
		pending = append(pending[:0], buf[:n]...)
	}
}

// Close aborts the session
func (s *ISESession) Close() error {
	return s.s.Close()
}

// Recv returns the event sequence of the session. Intermediate messages
// carry no payload and are skipped; the single terminal message yields
// the evaluated Score. Non-zero vendor result codes are yielded as
// *Error without ending the sequence.
func (s *ISESession) Recv() iter.Seq2[*Score, error] {
	return func(yield func(*Score, error) bool) {
		for {
			select {
			case msg, ok := <-s.s.recvChan:
				if !ok {
					if err := s.s.pendingErr(); err != nil {
						yield(nil, err)
					}
					return
				}
				if msg.Code != 0 {
					if !yield(nil, &Error{Code: msg.Code, Message: msg.Message, Sid: msg.Sid}) {
						return
					}
					continue
				}
				if msg.Status != StatusLast {
					// still pending
					continue
				}

				doc, err := base64.StdEncoding.DecodeString(msg.Data)
				if err != nil {
					yield(nil, wrapError(err, "decode result document"))
					return
				}
				score, err := ParseResult(doc, s.category)
				if err != nil {
					yield(nil, err)
					return
				}
				yield(score, nil)
				return
			case err := <-s.s.errChan:
				yield(nil, err)
				return
			case <-s.s.closeChan:
				if err := s.s.pendingErr(); err != nil {
					yield(nil, err)
				}
				return
			}
		}
	}
}

// Result waits for the terminal evaluation score.
// It is the awaitable form of Recv for callers that need exactly one
// result; ctx bounds the wait.
func (s *ISESession) Result(ctx context.Context) (*Score, error) {
	type outcome struct {
		score *Score
		err   error
	}
	done := make(chan outcome, 1)
	go func() {
		var last outcome
		for score, err := range s.Recv() {
			last = outcome{score, err}
			if err == nil && score != nil {
				break
			}
		}
		done <- last
	}()

	select {
	case out := <-done:
		if out.score == nil && out.err == nil {
			return nil, ErrSessionClosed
		}
		return out.score, out.err
	case <-ctx.Done():
		s.Close()
		return nil, ctx.Err()
	}
}

// ================== Evaluation Protocol ==================

// Audio sequence status values (business aus)
const (
	ausFirst    = 1
	ausContinue = 2
	ausLast     = 4
)

// iseProtocol builds evaluation frame envelopes and translates the
// response format. The first audio chunk is preceded by a one-time
// parameter frame (utterance begin, cmd=ssb) sent as a separate wire
// frame before the first audio frame.
type iseProtocol struct {
	app  App
	opts *ISEOptions
}

type iseBusinessParams struct {
	Sub      string `json:"sub"`
	Ent      string `json:"ent"`
	Category string `json:"category"`
	Cmd      string `json:"cmd"`
	Text     string `json:"text"`
	Tte      string `json:"tte"`
	TtpSkip  bool   `json:"ttp_skip"`
	Aue      string `json:"aue"`
	Auf      string `json:"auf"`
}

type iseAudioParams struct {
	Cmd string `json:"cmd"`
	Aus int    `json:"aus"`
}

type iseAudioData struct {
	Status   int    `json:"status"`
	Data     string `json:"data"`
	DataType int    `json:"data_type"`
	Encoding string `json:"encoding"`
}

type iseParamFrame struct {
	Common   commonParams      `json:"common"`
	Business iseBusinessParams `json:"business"`
	Data     struct {
		Status int `json:"status"`
	} `json:"data"`
}

type iseAudioFrame struct {
	Business iseAudioParams `json:"business"`
	Data     iseAudioData   `json:"data"`
}

func (p *iseProtocol) frames(state frameState, last bool, audio []byte) ([]any, error) {
	aus := ausContinue
	status := StatusContinue
	switch {
	case last:
		aus = ausLast
		status = StatusLast
	case state == frameFirst:
		aus = ausFirst
	}

	audioFrame := iseAudioFrame{
		Business: iseAudioParams{Cmd: "auw", Aus: aus},
		Data: iseAudioData{
			Status:   status,
			Data:     base64.StdEncoding.EncodeToString(audio),
			DataType: 1,
			Encoding: "raw",
		},
	}

	if state != frameFirst {
		return []any{audioFrame}, nil
	}

	// Reference text leads with a BOM marker; an optional phonetic
	// transcription follows on its own line.
	text := "\uFEFF" + p.opts.Text
	ttpSkip := true
	if p.opts.Phonetic != "" {
		text += "\n" + p.opts.Phonetic
		ttpSkip = false
	}

	param := iseParamFrame{
		Common: commonParams{AppID: p.app.AppID},
		Business: iseBusinessParams{
			Sub:      "ise",
			Ent:      "cn_vip",
			Category: string(p.opts.Category),
			Cmd:      "ssb",
			Text:     text,
			Tte:      "utf-8",
			TtpSkip:  ttpSkip,
			Aue:      "raw",
			Auf:      "audio/L16;rate=16000",
		},
	}
	param.Data.Status = StatusFirst

	return []any{param, audioFrame}, nil
}

// iseWireMessage is the vendor response format
type iseWireMessage struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Sid     string `json:"sid"`
	Data    *struct {
		Status int    `json:"status"`
		Data   string `json:"data"`
	} `json:"data"`
}

func (p *iseProtocol) translate(raw []byte) (*Message, error) {
	var wire iseWireMessage
	if err := json.Unmarshal(raw, &wire); err != nil {
		return nil, err
	}

	msg := &Message{
		Code:    wire.Code,
		Message: wire.Message,
		Sid:     wire.Sid,
	}
	if wire.Data != nil {
		msg.Status = wire.Data.Status
		msg.Data = wire.Data.Data
	}
	return msg, nil
}
