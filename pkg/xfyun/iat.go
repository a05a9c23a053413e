package xfyun

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"io"
	"iter"
	"strings"
	"time"
)

// IATService provides streaming speech recognition
type IATService struct {
	client *Client
}

// newIATService creates the recognition service
func newIATService(c *Client) *IATService {
	return &IATService{client: c}
}

// OpenSession opens a streaming recognition session.
// The call returns once the transport handshake completes.
func (s *IATService) OpenSession(ctx context.Context, opts *IATOptions) (*IATSession, error) {
	if opts == nil {
		opts = &IATOptions{}
	}

	url, err := wsAuthURL(s.client.config.iatURL, s.client.config.creds.IAT, time.Now())
	if err != nil {
		return nil, err
	}

	sess, err := dialSession(ctx, s.client.config.dialer, url, &iatProtocol{
		app:  s.client.config.creds.IAT,
		opts: opts,
	})
	if err != nil {
		return nil, err
	}

	return &IATSession{
		s:          sess,
		transcript: &Transcript{},
	}, nil
}

// ================== Recognition Session ==================

// IATChunk is one caller-visible recognition update
type IATChunk struct {
	// Text is the full visible transcript after this update
	Text string

	// Fragment is the recognized text carried by this message
	Fragment string

	// Pgs tags the update (PgsAppend or PgsReplace)
	Pgs string

	// Range is the superseded fragment range for PgsReplace updates
	Range [2]int

	// IsLast marks the terminal update of the session
	IsLast bool
}

// IATSession represents an active streaming recognition session
type IATSession struct {
	s          *session
	transcript *Transcript
}

// Send submits one audio chunk. It enqueues onto the transport and
// returns immediately; the caller paces writes (FrameSize bytes per
// frame approximates real-time delivery).
func (s *IATSession) Send(audio []byte) error {
	return s.s.send(audio, false)
}

// End signals end-of-stream with the empty sentinel frame.
// Any Send after End fails with ErrStreamEnded.
func (s *IATSession) End() error {
	return s.s.send(nil, true)
}

// SendStream submits FrameSize chunks read from r and ends the stream
// at EOF
func (s *IATSession) SendStream(r io.Reader) error {
	buf := make([]byte, FrameSize)
	for {
		n, err := io.ReadFull(r, buf)
		if n > 0 {
			if serr := s.Send(buf[:n]); serr != nil {
				return serr
			}
		}
		if err == io.EOF || err == io.ErrUnexpectedEOF {
			return s.End()
		}
		if err != nil {
			return wrapError(err, "read audio")
		}
	}
}

// Text returns the current visible transcript
func (s *IATSession) Text() string {
	return s.transcript.Text()
}

// Close aborts the session
func (s *IATSession) Close() error {
	return s.s.Close()
}

// Recv returns the ordered update sequence of the session.
// A non-zero vendor result code is yielded as *Error without ending the
// sequence; transport errors end it.
func (s *IATSession) Recv() iter.Seq2[*IATChunk, error] {
	return func(yield func(*IATChunk, error) bool) {
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

				chunk := &IATChunk{IsLast: msg.Status == StatusLast}
				if msg.Result != nil {
					s.transcript.Apply(msg.Result)
					chunk.Fragment = msg.Result.Text
					chunk.Pgs = msg.Result.Pgs
					chunk.Range = msg.Result.Range
				}
				chunk.Text = s.transcript.Text()

				if !yield(chunk, nil) {
					return
				}
				if chunk.IsLast {
					return
				}
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

// ================== Recognition Protocol ==================

// iatProtocol builds recognition frame envelopes and translates the
// progressive (wpgs) response format
type iatProtocol struct {
	app  App
	opts *IATOptions
}

type commonParams struct {
	AppID string `json:"app_id"`
}

type iatBusinessParams struct {
	Language string `json:"language"`
	Domain   string `json:"domain"`
	Accent   string `json:"accent"`
	Dwa      string `json:"dwa"`
	Ptt      int    `json:"ptt"`
	VadEos   int    `json:"vad_eos,omitempty"`
	Nunum    int    `json:"nunum"`
}

type iatAudioData struct {
	Status   int    `json:"status"`
	Format   string `json:"format"`
	Audio    string `json:"audio"`
	Encoding string `json:"encoding"`
}

type iatFirstFrame struct {
	Common   commonParams      `json:"common"`
	Business iatBusinessParams `json:"business"`
	Data     iatAudioData      `json:"data"`
}

type iatDataFrame struct {
	Data iatAudioData `json:"data"`
}

func (p *iatProtocol) frames(state frameState, last bool, audio []byte) ([]any, error) {
	if last {
		state = frameLast
	}
	data := iatAudioData{
		Status:   state.wireStatus(),
		Format:   "audio/L16;rate=16000",
		Audio:    base64.StdEncoding.EncodeToString(audio),
		Encoding: "raw",
	}

	if state != frameFirst {
		return []any{iatDataFrame{Data: data}}, nil
	}

	business := iatBusinessParams{
		Language: "zh_cn",
		Domain:   "iat",
		Accent:   "mandarin",
		Dwa:      "wpgs",
		VadEos:   p.opts.SilenceTimeout,
	}
	if p.opts.Punctuation {
		business.Ptt = 1
	}
	if p.opts.NormalizeNumbers {
		business.Nunum = 1
	}

	return []any{iatFirstFrame{
		Common:   commonParams{AppID: p.app.AppID},
		Business: business,
		Data:     data,
	}}, nil
}

// iatWireMessage is the vendor response format
type iatWireMessage struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Sid     string `json:"sid"`
	Data    *struct {
		Status int `json:"status"`
		Result *struct {
			Pgs string `json:"pgs"`
			Rg  []int  `json:"rg"`
			Ws  []struct {
				Cw []struct {
					W string `json:"w"`
				} `json:"cw"`
			} `json:"ws"`
		} `json:"result"`
	} `json:"data"`
}

func (p *iatProtocol) translate(raw []byte) (*Message, error) {
	var wire iatWireMessage
	if err := json.Unmarshal(raw, &wire); err != nil {
		return nil, err
	}

	msg := &Message{
		Code:    wire.Code,
		Message: wire.Message,
		Sid:     wire.Sid,
	}
	if wire.Data == nil {
		return msg, nil
	}
	msg.Status = wire.Data.Status

	if res := wire.Data.Result; res != nil {
		var b strings.Builder
		for _, ws := range res.Ws {
			for _, cw := range ws.Cw {
				b.WriteString(cw.W)
			}
		}
		result := &RecognitionResult{
			Pgs:  res.Pgs,
			Text: b.String(),
		}
		if len(res.Rg) >= 2 {
			result.Range = [2]int{res.Rg[0], res.Rg[1]}
		}
		msg.Result = result
	}

	return msg, nil
}
