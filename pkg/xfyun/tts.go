package xfyun

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"io"
	"time"
)

// TTSService provides one-shot speech synthesis
type TTSService struct {
	client *Client
}

// newTTSService creates the synthesis service
func newTTSService(c *Client) *TTSService {
	return &TTSService{client: c}
}

// Default voices by gender
const (
	voiceFemale = "xiaoyan"
	voiceMale   = "aisjiuxu"
)

type ttsBusinessParams struct {
	Ent    string `json:"ent"`
	Aue    string `json:"aue"`
	Auf    string `json:"auf"`
	Vcn    string `json:"vcn"`
	Speed  int    `json:"speed"`
	Volume int    `json:"volume"`
	Tte    string `json:"tte"`
}

type ttsRequestFrame struct {
	Common   commonParams      `json:"common"`
	Business ttsBusinessParams `json:"business"`
	Data     struct {
		Text   string `json:"text"`
		Status int    `json:"status"`
	} `json:"data"`
}

type ttsWireMessage struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Sid     string `json:"sid"`
	Data    struct {
		Status int    `json:"status"`
		Audio  string `json:"audio"`
	} `json:"data"`
}

// Synthesize converts text to audio. The whole request is sent as a
// single terminal frame; audio arrives in chunks until the vendor
// signals completion.
func (s *TTSService) Synthesize(ctx context.Context, text string, opts *TTSOptions) ([]byte, error) {
	if opts == nil {
		opts = &TTSOptions{}
	}

	voice := opts.Voice
	if voice == "" {
		if opts.Gender == GenderMale {
			voice = voiceMale
		} else {
			voice = voiceFemale
		}
	}
	aue := "raw"
	if opts.Format == FormatMP3 {
		aue = "lame"
	}

	req := ttsRequestFrame{
		Common: commonParams{AppID: s.client.config.creds.TTS.AppID},
		Business: ttsBusinessParams{
			Ent:    "intp65",
			Aue:    aue,
			Auf:    "audio/L16;rate=16000",
			Vcn:    voice,
			Speed:  int(opts.Speed * 10),
			Volume: opts.Volume,
			Tte:    "UTF8",
		},
	}
	req.Data.Text = base64.StdEncoding.EncodeToString([]byte(text))
	req.Data.Status = StatusLast

	url, err := wsAuthURL(s.client.config.ttsURL, s.client.config.creds.TTS, time.Now())
	if err != nil {
		return nil, err
	}

	conn, _, err := s.client.config.dialer.DialContext(ctx, url, nil)
	if err != nil {
		return nil, wrapError(err, "connect websocket")
	}
	defer conn.Close()

	if err := conn.WriteJSON(req); err != nil {
		return nil, wrapError(err, "send request")
	}

	var audio []byte
	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			return nil, wrapError(err, "read message")
		}

		var msg ttsWireMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			return nil, wrapError(err, "decode message")
		}
		if msg.Code != 0 {
			return nil, &Error{Code: msg.Code, Message: msg.Message, Sid: msg.Sid}
		}

		chunk, err := base64.StdEncoding.DecodeString(msg.Data.Audio)
		if err != nil {
			return nil, wrapError(err, "decode audio")
		}
		audio = append(audio, chunk...)

		if msg.Data.Status == StatusLast {
			return audio, nil
		}
	}
}

// SynthesizeTo writes synthesized audio to w
func (s *TTSService) SynthesizeTo(ctx context.Context, w io.Writer, text string, opts *TTSOptions) error {
	audio, err := s.Synthesize(ctx, text, opts)
	if err != nil {
		return err
	}
	_, err = w.Write(audio)
	return wrapError(err, "write audio")
}
