package baidu

import (
	"context"
	"encoding/base64"
	"encoding/json"
)

// Default recognition parameters
const (
	defaultIATFormat = "wav"
	defaultIATRate   = 16000
	// Mandarin model with light punctuation
	defaultDevPID = 1536
)

// IATService provides short-speech recognition
type IATService struct {
	client *Client
	ep     *endpoint
}

func newIATService(c *Client) *IATService {
	return &IATService{
		client: c,
		ep:     newEndpoint(c.config.iatURL, c.config.quotas.IAT),
	}
}

// RecognizeRequest represents a recognition request. Zero fields use
// the Mandarin 16 kHz mono defaults.
type RecognizeRequest struct {
	Audio   []byte // complete utterance, 60 s or less
	Format  string // container format, default "wav"
	Rate    int    // sample rate, default 16000
	DevPID  int    // language model, default 1536 (Mandarin)
	Channel int    // channel count, default 1
}

// Recognize transcribes a complete utterance and returns the best
// candidate text. An empty result with a nil error means the audio
// contained no recognizable speech.
func (s *IATService) Recognize(ctx context.Context, req *RecognizeRequest) (string, error) {
	if req == nil {
		req = &RecognizeRequest{}
	}
	format := req.Format
	if format == "" {
		format = defaultIATFormat
	}
	rate := req.Rate
	if rate == 0 {
		rate = defaultIATRate
	}
	devPID := req.DevPID
	if devPID == 0 {
		devPID = defaultDevPID
	}
	channel := req.Channel
	if channel == 0 {
		channel = 1
	}

	params := map[string]any{
		"format":  format,
		"rate":    rate,
		"dev_pid": devPID,
		"channel": channel,
		"speech":  base64.StdEncoding.EncodeToString(req.Audio),
		"len":     len(req.Audio),
	}

	resp, err := s.client.send(ctx, s.ep, params, typeJSON)
	if err != nil {
		return "", err
	}

	var apiResp struct {
		ErrNo  int      `json:"err_no"`
		ErrMsg string   `json:"err_msg"`
		Result []string `json:"result"`
	}
	if err := json.Unmarshal(resp.body, &apiResp); err != nil {
		return "", wrapError(err, "unmarshal recognition response")
	}
	if apiResp.ErrNo != 0 {
		return "", &Error{Code: apiResp.ErrNo, Message: apiResp.ErrMsg}
	}
	if len(apiResp.Result) == 0 {
		return "", nil
	}
	return apiResp.Result[0], nil
}
