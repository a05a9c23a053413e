package baidu

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
)

// AudioFormat represents a synthesis output container
type AudioFormat string

const (
	FormatWAV AudioFormat = "wav"
	FormatMP3 AudioFormat = "mp3"
)

// maxTextRunes is the vendor limit on synthesis input; longer input is
// truncated rather than rejected
const maxTextRunes = 2048

// Premium voices (id > 4) are served from a lower-quota endpoint
const premiumVoiceThreshold = 4

// TTSService provides speech synthesis
type TTSService struct {
	client   *Client
	standard *endpoint
	premium  *endpoint
}

func newTTSService(c *Client) *TTSService {
	return &TTSService{
		client:   c,
		standard: newEndpoint(c.config.ttsURL, c.config.quotas.TTS),
		premium:  newEndpoint(c.config.ttsURL, c.config.quotas.TTSPremium),
	}
}

// SynthesizeRequest represents a synthesis request
type SynthesizeRequest struct {
	Text   string
	Voice  int         // vendor voice id; ids above 4 are premium voices
	Speed  int         // 0-15, 0 selects the vendor default
	Format AudioFormat // default wav
}

// Synthesize converts text to speech and returns the encoded audio.
// Premium voices route through the lower-quota endpoint; both share
// the same URL but are throttled independently.
func (s *TTSService) Synthesize(ctx context.Context, req *SynthesizeRequest) ([]byte, error) {
	if req == nil {
		req = &SynthesizeRequest{}
	}
	ep := s.standard
	if req.Voice > premiumVoiceThreshold {
		ep = s.premium
	}

	aue := 6 // wav
	if req.Format == FormatMP3 {
		aue = 3
	}
	spd := req.Speed
	if spd == 0 {
		spd = 4
	}

	params := map[string]any{
		"tex": truncateRunes(req.Text, maxTextRunes),
		"ctp": 1,
		"lan": "zh",
		"per": req.Voice,
		"spd": spd,
		"aue": aue,
	}

	resp, err := s.client.send(ctx, ep, params, typeForm)
	if err != nil {
		return nil, err
	}

	// Success is audio bytes; anything else is an error payload
	if strings.HasPrefix(resp.contentType, "audio/") {
		return resp.body, nil
	}

	var apiErr Error
	if err := json.Unmarshal(resp.body, &apiErr); err == nil && apiErr.Code != 0 {
		return nil, &apiErr
	}
	return nil, fmt.Errorf("baidu: unexpected synthesis response (status %d, content-type %q)", resp.status, resp.contentType)
}

func truncateRunes(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n])
}
