// Package xfyun provides a Go client for iFlytek (xfyun) speech cloud APIs.
//
// # Services
//
//   - client.IAT: streaming speech recognition with progressive corrections
//   - client.ISE: streaming pronunciation evaluation with weighted scoring
//   - client.TTS: one-shot speech synthesis over WebSocket
//   - client.OTS: text translation over signed HTTP
//
// Each service carries its own credential set (the console issues one app
// per service):
//
//	client := xfyun.NewClient(xfyun.Credentials{
//	    IAT: xfyun.App{AppID: "...", APIKey: "...", APISecret: "..."},
//	})
//	session, err := client.IAT.OpenSession(ctx, &xfyun.IATOptions{
//	    Punctuation:    true,
//	    SilenceTimeout: 5000,
//	})
package xfyun

import (
	"net/http"
	"time"

	"github.com/gorilla/websocket"
)

const (
	defaultIATURL = "wss://iat-api.xfyun.cn/v2/iat"
	defaultISEURL = "wss://ise-api.xfyun.cn/v2/open-ise"
	defaultTTSURL = "wss://tts-api.xfyun.cn/v2/tts"
	defaultOTSURL = "https://ntrans.xfyun.cn/v2/ots"

	defaultTimeout = 30 * time.Second
)

// FrameSize is the audio chunk size the vendor expects per frame.
// Callers pacing real-time audio should send FrameSize bytes at a time.
const FrameSize = 1280

// App holds the credential set for one xfyun service
type App struct {
	AppID     string `json:"app_id" yaml:"app_id"`
	APIKey    string `json:"api_key" yaml:"api_key"`
	APISecret string `json:"api_secret" yaml:"api_secret"`
}

// Credentials holds the per-service credential sets.
// The console issues a separate app for each service; a single app may be
// reused by assigning it to several fields.
type Credentials struct {
	IAT App `json:"iat" yaml:"iat"`
	ISE App `json:"ise" yaml:"ise"`
	TTS App `json:"tts" yaml:"tts"`
	OTS App `json:"ots" yaml:"ots"`
}

// Client represents an iFlytek speech API client
type Client struct {
	IAT *IATService // streaming recognition
	ISE *ISEService // streaming pronunciation evaluation
	TTS *TTSService // one-shot synthesis
	OTS *OTSService // translation

	config *clientConfig
}

// clientConfig represents client configuration
type clientConfig struct {
	creds      Credentials
	iatURL     string
	iseURL     string
	ttsURL     string
	otsURL     string
	httpClient *http.Client
	dialer     *websocket.Dialer
	timeout    time.Duration
}

// Option represents a configuration option function
type Option func(*clientConfig)

// NewClient creates an iFlytek speech client
func NewClient(creds Credentials, opts ...Option) *Client {
	config := &clientConfig{
		creds:   creds,
		iatURL:  defaultIATURL,
		iseURL:  defaultISEURL,
		ttsURL:  defaultTTSURL,
		otsURL:  defaultOTSURL,
		timeout: defaultTimeout,
	}

	for _, opt := range opts {
		opt(config)
	}

	if config.httpClient == nil {
		config.httpClient = &http.Client{
			Timeout: config.timeout,
		}
	}
	if config.dialer == nil {
		config.dialer = &websocket.Dialer{
			HandshakeTimeout: config.timeout,
		}
	}

	c := &Client{
		config: config,
	}

	c.IAT = newIATService(c)
	c.ISE = newISEService(c)
	c.TTS = newTTSService(c)
	c.OTS = newOTSService(c)

	return c
}

// WithIATURL sets the recognition WebSocket URL
func WithIATURL(url string) Option {
	return func(c *clientConfig) {
		c.iatURL = url
	}
}

// WithISEURL sets the evaluation WebSocket URL
func WithISEURL(url string) Option {
	return func(c *clientConfig) {
		c.iseURL = url
	}
}

// WithTTSURL sets the synthesis WebSocket URL
func WithTTSURL(url string) Option {
	return func(c *clientConfig) {
		c.ttsURL = url
	}
}

// WithOTSURL sets the translation HTTP URL
func WithOTSURL(url string) Option {
	return func(c *clientConfig) {
		c.otsURL = url
	}
}

// WithHTTPClient sets a custom HTTP client
func WithHTTPClient(client *http.Client) Option {
	return func(c *clientConfig) {
		c.httpClient = client
	}
}

// WithDialer sets a custom WebSocket dialer
func WithDialer(dialer *websocket.Dialer) Option {
	return func(c *clientConfig) {
		c.dialer = dialer
	}
}

// WithTimeout sets the handshake and request timeout
func WithTimeout(timeout time.Duration) Option {
	return func(c *clientConfig) {
		c.timeout = timeout
	}
}
