// Package baidu provides a Go client for Baidu speech cloud APIs.
//
// All calls go through a rate-limited request pipeline: a per-endpoint
// admission quota (requests per second, doubling as the concurrency
// bound) and a cached bearer credential refreshed proactively before
// expiry. The expired-token error class is recovered once automatically;
// a repeat failure surfaces to the caller.
//
//	client := baidu.NewClient(baidu.Credentials{
//	    AppID:  "...",
//	    Key:    "...",
//	    Secret: "...",
//	})
//	text, err := client.IAT.Recognize(ctx, &baidu.RecognizeRequest{Audio: wav})
package baidu

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"
)

const (
	defaultTokenURL = "https://openapi.baidu.com/oauth/2.0/token"
	defaultIATURL   = "http://vop.baidu.com/server_api"
	defaultTTSURL   = "https://tsn.baidu.com/text2audio"

	defaultTimeout = 30 * time.Second

	// tokenRefreshMargin refreshes the credential this long before its
	// stated expiry
	tokenRefreshMargin = 60 * time.Second
)

// Default per-endpoint quotas (requests per second)
const (
	defaultIATQuota        = 5
	defaultTTSQuota        = 10
	defaultTTSPremiumQuota = 3
)

// Credentials holds the Baidu application credential set
type Credentials struct {
	AppID  string `json:"app_id" yaml:"app_id"`
	Key    string `json:"key" yaml:"key"`
	Secret string `json:"secret" yaml:"secret"`
}

// Quotas configures per-endpoint admission rates (requests per second).
// Zero fields keep the defaults.
type Quotas struct {
	IAT        int `json:"iat,omitempty" yaml:"iat,omitempty"`
	TTS        int `json:"tts,omitempty" yaml:"tts,omitempty"`
	TTSPremium int `json:"tts_premium,omitempty" yaml:"tts_premium,omitempty"`
}

// Client represents a Baidu speech API client
type Client struct {
	IAT *IATService // short-speech recognition
	TTS *TTSService // speech synthesis

	config *clientConfig

	tokenMu     sync.Mutex
	token       string
	tokenExpiry time.Time
}

// clientConfig represents client configuration
type clientConfig struct {
	creds      Credentials
	tokenURL   string
	iatURL     string
	ttsURL     string
	quotas     Quotas
	httpClient *http.Client
	timeout    time.Duration
	now        func() time.Time
}

// Option represents a configuration option function
type Option func(*clientConfig)

// NewClient creates a Baidu speech client
func NewClient(creds Credentials, opts ...Option) *Client {
	config := &clientConfig{
		creds:    creds,
		tokenURL: defaultTokenURL,
		iatURL:   defaultIATURL,
		ttsURL:   defaultTTSURL,
		quotas: Quotas{
			IAT:        defaultIATQuota,
			TTS:        defaultTTSQuota,
			TTSPremium: defaultTTSPremiumQuota,
		},
		timeout: defaultTimeout,
		now:     time.Now,
	}

	for _, opt := range opts {
		opt(config)
	}

	if config.httpClient == nil {
		config.httpClient = &http.Client{
			Timeout: config.timeout,
		}
	}

	c := &Client{
		config: config,
	}

	c.IAT = newIATService(c)
	c.TTS = newTTSService(c)

	return c
}

// WithQuotas overrides per-endpoint admission quotas
func WithQuotas(q Quotas) Option {
	return func(c *clientConfig) {
		if q.IAT > 0 {
			c.quotas.IAT = q.IAT
		}
		if q.TTS > 0 {
			c.quotas.TTS = q.TTS
		}
		if q.TTSPremium > 0 {
			c.quotas.TTSPremium = q.TTSPremium
		}
	}
}

// WithTokenURL sets the OAuth token endpoint
func WithTokenURL(url string) Option {
	return func(c *clientConfig) {
		c.tokenURL = url
	}
}

// WithIATURL sets the recognition endpoint
func WithIATURL(url string) Option {
	return func(c *clientConfig) {
		c.iatURL = url
	}
}

// WithTTSURL sets the synthesis endpoint
func WithTTSURL(url string) Option {
	return func(c *clientConfig) {
		c.ttsURL = url
	}
}

// WithHTTPClient sets a custom HTTP client
func WithHTTPClient(client *http.Client) Option {
	return func(c *clientConfig) {
		c.httpClient = client
	}
}

// WithTimeout sets the request timeout
func WithTimeout(timeout time.Duration) Option {
	return func(c *clientConfig) {
		c.timeout = timeout
	}
}

// ================== Endpoint ==================

// endpoint pairs a remote URL with its admission limiter. One limiter
// per distinct endpoint, created with the client and kept for its
// lifetime.
type endpoint struct {
	url     string
	limiter *limiter
}

func newEndpoint(url string, quota int) *endpoint {
	return &endpoint{
		url:     url,
		limiter: newLimiter(quota),
	}
}

// ================== Request Pipeline ==================

type requestType int

const (
	typeJSON requestType = iota
	typeForm
)

// response is the raw outcome of one call
type response struct {
	status      int
	contentType string
	body        []byte
}

// errNo extracts the vendor error number from a JSON error payload
func (r *response) errNo() (int, bool) {
	if !strings.Contains(r.contentType, "json") {
		return 0, false
	}
	var e struct {
		ErrNo int `json:"err_no"`
	}
	if err := json.Unmarshal(r.body, &e); err != nil {
		return 0, false
	}
	return e.ErrNo, e.ErrNo != 0
}

// send issues one rate-limited call. The expired-token error class
// forces a credential refresh and exactly one retry; a second failure
// of the same kind is returned for the caller to surface.
func (c *Client) send(ctx context.Context, ep *endpoint, params map[string]any, typ requestType) (*response, error) {
	resp, err := c.sendOnce(ctx, ep, params, typ, false)
	if err != nil {
		return nil, err
	}
	if code, ok := resp.errNo(); ok && code == CodeInvalidToken {
		slog.Debug("baidu: token rejected, refreshing and retrying once", "err_no", code)
		return c.sendOnce(ctx, ep, params, typ, true)
	}
	return resp, nil
}

func (c *Client) sendOnce(ctx context.Context, ep *endpoint, params map[string]any, typ requestType, forceRefresh bool) (*response, error) {
	token, err := c.accessToken(ctx, forceRefresh)
	if err != nil {
		return nil, err
	}

	var resp *response
	err = ep.limiter.do(ctx, func() error {
		r, err := c.post(ctx, ep.url, params, typ, token)
		resp = r
		return err
	})
	return resp, err
}

// post issues the HTTP call with vendor auth attached: query parameters
// for the aip gateway, body parameters elsewhere
func (c *Client) post(ctx context.Context, rawURL string, params map[string]any, typ requestType, token string) (*response, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, wrapError(err, "parse url")
	}

	body := make(map[string]any, len(params)+2)
	for k, v := range params {
		body[k] = v
	}

	if strings.HasSuffix(u.Host, "aip.baidubce.com") {
		q := u.Query()
		q.Set("access_token", token)
		q.Set("charset", "UTF-8")
		u.RawQuery = q.Encode()
	} else {
		body["cuid"] = c.config.creds.AppID
		if typ == typeForm {
			body["tok"] = token
		} else {
			body["token"] = token
		}
	}

	var reader io.Reader
	var contentType string
	switch typ {
	case typeForm:
		form := url.Values{}
		for k, v := range body {
			form.Set(k, fmt.Sprint(v))
		}
		reader = strings.NewReader(form.Encode())
		contentType = "application/x-www-form-urlencoded"
	default:
		jsonBytes, err := json.Marshal(body)
		if err != nil {
			return nil, wrapError(err, "marshal request body")
		}
		reader = bytes.NewReader(jsonBytes)
		contentType = "application/json"
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u.String(), reader)
	if err != nil {
		return nil, wrapError(err, "create request")
	}
	req.Header.Set("Content-Type", contentType)

	httpResp, err := c.config.httpClient.Do(req)
	if err != nil {
		return nil, wrapError(err, "send request")
	}
	defer httpResp.Body.Close()

	respBody, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return nil, wrapError(err, "read response")
	}

	return &response{
		status:      httpResp.StatusCode,
		contentType: httpResp.Header.Get("Content-Type"),
		body:        respBody,
	}, nil
}

// ================== Credential Cache ==================

// accessToken returns the cached bearer credential, fetching a fresh one
// when missing, expired, or when force is set
func (c *Client) accessToken(ctx context.Context, force bool) (string, error) {
	c.tokenMu.Lock()
	defer c.tokenMu.Unlock()

	now := c.config.now()
	if !force && c.token != "" && now.Before(c.tokenExpiry) {
		return c.token, nil
	}

	u, err := url.Parse(c.config.tokenURL)
	if err != nil {
		return "", wrapError(err, "parse token url")
	}
	q := u.Query()
	q.Set("grant_type", "client_credentials")
	q.Set("client_id", c.config.creds.Key)
	q.Set("client_secret", c.config.creds.Secret)
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return "", wrapError(err, "create token request")
	}

	resp, err := c.config.httpClient.Do(req)
	if err != nil {
		return "", wrapError(err, "request token")
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", wrapError(err, "read token response")
	}

	var tokenResp struct {
		AccessToken string `json:"access_token"`
		ExpiresIn   int64  `json:"expires_in"`
		ErrorCode   string `json:"error"`
		ErrorDesc   string `json:"error_description"`
	}
	if err := json.Unmarshal(body, &tokenResp); err != nil {
		return "", wrapError(err, "unmarshal token response")
	}
	if tokenResp.AccessToken == "" {
		return "", fmt.Errorf("baidu: token request failed: %s (%s)", tokenResp.ErrorDesc, tokenResp.ErrorCode)
	}

	c.token = tokenResp.AccessToken
	c.tokenExpiry = now.Add(time.Duration(tokenResp.ExpiresIn)*time.Second - tokenRefreshMargin)

	slog.Debug("baidu: refreshed access token", "expires_in", tokenResp.ExpiresIn)

	return c.token, nil
}
