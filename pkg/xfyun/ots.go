package xfyun

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"io"
	"net/http"
	"time"
)

// OTSService provides text translation
type OTSService struct {
	client *Client
}

// newOTSService creates the translation service
func newOTSService(c *Client) *OTSService {
	return &OTSService{client: c}
}

type otsRequest struct {
	Common   commonParams `json:"common"`
	Business struct {
		From Language `json:"from"`
		To   Language `json:"to"`
	} `json:"business"`
	Data struct {
		Text string `json:"text"`
	} `json:"data"`
}

type otsResponse struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Sid     string `json:"sid"`
	Data    struct {
		Result struct {
			TransResult struct {
				Src string `json:"src"`
				Dst string `json:"dst"`
			} `json:"trans_result"`
		} `json:"result"`
	} `json:"data"`
}

// Translate translates text between languages over the signed HTTP
// endpoint
func (s *OTSService) Translate(ctx context.Context, text string, from, to Language) (string, error) {
	var req otsRequest
	req.Common.AppID = s.client.config.creds.OTS.AppID
	req.Business.From = from
	req.Business.To = to
	req.Data.Text = base64.StdEncoding.EncodeToString([]byte(text))

	body, err := json.Marshal(req)
	if err != nil {
		return "", wrapError(err, "marshal request")
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, s.client.config.otsURL, bytes.NewReader(body))
	if err != nil {
		return "", wrapError(err, "create request")
	}
	httpReq.Header.Set("Content-Type", "application/json")
	signRequest(httpReq, s.client.config.creds.OTS, body, time.Now())

	resp, err := s.client.config.httpClient.Do(httpReq)
	if err != nil {
		return "", wrapError(err, "send request")
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", wrapError(err, "read response")
	}

	var apiResp otsResponse
	if err := json.Unmarshal(respBody, &apiResp); err != nil {
		return "", wrapError(err, "unmarshal response")
	}
	if apiResp.Code != 0 {
		return "", &Error{Code: apiResp.Code, Message: apiResp.Message, Sid: apiResp.Sid}
	}

	return apiResp.Data.Result.TransResult.Dst, nil
}
