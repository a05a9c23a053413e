package xfyun

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"fmt"
	"net/http"
	"net/url"
	"time"
)

// Request signing for xfyun endpoints.
//
// The vendor signs an HMAC-SHA256 over a canonical request string:
//
//	host: {host}
//	date: {date}
//	{METHOD} {path} HTTP/1.1
//	[digest: {digest}]
//
// WebSocket connections carry the assembled authorization scheme string
// base64-encoded in query parameters; HTTP requests carry it verbatim in
// the Authorization header together with Date and Digest headers.

// signString computes base64(HMAC-SHA256(secret, text))
func signString(secret, text string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(text))
	return base64.StdEncoding.EncodeToString(mac.Sum(nil))
}

// canonicalRequest builds the canonical string to sign.
// digest is empty for GET (WebSocket) requests.
func canonicalRequest(host, date, method, path, digest string) string {
	s := fmt.Sprintf("host: %s\ndate: %s\n%s %s HTTP/1.1", host, date, method, path)
	if digest != "" {
		s += "\ndigest: " + digest
	}
	return s
}

// assembleAuthorization builds the vendor authorization scheme string
func assembleAuthorization(apiKey, headers, signature string) string {
	return fmt.Sprintf(`api_key="%s", algorithm="hmac-sha256", headers="%s", signature="%s"`,
		apiKey, headers, signature)
}

// httpDate formats a timestamp the way the Date header expects
func httpDate(now time.Time) string {
	return now.UTC().Format(http.TimeFormat)
}

// bodyDigest computes the Digest header value for a request body
func bodyDigest(body []byte) string {
	sum := sha256.Sum256(body)
	return "SHA-256=" + base64.StdEncoding.EncodeToString(sum[:])
}

// wsAuthURL attaches authorization query parameters to a WebSocket URL
func wsAuthURL(rawURL string, app App, now time.Time) (string, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", wrapError(err, "parse url")
	}

	date := httpDate(now)
	signature := signString(app.APISecret, canonicalRequest(u.Host, date, http.MethodGet, u.Path, ""))
	scheme := assembleAuthorization(app.APIKey, "host date request-line", signature)

	q := u.Query()
	q.Set("authorization", base64.StdEncoding.EncodeToString([]byte(scheme)))
	q.Set("date", date)
	q.Set("host", u.Host)
	u.RawQuery = q.Encode()

	return u.String(), nil
}

// signRequest sets Date, Digest and Authorization headers on a POST request
func signRequest(req *http.Request, app App, body []byte, now time.Time) {
	date := httpDate(now)
	digest := bodyDigest(body)
	signature := signString(app.APISecret,
		canonicalRequest(req.URL.Host, date, req.Method, req.URL.Path, digest))

	req.Header.Set("Date", date)
	req.Header.Set("Digest", digest)
	req.Header.Set("Authorization",
		assembleAuthorization(app.APIKey, "host date request-line digest", signature))
}
