package baidu

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
)

func TestTTSService_Synthesize(t *testing.T) {
	var tokenHits atomic.Int64
	tokenSrv := newTokenServer(t, &tokenHits)

	apiSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseForm(); err != nil {
			t.Errorf("parse form: %v", err)
		}
		if got := r.PostForm.Get("tex"); got != "你好" {
			t.Errorf("tex: got %q", got)
		}
		if got := r.PostForm.Get("per"); got != "1" {
			t.Errorf("per: got %q", got)
		}
		if got := r.PostForm.Get("spd"); got != "7" {
			t.Errorf("spd: got %q", got)
		}
		if got := r.PostForm.Get("aue"); got != "3" {
			t.Errorf("aue: got %q", got)
		}
		if got := r.PostForm.Get("tok"); got != "tok1" {
			t.Errorf("tok: got %q", got)
		}
		if got := r.PostForm.Get("cuid"); got != "app1" {
			t.Errorf("cuid: got %q", got)
		}

		w.Header().Set("Content-Type", "audio/mp3")
		w.Write([]byte("mp3bytes"))
	}))
	defer apiSrv.Close()

	client := NewClient(testCreds, WithTokenURL(tokenSrv.URL), WithTTSURL(apiSrv.URL))

	audio, err := client.TTS.Synthesize(t.Context(), &SynthesizeRequest{
		Text:   "你好",
		Voice:  1,
		Speed:  7,
		Format: FormatMP3,
	})
	if err != nil {
		t.Fatalf("Synthesize: %v", err)
	}
	if string(audio) != "mp3bytes" {
		t.Errorf("audio: got %q", audio)
	}
}

func TestTTSService_Defaults(t *testing.T) {
	var tokenHits atomic.Int64
	tokenSrv := newTokenServer(t, &tokenHits)

	apiSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		r.ParseForm()
		if got := r.PostForm.Get("spd"); got != "4" {
			t.Errorf("default spd: got %q", got)
		}
		if got := r.PostForm.Get("aue"); got != "6" {
			t.Errorf("default aue: got %q", got)
		}
		w.Header().Set("Content-Type", "audio/wav")
		w.Write([]byte("wav"))
	}))
	defer apiSrv.Close()

	client := NewClient(testCreds, WithTokenURL(tokenSrv.URL), WithTTSURL(apiSrv.URL))

	if _, err := client.TTS.Synthesize(t.Context(), &SynthesizeRequest{Text: "好"}); err != nil {
		t.Fatalf("Synthesize: %v", err)
	}
}

func TestTTSService_NilRequest(t *testing.T) {
	var tokenHits atomic.Int64
	tokenSrv := newTokenServer(t, &tokenHits)

	apiSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		r.ParseForm()
		if got := r.PostForm.Get("spd"); got != "4" {
			t.Errorf("nil request spd: got %q", got)
		}
		w.Header().Set("Content-Type", "audio/wav")
		w.Write([]byte("wav"))
	}))
	defer apiSrv.Close()

	client := NewClient(testCreds, WithTokenURL(tokenSrv.URL), WithTTSURL(apiSrv.URL))

	if _, err := client.TTS.Synthesize(t.Context(), nil); err != nil {
		t.Fatalf("Synthesize(nil): %v", err)
	}
}

func TestTTSService_TruncatesLongText(t *testing.T) {
	var tokenHits atomic.Int64
	tokenSrv := newTokenServer(t, &tokenHits)

	apiSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		r.ParseForm()
		if got := len([]rune(r.PostForm.Get("tex"))); got != maxTextRunes {
			t.Errorf("tex length: got %d runes, want %d", got, maxTextRunes)
		}
		w.Header().Set("Content-Type", "audio/wav")
		w.Write([]byte("wav"))
	}))
	defer apiSrv.Close()

	client := NewClient(testCreds, WithTokenURL(tokenSrv.URL), WithTTSURL(apiSrv.URL))

	long := strings.Repeat("好", maxTextRunes+100)
	if _, err := client.TTS.Synthesize(t.Context(), &SynthesizeRequest{Text: long}); err != nil {
		t.Fatalf("Synthesize: %v", err)
	}
}

func TestTTSService_ErrorPayload(t *testing.T) {
	var tokenHits atomic.Int64
	tokenSrv := newTokenServer(t, &tokenHits)

	apiSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"err_no":513,"err_msg":"text too long"}`))
	}))
	defer apiSrv.Close()

	client := NewClient(testCreds, WithTokenURL(tokenSrv.URL), WithTTSURL(apiSrv.URL))

	_, err := client.TTS.Synthesize(t.Context(), &SynthesizeRequest{Text: "好"})
	apiErr, ok := AsError(err)
	if !ok {
		t.Fatalf("expected *Error, got %v", err)
	}
	if apiErr.Code != 513 {
		t.Errorf("code: got %d", apiErr.Code)
	}
}

func TestTTSService_PremiumVoiceRouting(t *testing.T) {
	client := NewClient(testCreds)

	if client.TTS.standard == client.TTS.premium {
		t.Fatal("premium voices must be throttled independently")
	}
	if client.TTS.standard.limiter == client.TTS.premium.limiter {
		t.Fatal("premium endpoint shares the standard limiter")
	}
}
