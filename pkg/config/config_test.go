package config

import (
	"os"
	"path/filepath"
	"testing"
)

const sampleConfig = `
xfyun:
  iat:
    app_id: iat-app
    api_key: iat-key
    api_secret: iat-secret
  tts:
    app_id: tts-app
    api_key: tts-key
    api_secret: tts-secret
baidu:
  app_id: baidu-app
  key: baidu-key
  secret: baidu-secret
baidu_quotas:
  iat: 20
  tts_premium: 5
`

func TestParse(t *testing.T) {
	cfg, err := Parse([]byte(sampleConfig))
	if err != nil {
		t.Fatalf("Parse error: %v", err)
	}

	if cfg.Xfyun == nil {
		t.Fatal("missing xfyun section")
	}
	if cfg.Xfyun.IAT.AppID != "iat-app" || cfg.Xfyun.IAT.APISecret != "iat-secret" {
		t.Errorf("xfyun iat credentials: %+v", cfg.Xfyun.IAT)
	}
	if cfg.Xfyun.TTS.APIKey != "tts-key" {
		t.Errorf("xfyun tts credentials: %+v", cfg.Xfyun.TTS)
	}
	// unset services stay zero
	if cfg.Xfyun.ISE.AppID != "" {
		t.Errorf("xfyun ise should be empty: %+v", cfg.Xfyun.ISE)
	}

	if cfg.Baidu == nil || cfg.Baidu.AppID != "baidu-app" {
		t.Fatalf("baidu credentials: %+v", cfg.Baidu)
	}
	if cfg.BaiduQuotas == nil || cfg.BaiduQuotas.IAT != 20 || cfg.BaiduQuotas.TTSPremium != 5 {
		t.Errorf("baidu quotas: %+v", cfg.BaiduQuotas)
	}
}

func TestParse_Invalid(t *testing.T) {
	if _, err := Parse([]byte("xfyun: [not a map")); err == nil {
		t.Fatal("expected parse error")
	}
}

func TestLoadWithPath(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(sampleConfig), 0600); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := LoadWithPath(path)
	if err != nil {
		t.Fatalf("LoadWithPath error: %v", err)
	}
	if cfg.Path() != path {
		t.Errorf("Path: got %q", cfg.Path())
	}
	if cfg.Baidu.Key != "baidu-key" {
		t.Errorf("baidu key: got %q", cfg.Baidu.Key)
	}
}

func TestLoadWithPath_Missing(t *testing.T) {
	if _, err := LoadWithPath(filepath.Join(t.TempDir(), "absent.yaml")); err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestSave(t *testing.T) {
	cfg, err := Parse([]byte(sampleConfig))
	if err != nil {
		t.Fatalf("Parse error: %v", err)
	}

	// A parsed config has no backing file yet
	if err := cfg.Save(); err == nil {
		t.Fatal("Save without a path should fail")
	}

	path := filepath.Join(t.TempDir(), "nested", "config.yaml")
	if err := cfg.SaveTo(path); err != nil {
		t.Fatalf("SaveTo error: %v", err)
	}
	if cfg.Path() != path {
		t.Errorf("Path after SaveTo: got %q", cfg.Path())
	}

	reloaded, err := LoadWithPath(path)
	if err != nil {
		t.Fatalf("reload error: %v", err)
	}
	if reloaded.Baidu.AppID != "baidu-app" {
		t.Errorf("reloaded baidu app: got %q", reloaded.Baidu.AppID)
	}

	// Save now targets the remembered path
	if err := cfg.Save(); err != nil {
		t.Errorf("Save after SaveTo: %v", err)
	}
}

func TestClients(t *testing.T) {
	cfg, err := Parse([]byte(sampleConfig))
	if err != nil {
		t.Fatalf("Parse error: %v", err)
	}

	if _, err := cfg.XfyunClient(); err != nil {
		t.Errorf("XfyunClient: %v", err)
	}
	if _, err := cfg.BaiduClient(); err != nil {
		t.Errorf("BaiduClient: %v", err)
	}

	empty := &Config{}
	if _, err := empty.XfyunClient(); err == nil {
		t.Error("XfyunClient without credentials should fail")
	}
	if _, err := empty.BaiduClient(); err == nil {
		t.Error("BaiduClient without credentials should fail")
	}
}
