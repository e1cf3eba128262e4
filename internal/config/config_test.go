package config

import (
	"path/filepath"
	"testing"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	c, err := Load("")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if c.Port != 8050 || c.MaxUploadMB != 32 || c.PreviewRows != 5 || c.HistogramBins != 30 || c.LogFormat != "text" || c.SessionIdleMinutes != 1440 {
		t.Fatalf("unexpected defaults %+v", c)
	}
}

func TestEnvOverridesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	c := &Global{Port: 9000, PreviewRows: 7, LogLevel: "info", LogFormat: "json"}
	if err := Save(c, path); err != nil {
		t.Fatalf("save: %v", err)
	}
	t.Setenv("EDALOOM_PORT", "9100")
	got, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if got.Port != 9100 || got.PreviewRows != 7 || got.LogFormat != "json" {
		t.Fatalf("unexpected config %+v", got)
	}
}

func TestSetAndGet(t *testing.T) {
	c := &Global{}
	good := map[string]string{
		"port":                 "8080",
		"max_upload_mb":        "10",
		"allowed_origins":      "http://a.test, http://b.test",
		"histogram_bins":       "12",
		"log_level":            "DEBUG",
		"log_format":           "json",
		"session_secret":       "supersecretvalue",
		"session_idle_minutes": "90",
	}
	for k, v := range good {
		if err := c.Set(k, v); err != nil {
			t.Fatalf("Set(%s): %v", k, err)
		}
	}
	if len(c.AllowedOrigins) != 2 || c.AllowedOrigins[1] != "http://b.test" {
		t.Fatalf("origins = %v", c.AllowedOrigins)
	}
	if v, _ := c.Get("log_level"); v != "debug" {
		t.Fatalf("log_level = %s", v)
	}
	if c.SessionIdleMinutes != 90 {
		t.Fatalf("session_idle_minutes = %d", c.SessionIdleMinutes)
	}
	if v, _ := c.Get("session_secret"); v != "sup****lue" {
		t.Fatalf("masked secret = %s", v)
	}
	bad := map[string]string{"port": "0", "histogram_bins": "-1", "log_format": "xml", "session_idle_minutes": "0", "colour": "red"}
	for k, v := range bad {
		if err := c.Set(k, v); err == nil {
			t.Fatalf("Set(%s, %s): expected error", k, v)
		}
	}
	for _, k := range Keys {
		if _, err := c.Get(k); err != nil {
			t.Fatalf("Get(%s): %v", k, err)
		}
	}
}
