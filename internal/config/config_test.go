package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	c, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if c.Model != "deepseek-coder:latest" {
		t.Fatalf("model = %q", c.Model)
	}
	if c.OllamaHost != "http://127.0.0.1:11434" || c.InsightTimeoutSec != 180 {
		t.Fatalf("runtime defaults = %q/%d", c.OllamaHost, c.InsightTimeoutSec)
	}
	if c.RetryMaxAttempts != 1 || c.MaxUploadMB != 32 || c.OutputDir != "." {
		t.Fatalf("defaults = %+v", c)
	}
	if c.RatePerMin != 30 {
		t.Fatalf("rate_limit_per_min = %d", c.RatePerMin)
	}
	if c.RequireInsights || c.Share || c.FailOnEmptyColumn {
		t.Fatalf("bool defaults should be false: %+v", c)
	}
}

func TestLoadFileAndEnvPrecedence(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	path := filepath.Join(t.TempDir(), "cfg.yaml")
	body := "model: llama3:latest\nmax_upload_mb: 8\nshare: true\nmissing_values: [\"?\", \"-\"]\n"
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
	t.Setenv("EDA_MAX_UPLOAD_MB", "64")

	c, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if c.Model != "llama3:latest" || !c.Share {
		t.Fatalf("file values not applied: %+v", c)
	}
	if c.MaxUploadMB != 64 {
		t.Fatalf("env should override file: max_upload_mb = %d", c.MaxUploadMB)
	}
	if len(c.MissingValues) != 2 || c.MissingValues[0] != "?" {
		t.Fatalf("missing_values = %v", c.MissingValues)
	}
}

func TestLoadMissingExplicitFileUsesDefaults(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	c, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if c.Model == "" {
		t.Fatalf("defaults not applied")
	}
}

func TestSaveRoundTrip(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)
	c, err := Load("")
	if err != nil {
		t.Fatal(err)
	}
	if err := c.Set("model", "qwen2.5:7b"); err != nil {
		t.Fatal(err)
	}
	if err := c.Set("require_insights", "true"); err != nil {
		t.Fatal(err)
	}
	if err := Save(c, ""); err != nil {
		t.Fatalf("Save: %v", err)
	}
	if _, err := os.Stat(filepath.Join(home, ".eda", "config.yaml")); err != nil {
		t.Fatalf("config file not written: %v", err)
	}
	again, err := Load("")
	if err != nil {
		t.Fatal(err)
	}
	if again.Model != "qwen2.5:7b" || !again.RequireInsights {
		t.Fatalf("reloaded = %+v", again)
	}
}

func TestSetValidation(t *testing.T) {
	var c Global
	bad := map[string]string{
		"max_upload_mb":       "zero",
		"insight_timeout_sec": "-1",
		"share":               "maybe",
		"log_format":          "xml",
		"delimiter":           ";;",
		"rate_limit_per_min":  "-1",
		"nope":                "x",
	}
	for k, v := range bad {
		if err := c.Set(k, v); err == nil {
			t.Errorf("Set(%q, %q) should fail", k, v)
		}
	}
	if err := c.Set("delimiter", "tab"); err != nil || c.DelimiterRune() != '\t' {
		t.Fatalf("tab delimiter: %v %q", err, c.DelimiterRune())
	}
	if err := c.Set("delimiter", ";"); err != nil || c.DelimiterRune() != ';' {
		t.Fatalf("semicolon delimiter: %v", err)
	}
	if err := c.Set("rate_limit_per_min", "0"); err != nil || c.RatePerMin != 0 {
		t.Fatalf("rate_limit_per_min 0 should disable the limit: %v", err)
	}
	if err := c.Set("missing_values", "?, -, "); err != nil || len(c.MissingValues) != 2 {
		t.Fatalf("missing_values = %v, %v", c.MissingValues, err)
	}
}

func TestGetCoversEveryKey(t *testing.T) {
	var c Global
	for _, k := range Keys {
		if _, err := c.Get(k); err != nil {
			t.Errorf("Get(%q): %v", k, err)
		}
	}
}
