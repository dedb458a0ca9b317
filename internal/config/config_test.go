package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	t.Chdir(t.TempDir())
	c, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if c.CorrelationThreshold != 0.5 || c.OutlierMethod != "iqr" || c.OutlierThreshold != 0 {
		t.Fatalf("analysis defaults = %+v", c)
	}
	if c.TopN != 5 || c.OutlierSampleLimit != 10 || c.DateDetectRatio != 0.7 || c.DateDistributionMin != 10 || c.Workers != 4 {
		t.Fatalf("analysis defaults = %+v", c)
	}
	if c.ReportFormat != "markdown" || c.LogLevel != "info" || c.LogFormat != "text" || c.MaxRows != 0 {
		t.Fatalf("output defaults = %+v", c)
	}
}

func TestSaveLoadRoundTrip(t *testing.T) {
	t.Chdir(t.TempDir())
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")
	c := &Global{}
	for key, val := range map[string]string{
		"top_n":          "8",
		"outlier_method": "z-score",
		"report_format":  "YAML",
		"max_rows":       "500",
	} {
		if err := c.Set(key, val); err != nil {
			t.Fatalf("Set(%s): %v", key, err)
		}
	}
	if err := Save(c, path); err != nil {
		t.Fatalf("Save: %v", err)
	}
	got, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if got.TopN != 8 || got.OutlierMethod != "zscore" || got.ReportFormat != "yaml" || got.MaxRows != 500 {
		t.Fatalf("round trip = %+v", got)
	}
	p := got.AnalysisParams()
	if p.TopN != 8 || p.OutlierMethod != "zscore" {
		t.Fatalf("params = %+v", p)
	}
}

func TestEnvOverridesFile(t *testing.T) {
	t.Chdir(t.TempDir())
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("top_n: 3\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	t.Setenv("INSIGHTLOOM_TOP_N", "12")
	c, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if c.TopN != 12 {
		t.Fatalf("top_n = %d, want 12", c.TopN)
	}
}

func TestDotEnvFile(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	t.Setenv("HOME", t.TempDir())
	if err := os.WriteFile(filepath.Join(dir, ".env"), []byte("INSIGHTLOOM_WORKERS=9\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { os.Unsetenv("INSIGHTLOOM_WORKERS") })
	c, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if c.Workers != 9 {
		t.Fatalf("workers = %d, want 9", c.Workers)
	}
}

func TestSetRejectsBadValues(t *testing.T) {
	c := &Global{}
	bad := map[string]string{
		"correlation_threshold": "1.5",
		"outlier_method":        "median",
		"top_n":                 "-1",
		"date_detect_ratio":     "0",
		"report_format":         "pdf",
		"log_format":            "xml",
		"nope":                  "1",
	}
	for key, val := range bad {
		if err := c.Set(key, val); err == nil {
			t.Fatalf("Set(%s, %s) should fail", key, val)
		}
	}
}

func TestGetCoversKeys(t *testing.T) {
	c := &Global{TopN: 4, OutputDir: "out"}
	for _, k := range Keys {
		if _, err := c.Get(k); err != nil {
			t.Fatalf("Get(%s): %v", k, err)
		}
	}
	if v, _ := c.Get("top_n"); v != "4" {
		t.Fatalf("top_n = %q", v)
	}
}
