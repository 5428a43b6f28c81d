package config

import (
	"image/color"
	"os"
	"path/filepath"
	"testing"
)

func TestDefaults(t *testing.T) {
	cfg := Defaults()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("defaults should validate: %v", err)
	}
	n, err := cfg.MaxInputBytes()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if n != 256*1000*1000 {
		t.Errorf("expected 256MB limit, got %d", n)
	}
}

func TestLoadFromFile_YAML(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "framekit.yaml")
	content := "workers: 3\nquality:\n  value: 70\ncontainer:\n  delay_ms: 40\n"
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := LoadFromFile(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Workers != 3 || cfg.Quality.Value != 70 || cfg.Container.DelayMs != 40 {
		t.Errorf("unexpected config %+v", cfg)
	}
	if cfg.PreviewSize != 1024 {
		t.Errorf("expected default preview size to survive, got %d", cfg.PreviewSize)
	}
}

func TestLoadFromFile_TOML(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "framekit.toml")
	content := "preview_size = 512\nmax_input_size = \"10MB\"\n\n[quality]\nvalue = 55\nlossless = true\n"
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := LoadFromFile(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.PreviewSize != 512 || cfg.Quality.Value != 55 || !cfg.Quality.Lossless {
		t.Errorf("unexpected config %+v", cfg)
	}
	if n, _ := cfg.MaxInputBytes(); n != 10*1000*1000 {
		t.Errorf("expected 10MB limit, got %d", n)
	}
}

func TestLoadFromFile_Invalid(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "bad.yaml")
	if err := os.WriteFile(path, []byte("max_input_size: lots\n"), 0644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	if _, err := LoadFromFile(path); err == nil {
		t.Error("expected error for unparseable size")
	}
}

func TestParseColor(t *testing.T) {
	tests := []struct {
		in   string
		want color.Color
	}{
		{"#ff8000", color.RGBA{R: 255, G: 128, B: 0, A: 255}},
		{"00FF00", color.RGBA{R: 0, G: 255, B: 0, A: 255}},
		{"#00000080", color.NRGBA{A: 128}},
		{"", color.Black},
		{"#abc", color.Black},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			if got := ParseColor(tt.in); got != tt.want {
				t.Errorf("ParseColor(%q) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}
