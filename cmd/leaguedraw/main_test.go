package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/JulienGuyon/UEFA-league-phase-draw/internal/config"
	"github.com/JulienGuyon/UEFA-league-phase-draw/internal/draw"
	"github.com/JulienGuyon/UEFA-league-phase-draw/internal/validator"
)

func TestConfigTemplate(t *testing.T) {
	cfg, err := config.LoadFromBytes([]byte(configTemplate))
	if err != nil {
		t.Fatalf("template does not load: %v", err)
	}
	l, err := cfg.League()
	if err != nil {
		t.Fatalf("League() error: %v", err)
	}
	if l.NumPots() != 4 || l.PotSize() != 9 {
		t.Fatalf("template has %d pots of %d, want 4 of 9", l.NumPots(), l.PotSize())
	}

	opts, err := cfg.EngineOptions(nil)
	if err != nil {
		t.Fatalf("EngineOptions() error: %v", err)
	}
	opts.Seed = 2024
	e, err := draw.New(l, opts)
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}
	r, err := e.Run()
	if err != nil {
		t.Fatalf("Run() error: %v", err)
	}
	if v := validator.CheckResult(r); len(v) != 0 {
		t.Errorf("template draw has violations: %v", v)
	}
}

func TestRunInit(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := runInit(path); err != nil {
		t.Fatalf("runInit() error: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != configTemplate {
		t.Error("written config differs from the template")
	}
	if err := runInit(path); err == nil {
		t.Error("expected error when the file already exists")
	}
}

func TestRunDrawAndValidate(t *testing.T) {
	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "config.yaml")
	if err := runInit(cfgPath); err != nil {
		t.Fatalf("runInit() error: %v", err)
	}
	out := filepath.Join(dir, "draw.xlsx")
	seed := int64(7)
	if err := runDraw(cfgPath, out, &seed, false); err != nil {
		t.Fatalf("runDraw() error: %v", err)
	}
	if err := runValidate(cfgPath, out); err != nil {
		t.Errorf("runValidate() error: %v", err)
	}
}
