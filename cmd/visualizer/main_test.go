package main

import (
	"context"
	"os"
	"strings"
	"testing"
	"time"

	"visualizer/internal/infra"
)

func TestRunReleasesPreviewDirOnStartupFailure(t *testing.T) {
	tmp := t.TempDir()
	t.Setenv("TMPDIR", tmp)

	cfg := &infra.Config{
		Port:          "0",
		DefaultLocale: "en",
		GeminiModel:   "gemini-2.5-flash-image",
		GeminiTimeout: time.Second,
		SessionIdle:   time.Minute,
		SessionSweep:  time.Minute,
	}
	err := run(context.Background(), cfg, infra.NopLogger())
	if err == nil || !strings.Contains(err.Error(), "gemini") {
		t.Fatalf("run() error = %v, want gemini client failure", err)
	}

	entries, err := os.ReadDir(tmp)
	if err != nil {
		t.Fatalf("ReadDir: %v", err)
	}
	if len(entries) != 0 {
		t.Fatalf("temp dir still holds %d entries, want the preview directory removed", len(entries))
	}
}
