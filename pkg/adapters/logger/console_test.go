package logger

import (
	"bytes"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/user/poster/pkg/ports"
)

func TestConsoleLogger_LevelFilter(t *testing.T) {
	var buf bytes.Buffer
	log := NewWriter(ports.LevelWarn, &buf)

	log.Debug("Decoded %s (%dx%d)", "a.png", 1, 1)
	log.Info("Poster saved to %s", "out.png")
	log.Warn("Skipping debug snapshot: %s", "disk full")

	out := buf.String()
	if strings.Contains(out, "a.png") || strings.Contains(out, "out.png") {
		t.Errorf("expected debug and info to be filtered, got %q", out)
	}
	if !strings.Contains(out, "disk full") {
		t.Errorf("expected warning in output, got %q", out)
	}
}

func TestConsoleLogger_WithComponent(t *testing.T) {
	var buf bytes.Buffer
	log := NewWriter(ports.LevelDebug, &buf).WithComponent("canvas")

	log.Debug("Canvas released")

	if got := buf.String(); !strings.HasPrefix(got, "[canvas] ") {
		t.Errorf("expected component prefix, got %q", got)
	}
}

func TestConsoleLogger_NestedComponents(t *testing.T) {
	var buf bytes.Buffer
	root := NewWriter(ports.LevelDebug, &buf)
	server := root.WithComponent("server")
	canvas := server.WithComponent("canvas")

	canvas.Debug("Canvas released")
	server.Info("Shutting down server")

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 2 {
		t.Fatalf("expected 2 lines, got %q", buf.String())
	}
	if !strings.HasPrefix(lines[0], "[server/canvas] ") {
		t.Errorf("expected nested prefix, got %q", lines[0])
	}
	if !strings.HasPrefix(lines[1], "[server] ") {
		t.Errorf("expected parent prefix unchanged, got %q", lines[1])
	}
}

func TestConsoleLogger_Timestamps(t *testing.T) {
	var buf bytes.Buffer
	log := NewWriter(ports.LevelInfo, &buf).WithTimestamps()
	log.now = func() time.Time { return time.Date(2024, 5, 1, 9, 30, 0, 0, time.Local) }

	log.Info("Listening on %s", ":8080")

	if got := buf.String(); !strings.HasPrefix(got, "2024-05-01T09:30:00.000 ") {
		t.Errorf("expected timestamp prefix, got %q", got)
	}
}

func TestConsoleLogger_ConcurrentLines(t *testing.T) {
	var buf bytes.Buffer
	root := NewWriter(ports.LevelInfo, &buf)

	var wg sync.WaitGroup
	for w := 0; w < 8; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			log := root.WithComponent("worker")
			for i := 0; i < 50; i++ {
				log.Info("Batch completed: %d posters", i)
			}
		}()
	}
	wg.Wait()

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 400 {
		t.Fatalf("expected 400 lines, got %d", len(lines))
	}
	for _, l := range lines {
		if !strings.HasPrefix(l, "[worker] ") {
			t.Fatalf("interleaved line %q", l)
		}
	}
}

func TestConsoleLogger_Quiet(t *testing.T) {
	var buf bytes.Buffer
	log := NewWriter(ports.LevelQuiet, &buf)

	log.Error("Render failed: %s", "boom")

	if buf.Len() != 0 {
		t.Errorf("expected no output, got %q", buf.String())
	}
}
