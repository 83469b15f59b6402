package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"sync"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/panic-sell/equip-spells-as-shouts/internal/config"
	"github.com/panic-sell/equip-spells-as-shouts/internal/logger"
	istorage "github.com/panic-sell/equip-spells-as-shouts/internal/storage"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	// Logs go to a buffer the UI shows; stdout belongs to the terminal UI.
	tail := newLogTail(200)
	bootLog := logger.SetupWriter(cfg, slog.LevelInfo, tail)
	settings := config.LoadSettings(cfg.SettingsPath, bootLog)
	log := logger.SetupWriter(cfg, logger.ParseLevel(settings.LogLevel), tail)

	ctx := context.Background()
	store, err := istorage.Open(ctx, cfg, log)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to open %s store: %v\n", cfg.Store, err)
		os.Exit(1)
	}
	defer func() {
		_ = store.Close() // Ignore error in defer
	}()

	sess, err := newSession(ctx, settings, store, log)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to start game: %v\n", err)
		os.Exit(1)
	}

	p := tea.NewProgram(NewConsoleUI(sess, tail),
		tea.WithAltScreen(),
		tea.WithMouseCellMotion())
	if _, err := p.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error running program: %v\n", err)
		os.Exit(1)
	}
}

// logTail keeps the last lines written to it.
type logTail struct {
	mu    sync.Mutex
	max   int
	lines []string
	part  string
}

func newLogTail(limit int) *logTail {
	return &logTail{max: limit}
}

func (t *logTail) Write(p []byte) (int, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	text := t.part + string(p)
	parts := strings.Split(text, "\n")
	t.part = parts[len(parts)-1]
	for _, line := range parts[:len(parts)-1] {
		if line == "" {
			continue
		}
		t.lines = append(t.lines, line)
	}
	if over := len(t.lines) - t.max; over > 0 {
		t.lines = append(t.lines[:0], t.lines[over:]...)
	}
	return len(p), nil
}

// Lines returns a copy of the kept lines, oldest first.
func (t *logTail) Lines() []string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return append([]string(nil), t.lines...)
}
