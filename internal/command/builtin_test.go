package command

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/joeycumines/go-btcore/internal/config"
)

func newTestRegistry() *Registry {
	registry := NewRegistry()
	registry.Register(NewVersionCommand("1.0.0"))
	registry.Register(NewConfigCommand(config.NewConfig(), ""))
	registry.Register(NewRunCommand(nil, nil))
	registry.Register(NewHelpCommand(registry))
	return registry
}

func TestRegistry(t *testing.T) {
	registry := newTestRegistry()

	if got := strings.Join(registry.List(), ","); got != "config,help,run,version" {
		t.Fatalf("unexpected command list %q", got)
	}
	if _, err := registry.Get("missing"); err == nil {
		t.Fatal("expected an error for an unknown command")
	}
	cmd, err := registry.Get("version")
	if err != nil || cmd.Name() != "version" {
		t.Fatalf("expected the version command, got %v (%v)", cmd, err)
	}
}

func TestHelpCommandExecute(t *testing.T) {
	registry := newTestRegistry()
	cmd, _ := registry.Get("help")

	t.Run("general help", func(t *testing.T) {
		var stdout, stderr bytes.Buffer
		if err := cmd.Execute(nil, &stdout, &stderr); err != nil {
			t.Fatalf("Expected no error, got: %v", err)
		}
		output := stdout.String()
		for _, part := range []string{
			"btcore",
			"Usage: btcore <command>",
			"Available commands:",
			"Tick a demo behavior tree",
		} {
			if !strings.Contains(output, part) {
				t.Errorf("Expected output to contain %q. Output: %s", part, output)
			}
		}
	})

	t.Run("command help lists flags", func(t *testing.T) {
		var stdout, stderr bytes.Buffer
		if err := cmd.Execute([]string{"run"}, &stdout, &stderr); err != nil {
			t.Fatalf("Expected no error, got: %v", err)
		}
		output := stdout.String()
		for _, part := range []string{"Command: run", "Flags:", "-max-ticks", "-params", "counter, door"} {
			if !strings.Contains(output, part) {
				t.Errorf("Expected output to contain %q. Output: %s", part, output)
			}
		}
	})

	t.Run("unknown command", func(t *testing.T) {
		var stdout, stderr bytes.Buffer
		if err := cmd.Execute([]string{"nope"}, &stdout, &stderr); err == nil {
			t.Fatal("Expected an error")
		}
		if !strings.Contains(stderr.String(), "Unknown command: nope") {
			t.Errorf("unexpected stderr: %s", stderr.String())
		}
	})
}

func TestVersionCommand(t *testing.T) {
	cmd := NewVersionCommand("1.2.3")

	var stdout, stderr bytes.Buffer
	if err := cmd.Execute(nil, &stdout, &stderr); err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	if got := stdout.String(); got != "btcore version 1.2.3\n" {
		t.Errorf("unexpected output %q", got)
	}
	if err := cmd.Execute([]string{"extra"}, &stdout, &stderr); err == nil {
		t.Error("Expected an error for unexpected arguments")
	}
}

func TestConfigCommand(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config")
	cfg, err := config.LoadFromReader(strings.NewReader("log.level debug\n[run]\ncycles 4\n[node work]\nduration 5ms\n"))
	if err != nil {
		t.Fatalf("failed to load config: %v", err)
	}
	cmd := NewConfigCommand(cfg, path)

	exec := func(t *testing.T, args ...string) string {
		t.Helper()
		var stdout, stderr bytes.Buffer
		if err := cmd.Execute(args, &stdout, &stderr); err != nil {
			t.Fatalf("Execute(%v): %v (stderr: %s)", args, err, stderr.String())
		}
		return stdout.String()
	}

	t.Run("get resolves defaults", func(t *testing.T) {
		if got := exec(t, "log.level"); got != "log.level: debug\n" {
			t.Errorf("unexpected output %q", got)
		}
		if got := exec(t, "expr.cache-size"); got != "expr.cache-size: 1000\n" {
			t.Errorf("unexpected output %q", got)
		}
		if got := exec(t, "nonexistent"); !strings.Contains(got, "not found") {
			t.Errorf("unexpected output %q", got)
		}
	})

	t.Run("show all", func(t *testing.T) {
		cmd.showAll = true
		defer func() { cmd.showAll = false }()
		got := exec(t)
		for _, part := range []string{"log.level: debug", "[run]", "cycles: 4", "[node work]", "duration: 5ms"} {
			if !strings.Contains(got, part) {
				t.Errorf("Expected output to contain %q. Output: %s", part, got)
			}
		}
	})

	t.Run("set node parameter", func(t *testing.T) {
		cmd.node = "work"
		defer func() { cmd.node = "" }()
		exec(t, "duration", "7ms")
		if got := exec(t, "duration"); got != "duration: 7ms\n" {
			t.Errorf("unexpected output %q", got)
		}
		data, err := os.ReadFile(path)
		if err != nil {
			t.Fatalf("expected the file to be written: %v", err)
		}
		if string(data) != "[node work]\nduration 7ms\n" {
			t.Errorf("unexpected file content %q", data)
		}
	})

	t.Run("set global", func(t *testing.T) {
		exec(t, "tick.interval", "2ms")
		if v, _ := cfg.GetGlobalOption("tick.interval"); v != "2ms" {
			t.Errorf("expected tick.interval=2ms, got %q", v)
		}
	})

	t.Run("validate and schema", func(t *testing.T) {
		if got := exec(t, "validate"); got != "Configuration is valid.\n" {
			t.Errorf("unexpected output %q", got)
		}
		cfg.SetGlobalOption("tick.interval", "soon")
		if got := exec(t, "validate"); !strings.Contains(got, "1 issue(s)") {
			t.Errorf("unexpected output %q", got)
		}
		if got := exec(t, "schema"); !strings.Contains(got, "Global Options:") {
			t.Errorf("unexpected output %q", got)
		}
	})

	t.Run("too many arguments", func(t *testing.T) {
		var stdout, stderr bytes.Buffer
		if err := cmd.Execute([]string{"a", "b", "c"}, &stdout, &stderr); err == nil {
			t.Fatal("expected an error")
		}
	})
}

func TestInitCommand(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config")
	cmd := NewInitCommand(path)

	var stdout, stderr bytes.Buffer
	if err := cmd.Execute(nil, &stdout, &stderr); err != nil {
		t.Fatalf("Execute failed: %v", err)
	}
	if stderr.Len() != 0 {
		t.Fatalf("unexpected warnings: %s", stderr.String())
	}
	cfg, err := config.LoadFromPath(path)
	if err != nil {
		t.Fatalf("failed to load written config: %v", err)
	}
	if cfg.NodeParameters("work")["duration"] != "20ms" {
		t.Fatalf("expected the example node section, got %v", cfg.Nodes)
	}

	stdout.Reset()
	if err := cmd.Execute(nil, &stdout, &stderr); err != nil {
		t.Fatalf("Execute failed: %v", err)
	}
	if !strings.Contains(stdout.String(), "already exists") {
		t.Fatalf("expected existing config to be kept, got %q", stdout.String())
	}
}
