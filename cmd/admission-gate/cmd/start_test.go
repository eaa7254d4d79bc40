package cmd

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"
	"time"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestCommandsRegistered(t *testing.T) {
	want := map[string]bool{
		"start":    false,
		"stop":     false,
		"version":  false,
		"hash-key": false,
	}
	for _, cmd := range rootCmd.Commands() {
		if _, ok := want[cmd.Name()]; ok {
			want[cmd.Name()] = true
		}
	}
	for name, found := range want {
		if !found {
			t.Errorf("%s command not registered with rootCmd", name)
		}
	}
}

func TestStartCmd_DevFlagDefault(t *testing.T) {
	dev, err := startCmd.Flags().GetBool("dev")
	if err != nil {
		t.Fatalf("failed to get dev flag: %v", err)
	}
	if dev {
		t.Error("dev flag default = true, want false")
	}
}

func TestRootCmd_ConfigFlag(t *testing.T) {
	flag := rootCmd.PersistentFlags().Lookup("config")
	if flag == nil {
		t.Fatal("config flag not registered on rootCmd")
	}
	if flag.DefValue != "" {
		t.Errorf("config default = %q, want empty (search standard paths)", flag.DefValue)
	}
}

func TestCommandDescriptions(t *testing.T) {
	for _, cmd := range []struct {
		name  string
		short string
		long  string
	}{
		{startCmd.Name(), startCmd.Short, startCmd.Long},
		{stopCmd.Name(), stopCmd.Short, stopCmd.Long},
		{versionCmd.Name(), versionCmd.Short, versionCmd.Long},
		{hashKeyCmd.Name(), hashKeyCmd.Short, hashKeyCmd.Long},
	} {
		if cmd.short == "" {
			t.Errorf("%s command missing Short description", cmd.name)
		}
		if cmd.long == "" {
			t.Errorf("%s command missing Long description", cmd.name)
		}
	}
}

func TestDurationOr(t *testing.T) {
	logger := quietLogger()

	tests := []struct {
		name  string
		value string
		def   time.Duration
		want  time.Duration
	}{
		{"empty uses default", "", time.Minute, time.Minute},
		{"valid value parsed", "30s", time.Minute, 30 * time.Second},
		{"compound value parsed", "1m30s", time.Minute, 90 * time.Second},
		{"garbage uses default", "soon", time.Minute, time.Minute},
		{"bare number uses default", "30", time.Minute, time.Minute},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := durationOr(tt.value, tt.def, "test.knob", logger); got != tt.want {
				t.Errorf("durationOr(%q) = %v, want %v", tt.value, got, tt.want)
			}
		})
	}
}

func TestParseLogLevel(t *testing.T) {
	tests := []struct {
		level string
		want  slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"DEBUG", slog.LevelDebug},
		{"info", slog.LevelInfo},
		{"warn", slog.LevelWarn},
		{"warning", slog.LevelWarn},
		{"error", slog.LevelError},
		{"", slog.LevelInfo},
		{"nonsense", slog.LevelInfo},
	}

	for _, tt := range tests {
		if got := parseLogLevel(tt.level); got != tt.want {
			t.Errorf("parseLogLevel(%q) = %v, want %v", tt.level, got, tt.want)
		}
	}
}

func TestPIDFileRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "server.pid")

	if err := writePIDFile(path); err != nil {
		t.Fatalf("writePIDFile() error: %v", err)
	}

	if got := readPIDFile(path); got != os.Getpid() {
		t.Errorf("readPIDFile() = %d, want %d", got, os.Getpid())
	}

	// The file ends with a newline so cat output stays readable.
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read PID file: %v", err)
	}
	if !strings.HasSuffix(string(data), "\n") {
		t.Errorf("PID file content %q missing trailing newline", data)
	}
	if strings.TrimSpace(string(data)) != strconv.Itoa(os.Getpid()) {
		t.Errorf("PID file content = %q, want current PID", data)
	}
}

func TestReadPIDFile_Missing(t *testing.T) {
	path := filepath.Join(t.TempDir(), "does-not-exist.pid")
	if got := readPIDFile(path); got != 0 {
		t.Errorf("readPIDFile(missing) = %d, want 0", got)
	}
}

func TestReadPIDFile_Garbage(t *testing.T) {
	path := filepath.Join(t.TempDir(), "server.pid")
	if err := os.WriteFile(path, []byte("not-a-pid\n"), 0644); err != nil {
		t.Fatalf("write file: %v", err)
	}
	if got := readPIDFile(path); got != 0 {
		t.Errorf("readPIDFile(garbage) = %d, want 0", got)
	}
}

func TestPIDFilePath(t *testing.T) {
	path := pidFilePath()
	if path == "" {
		t.Fatal("pidFilePath() returned empty path")
	}
	if filepath.Base(path) != "server.pid" && filepath.Base(path) != "admission-gate-server.pid" {
		t.Errorf("pidFilePath() = %q, want a server.pid location", path)
	}
}
