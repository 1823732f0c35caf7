package main

import (
	"bytes"
	"io"
	"log"
	"os"
	"strings"
	"testing"

	"github.com/a3tai/mcp-pdf-annots/internal/config"
)

const testVersion = "1.2.3"

func captureStdout(t *testing.T, fn func()) string {
	t.Helper()

	originalStdout := os.Stdout
	r, w, err := os.Pipe()
	if err != nil {
		t.Fatalf("Failed to create pipe: %v", err)
	}
	os.Stdout = w
	defer func() { os.Stdout = originalStdout }()

	done := make(chan struct{})
	go func() {
		defer close(done)
		fn()
		w.Close()
	}()

	var buf bytes.Buffer
	io.Copy(&buf, r)
	<-done
	return buf.String()
}

func TestPrintVersion(t *testing.T) {
	oldVersion, oldBuildTime, oldGitCommit := version, buildTime, gitCommit
	version = testVersion
	buildTime = "2023-12-01_10:30:00"
	gitCommit = "abc123"
	defer func() {
		version, buildTime, gitCommit = oldVersion, oldBuildTime, oldGitCommit
	}()

	output := captureStdout(t, printVersion)

	expectedStrings := []string{
		"MCP PDF Annots",
		"Version: " + testVersion,
		"Build Time: 2023-12-01_10:30:00",
		"Git Commit: abc123",
		"Built with:",
	}
	for _, expected := range expectedStrings {
		if !strings.Contains(output, expected) {
			t.Errorf("printVersion() output missing expected string: %s\nActual output:\n%s", expected, output)
		}
	}
}

func TestSetupLogging(t *testing.T) {
	originalOutput := log.Writer()
	originalFlags := log.Flags()
	defer func() {
		log.SetOutput(originalOutput)
		log.SetFlags(originalFlags)
	}()

	tests := []struct {
		name       string
		config     *config.Config
		wantOutput io.Writer
		wantFlags  int
	}{
		{
			name:       "stdio mode - debug enabled",
			config:     &config.Config{Mode: config.ModeStdio, LogLevel: "debug"},
			wantOutput: os.Stderr,
			wantFlags:  log.LstdFlags,
		},
		{
			name:       "stdio mode - debug disabled",
			config:     &config.Config{Mode: config.ModeStdio, LogLevel: "info"},
			wantOutput: io.Discard,
			wantFlags:  log.LstdFlags,
		},
		{
			name:       "server mode",
			config:     &config.Config{Mode: config.ModeServer, LogLevel: "info"},
			wantOutput: os.Stderr,
			wantFlags:  log.LstdFlags | log.Lshortfile,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			log.SetFlags(log.LstdFlags)
			setupLogging(tt.config)

			if log.Writer() != tt.wantOutput {
				t.Errorf("setupLogging() output = %v, want %v", log.Writer(), tt.wantOutput)
			}
			if log.Flags() != tt.wantFlags {
				t.Errorf("setupLogging() flags = %d, want %d", log.Flags(), tt.wantFlags)
			}
		})
	}
}

func TestNewService(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.PDFDirectory = t.TempDir()
	cfg.ColumnsPerPage = 2

	svc, err := newService(cfg)
	if err != nil {
		t.Fatalf("newService() error = %v", err)
	}
	if svc.GetMaxFileSize() != cfg.MaxFileSize {
		t.Errorf("GetMaxFileSize() = %d, want %d", svc.GetMaxFileSize(), cfg.MaxFileSize)
	}
}
