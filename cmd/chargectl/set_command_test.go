package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"golang.org/x/sys/unix"

	"chargectl/internal/pipe"
)

func TestBuildSetPayload(t *testing.T) {
	cases := []struct {
		name    string
		args    []string
		start   string
		end     string
		want    string
		wantErr bool
	}{
		{name: "range argument", args: []string{"70..80"}, want: "70..80"},
		{name: "both flags", start: "70", end: "80", want: "70..80"},
		{name: "start flag", start: "65", want: "start=65"},
		{name: "end flag", end: "90", want: "end=90"},
		{name: "assignment argument", args: []string{"start=55"}, want: "start=55"},
		{name: "nothing", wantErr: true},
		{name: "argument plus flag", args: []string{"70..80"}, start: "70", wantErr: true},
		{name: "out of range", args: []string{"70..300"}, wantErr: true},
		{name: "not a number", start: "abc", wantErr: true},
		{name: "unknown mode", args: []string{"bogus"}, wantErr: true},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := buildSetPayload(tc.args, tc.start, tc.end)
			if tc.wantErr {
				if err == nil {
					t.Fatalf("expected error, got payload %q", got)
				}
				return
			}
			if err != nil {
				t.Fatalf("buildSetPayload: %v", err)
			}
			if got != tc.want {
				t.Fatalf("payload = %q, want %q", got, tc.want)
			}
		})
	}
}

func TestSetCommandWritesToPipe(t *testing.T) {
	dir := t.TempDir()
	pipePath := filepath.Join(dir, "control.pipe")
	if err := unix.Mkfifo(pipePath, 0o666); err != nil {
		t.Fatalf("mkfifo: %v", err)
	}

	configPath := filepath.Join(dir, "config.toml")
	content := strings.Join([]string{
		"[paths]",
		`start_threshold = "` + filepath.Join(dir, "start") + `"`,
		`end_threshold = "` + filepath.Join(dir, "end") + `"`,
		`log_dir = "` + filepath.Join(dir, "logs") + `"`,
		"[pipe]",
		`path = "` + pipePath + `"`,
		"",
	}, "\n")
	if err := os.WriteFile(configPath, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	received := make(chan string, 1)
	go func() {
		payload, err := pipe.ReadPayload(pipePath)
		if err != nil {
			received <- "error: " + err.Error()
			return
		}
		received <- payload
	}()

	cmd := newRootCommand()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs([]string{"--config", configPath, "set", "70..80"})
	if err := cmd.Execute(); err != nil {
		t.Fatalf("set command: %v\n%s", err, out.String())
	}

	if got := <-received; got != "70..80" {
		t.Fatalf("pipe payload = %q, want %q", got, "70..80")
	}
	if !strings.Contains(out.String(), "70..80") {
		t.Fatalf("missing confirmation in output: %q", out.String())
	}
}

func TestSetCommandReportsMissingReader(t *testing.T) {
	dir := t.TempDir()
	pipePath := filepath.Join(dir, "control.pipe")
	if err := unix.Mkfifo(pipePath, 0o666); err != nil {
		t.Fatalf("mkfifo: %v", err)
	}

	configPath := filepath.Join(dir, "config.toml")
	content := strings.Join([]string{
		"[pipe]",
		`path = "` + pipePath + `"`,
		"",
	}, "\n")
	if err := os.WriteFile(configPath, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cmd := newRootCommand()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs([]string{"--config", configPath, "set", "70..80"})
	err := cmd.Execute()
	if err == nil {
		t.Fatal("expected error without a pipe reader")
	}
	if !strings.Contains(err.Error(), "daemon start") {
		t.Fatalf("error should point at daemon start: %v", err)
	}
}
