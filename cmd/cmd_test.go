package cmd

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/spf13/cobra"

	"ram/internal/domain/ram"
)

func TestTestRunSearchFlags(t *testing.T) {
	t.Parallel()

	cmd := &cobra.Command{Use: "search"}
	addTestRunSearchFlags(cmd)
	if err := cmd.ParseFlags([]string{
		"--execution-request", "er-1,er-2",
		"--name", "login",
		"--status", "failed,warning",
		"--has-root-cause=false",
		"--started-from", "2026-04-01T09:00:00Z",
		"--sort", "-start_date",
	}); err != nil {
		t.Fatalf("ParseFlags() error = %v", err)
	}

	search, err := testRunSearchFromFlags(cmd)
	if err != nil {
		t.Fatalf("testRunSearchFromFlags() error = %v", err)
	}
	if len(search.ExecutionRequestIDs) != 2 || search.NameContains != "login" {
		t.Fatalf("search = %+v", search)
	}
	if len(search.TestingStatuses) != 2 || search.TestingStatuses[0] != ram.TestingStatusFailed {
		t.Fatalf("statuses = %v", search.TestingStatuses)
	}
	if search.HasRootCause == nil || *search.HasRootCause {
		t.Fatalf("has root cause = %v, want explicit false", search.HasRootCause)
	}
	want := time.Date(2026, 4, 1, 9, 0, 0, 0, time.UTC)
	if search.Started.From == nil || !search.Started.From.Equal(want) || search.Started.To != nil {
		t.Fatalf("started = %+v", search.Started)
	}

	sorts, err := sortsFromFlags(cmd)
	if err != nil {
		t.Fatalf("sortsFromFlags() error = %v", err)
	}
	if len(sorts) != 1 || !sorts[0].Desc || sorts[0].Key != "start_date" {
		t.Fatalf("sorts = %+v", sorts)
	}
}

func TestTestRunSearchFlagsRejectUnknownStatus(t *testing.T) {
	t.Parallel()

	cmd := &cobra.Command{Use: "search"}
	addTestRunSearchFlags(cmd)
	if err := cmd.ParseFlags([]string{"--status", "green"}); err != nil {
		t.Fatalf("ParseFlags() error = %v", err)
	}
	if _, err := testRunSearchFromFlags(cmd); err == nil {
		t.Fatalf("testRunSearchFromFlags() error = nil, want invalid status")
	}
}

const cliFixture = `
execution_requests:
  - id: er-1
    name: nightly
    test_runs:
      - id: tr-1
        name: login
        testing_status: FAILED
        records:
          - id: lr-1
            name: scenario
            type: COMPOUND
            testing_status: FAILED
            children:
              - id: lr-2
                name: submit
                type: REST
                testing_status: FAILED
                message: connection refused
`

func TestIngestThenQueryThroughCLI(t *testing.T) {
	dir := t.TempDir()
	configPath := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(configPath, []byte("database:\n  dsn: "+filepath.Join(dir, "ram.db")+"\n"), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	fixturePath := filepath.Join(dir, "fixture.yaml")
	if err := os.WriteFile(fixturePath, []byte(cliFixture), 0o644); err != nil {
		t.Fatalf("write fixture: %v", err)
	}

	run := func(args ...string) string {
		t.Helper()
		var out bytes.Buffer
		rootCmd.SetOut(&out)
		rootCmd.SetArgs(append([]string{"--config", configPath}, args...))
		if err := rootCmd.ExecuteContext(context.Background()); err != nil {
			t.Fatalf("%v error = %v", args, err)
		}
		return out.String()
	}

	run("init-db")
	if out := run("ingest", "--file", fixturePath); !strings.Contains(out, "log records") {
		t.Fatalf("ingest output = %q", out)
	}
	out := run("records", "failure-reason", "--test-run", "tr-1")
	if !strings.Contains(out, "lr-2") || !strings.Contains(out, "connection refused") {
		t.Fatalf("failure-reason output = %q", out)
	}
	out = run("records", "is-top-level", "--id", "lr-2")
	if !strings.Contains(out, "lr-2 top-level: true") {
		t.Fatalf("is-top-level output = %q", out)
	}
}

func TestWatchFixtureReloadsOnWrite(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "fixture.yaml")
	if err := os.WriteFile(path, []byte("execution_requests: []\n"), 0o644); err != nil {
		t.Fatalf("write fixture: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	reloads := make(chan struct{}, 8)
	done := make(chan error, 1)
	go func() {
		done <- watchFixture(ctx, path, func(context.Context) error {
			select {
			case reloads <- struct{}{}:
			default:
			}
			return nil
		})
	}()

	deadline := time.After(5 * time.Second)
	tick := time.NewTicker(100 * time.Millisecond)
	defer tick.Stop()
	for reloaded := false; !reloaded; {
		select {
		case <-reloads:
			reloaded = true
		case <-tick.C:
			if err := os.WriteFile(path, []byte("root_causes: []\n"), 0o644); err != nil {
				t.Fatalf("rewrite fixture: %v", err)
			}
		case <-deadline:
			t.Fatalf("watchFixture() did not reload within 5s")
		}
	}

	cancel()
	if err := <-done; err != nil {
		t.Fatalf("watchFixture() error = %v", err)
	}
}
