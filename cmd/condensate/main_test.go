package main

import (
	"bytes"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

const sheetCSV = `date,boiler,pct_condensate,target_pct
01/01/2024,B1,0.80,0.75
02/01/2024,B2,0.70,0.75
03/01/2024,B1,90%,75%
`

// writeSetup starts a sheet server and writes a config pointing at it.
func writeSetup(t *testing.T) string {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, sheetCSV)
	}))
	t.Cleanup(srv.Close)

	path := filepath.Join(t.TempDir(), "config.yaml")
	content := fmt.Sprintf("source:\n  url: %q\n", srv.URL)
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return out.String(), err
}

func TestSummaryCommand(t *testing.T) {
	cfg := writeSetup(t)
	out, err := run(t, "--config", cfg, "--log-level", "error", "summary", "--boiler", "B1")
	if err != nil {
		t.Fatalf("summary: %v\n%s", err, out)
	}
	for _, want := range []string{
		"Range:          2024-01-01 .. 2024-01-03",
		"Rows:           2 of 3",
		"Avg condensate: 85.0%",
		"Below target:   0",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

func TestExportCommand(t *testing.T) {
	cfg := writeSetup(t)
	dest := filepath.Join(t.TempDir(), "out.csv")

	if out, err := run(t, "--config", cfg, "--log-level", "error", "export", "--status", "Below Target", "--out", dest); err != nil {
		t.Fatalf("export: %v\n%s", err, out)
	}
	got, err := os.ReadFile(dest)
	if err != nil {
		t.Fatalf("read export: %v", err)
	}
	want := "date,boiler,pct_condensate,target_pct,status\n2024-01-02,B2,0.7,0.75,Below Target\n"
	if string(got) != want {
		t.Errorf("export:\n got %q\nwant %q", got, want)
	}
}

func TestSetupLogging_RejectsUnknownLevel(t *testing.T) {
	if err := setupLogging("loud"); err == nil {
		t.Error("setupLogging(loud): want error")
	}
	if err := setupLogging("debug"); err != nil {
		t.Errorf("setupLogging(debug): %v", err)
	}
}
