package main

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/nao1215/sismoscrape/internal/handler"
)

const testPage = `<html><body><table>
<tr><th>Fecha</th><th>Referencia</th><th>Magnitud</th></tr>
<tr><td>01/05/2024</td><td>12 km al S de Huánuco</td><td>4.1</td></tr>
<tr><td>30/04/2024</td><td>30 km al O de Lima</td><td>3.8</td></tr>
</table></body></html>`

// serve starts a server answering every request with status and body.
func serve(t *testing.T, status int, body string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.WriteHeader(status)
		_, _ = io.WriteString(w, body)
	}))
	t.Cleanup(srv.Close)
	return srv
}

// writeConfig writes a config file with the given store section body.
func writeConfig(t *testing.T, storeYAML string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), ".sismoscrape")
	content := "store:\n" + storeYAML + "log:\n  format: text\n"
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatal(err)
	}
	return path
}

// memoryConfig writes a config using the in-memory store.
func memoryConfig(t *testing.T) string {
	t.Helper()
	return writeConfig(t, "  kind: memory\n")
}

// sqliteConfig writes a config using a SQLite database in a temp dir.
func sqliteConfig(t *testing.T) string {
	t.Helper()
	return writeConfig(t, fmt.Sprintf("  kind: sqlite\n  db_dir: %q\n", t.TempDir()))
}

// execute runs the root command with args and returns its stdout.
func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	stdout, _, err := executeCapture(t, args...)
	return stdout, err
}

// executeCapture runs the root command with args and returns stdout and stderr.
func executeCapture(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	cmd := NewRootCmd()
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

func TestRunCmd(t *testing.T) {
	t.Parallel()

	t.Run("prints the response as JSON", func(t *testing.T) {
		t.Parallel()

		srv := serve(t, http.StatusOK, testPage)
		out, err := execute(t, "run", "-c", memoryConfig(t), "--url", srv.URL)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		var resp handler.Response
		if err := json.Unmarshal([]byte(out), &resp); err != nil {
			t.Fatalf("invalid output %q: %v", out, err)
		}
		if resp.StatusCode != http.StatusOK {
			t.Fatalf("expected 200, got %d", resp.StatusCode)
		}

		var rows []map[string]any
		if err := json.Unmarshal([]byte(resp.Body), &rows); err != nil {
			t.Fatalf("invalid body: %v", err)
		}
		if len(rows) != 2 {
			t.Fatalf("expected 2 rows, got %d", len(rows))
		}
		if rows[0]["Referencia"] != "12 km al S de Huánuco" {
			t.Errorf("unexpected first row: %v", rows[0])
		}
	})

	t.Run("prints markdown", func(t *testing.T) {
		t.Parallel()

		srv := serve(t, http.StatusOK, testPage)
		out, err := execute(t, "run", "-c", memoryConfig(t), "--url", srv.URL, "--markdown")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !strings.Contains(out, "# Sismos reportados") {
			t.Errorf("expected markdown heading, got:\n%s", out)
		}
		if !strings.Contains(out, "Huánuco") {
			t.Error("expected rows in markdown output")
		}
	})

	t.Run("prints text", func(t *testing.T) {
		t.Parallel()

		srv := serve(t, http.StatusOK, testPage)
		out, err := execute(t, "run", "-c", memoryConfig(t), "--url", srv.URL, "--text")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !strings.Contains(out, "SISMOS REPORTADOS") || !strings.Contains(out, "Status:   Complete") {
			t.Errorf("expected text summary, got:\n%s", out)
		}
		if !strings.Contains(out, "Referencia: 30 km al O de Lima") {
			t.Errorf("expected row fields, got:\n%s", out)
		}
	})

	t.Run("prints the run report with version", func(t *testing.T) {
		t.Parallel()

		srv := serve(t, http.StatusOK, testPage)
		out, err := execute(t, "run", "-c", memoryConfig(t), "--url", srv.URL, "--report")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		var got struct {
			Version string `json:"version"`
			Status  string `json:"status"`
			Run     struct {
				Written int `json:"written"`
			} `json:"run"`
		}
		if err := json.Unmarshal([]byte(out), &got); err != nil {
			t.Fatalf("invalid output %q: %v", out, err)
		}
		if got.Version != getVersion() {
			t.Errorf("expected version %q, got %q", getVersion(), got.Version)
		}
		if got.Status != "Complete" || got.Run.Written != 2 {
			t.Errorf("unexpected report: %+v", got)
		}
	})

	t.Run("fails on upstream error after printing", func(t *testing.T) {
		t.Parallel()

		srv := serve(t, http.StatusServiceUnavailable, "down")
		out, err := execute(t, "run", "-c", memoryConfig(t), "--url", srv.URL)
		if err == nil {
			t.Fatal("expected error")
		}
		if !strings.Contains(err.Error(), "status 503") {
			t.Errorf("unexpected error: %v", err)
		}
		if !strings.Contains(out, `"statusCode": 503`) {
			t.Errorf("expected response output, got %q", out)
		}
	})

	t.Run("writes output file", func(t *testing.T) {
		t.Parallel()

		srv := serve(t, http.StatusOK, testPage)
		outputPath := filepath.Join(t.TempDir(), "out", "run.md")

		out, summary, err := executeCapture(t, "run", "-c", memoryConfig(t), "--url", srv.URL, "-m", "-o", outputPath)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if out != "" {
			t.Errorf("expected nothing on stdout, got %q", out)
		}
		if !strings.Contains(summary, "Written:  2") {
			t.Errorf("expected summary on stderr, got %q", summary)
		}

		content, err := os.ReadFile(outputPath)
		if err != nil {
			t.Fatal(err)
		}
		if !strings.Contains(string(content), "Huánuco") {
			t.Error("expected rows in output file")
		}
	})

	t.Run("rejects invalid flags", func(t *testing.T) {
		t.Parallel()

		_, err := execute(t, "run", "-c", memoryConfig(t), "--max-rows", "0")
		if err == nil || !strings.Contains(err.Error(), "configuration error") {
			t.Errorf("expected configuration error, got %v", err)
		}
	})

	t.Run("missing explicit config file", func(t *testing.T) {
		t.Parallel()

		_, err := execute(t, "run", "-c", filepath.Join(t.TempDir(), "missing.yaml"))
		if err == nil || !strings.Contains(err.Error(), "configuration file not found") {
			t.Errorf("expected not found error, got %v", err)
		}
	})
}

func TestShowRejectsMemoryStore(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		args []string
	}{
		{name: "from config file", args: []string{"show", "-c", memoryConfig(t)}},
		{name: "from flag", args: []string{"show", "-c", sqliteConfig(t), "--store", "memory"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			out, err := execute(t, tt.args...)
			if !errors.Is(err, errShowMemoryStore) {
				t.Errorf("expected memory store error, got %v", err)
			}
			if out != "" {
				t.Errorf("expected no output, got %q", out)
			}
		})
	}
}

func TestRunThenShow(t *testing.T) {
	t.Parallel()

	srv := serve(t, http.StatusOK, testPage)
	cfgPath := sqliteConfig(t)

	if _, err := execute(t, "run", "-c", cfgPath, "--url", srv.URL); err != nil {
		t.Fatalf("run failed: %v", err)
	}

	t.Run("json", func(t *testing.T) {
		out, err := execute(t, "show", "-c", cfgPath)
		if err != nil {
			t.Fatalf("show failed: %v", err)
		}

		var rows []map[string]any
		if err := json.Unmarshal([]byte(out), &rows); err != nil {
			t.Fatalf("invalid output %q: %v", out, err)
		}
		if len(rows) != 2 {
			t.Fatalf("expected 2 rows, got %d", len(rows))
		}
		if rows[0]["#"] != float64(1) || rows[1]["#"] != float64(2) {
			t.Errorf("expected rows ordered by rank, got %v and %v", rows[0]["#"], rows[1]["#"])
		}
	})

	t.Run("markdown", func(t *testing.T) {
		out, err := execute(t, "show", "-c", cfgPath, "--markdown")
		if err != nil {
			t.Fatalf("show failed: %v", err)
		}
		if !strings.Contains(out, "# Stored rows") || !strings.Contains(out, "30 km al O de Lima") {
			t.Errorf("unexpected markdown:\n%s", out)
		}
	})

	t.Run("text", func(t *testing.T) {
		out, err := execute(t, "show", "-c", cfgPath, "--text")
		if err != nil {
			t.Fatalf("show failed: %v", err)
		}
		if !strings.Contains(out, "ROWS (2)") || !strings.Contains(out, "[2]") {
			t.Errorf("unexpected text:\n%s", out)
		}
	})

	t.Run("other table is empty", func(t *testing.T) {
		out, err := execute(t, "show", "-c", cfgPath, "--table", "Otra")
		if err != nil {
			t.Fatalf("show failed: %v", err)
		}
		if strings.TrimSpace(out) != "[]" {
			t.Errorf("expected empty array, got %q", out)
		}
	})
}

func TestBuildRunConfig(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), ".sismoscrape")
	content := "extract:\n  max_rows: 5\nstore:\n  kind: memory\n  table_name: DesdeArchivo\n"
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name      string
		args      []string
		wantRows  int
		wantTable string
		wantSkip  bool
		wantDelay time.Duration
	}{
		{
			name:      "file values apply",
			args:      []string{"-c", path},
			wantRows:  5,
			wantTable: "DesdeArchivo",
			wantSkip:  true,
		},
		{
			name:      "flags override file",
			args:      []string{"-c", path, "--max-rows", "3", "--table", "DesdeFlag", "--skip-header-row=false", "--settle-delay", "2s"},
			wantRows:  3,
			wantTable: "DesdeFlag",
			wantSkip:  false,
			wantDelay: 2 * time.Second,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			runCmd, _, err := NewRootCmd().Find([]string{"run"})
			if err != nil {
				t.Fatal(err)
			}
			if err := runCmd.ParseFlags(tt.args); err != nil {
				t.Fatal(err)
			}

			cfg, err := buildRunConfig(runCmd)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if cfg.MaxRows != tt.wantRows {
				t.Errorf("expected max rows %d, got %d", tt.wantRows, cfg.MaxRows)
			}
			if cfg.TableName != tt.wantTable {
				t.Errorf("expected table %s, got %s", tt.wantTable, cfg.TableName)
			}
			if cfg.SkipHeaderRow != tt.wantSkip {
				t.Errorf("expected skip header row %v, got %v", tt.wantSkip, cfg.SkipHeaderRow)
			}
			if cfg.SettleDelay != tt.wantDelay {
				t.Errorf("expected settle delay %s, got %s", tt.wantDelay, cfg.SettleDelay)
			}
		})
	}
}
