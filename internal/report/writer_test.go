package report

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/nao1215/sismoscrape/internal/model"
)

// createTestRows creates two enriched rows with Spanish text.
func createTestRows() model.ResultSet {
	first := model.NewRow()
	first.Set("Referencia", "12 km al S de Huánuco")
	first.Set("Magnitud", "4.1")
	first.Set(model.FieldRank, 1)
	first.Set(model.FieldID, "id-1")

	second := model.NewRow()
	second.Set("Referencia", "30 km al O de <Lima>")
	second.Set("Magnitud", "3.8")
	second.Set(model.FieldRank, 2)
	second.Set(model.FieldID, "id-2")

	return model.ResultSet{first, second}
}

// createTestRun creates a finished successful run.
func createTestRun() *model.Run {
	start := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	run := model.NewRun("https://ultimosismo.igp.gob.pe/ultimo-sismo/sismos-reportados", "TablaWebScrapping", start)
	run.Rows = createTestRows()
	run.Deleted = 3
	run.Written = 2
	run.PerformedSteps = []string{"fetch", "extract", "store"}
	run.Document = &model.Document{URL: run.SourceURL, StatusCode: 200, Hash: "abc123"}
	run.Finish(start.Add(1500 * time.Millisecond))
	return run
}

func TestSimpleWriter(t *testing.T) {
	t.Parallel()

	t.Run("writes run header", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		w := NewSimpleWriter(&buf)

		if _, err := w.Write(createTestRun()); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		output := buf.String()
		for _, want := range []string{"SISMOS REPORTADOS", "TablaWebScrapping", "Deleted:  3", "Written:  2", "Status:   Complete", "1.5s"} {
			if !strings.Contains(output, want) {
				t.Errorf("expected output to contain %q", want)
			}
		}
	})

	t.Run("writes rows without rank key", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		w := NewSimpleWriter(&buf)

		if _, err := w.Write(createTestRun()); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		output := buf.String()
		if !strings.Contains(output, "ROWS (2)") {
			t.Error("expected row count")
		}
		if !strings.Contains(output, "[2]\n  Referencia: 30 km al O de <Lima>") {
			t.Errorf("expected second row block, got:\n%s", output)
		}
		if strings.Contains(output, "  #:") {
			t.Error("rank should not be listed as a field")
		}
	})

	t.Run("verbose shows steps and digest", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		w := NewSimpleWriter(&buf, WithVerbose(true))

		if _, err := w.Write(createTestRun()); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		output := buf.String()
		if !strings.Contains(output, "Steps:    fetch, extract, store") {
			t.Error("expected performed steps")
		}
		if !strings.Contains(output, "Digest:   abc123") {
			t.Error("expected document digest")
		}
	})

	t.Run("non-verbose hides steps", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		w := NewSimpleWriter(&buf)

		if _, err := w.Write(createTestRun()); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if strings.Contains(buf.String(), "Steps:") {
			t.Error("did not expect steps in non-verbose output")
		}
	})
}

func TestSimpleWriterWithError(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	w := NewSimpleWriter(&buf)
	run := createTestRun()
	run.Err = errors.New("boom")
	run.ErrorMessage = "No se encontró la tabla"

	if _, err := w.Write(run); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(buf.String(), "Status:   Error - No se encontró la tabla") {
		t.Errorf("expected error status, got:\n%s", buf.String())
	}
}

func TestSimpleWriterWriteRows(t *testing.T) {
	t.Parallel()

	t.Run("empty", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		if _, err := NewSimpleWriter(&buf).WriteRows(nil); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !strings.Contains(buf.String(), "No rows") {
			t.Error("expected empty marker")
		}
	})

	t.Run("falls back to position for unranked rows", func(t *testing.T) {
		t.Parallel()

		row := model.NewRow()
		row.Set("Fecha", "01/05/2024")

		var buf bytes.Buffer
		if _, err := NewSimpleWriter(&buf).WriteRows(model.ResultSet{row}); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !strings.Contains(buf.String(), "[1]\n  Fecha: 01/05/2024") {
			t.Errorf("unexpected output:\n%s", buf.String())
		}
	})
}

func TestJSONWriter(t *testing.T) {
	t.Parallel()

	t.Run("writes rows as array", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		w := NewJSONWriter(&buf)

		if _, err := w.WriteRows(createTestRows()); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		var decoded []map[string]any
		if err := json.Unmarshal(buf.Bytes(), &decoded); err != nil {
			t.Fatalf("invalid JSON: %v", err)
		}
		if len(decoded) != 2 {
			t.Fatalf("expected 2 rows, got %d", len(decoded))
		}
		if decoded[0]["id"] != "id-1" {
			t.Errorf("unexpected id: %v", decoded[0]["id"])
		}
	})

	t.Run("keeps characters literal", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		if _, err := NewJSONWriter(&buf).WriteRows(createTestRows()); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		output := buf.String()
		if !strings.Contains(output, "Huánuco") {
			t.Error("expected literal accented characters")
		}
		if !strings.Contains(output, "<Lima>") {
			t.Errorf("expected unescaped angle brackets, got %s", output)
		}
	})

	t.Run("empty rows encode as empty array", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		if _, err := NewJSONWriter(&buf).WriteRows(nil); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if got := strings.TrimSpace(buf.String()); got != "[]" {
			t.Errorf("expected [], got %q", got)
		}
	})

	t.Run("compact output is one line", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		if _, err := NewJSONWriter(&buf).WriteRows(createTestRows()); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if strings.Count(buf.String(), "\n") != 1 {
			t.Errorf("expected single line, got %q", buf.String())
		}
	})

	t.Run("pretty print indents", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		if _, err := NewJSONWriter(&buf, WithPrettyPrint()).WriteRows(createTestRows()); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !strings.Contains(buf.String(), "\n  {") {
			t.Errorf("expected indented output, got %s", buf.String())
		}
	})
}

func TestJSONWriterRun(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	w := NewJSONWriter(&buf, WithVersion("v1.2.3"))

	if _, err := w.Write(createTestRun()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var decoded struct {
		Version    string `json:"version"`
		Status     string `json:"status"`
		DurationMS int64  `json:"duration_ms"`
		Run        struct {
			TableName string           `json:"table_name"`
			Deleted   int              `json:"deleted"`
			Written   int              `json:"written"`
			Rows      []map[string]any `json:"rows"`
		} `json:"run"`
	}
	if err := json.Unmarshal(buf.Bytes(), &decoded); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}

	if decoded.Version != "v1.2.3" {
		t.Errorf("expected version v1.2.3, got %s", decoded.Version)
	}
	if decoded.Status != "Complete" {
		t.Errorf("expected Complete, got %s", decoded.Status)
	}
	if decoded.DurationMS != 1500 {
		t.Errorf("expected 1500ms, got %d", decoded.DurationMS)
	}
	if decoded.Run.TableName != "TablaWebScrapping" || decoded.Run.Deleted != 3 || decoded.Run.Written != 2 {
		t.Errorf("unexpected run fields: %+v", decoded.Run)
	}
	if len(decoded.Run.Rows) != 2 {
		t.Errorf("expected 2 rows, got %d", len(decoded.Run.Rows))
	}
}

func TestWithIndent(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	w := NewJSONWriter(&buf, WithIndent(">", "\t"))
	if _, err := w.Encode(map[string]int{"a": 1}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := buf.String(); got != "{\n>\t\"a\": 1\n>}\n" {
		t.Errorf("unexpected output %q", got)
	}
}

func TestMarshal(t *testing.T) {
	t.Parallel()

	data, err := Marshal(map[string]string{"error": "No se encontró la tabla <table>"}, "", "", false)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := string(data); got != `{"error":"No se encontró la tabla <table>"}` {
		t.Errorf("unexpected output %s", got)
	}
}

func TestMultiWriter(t *testing.T) {
	t.Parallel()

	t.Run("writes run to all", func(t *testing.T) {
		t.Parallel()

		var buf1, buf2 bytes.Buffer
		mw := NewMultiWriter(NewSimpleWriter(&buf1), NewJSONWriter(&buf2))

		n, err := mw.Write(createTestRun())
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if n != buf1.Len()+buf2.Len() {
			t.Errorf("expected total %d, got %d", buf1.Len()+buf2.Len(), n)
		}
		if buf1.Len() == 0 || buf2.Len() == 0 {
			t.Error("expected both writers to receive output")
		}
	})

	t.Run("writes rows to all", func(t *testing.T) {
		t.Parallel()

		var buf1, buf2 bytes.Buffer
		mw := NewMultiWriter(NewMarkdownWriter(&buf1), NewJSONWriter(&buf2))

		if _, err := mw.WriteRows(createTestRows()); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !strings.Contains(buf1.String(), "Huánuco") || !strings.Contains(buf2.String(), "Huánuco") {
			t.Error("expected rows in both outputs")
		}
	})

	t.Run("stops on first error", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		mw := NewMultiWriter(NewSimpleWriter(failingWriter{}), NewSimpleWriter(&buf))

		if _, err := mw.Write(createTestRun()); err == nil {
			t.Fatal("expected error")
		}
		if buf.Len() != 0 {
			t.Error("second writer should not run after a failure")
		}
	})
}

// failingWriter always fails.
type failingWriter struct{}

func (failingWriter) Write([]byte) (int, error) {
	return 0, errors.New("disk full")
}

func TestMarkdownWriter(t *testing.T) {
	t.Parallel()

	t.Run("writes run tables", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		if _, err := NewMarkdownWriter(&buf).Write(createTestRun()); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		output := buf.String()
		for _, want := range []string{
			"# Sismos reportados",
			"`TablaWebScrapping`",
			"## Rows",
			"Referencia",
			"Magnitud",
			"12 km al S de Huánuco",
			"[!TIP]",
			"IGP - Instituto Geofísico del Perú",
		} {
			if !strings.Contains(output, want) {
				t.Errorf("expected output to contain %q", want)
			}
		}
	})

	t.Run("warns on empty result", func(t *testing.T) {
		t.Parallel()

		run := createTestRun()
		run.Rows = model.ResultSet{}

		var buf bytes.Buffer
		if _, err := NewMarkdownWriter(&buf).Write(run); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		output := buf.String()
		if !strings.Contains(output, "[!WARNING]") {
			t.Error("expected warning alert")
		}
		if !strings.Contains(output, "No rows.") {
			t.Error("expected empty rows marker")
		}
	})

	t.Run("cautions on error", func(t *testing.T) {
		t.Parallel()

		run := createTestRun()
		run.ErrorMessage = "No se encontró la tabla"

		var buf bytes.Buffer
		if _, err := NewMarkdownWriter(&buf).Write(run); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		output := buf.String()
		if !strings.Contains(output, "[!CAUTION]") {
			t.Error("expected caution alert")
		}
		if !strings.Contains(output, "Error - No se encontró la tabla") {
			t.Error("expected error status")
		}
	})

	t.Run("rows only", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		if _, err := NewMarkdownWriter(&buf).WriteRows(createTestRows()); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		output := buf.String()
		if !strings.Contains(output, "# Stored rows") {
			t.Error("expected heading")
		}
		if !strings.Contains(output, "id-2") {
			t.Error("expected id column values")
		}
	})

	t.Run("missing cells render as dash", func(t *testing.T) {
		t.Parallel()

		a := model.NewRow()
		a.Set("Fecha", "01/05/2024")
		b := model.NewRow()
		b.Set("Hora", "10:00")

		var buf bytes.Buffer
		if _, err := NewMarkdownWriter(&buf).WriteRows(model.ResultSet{a, b}); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !strings.Contains(buf.String(), "-") {
			t.Error("expected dash placeholder")
		}
	})
}

func TestStatusText(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		run  *model.Run
		want string
	}{
		{name: "complete", run: &model.Run{}, want: "Complete"},
		{name: "message wins", run: &model.Run{Err: errors.New("raw"), ErrorMessage: "friendly"}, want: "Error - friendly"},
		{name: "raw error", run: &model.Run{Err: errors.New("raw")}, want: "Error - raw"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := statusText(tt.run); got != tt.want {
				t.Errorf("statusText() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestTruncateString(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		input  string
		maxLen int
		want   string
	}{
		{name: "short string unchanged", input: "hello", maxLen: 10, want: "hello"},
		{name: "exact length unchanged", input: "hello", maxLen: 5, want: "hello"},
		{name: "long string truncated", input: "hello world", maxLen: 8, want: "hello..."},
		{name: "very short max", input: "hello", maxLen: 3, want: "hel"},
		{name: "multibyte counted as runes", input: "Huánuco", maxLen: 7, want: "Huánuco"},
		{name: "multibyte truncated safely", input: "ñññññññ", maxLen: 5, want: "ññ..."},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := truncateString(tt.input, tt.maxLen); got != tt.want {
				t.Errorf("truncateString(%q, %d) = %q, want %q", tt.input, tt.maxLen, got, tt.want)
			}
		})
	}
}
