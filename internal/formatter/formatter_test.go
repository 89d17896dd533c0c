package formatter

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/desertthunder/checklists/internal/models"
	"github.com/desertthunder/checklists/internal/shared"
)

func testChecklist() *models.Checklist {
	return &models.Checklist{
		ID:        "01jchecklist",
		Title:     "Groceries",
		UserID:    "u1",
		CreatedAt: time.Date(2026, 3, 4, 5, 6, 7, 0, time.UTC),
		Items: []models.Item{
			{ID: "01jitem1", Content: "Milk", Completed: true, ChecklistID: "01jchecklist"},
			{ID: "01jitem2", Content: "Eggs, large", Completed: false, ChecklistID: "01jchecklist"},
		},
	}
}

func TestExporters(t *testing.T) {
	t.Run("ExportToCSV", func(t *testing.T) {
		data, err := ExportToCSV(testChecklist())
		if err != nil {
			t.Fatalf("ExportToCSV failed: %v", err)
		}

		output := string(data)

		if !strings.HasPrefix(output, "ID,Content,Completed\n") {
			t.Errorf("CSV missing headers, got: %s", output)
		}
		if !strings.Contains(output, "01jitem1,Milk,true") {
			t.Errorf("CSV missing first item, got: %s", output)
		}
		if !strings.Contains(output, `01jitem2,"Eggs, large",false`) {
			t.Errorf("CSV should quote content with commas, got: %s", output)
		}
	})

	t.Run("ExportToMarkdown", func(t *testing.T) {
		data, err := ExportToMarkdown(testChecklist())
		if err != nil {
			t.Fatalf("ExportToMarkdown failed: %v", err)
		}

		output := string(data)

		for _, want := range []string{
			"# Groceries\n",
			"**Created**: 2026-03-04T05:06:07.000Z",
			"**Progress**: 1/2",
			"- [x] Milk\n",
			"- [ ] Eggs, large\n",
		} {
			if !strings.Contains(output, want) {
				t.Errorf("Markdown missing %q, got: %s", want, output)
			}
		}
	})

	t.Run("ExportToText", func(t *testing.T) {
		data, err := ExportToText(testChecklist())
		if err != nil {
			t.Fatalf("ExportToText failed: %v", err)
		}

		output := string(data)

		if !strings.Contains(output, "Checklist: Groceries") {
			t.Errorf("text missing title, got: %s", output)
		}
		if !strings.Contains(output, "Items: 2 (1 completed)") {
			t.Errorf("text missing counts, got: %s", output)
		}
		if !strings.Contains(output, "1. [x] Milk") || !strings.Contains(output, "2. [ ] Eggs, large") {
			t.Errorf("text missing items, got: %s", output)
		}
	})

	t.Run("Export JSON", func(t *testing.T) {
		data, err := Export(testChecklist(), FormatJSON)
		if err != nil {
			t.Fatalf("Export failed: %v", err)
		}

		var decoded map[string]any
		if err := json.Unmarshal(data, &decoded); err != nil {
			t.Fatalf("invalid JSON: %v", err)
		}
		if decoded["title"] != "Groceries" {
			t.Errorf("expected title Groceries, got %v", decoded["title"])
		}
		if items, ok := decoded["items"].([]any); !ok || len(items) != 2 {
			t.Errorf("expected 2 items, got %v", decoded["items"])
		}
	})

	t.Run("Empty checklist", func(t *testing.T) {
		c := &models.Checklist{ID: "c", Title: "Empty"}
		for _, f := range Formats {
			if _, err := Export(c, f); err != nil {
				t.Errorf("%s export of empty checklist failed: %v", f, err)
			}
		}
	})
}

func TestParseFormat(t *testing.T) {
	tt := []struct {
		in      string
		want    Format
		wantErr bool
	}{
		{in: "", want: FormatJSON},
		{in: "JSON", want: FormatJSON},
		{in: "csv", want: FormatCSV},
		{in: "md", want: FormatMarkdown},
		{in: "markdown", want: FormatMarkdown},
		{in: "text", want: FormatText},
		{in: "txt", want: FormatText},
		{in: "xml", wantErr: true},
	}

	for _, tc := range tt {
		t.Run(tc.in, func(t *testing.T) {
			got, err := ParseFormat(tc.in)
			if (err != nil) != tc.wantErr {
				t.Fatalf("ParseFormat(%q) error = %v, wantErr %v", tc.in, err, tc.wantErr)
			}
			if tc.wantErr && !errors.Is(err, shared.ErrInvalidArgument) {
				t.Errorf("expected ErrInvalidArgument, got %v", err)
			}
			if got != tc.want {
				t.Errorf("ParseFormat(%q) = %q, want %q", tc.in, got, tc.want)
			}
		})
	}
}

func TestWriteExport(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested")

	path, err := WriteExport(testChecklist(), FormatMarkdown, dir)
	if err != nil {
		t.Fatalf("WriteExport failed: %v", err)
	}

	if path != filepath.Join(dir, "01jchecklist.md") {
		t.Errorf("unexpected path %s", path)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("failed to read export: %v", err)
	}
	if !strings.Contains(string(data), "- [x] Milk") {
		t.Errorf("unexpected file contents: %s", data)
	}
}
