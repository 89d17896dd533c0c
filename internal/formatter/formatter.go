// package formatter provides functions to export checklist data to various formats (JSON, CSV, Markdown, plain text)
package formatter

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/desertthunder/checklists/internal/models"
	"github.com/desertthunder/checklists/internal/shared"
)

// Format names an export format.
type Format string

const (
	FormatJSON     Format = "json"
	FormatCSV      Format = "csv"
	FormatMarkdown Format = "markdown"
	FormatText     Format = "txt"
)

// Formats lists the supported export formats.
var Formats = []Format{FormatJSON, FormatCSV, FormatMarkdown, FormatText}

// ParseFormat resolves a user supplied format name. "md" and "text" are accepted as aliases.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "json":
		return FormatJSON, nil
	case "csv":
		return FormatCSV, nil
	case "markdown", "md":
		return FormatMarkdown, nil
	case "txt", "text":
		return FormatText, nil
	default:
		return "", fmt.Errorf("%w: unknown format %q", shared.ErrInvalidArgument, s)
	}
}

// Extension returns the file extension written for f.
func (f Format) Extension() string {
	switch f {
	case FormatMarkdown:
		return "md"
	case FormatText:
		return "txt"
	case FormatCSV:
		return "csv"
	default:
		return "json"
	}
}

// Export renders a checklist in the given format.
func Export(c *models.Checklist, f Format) ([]byte, error) {
	switch f {
	case FormatCSV:
		return ExportToCSV(c)
	case FormatMarkdown:
		return ExportToMarkdown(c)
	case FormatText:
		return ExportToText(c)
	case FormatJSON:
		return MarshalJSON(c, true)
	default:
		return nil, fmt.Errorf("%w: unknown format %q", shared.ErrInvalidArgument, f)
	}
}

// ExportToCSV converts a Checklist to CSV format with columns: ID, Content, Completed
func ExportToCSV(c *models.Checklist) ([]byte, error) {
	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)

	headers := []string{"ID", "Content", "Completed"}
	if err := writer.Write(headers); err != nil {
		return nil, fmt.Errorf("failed to write CSV headers: %w", err)
	}

	for _, item := range c.Items {
		record := []string{item.ID, item.Content, strconv.FormatBool(item.Completed)}
		if err := writer.Write(record); err != nil {
			return nil, fmt.Errorf("failed to write CSV record: %w", err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, fmt.Errorf("CSV writer error: %w", err)
	}

	return buf.Bytes(), nil
}

// ExportToMarkdown converts a Checklist to a Markdown task list
func ExportToMarkdown(c *models.Checklist) ([]byte, error) {
	var buf bytes.Buffer

	buf.WriteString(fmt.Sprintf("# %s\n\n", c.Title))
	buf.WriteString(fmt.Sprintf("**Created**: %s\n", models.FormatTimestamp(c.CreatedAt)))
	buf.WriteString(fmt.Sprintf("**Progress**: %d/%d\n\n", c.Completed(), len(c.Items)))

	for _, item := range c.Items {
		buf.WriteString(fmt.Sprintf("- [%s] %s\n", mark(item.Completed, "x"), item.Content))
	}

	return buf.Bytes(), nil
}

// ExportToText converts a Checklist to plain text format
func ExportToText(c *models.Checklist) ([]byte, error) {
	var buf bytes.Buffer

	buf.WriteString(fmt.Sprintf("Checklist: %s\n", c.Title))
	buf.WriteString(fmt.Sprintf("Items: %d (%d completed)\n\n", len(c.Items), c.Completed()))

	for i, item := range c.Items {
		buf.WriteString(fmt.Sprintf("%d. [%s] %s\n", i+1, mark(item.Completed, "x"), item.Content))
	}

	return buf.Bytes(), nil
}

// MarshalJSON encodes v, indenting with two spaces when pretty is set.
func MarshalJSON(v any, pretty bool) ([]byte, error) {
	if pretty {
		return json.MarshalIndent(v, "", "  ")
	}
	return json.Marshal(v)
}

// WriteExport writes a checklist to {dir}/{checklist.ID}.{ext} and returns the file path.
func WriteExport(c *models.Checklist, f Format, dir string) (string, error) {
	data, err := Export(c, f)
	if err != nil {
		return "", fmt.Errorf("failed to generate %s: %w", f, err)
	}

	if dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return "", fmt.Errorf("failed to create directory: %w", err)
		}
	}

	path := filepath.Join(dir, c.ID+"."+f.Extension())
	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", fmt.Errorf("failed to write %s file: %w", f, err)
	}

	return path, nil
}

func mark(ok bool, s string) string {
	if ok {
		return s
	}
	return " "
}
