// package formatter renders cached library items as CSV, Markdown, plain text or JSON
package formatter

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"os"
	"strings"
	"time"

	"github.com/desertthunder/shelfbridge/internal/models"
)

// Format names an output format accepted by [Render].
type Format string

const (
	FormatText     Format = "text"
	FormatCSV      Format = "csv"
	FormatMarkdown Format = "markdown"
	FormatJSON     Format = "json"
)

// ParseFormat accepts a format name, case-insensitively. "md" is an alias for markdown and "" for text.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "text", "txt":
		return FormatText, nil
	case "csv":
		return FormatCSV, nil
	case "markdown", "md":
		return FormatMarkdown, nil
	case "json":
		return FormatJSON, nil
	default:
		return "", fmt.Errorf("unknown format %q (want text, csv, markdown or json)", s)
	}
}

// Render converts items to the given format.
func Render(items []*models.Item, format Format) ([]byte, error) {
	switch format {
	case FormatCSV:
		return ItemsToCSV(items)
	case FormatMarkdown:
		return ItemsToMarkdown(items)
	case FormatJSON:
		return ItemsToJSON(items)
	case FormatText, "":
		return ItemsToText(items)
	default:
		return nil, fmt.Errorf("unknown format %q", format)
	}
}

// ItemsToCSV converts items to CSV with columns: Item ID, ASIN, Title, Author, Resolved At
func ItemsToCSV(items []*models.Item) ([]byte, error) {
	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)

	headers := []string{"Item ID", "ASIN", "Title", "Author", "Resolved At"}
	if err := writer.Write(headers); err != nil {
		return nil, fmt.Errorf("failed to write CSV headers: %w", err)
	}

	for _, item := range items {
		record := []string{
			item.ItemID(),
			item.ExternalID(),
			item.Title(),
			item.Author(),
			item.ResolvedAt().UTC().Format(time.RFC3339),
		}
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

// ItemsToMarkdown converts items to a Markdown table
func ItemsToMarkdown(items []*models.Item) ([]byte, error) {
	var buf bytes.Buffer

	buf.WriteString("# Resolved Items\n\n")
	buf.WriteString(fmt.Sprintf("**Items**: %d\n\n", len(items)))

	if len(items) == 0 {
		return buf.Bytes(), nil
	}

	buf.WriteString("| # | Title | Author | ASIN | Item ID |\n")
	buf.WriteString("| --- | --- | --- | --- | --- |\n")
	for i, item := range items {
		buf.WriteString(fmt.Sprintf("| %d | %s | %s | %s | `%s` |\n",
			i+1, cell(item.Title()), cell(item.Author()), item.ExternalID(), item.ItemID()))
	}

	return buf.Bytes(), nil
}

// ItemsToText converts items to plain text, one per line
func ItemsToText(items []*models.Item) ([]byte, error) {
	var buf bytes.Buffer

	buf.WriteString(fmt.Sprintf("Items: %d\n\n", len(items)))
	for i, item := range items {
		label := item.Title()
		if label == "" {
			label = item.ItemID()
		}
		if item.Author() != "" {
			label = item.Author() + " - " + label
		}
		buf.WriteString(fmt.Sprintf("%d. %s [%s]\n", i+1, label, item.ExternalID()))
	}

	return buf.Bytes(), nil
}

type itemJSON struct {
	ItemID     string    `json:"item_id"`
	ASIN       string    `json:"asin"`
	Title      string    `json:"title,omitempty"`
	Author     string    `json:"author,omitempty"`
	ResolvedAt time.Time `json:"resolved_at"`
}

// ItemsToJSON converts items to an indented JSON array
func ItemsToJSON(items []*models.Item) ([]byte, error) {
	out := make([]itemJSON, 0, len(items))
	for _, item := range items {
		out = append(out, itemJSON{
			ItemID:     item.ItemID(),
			ASIN:       item.ExternalID(),
			Title:      item.Title(),
			Author:     item.Author(),
			ResolvedAt: item.ResolvedAt().UTC(),
		})
	}

	data, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal items: %w", err)
	}
	return append(data, '\n'), nil
}

// WriteExport renders items and writes them to path, or to w when path is empty.
func WriteExport(items []*models.Item, format Format, path string, w io.Writer) error {
	data, err := Render(items, format)
	if err != nil {
		return err
	}

	if path == "" {
		if _, err := w.Write(data); err != nil {
			return fmt.Errorf("failed to write output: %w", err)
		}
		return nil
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}

// FormatPosition renders seconds as H:MM:SS, or M:SS under an hour
func FormatPosition(seconds float64) string {
	if math.IsNaN(seconds) || seconds < 0 {
		seconds = 0
	}
	total := int(seconds)
	h, m, s := total/3600, (total%3600)/60, total%60
	if h > 0 {
		return fmt.Sprintf("%d:%02d:%02d", h, m, s)
	}
	return fmt.Sprintf("%d:%02d", m, s)
}

func cell(s string) string {
	return strings.ReplaceAll(s, "|", `\|`)
}
