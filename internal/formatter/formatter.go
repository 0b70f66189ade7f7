// package formatter exports queue history to various formats (CSV, Markdown, plain text)
package formatter

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"strconv"

	"github.com/desertthunder/cliptune/internal/queue"
)

// ExportToCSV converts queue items to CSV format with columns: ID, Status, Artist, Title, Album, Year, Confidence, URL, File, Updated
func ExportToCSV(items []*queue.Item) ([]byte, error) {
	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)

	headers := []string{"ID", "Status", "Artist", "Title", "Album", "Year", "Confidence", "URL", "File", "Updated"}
	if err := writer.Write(headers); err != nil {
		return nil, fmt.Errorf("failed to write CSV headers: %w", err)
	}

	for _, item := range items {
		confidence := ""
		if item.Confidence > 0 {
			confidence = strconv.FormatFloat(item.Confidence, 'f', 2, 64)
		}
		record := []string{
			item.ID,
			string(item.Status),
			item.Artist,
			item.Title,
			item.Album,
			item.Year,
			confidence,
			item.URL,
			item.File,
			item.UpdatedAt.UTC().Format("2006-01-02 15:04:05"),
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

// statusGlyph marks an item's state in text exports.
func statusGlyph(status queue.Status) string {
	switch status {
	case queue.StatusCompleted:
		return "✓"
	case queue.StatusSkipped:
		return "≡"
	case queue.StatusExhausted:
		return "?"
	case queue.StatusFailed:
		return "✗"
	default:
		return "…"
	}
}

// ExportToMarkdown converts queue items to a Markdown listing under the given title
func ExportToMarkdown(items []*queue.Item, title string) ([]byte, error) {
	var buf bytes.Buffer

	buf.WriteString(fmt.Sprintf("# %s\n\n", title))
	buf.WriteString(fmt.Sprintf("**Items**: %d\n\n", len(items)))

	for i, item := range items {
		line := fmt.Sprintf("%d. %s %s", i+1, statusGlyph(item.Status), item.Display())
		if item.Confidence > 0 {
			line += fmt.Sprintf(" | confidence %.2f", item.Confidence)
		}
		if item.URL != "" {
			line += fmt.Sprintf(" | [source](%s)", item.URL)
		}
		buf.WriteString(line + "\n")
	}

	return buf.Bytes(), nil
}

// ExportToText converts queue items to plain text format
func ExportToText(items []*queue.Item) ([]byte, error) {
	var buf bytes.Buffer

	buf.WriteString(fmt.Sprintf("Queue: %d items\n\n", len(items)))

	for i, item := range items {
		buf.WriteString(fmt.Sprintf("%d. [%s] %s\n", i+1, item.Status, item.Display()))
		if item.Error != "" {
			buf.WriteString(fmt.Sprintf("   error: %s\n", item.Error))
		}
	}

	return buf.Bytes(), nil
}
