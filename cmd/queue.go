package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/desertthunder/cliptune/internal/classify"
	"github.com/desertthunder/cliptune/internal/formatter"
	"github.com/desertthunder/cliptune/internal/queue"
	"github.com/desertthunder/cliptune/internal/shared"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/urfave/cli/v3"
)

// statusOrder fixes the row order of the status table; map iteration would
// shuffle it per run.
var statusOrder = []queue.Status{
	queue.StatusPending,
	queue.StatusInProgress,
	queue.StatusCompleted,
	queue.StatusSkipped,
	queue.StatusExhausted,
	queue.StatusFailed,
}

// QueueStatus prints item counts per status.
func (r *Runner) QueueStatus(ctx context.Context, cmd *cli.Command) error {
	config := r.reloadConfig(cmd)
	store, db, err := r.openStore(config)
	if err != nil {
		return err
	}
	defer db.Close()

	counts, err := store.Counts()
	if err != nil {
		return err
	}

	rows := make([][]string, 0, len(statusOrder))
	total := 0
	for _, status := range statusOrder {
		rows = append(rows, []string{string(status), fmt.Sprintf("%d", counts[status])})
		total += counts[status]
	}
	rows = append(rows, []string{"total", fmt.Sprintf("%d", total)})

	r.writePlain("%s\n", renderTable([]string{"Status", "Items"}, rows))
	return nil
}

// QueueList prints queue items, newest first.
func (r *Runner) QueueList(ctx context.Context, cmd *cli.Command) error {
	config := r.reloadConfig(cmd)
	store, db, err := r.openStore(config)
	if err != nil {
		return err
	}
	defer db.Close()

	status := queue.Status(cmd.String("status"))
	items, err := store.List(status, cmd.Int("limit"))
	if err != nil {
		return err
	}

	if cmd.Bool("json") {
		return r.writeJSON(items, true)
	}

	if len(items) == 0 {
		r.writePlain("Queue is empty\n")
		return nil
	}

	rows := make([][]string, 0, len(items))
	for _, item := range items {
		confidence := ""
		if item.Confidence > 0 {
			confidence = fmt.Sprintf("%.2f", item.Confidence)
		}
		rows = append(rows, []string{
			shortID(item.ID),
			string(item.Status),
			item.Display(),
			confidence,
			item.UpdatedAt.Local().Format("Jan 02 15:04"),
		})
	}

	r.writePlain("%s\n", renderTable([]string{"ID", "Status", "Song", "Conf", "Updated"}, rows))
	return nil
}

// QueueAdd enqueues one reference from the command line, using the same
// classification path as the clipboard watcher.
func (r *Runner) QueueAdd(ctx context.Context, cmd *cli.Command) error {
	text := cmd.StringArg("text")
	if text == "" {
		return fmt.Errorf("%w: text to enqueue", shared.ErrMissingArgument)
	}

	config := r.reloadConfig(cmd)
	store, db, err := r.openStore(config)
	if err != nil {
		return err
	}
	defer db.Close()

	ref := classify.Classify(text)
	switch ref.Kind {
	case classify.KindSong:
		if err := store.Enqueue(&queue.Item{Content: ref.Song, Kind: classify.KindSong}); err != nil {
			return err
		}
		r.writePlain("Enqueued song: %s\n", ref.Song)
	case classify.KindURL:
		if err := store.Enqueue(queue.URLItem(ref)); err != nil {
			return err
		}
		r.writePlain("Enqueued link: %s\n", ref.URL.Raw)
	case classify.KindList:
		batch := queue.BatchName(time.Now())
		var items []*queue.Item
		if entry := classify.Classify(ref.Songs[0]); entry.URL == nil {
			items = queue.SongItems(ref.Songs, batch)
		} else {
			for i, raw := range ref.Songs {
				item := queue.URLItem(classify.Classify(raw))
				item.Batch = batch
				item.TrackIndex = i + 1
				item.TotalTracks = len(ref.Songs)
				items = append(items, item)
			}
		}
		if err := store.EnqueueBatch(items); err != nil {
			return err
		}
		r.writePlain("Enqueued %d tracks\n", len(items))
	default:
		return fmt.Errorf("%w: %q does not look like a song, list, or platform link", shared.ErrInvalidInput, text)
	}
	return nil
}

// QueueRetry requeues one finished item by ID, or every failed and
// exhausted item with --all.
func (r *Runner) QueueRetry(ctx context.Context, cmd *cli.Command) error {
	config := r.reloadConfig(cmd)
	store, db, err := r.openStore(config)
	if err != nil {
		return err
	}
	defer db.Close()

	if cmd.Bool("all") {
		moved, err := store.RetryAll()
		if err != nil {
			return err
		}
		r.writePlain("Requeued %d items\n", moved)
		return nil
	}

	id := cmd.StringArg("id")
	if id == "" {
		return fmt.Errorf("%w: item ID (or --all)", shared.ErrMissingArgument)
	}
	if err := store.Retry(id); err != nil {
		return err
	}
	r.writePlain("Requeued %s\n", shortID(id))
	return nil
}

// QueueClear deletes finished items, optionally filtered to one status.
func (r *Runner) QueueClear(ctx context.Context, cmd *cli.Command) error {
	config := r.reloadConfig(cmd)
	store, db, err := r.openStore(config)
	if err != nil {
		return err
	}
	defer db.Close()

	removed, err := store.Clear(queue.Status(cmd.String("status")))
	if err != nil {
		return err
	}
	r.writePlain("Removed %d items\n", removed)
	return nil
}

// QueueExport writes queue history in the requested format.
func (r *Runner) QueueExport(ctx context.Context, cmd *cli.Command) error {
	config := r.reloadConfig(cmd)
	store, db, err := r.openStore(config)
	if err != nil {
		return err
	}
	defer db.Close()

	items, err := store.List("", 0)
	if err != nil {
		return err
	}

	var data []byte
	switch format := cmd.String("format"); format {
	case "csv":
		data, err = formatter.ExportToCSV(items)
	case "md", "markdown":
		data, err = formatter.ExportToMarkdown(items, "cliptune queue")
	case "txt", "text":
		data, err = formatter.ExportToText(items)
	default:
		return fmt.Errorf("%w: unknown format %q", shared.ErrInvalidFlag, format)
	}
	if err != nil {
		return err
	}

	if path := cmd.String("output"); path != "" {
		if err := os.WriteFile(path, data, 0644); err != nil {
			return fmt.Errorf("failed to write export: %w", err)
		}
		r.writePlain("Exported %d items to %s\n", len(items), path)
		return nil
	}

	return r.writePlain("%s", data)
}

// shortID trims a UUID for table display.
func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

// renderTable draws a rounded table with the first column left-aligned and
// numeric-looking columns untouched; go-pretty handles width.
func renderTable(headers []string, rows [][]string) string {
	tw := table.NewWriter()
	tw.SetStyle(table.StyleRounded)

	header := make(table.Row, len(headers))
	for i, h := range headers {
		header[i] = h
	}
	tw.AppendHeader(header)

	for _, row := range rows {
		tr := make(table.Row, len(row))
		for i, cell := range row {
			tr[i] = cell
		}
		tw.AppendRow(tr)
	}

	tw.SetColumnConfigs([]table.ColumnConfig{
		{Number: len(headers), AlignHeader: text.AlignLeft},
	})

	return tw.Render()
}
