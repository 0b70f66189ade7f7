package main

import (
	"context"
	"errors"
	"fmt"
	"os/signal"
	"sync"
	"syscall"

	"github.com/desertthunder/cliptune/internal/notify"
	"github.com/desertthunder/cliptune/internal/queue"
	"github.com/desertthunder/cliptune/internal/watch"
	"github.com/gofrs/flock"
	"github.com/urfave/cli/v3"
)

// Watch runs the clipboard poller and the queue worker until interrupted.
// A file lock next to the queue database keeps a second watch process from
// double-capturing the clipboard.
func (r *Runner) Watch(ctx context.Context, cmd *cli.Command) error {
	config := r.reloadConfig(cmd)
	quiet := cmd.Bool("quiet")

	lock := flock.New(config.Database.Path + ".lock")
	locked, err := lock.TryLock()
	if err != nil {
		return fmt.Errorf("failed to acquire watch lock: %w", err)
	}
	if !locked {
		return fmt.Errorf("another cliptune watch process is already running")
	}
	defer lock.Unlock()

	store, db, err := r.openStore(config)
	if err != nil {
		return err
	}
	defer db.Close()

	pipe, err := r.buildPipeline(ctx, config)
	if err != nil {
		return err
	}

	// A missing yt-dlp fails every job, so refuse to start without it.
	if err := pipe.search.Available(ctx); err != nil {
		return err
	}

	worker := queue.NewWorker(store, pipe.resolver, pipe.coordinator, pipe.downloader, queue.WorkerConfig{
		Spacing:      config.Download.Spacing(),
		HistoryLimit: config.Queue.HistoryLimit,
	}, r.logger.WithPrefix("worker"))
	worker.SetNotifier(notify.NewService(config.Notifications))

	watcher := watch.NewWatcher(config.Watch, store, r.logger.WithPrefix("watch"))
	watcher.SetWaker(worker)

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	progress := make(chan queue.ProgressUpdate, 50)
	var consumers, watchers sync.WaitGroup

	consumers.Add(1)
	go func() {
		defer consumers.Done()
		for update := range progress {
			if !quiet {
				r.writePlain("%s\n", update.Message)
			}
		}
	}()

	watchers.Add(1)
	go func() {
		defer watchers.Done()
		if err := watcher.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			r.logger.Error("clipboard watcher stopped", "error", err)
		}
	}()

	r.writePlain("Watching clipboard. Copy a song name, list, or link; ctrl+c to stop.\n")

	err = worker.Run(ctx, progress)
	stop()
	watchers.Wait()
	close(progress)
	consumers.Wait()

	if err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	r.logger.Info("watch stopped")
	return nil
}
