// package download turns a confirmed YouTube URL into a tagged audio file.
package download

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/charmbracelet/log"

	"github.com/desertthunder/cliptune/internal/shared"
)

// Tags describe the metadata written onto a finished download.
type Tags struct {
	Artist    string
	Title     string
	Album     string
	Year      string
	SourceURL string
}

type runFunc func(ctx context.Context, name string, args ...string) ([]byte, error)

// Downloader extracts audio with yt-dlp and tags the result.
type Downloader struct {
	binary   string
	musicDir string
	format   string
	quality  string
	timeout  time.Duration
	logger   *log.Logger
	run      runFunc
}

// NewDownloader creates a downloader. binary is the yt-dlp executable,
// shared with the search client.
func NewDownloader(binary string, cfg shared.DownloadConfig, logger *log.Logger) *Downloader {
	if binary == "" {
		binary = "yt-dlp"
	}
	format := cfg.AudioFormat
	if format == "" {
		format = "mp3"
	}
	quality := cfg.AudioQuality
	if quality == "" {
		quality = "0"
	}

	return &Downloader{
		binary:   binary,
		musicDir: cfg.MusicDir(),
		format:   format,
		quality:  quality,
		timeout:  cfg.Timeout(),
		logger:   logger,
		run:      runCommand,
	}
}

func runCommand(ctx context.Context, name string, args ...string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	out, err := cmd.CombinedOutput()
	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return out, fmt.Errorf("%v: %s", err, lastLine(out))
		}
		return out, err
	}
	return out, nil
}

func lastLine(b []byte) string {
	lines := bytes.Split(bytes.TrimSpace(b), []byte("\n"))
	if len(lines) == 0 {
		return ""
	}
	return strings.TrimSpace(string(lines[len(lines)-1]))
}

// MusicDir returns the directory downloads land in.
func (d *Downloader) MusicDir() string {
	return d.musicDir
}

// Filename builds the on-disk name for a song, with characters that are
// unsafe on common filesystems replaced.
func (d *Downloader) Filename(artist, title string) string {
	stem := title
	if artist != "" {
		stem = fmt.Sprintf("%s - %s", artist, title)
	}
	return sanitizeFilename(stem) + "." + d.format
}

func sanitizeFilename(s string) string {
	replacer := strings.NewReplacer(
		"<", "_", ">", "_", ":", "_", "\"", "_",
		"/", "_", "\\", "_", "|", "_", "?", "_", "*", "_",
	)
	return strings.TrimSpace(replacer.Replace(s))
}

// Exists reports whether a matching file is already in the music
// directory, returning its name when found.
func (d *Downloader) Exists(artist, title string) (string, bool) {
	return SongExists(d.musicDir, artist, title)
}

// Download fetches the URL as audio and tags the file. It returns the
// final path. A tagging failure is logged but does not fail the download;
// the audio is already on disk and worth keeping.
func (d *Downloader) Download(ctx context.Context, url string, tags Tags) (string, error) {
	if err := os.MkdirAll(d.musicDir, 0755); err != nil {
		return "", fmt.Errorf("failed to create music directory: %w", err)
	}

	filename := d.Filename(tags.Artist, tags.Title)
	path := filepath.Join(d.musicDir, filename)
	template := strings.TrimSuffix(path, "."+d.format) + ".%(ext)s"

	ctx, cancel := context.WithTimeout(ctx, d.timeout)
	defer cancel()

	args := []string{
		"--extract-audio",
		"--audio-format", d.format,
		"--audio-quality", d.quality,
		"-o", template,
		url,
	}

	d.logger.Info("downloading", "url", url, "file", filename)
	if _, err := d.run(ctx, d.binary, args...); err != nil {
		if errors.Is(err, exec.ErrNotFound) {
			return "", fmt.Errorf("%w: %s: %v", shared.ErrToolUnavailable, d.binary, err)
		}
		return "", fmt.Errorf("%w: download %s: %v", shared.ErrToolError, url, err)
	}

	if _, err := os.Stat(path); err != nil {
		return "", fmt.Errorf("%w: expected output %s missing: %v", shared.ErrToolError, filename, err)
	}

	if err := applyTags(path, tags); err != nil {
		d.logger.Warn("tagging failed, keeping untagged file", "file", filename, "error", err)
	}

	return path, nil
}
