// package resolve normalizes classified references into canonical song targets.
package resolve

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/log"

	"github.com/desertthunder/cliptune/internal/classify"
	"github.com/desertthunder/cliptune/internal/search"
	"github.com/desertthunder/cliptune/internal/shared"
)

// Target is the canonical description of one song heading into the
// confirmation loop. Fields are best-known values used for tagging and may
// be empty; Anchor is the free text that stands in for the song during
// query generation and is always set. Targets are never mutated after
// resolution.
type Target struct {
	Artist string              `json:"artist,omitempty"`
	Title  string              `json:"title,omitempty"`
	Album  string              `json:"album,omitempty"`
	Year   string              `json:"year,omitempty"`
	Anchor string              `json:"anchor"`
	Source *classify.Reference `json:"source,omitempty"`
}

// Display returns a short label for logs and progress lines.
func (t Target) Display() string {
	if t.Artist != "" && t.Title != "" {
		return fmt.Sprintf("%s - %s", t.Artist, t.Title)
	}
	return t.Anchor
}

// MetadataLookup is the slice of the search client the resolver needs for
// seeding targets from YouTube URLs.
type MetadataLookup interface {
	Lookup(ctx context.Context, url string) (*search.Result, error)
	ListPlaylist(ctx context.Context, url string) ([]search.Result, error)
}

// Resolver turns references into targets, consulting Spotify and yt-dlp
// for platform URLs. The spotify client may be nil when no credentials are
// configured; track references then fall back to page scraping.
type Resolver struct {
	spotify *SpotifyClient
	lookup  MetadataLookup
	logger  *log.Logger
}

// NewResolver creates a resolver. spotify may be nil.
func NewResolver(spotify *SpotifyClient, lookup MetadataLookup, logger *log.Logger) *Resolver {
	return &Resolver{spotify: spotify, lookup: lookup, logger: logger}
}

// Resolve produces one target per song named by the reference. Container
// references (albums, playlists) fan out into multiple targets. List and
// unknown references are rejected; lists are split into per-line jobs
// before resolution.
func (r *Resolver) Resolve(ctx context.Context, ref classify.Reference) ([]Target, error) {
	switch ref.Kind {
	case classify.KindSong:
		return []Target{songTarget(ref)}, nil
	case classify.KindURL:
		return r.resolveURL(ctx, ref)
	default:
		return nil, fmt.Errorf("%w: cannot resolve %s reference", shared.ErrInvalidInput, ref.Kind)
	}
}

func songTarget(ref classify.Reference) Target {
	t := Target{Anchor: ref.Song, Source: &ref}
	if artist, title, ok := classify.ParseArtistTitle(ref.Song); ok {
		t.Artist = artist
		t.Title = title
	}
	return t
}

func (r *Resolver) resolveURL(ctx context.Context, ref classify.Reference) ([]Target, error) {
	u := ref.URL
	switch u.Platform {
	case classify.PlatformSpotify:
		return r.resolveSpotify(ctx, ref)
	case classify.PlatformYouTube:
		return r.resolveYouTube(ctx, ref)
	case classify.PlatformSoundCloud:
		return []Target{soundcloudTarget(ref)}, nil
	default:
		return nil, fmt.Errorf("%w: unsupported platform %s", shared.ErrInvalidInput, u.Platform)
	}
}

// resolveSpotify fills a track target from the Web API, degrading to page
// scraping and finally to the raw reference text. Container resources
// require credentials because there is no scrape path for track listings.
func (r *Resolver) resolveSpotify(ctx context.Context, ref classify.Reference) ([]Target, error) {
	u := ref.URL

	if u.Resource == classify.ResourceTrack {
		if track, ok := r.spotifyTrack(ctx, u.ID); ok {
			return []Target{trackTarget(track, ref)}, nil
		}
		// Last resort: let query generation work from the bare reference.
		return []Target{{Anchor: u.CanonicalURL(), Source: &ref}}, nil
	}

	if r.spotify == nil || !r.spotify.HasCredentials() {
		return nil, fmt.Errorf("%w: spotify %s expansion requires client credentials", shared.ErrProvider, u.Resource)
	}

	var tracks []Track
	var err error
	switch u.Resource {
	case classify.ResourceAlbum:
		tracks, err = r.spotify.AlbumTracks(ctx, u.ID)
	case classify.ResourcePlaylist:
		tracks, err = r.spotify.PlaylistTracks(ctx, u.ID)
	default:
		return nil, fmt.Errorf("%w: unsupported spotify resource %s", shared.ErrInvalidInput, u.Resource)
	}
	if err != nil {
		return nil, fmt.Errorf("spotify %s expansion: %w", u.Resource, err)
	}
	if len(tracks) == 0 {
		return nil, fmt.Errorf("%w: spotify %s %s has no tracks", shared.ErrTrackNotFound, u.Resource, u.ID)
	}

	targets := make([]Target, 0, len(tracks))
	for _, track := range tracks {
		targets = append(targets, trackTarget(track, ref))
	}
	return targets, nil
}

// spotifyTrack tries the API then the public track page. Both paths
// failing is not an error; the caller degrades to free text.
func (r *Resolver) spotifyTrack(ctx context.Context, id string) (Track, bool) {
	if r.spotify == nil {
		return Track{}, false
	}

	track, err := r.spotify.Track(ctx, id)
	if err == nil {
		return track, true
	}
	r.logger.Warn("spotify API lookup failed, scraping page", "id", id, "error", err)

	track, err = r.spotify.ScrapeTrack(ctx, id)
	if err == nil {
		return track, true
	}
	r.logger.Warn("spotify page scrape failed", "id", id, "error", err)

	return Track{}, false
}

func trackTarget(track Track, ref classify.Reference) Target {
	return Target{
		Artist: track.Artist,
		Title:  track.Title,
		Album:  track.Album,
		Year:   track.Year,
		Anchor: fmt.Sprintf("%s - %s", track.Artist, track.Title),
		Source: &ref,
	}
}

// resolveYouTube seeds a video target from the video's own metadata, or
// fans a playlist out into one target per entry. Even a direct video link
// runs the confirmation loop afterwards, so a mislabeled upload can still
// be swapped for the real song.
func (r *Resolver) resolveYouTube(ctx context.Context, ref classify.Reference) ([]Target, error) {
	u := ref.URL

	if u.Resource == classify.ResourcePlaylist {
		entries, err := r.lookup.ListPlaylist(ctx, u.CanonicalURL())
		if err != nil {
			return nil, fmt.Errorf("youtube playlist expansion: %w", err)
		}
		if len(entries) == 0 {
			return nil, fmt.Errorf("%w: playlist %s has no entries", shared.ErrTrackNotFound, u.ID)
		}

		targets := make([]Target, 0, len(entries))
		for _, entry := range entries {
			targets = append(targets, videoTarget(entry, ref))
		}
		return targets, nil
	}

	result, err := r.lookup.Lookup(ctx, u.CanonicalURL())
	if err != nil {
		return nil, fmt.Errorf("youtube lookup: %w", err)
	}
	return []Target{videoTarget(*result, ref)}, nil
}

func videoTarget(result search.Result, ref classify.Reference) Target {
	anchor := result.Title
	if result.Uploader != "" {
		anchor = fmt.Sprintf("%s by %s", result.Title, result.Uploader)
	}

	t := Target{Title: result.Title, Anchor: anchor, Source: &ref}
	if artist, title, ok := classify.ParseArtistTitle(result.Title); ok {
		t.Artist = artist
		t.Title = title
	}
	return t
}

// soundcloudTarget derives artist and title from the URL path slugs. The
// slug form is lossy but deterministic, and the confirmation loop corrects
// the rough edges.
func soundcloudTarget(ref classify.Reference) Target {
	artistSlug, trackSlug, _ := strings.Cut(ref.URL.ID, "/")
	artist := strings.ReplaceAll(artistSlug, "-", " ")
	title := strings.ReplaceAll(trackSlug, "-", " ")

	t := Target{Artist: artist, Title: title, Source: &ref}
	if artist != "" && title != "" {
		t.Anchor = fmt.Sprintf("%s - %s", artist, title)
	} else {
		t.Anchor = strings.ReplaceAll(ref.URL.ID, "-", " ")
	}
	return t
}
