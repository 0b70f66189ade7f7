package resolve

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"golang.org/x/oauth2/clientcredentials"

	"github.com/desertthunder/cliptune/internal/shared"
)

const (
	spotifyAPIURL   = "https://api.spotify.com"
	spotifyWebURL   = "https://open.spotify.com"
	spotifyTokenURL = "https://accounts.spotify.com/api/token"
)

// Track holds the metadata spotify knows about one song.
type Track struct {
	Artist string
	Title  string
	Album  string
	Year   string
}

// SpotifyClient reads track metadata from the Spotify Web API using the
// client credentials flow, with the public track page as a scrape fallback
// that works without credentials.
type SpotifyClient struct {
	api    *http.Client
	web    *http.Client
	apiURL string
	webURL string
	logger *log.Logger
}

// NewSpotifyClient creates a client. Without credentials the API methods
// return a credentials error and only page scraping works; ctx scopes the
// token refresher.
func NewSpotifyClient(ctx context.Context, cfg shared.SpotifyConfig, logger *log.Logger) *SpotifyClient {
	c := &SpotifyClient{
		web:    &http.Client{Timeout: 15 * time.Second},
		apiURL: spotifyAPIURL,
		webURL: spotifyWebURL,
		logger: logger,
	}

	if cfg.ClientID != "" && cfg.ClientSecret != "" {
		cc := clientcredentials.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			TokenURL:     spotifyTokenURL,
		}
		c.api = cc.Client(ctx)
	}

	return c
}

// HasCredentials reports whether API calls are possible.
func (s *SpotifyClient) HasCredentials() bool {
	return s.api != nil
}

// doRequest executes an authenticated GET and decodes the JSON response
// into result.
func (s *SpotifyClient) doRequest(ctx context.Context, url string, result any) error {
	if s.api == nil {
		return fmt.Errorf("%w: spotify client credentials not configured", shared.ErrMissingCredentials)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := s.api.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", shared.ErrAPIRequest, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%w: spotify API error (status %d): %s", shared.ErrAPIRequest, resp.StatusCode, strings.TrimSpace(string(data)))
	}

	if err := json.Unmarshal(data, result); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}

	return nil
}

type spotifyArtist struct {
	Name string `json:"name"`
}

type spotifyAlbum struct {
	Name        string `json:"name"`
	ReleaseDate string `json:"release_date"`
}

type spotifyTrack struct {
	Name    string          `json:"name"`
	Artists []spotifyArtist `json:"artists"`
	Album   spotifyAlbum    `json:"album"`
}

func (t spotifyTrack) toTrack() Track {
	track := Track{
		Title: t.Name,
		Album: t.Album.Name,
		Year:  releaseYear(t.Album.ReleaseDate),
	}
	if len(t.Artists) > 0 {
		track.Artist = t.Artists[0].Name
	}
	return track
}

func releaseYear(date string) string {
	if len(date) >= 4 {
		return date[:4]
	}
	return ""
}

// Track fetches metadata for a single track ID.
func (s *SpotifyClient) Track(ctx context.Context, id string) (Track, error) {
	var resp spotifyTrack
	url := fmt.Sprintf("%s/v1/tracks/%s", s.apiURL, id)
	if err := s.doRequest(ctx, url, &resp); err != nil {
		return Track{}, err
	}

	track := resp.toTrack()
	if track.Title == "" {
		return Track{}, fmt.Errorf("%w: track %s", shared.ErrTrackNotFound, id)
	}
	return track, nil
}

type spotifyAlbumResponse struct {
	Name        string `json:"name"`
	ReleaseDate string `json:"release_date"`
	Tracks      struct {
		Items []spotifyTrack `json:"items"`
	} `json:"tracks"`
}

// AlbumTracks fetches every track on an album. Album tracks omit their own
// album object, so the album name and year come from the top level.
func (s *SpotifyClient) AlbumTracks(ctx context.Context, id string) ([]Track, error) {
	var resp spotifyAlbumResponse
	url := fmt.Sprintf("%s/v1/albums/%s", s.apiURL, id)
	if err := s.doRequest(ctx, url, &resp); err != nil {
		return nil, err
	}

	tracks := make([]Track, 0, len(resp.Tracks.Items))
	for _, item := range resp.Tracks.Items {
		track := item.toTrack()
		track.Album = resp.Name
		track.Year = releaseYear(resp.ReleaseDate)
		tracks = append(tracks, track)
	}
	return tracks, nil
}

type spotifyPlaylistPage struct {
	Items []struct {
		Track *spotifyTrack `json:"track"`
	} `json:"items"`
	Next string `json:"next"`
}

// PlaylistTracks fetches every track on a playlist, following pagination.
// Local files and removed tracks appear as null entries and are skipped.
func (s *SpotifyClient) PlaylistTracks(ctx context.Context, id string) ([]Track, error) {
	var tracks []Track

	url := fmt.Sprintf("%s/v1/playlists/%s/tracks?limit=100", s.apiURL, id)
	for url != "" {
		var page spotifyPlaylistPage
		if err := s.doRequest(ctx, url, &page); err != nil {
			return nil, err
		}

		for _, item := range page.Items {
			if item.Track == nil || item.Track.Name == "" {
				continue
			}
			tracks = append(tracks, item.Track.toTrack())
		}

		url = page.Next
	}

	return tracks, nil
}

var (
	scrapeTitleRe  = regexp.MustCompile(`"name":"([^"]+)"`)
	scrapeArtistRe = regexp.MustCompile(`"artist":\s*\{\s*"name":"([^"]+)"`)
)

// ScrapeTrack pulls artist and title out of the public track page's
// embedded metadata. Brittle by nature, but it needs no credentials and
// only has to be right often enough to seed a search.
func (s *SpotifyClient) ScrapeTrack(ctx context.Context, id string) (Track, error) {
	url := fmt.Sprintf("%s/track/%s", s.webURL, id)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return Track{}, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", "Mozilla/5.0 (compatible; cliptune)")

	resp, err := s.web.Do(req)
	if err != nil {
		return Track{}, fmt.Errorf("%w: %v", shared.ErrAPIRequest, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return Track{}, fmt.Errorf("%w: spotify page returned status %d", shared.ErrAPIRequest, resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 2<<20))
	if err != nil {
		return Track{}, fmt.Errorf("failed to read page: %w", err)
	}

	page := string(body)
	titleMatch := scrapeTitleRe.FindStringSubmatch(page)
	artistMatch := scrapeArtistRe.FindStringSubmatch(page)
	if titleMatch == nil || artistMatch == nil {
		return Track{}, fmt.Errorf("%w: track metadata not found in page", shared.ErrTrackNotFound)
	}

	return Track{Artist: artistMatch[1], Title: titleMatch[1]}, nil
}
