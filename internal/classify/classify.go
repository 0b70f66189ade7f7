// package classify turns raw clipboard text into typed music references.
package classify

import (
	"fmt"
	"regexp"
	"strings"
)

// Kind discriminates the reference union.
type Kind int

const (
	KindUnknown Kind = iota
	KindSong
	KindURL
	KindList
)

// String returns a human-readable label for the kind.
func (k Kind) String() string {
	switch k {
	case KindSong:
		return "song"
	case KindURL:
		return "url"
	case KindList:
		return "list"
	default:
		return "unknown"
	}
}

// Platform identifies a streaming platform.
type Platform string

const (
	PlatformSpotify    Platform = "spotify"
	PlatformYouTube    Platform = "youtube"
	PlatformSoundCloud Platform = "soundcloud"
)

// Resource identifies what a platform URL points at.
type Resource string

const (
	ResourceTrack    Resource = "track"
	ResourceAlbum    Resource = "album"
	ResourcePlaylist Resource = "playlist"
	ResourceVideo    Resource = "video"
)

// PlatformURL is a recognized streaming platform link with its platform,
// resource kind, and platform-native identifier extracted.
type PlatformURL struct {
	Platform Platform `json:"platform"`
	Resource Resource `json:"resource"`
	ID       string   `json:"id"`
	Raw      string   `json:"raw"`
}

// CanonicalURL rebuilds the normalized https form of the link from its
// platform and identifier, regardless of how the original was written.
func (u PlatformURL) CanonicalURL() string {
	switch u.Platform {
	case PlatformSpotify:
		return fmt.Sprintf("https://open.spotify.com/%s/%s", u.Resource, u.ID)
	case PlatformYouTube:
		if u.Resource == ResourcePlaylist {
			return fmt.Sprintf("https://youtube.com/playlist?list=%s", u.ID)
		}
		return fmt.Sprintf("https://youtube.com/watch?v=%s", u.ID)
	case PlatformSoundCloud:
		return fmt.Sprintf("https://soundcloud.com/%s", u.ID)
	default:
		return u.Raw
	}
}

// Reference is the classification result. Exactly one of Song, URL, or Songs
// is populated according to Kind; Raw always holds the original input.
type Reference struct {
	Kind  Kind         `json:"kind"`
	Song  string       `json:"song,omitempty"`
	URL   *PlatformURL `json:"url,omitempty"`
	Songs []string     `json:"songs,omitempty"`
	Raw   string       `json:"raw"`
}

var (
	spotifyWebRe  = regexp.MustCompile(`(?i)(?:https?://)?(?:open\.)?spotify\.com/(track|album|playlist)/([a-zA-Z0-9]+)`)
	spotifyURIRe  = regexp.MustCompile(`(?i)spotify:(track|album|playlist):([a-zA-Z0-9]+)`)
	youtubeRe     = regexp.MustCompile(`(?i)(?:https?://)?(?:www\.)?(?:youtube\.com/watch\?v=|youtu\.be/)([a-zA-Z0-9_-]{11})`)
	youtubeListRe = regexp.MustCompile(`(?i)(?:https?://)?(?:www\.)?youtube\.com/playlist\?list=([a-zA-Z0-9_-]+)`)
	soundcloudRe  = regexp.MustCompile(`(?i)(?:https?://)?(?:www\.)?soundcloud\.com/([\w-]+/[\w-]+)`)
)

// nonMusicMarkers reject clipboard noise that is clearly code, logs, or
// prose about software rather than a song name.
var nonMusicMarkers = []string{
	"error", "exception", "debug", "warning",
	"function", "class", "import", "export",
	"const ", "let ", "var ", "def ",
	"http://", "https://", "www.",
	"{", "}", "[", "]", "<", ">",
	"num_ctx", "model", "config", "api",
	"null", "undefined", "true", "false",
	"::", "=>", "->>",
	"```", "│", "┌", "└", "├", "─", "║", "╔", "╚", "╠", "═",
	"agent", "middleware", "architecture", "intelligent",
	"system", "server", "client", "database", "network",
	"implementation", "development", "framework", "library",
}

// musicIndicators opt a single line of text in as a song reference.
var musicIndicators = []string{
	" - ", " by ", " feat", " ft.",
	"remix", "acoustic", "live",
	"album", "single", "ep",
}

// Classify inspects clipboard content and produces a typed reference.
//
// Platform URLs take precedence over free text: a single recognized link
// yields a URL reference and two or more on the same platform yield a list
// of the matched links in input order. Text input is accepted as a song
// name only when it carries a music indicator, or as a list when every
// nonempty line looks like a song title. Everything else is unknown.
func Classify(content string) Reference {
	trimmed := strings.TrimSpace(content)
	ref := Reference{Kind: KindUnknown, Raw: trimmed}
	if trimmed == "" {
		return ref
	}

	if r, ok := classifyPlatform(trimmed); ok {
		return r
	}

	// Clipboard captures of whole documents are never song names.
	if len(trimmed) >= 500 {
		return ref
	}

	lines := nonEmptyLines(trimmed)
	if len(lines) > 1 {
		if len(lines) <= 20 && allSongLines(lines) {
			ref.Kind = KindList
			ref.Songs = lines
		}
		return ref
	}

	lower := strings.ToLower(trimmed)
	for _, marker := range nonMusicMarkers {
		if strings.Contains(lower, marker) {
			return ref
		}
	}

	for _, indicator := range musicIndicators {
		if strings.Contains(lower, indicator) {
			ref.Kind = KindSong
			ref.Song = trimmed
			return ref
		}
	}

	return ref
}

// classifyPlatform scans for platform links, checking spotify before
// youtube before soundcloud. The first platform with any match decides
// the result.
func classifyPlatform(content string) (Reference, bool) {
	ref := Reference{Raw: content}

	spotify := spotifyWebRe.FindAllStringSubmatch(content, -1)
	spotify = append(spotify, spotifyURIRe.FindAllStringSubmatch(content, -1)...)
	if len(spotify) > 1 {
		ref.Kind = KindList
		for _, m := range spotify {
			ref.Songs = append(ref.Songs, m[0])
		}
		return ref, true
	}
	if len(spotify) == 1 {
		m := spotify[0]
		ref.Kind = KindURL
		ref.URL = &PlatformURL{
			Platform: PlatformSpotify,
			Resource: Resource(strings.ToLower(m[1])),
			ID:       m[2],
			Raw:      m[0],
		}
		return ref, true
	}

	videos := youtubeRe.FindAllStringSubmatch(content, -1)
	if len(videos) > 1 {
		ref.Kind = KindList
		for _, m := range videos {
			ref.Songs = append(ref.Songs, m[0])
		}
		return ref, true
	}
	if len(videos) == 1 {
		ref.Kind = KindURL
		ref.URL = &PlatformURL{
			Platform: PlatformYouTube,
			Resource: ResourceVideo,
			ID:       videos[0][1],
			Raw:      videos[0][0],
		}
		return ref, true
	}
	if m := youtubeListRe.FindStringSubmatch(content); m != nil {
		ref.Kind = KindURL
		ref.URL = &PlatformURL{
			Platform: PlatformYouTube,
			Resource: ResourcePlaylist,
			ID:       m[1],
			Raw:      m[0],
		}
		return ref, true
	}

	tracks := soundcloudRe.FindAllStringSubmatch(content, -1)
	if len(tracks) > 1 {
		ref.Kind = KindList
		for _, m := range tracks {
			ref.Songs = append(ref.Songs, m[0])
		}
		return ref, true
	}
	if len(tracks) == 1 {
		ref.Kind = KindURL
		ref.URL = &PlatformURL{
			Platform: PlatformSoundCloud,
			Resource: ResourceTrack,
			ID:       tracks[0][1],
			Raw:      tracks[0][0],
		}
		return ref, true
	}

	return ref, false
}

func nonEmptyLines(content string) []string {
	var lines []string
	for _, line := range strings.Split(content, "\n") {
		if trimmed := strings.TrimSpace(line); trimmed != "" {
			lines = append(lines, trimmed)
		}
	}
	return lines
}

// allSongLines reports whether every line could plausibly be a song title:
// short but not trivial, free of table-drawing and markup characters, and
// not a comment or key=value pair.
func allSongLines(lines []string) bool {
	for _, line := range lines {
		if len(line) <= 3 || len(line) >= 80 {
			return false
		}
		if strings.ContainsAny(line, "|│─┌└├") {
			return false
		}
		if strings.HasPrefix(line, "#") || strings.HasPrefix(line, "//") {
			return false
		}
		if strings.ContainsAny(line, "=:") {
			return false
		}
	}
	return true
}

// artistTitleSeparators are tried in order when splitting a song string.
var artistTitleSeparators = []string{" - ", " – ", " — ", ": ", " | "}

// ParseArtistTitle splits a song string into artist and title. It tries the
// common separator conventions first and falls back to treating the first
// word as the artist. Returns false when no split is possible.
func ParseArtistTitle(s string) (artist, title string, ok bool) {
	s = strings.TrimSpace(s)

	for _, sep := range artistTitleSeparators {
		if idx := strings.Index(s, sep); idx >= 0 {
			artist = strings.TrimSpace(s[:idx])
			title = strings.TrimSpace(s[idx+len(sep):])
			if artist != "" && title != "" {
				return artist, title, true
			}
		}
	}

	words := strings.Fields(s)
	if len(words) < 2 {
		return "", "", false
	}
	return words[0], strings.Join(words[1:], " "), true
}
