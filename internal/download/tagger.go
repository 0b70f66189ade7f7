package download

import (
	"fmt"

	id3v2 "github.com/bogem/id3v2/v2"
)

// applyTags writes ID3v2.4 frames onto the file at path. The source URL
// goes into a comment frame so a library scan can always trace a file back
// to where it came from.
func applyTags(path string, tags Tags) error {
	tag, err := id3v2.Open(path, id3v2.Options{Parse: true})
	if err != nil {
		return fmt.Errorf("failed to open file for tagging: %w", err)
	}
	defer tag.Close()

	tag.SetVersion(4)
	tag.SetDefaultEncoding(id3v2.EncodingUTF8)

	if tags.Artist != "" {
		tag.SetArtist(tags.Artist)
	}
	if tags.Title != "" {
		tag.SetTitle(tags.Title)
	}
	if tags.Album != "" {
		tag.SetAlbum(tags.Album)
	}
	if tags.Year != "" {
		tag.SetYear(tags.Year)
	}
	if tags.SourceURL != "" {
		tag.AddCommentFrame(id3v2.CommentFrame{
			Encoding:    id3v2.EncodingUTF8,
			Language:    "eng",
			Description: "Source",
			Text:        tags.SourceURL,
		})
	}

	if err := tag.Save(); err != nil {
		return fmt.Errorf("failed to save tags: %w", err)
	}

	return nil
}
