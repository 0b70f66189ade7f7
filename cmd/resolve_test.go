package main

import (
	"testing"

	"github.com/desertthunder/cliptune/internal/classify"
)

func TestExpandList(t *testing.T) {
	t.Run("single song passes through", func(t *testing.T) {
		ref := classify.Classify("Rick Astley - Never Gonna Give You Up")
		refs := expandList(ref)
		if len(refs) != 1 {
			t.Fatalf("expected 1 reference, got %d", len(refs))
		}
		if refs[0].Kind != classify.KindSong {
			t.Errorf("kind = %s", refs[0].Kind)
		}
	})

	t.Run("single link passes through", func(t *testing.T) {
		ref := classify.Classify("https://youtube.com/watch?v=dQw4w9WgXcQ")
		refs := expandList(ref)
		if len(refs) != 1 || refs[0].Kind != classify.KindURL {
			t.Fatalf("refs = %+v", refs)
		}
	})

	t.Run("song list splits per line", func(t *testing.T) {
		ref := classify.Classify("Rick Astley - Never Gonna Give You Up\nToto - Africa\na-ha - Take On Me")
		if ref.Kind != classify.KindList {
			t.Fatalf("kind = %s", ref.Kind)
		}

		refs := expandList(ref)
		if len(refs) != 3 {
			t.Fatalf("expected 3 references, got %d", len(refs))
		}
		for i, entry := range refs {
			if entry.Kind != classify.KindSong {
				t.Errorf("refs[%d].Kind = %s", i, entry.Kind)
			}
		}
		if refs[1].Song != "Toto - Africa" {
			t.Errorf("refs[1].Song = %q", refs[1].Song)
		}
	})

	t.Run("link list splits per link", func(t *testing.T) {
		ref := classify.Classify("https://youtube.com/watch?v=dQw4w9WgXcQ\nhttps://youtube.com/watch?v=FTQbiNvZqaY")
		if ref.Kind != classify.KindList {
			t.Fatalf("kind = %s", ref.Kind)
		}

		refs := expandList(ref)
		if len(refs) != 2 {
			t.Fatalf("expected 2 references, got %d", len(refs))
		}
		for i, entry := range refs {
			if entry.Kind != classify.KindURL || entry.URL == nil {
				t.Errorf("refs[%d] did not classify as a link: %+v", i, entry)
			}
		}
	})
}
