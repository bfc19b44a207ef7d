package catalog

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"song-suggest/internal/retrieval"
)

// TextMode selects what catalog text is embedded for each song.
type TextMode string

const (
	// TextTitle embeds the song title only.
	TextTitle TextMode = "title"
	// TextRich embeds the title followed by artists and album.
	TextRich TextMode = "rich"
)

var ErrEmptyCatalog = errors.New("catalog is empty")

// Song is one row of the songs table with the joins needed for rich text.
type Song struct {
	ID      int64
	Title   string
	Album   string
	Artists []string
}

// Loader supplies the full catalog in a stable order.
type Loader interface {
	FetchAll(ctx context.Context) ([]retrieval.Record, error)
}

func ParseTextMode(s string) (TextMode, error) {
	switch TextMode(strings.ToLower(strings.TrimSpace(s))) {
	case "", TextTitle:
		return TextTitle, nil
	case TextRich:
		return TextRich, nil
	default:
		return "", fmt.Errorf("unknown catalog text mode %q (valid: title, rich)", s)
	}
}

// Text renders the string that gets embedded for s.
func (m TextMode) Text(s Song) string {
	title := strings.TrimSpace(s.Title)
	if m != TextRich {
		return title
	}
	var b strings.Builder
	b.WriteString(title)
	if len(s.Artists) > 0 {
		b.WriteString(" by ")
		b.WriteString(strings.Join(s.Artists, ", "))
	}
	if album := strings.TrimSpace(s.Album); album != "" {
		b.WriteString(" from the album ")
		b.WriteString(album)
	}
	return b.String()
}

// Records converts songs to index records, dropping songs with a blank title.
func Records(songs []Song, mode TextMode) []retrieval.Record {
	out := make([]retrieval.Record, 0, len(songs))
	for _, s := range songs {
		if strings.TrimSpace(s.Title) == "" {
			continue
		}
		out = append(out, retrieval.Record{ID: fmt.Sprint(s.ID), Text: mode.Text(s)})
	}
	return out
}
