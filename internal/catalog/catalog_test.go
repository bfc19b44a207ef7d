package catalog

import (
	"bytes"
	"errors"
	"log/slog"
	"strings"
	"testing"

	"song-suggest/internal/retrieval"
)

func TestTextMode(t *testing.T) {
	song := Song{ID: 7, Title: " Let It Be ", Album: "Let It Be", Artists: []string{"John Lennon", "Paul McCartney"}}

	tests := []struct {
		mode TextMode
		want string
	}{
		{TextTitle, "Let It Be"},
		{TextRich, "Let It Be by John Lennon, Paul McCartney from the album Let It Be"},
	}
	for _, tt := range tests {
		t.Run(string(tt.mode), func(t *testing.T) {
			if got := tt.mode.Text(song); got != tt.want {
				t.Errorf("got %q, want %q", got, tt.want)
			}
		})
	}

	if got := TextRich.Text(Song{Title: "Hey Jude"}); got != "Hey Jude" {
		t.Errorf("rich text without joins: got %q", got)
	}
}

func TestParseTextMode(t *testing.T) {
	for in, want := range map[string]TextMode{"": TextTitle, "title": TextTitle, "RICH": TextRich} {
		got, err := ParseTextMode(in)
		if err != nil || got != want {
			t.Errorf("ParseTextMode(%q) = %q, %v; want %q", in, got, err, want)
		}
	}
	if _, err := ParseTextMode("lyrics"); err == nil {
		t.Error("expected error for unknown mode")
	}
}

func TestRecordsKeepsOrderAndSkipsBlank(t *testing.T) {
	songs := []Song{
		{ID: 3, Title: "Hey Jude"},
		{ID: 1, Title: "  "},
		{ID: 2, Title: "Yesterday"},
	}
	got := Records(songs, TextTitle)
	want := []retrieval.Record{{ID: "3", Text: "Hey Jude"}, {ID: "2", Text: "Yesterday"}}
	if len(got) != len(want) {
		t.Fatalf("got %d records, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("record %d: got %+v, want %+v", i, got[i], want[i])
		}
	}
}

func TestCatalogRecords(t *testing.T) {
	var buf bytes.Buffer
	log := slog.New(slog.NewTextHandler(&buf, nil))

	got, err := catalogRecords([]Song{{ID: 1, Title: "Yesterday"}, {ID: 2, Title: ""}}, TextTitle, log)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 1 || got[0].ID != "1" {
		t.Errorf("got %+v", got)
	}
	if !strings.Contains(buf.String(), "skipped songs with blank titles") {
		t.Errorf("expected a warning for the blank title, log: %q", buf.String())
	}

	for name, songs := range map[string][]Song{
		"no rows":      nil,
		"blank titles": {{ID: 1, Title: " "}},
	} {
		t.Run(name, func(t *testing.T) {
			if _, err := catalogRecords(songs, TextRich, log); !errors.Is(err, ErrEmptyCatalog) {
				t.Errorf("expected ErrEmptyCatalog, got %v", err)
			}
		})
	}
}
