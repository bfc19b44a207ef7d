package suggest

import (
	"fmt"
	"strings"

	"song-suggest/internal/retrieval"
)

const systemPrompt = "You are a music assistant. Recommend songs only from the list you are given, and say briefly why each one fits."

// BuildPrompt lists the retrieved songs nearest first, then the user's request.
func BuildPrompt(query string, hits []retrieval.Hit, count int) string {
	var b strings.Builder
	b.WriteString("Here is a list of songs:\n")
	for _, h := range hits {
		b.WriteString("- ")
		b.WriteString(h.Record.Text)
		b.WriteString("\n")
	}
	fmt.Fprintf(&b, "The user says: %s\n", strings.TrimSpace(query))
	fmt.Fprintf(&b, "Suggest %d songs that fit, only from the list above.", min(count, len(hits)))
	return b.String()
}
