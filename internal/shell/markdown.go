package shell

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/picatz/typedstorage"
)

// RenderMarkdown renders s for a terminal of the given width using a
// glamour style such as "dark" or "notty".
func RenderMarkdown(s, style string, width int) (string, error) {
	r, err := glamour.NewTermRenderer(
		glamour.WithStylePath(style),
		glamour.WithWordWrap(width),
		glamour.WithPreservedNewLines(),
	)
	if err != nil {
		return "", fmt.Errorf("failed to create markdown renderer: %w", err)
	}

	out, err := r.Render(s)
	if err != nil {
		return "", fmt.Errorf("failed to render markdown: %w", err)
	}

	return out, nil
}

// Dump reads every key and its raw value and formats them as a markdown table.
func Dump(ctx context.Context, s *typedstorage.Storage) (string, error) {
	keys, err := s.AllKeys(ctx)
	if err != nil {
		return "", err
	}

	lookups, err := s.Store().MultiGet(ctx, keys)
	if err != nil {
		return "", err
	}

	var b strings.Builder
	b.WriteString("| Key | Value |\n")
	b.WriteString("| --- | --- |\n")
	for _, lookup := range lookups {
		if !lookup.Found {
			// Removed between listing and reading.
			continue
		}
		fmt.Fprintf(&b, "| %s | `%s` |\n", escapeCell(lookup.Key), escapeCell(lookup.Value))
	}
	return b.String(), nil
}

func escapeCell(s string) string {
	s = strings.ReplaceAll(s, "|", `\|`)
	s = strings.ReplaceAll(s, "`", "'")
	return strings.ReplaceAll(s, "\n", " ")
}
