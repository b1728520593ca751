package ui

import (
	"github.com/charmbracelet/glamour"
)

const helpMarkdown = `# climogram

Yearly mean weather series from the local cache.

## Keys

| Key | Action |
|-----|--------|
| tab, →/← | Switch category |
| [ / ] | Shrink / grow range start |
| { / } | Shrink / grow range end |
| r | Reset to the full range |
| c | Copy visible series as CSV |
| e | Export chart as PNG |
| enter | Retry after an error |
| ? | Toggle this help |
| q | Quit |

Range edits are clamped to the years present in the cache. Every edit
asks the background loader for a fresh slice; stale responses are
dropped, so rapid keystrokes always settle on the last one.
`

// renderHelp renders the help overlay with glamour, falling back to
// the raw markdown when the renderer cannot be built (e.g. no TTY).
func renderHelp(width int) string {
	if width < 20 {
		width = 20
	}
	r, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(width),
	)
	if err != nil {
		return helpMarkdown
	}
	out, err := r.Render(helpMarkdown)
	if err != nil {
		return helpMarkdown
	}
	return out
}
