package ui

import (
	"charm.land/glamour/v2"
)

// maxReadableWidth caps word wrap for long request descriptions.
const maxReadableWidth = 100

// RenderMarkdown renders markdown text for the terminal with glamour.
// Returns the original text when color is off or rendering fails.
func RenderMarkdown(markdown string) string {
	if !ShouldUseColor() {
		return markdown
	}

	wrapWidth := TerminalWidth(80)
	if wrapWidth > maxReadableWidth {
		wrapWidth = maxReadableWidth
	}

	style := "light"
	if HasDarkBackground() {
		style = "dark"
	}
	renderer, err := glamour.NewTermRenderer(
		glamour.WithStandardStyle(style),
		glamour.WithWordWrap(wrapWidth),
	)
	if err != nil {
		return markdown
	}

	rendered, err := renderer.Render(markdown)
	if err != nil {
		return markdown
	}
	return rendered
}
