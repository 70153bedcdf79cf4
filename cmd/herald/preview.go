package main

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"

	"github.com/germanamz/herald/pkg/post"
)

var (
	previewBoxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("63")).
			Padding(0, 1).
			Width(60)

	counterStyle = lipgloss.NewStyle().Faint(true)

	overLimitStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("196")).Bold(true)
)

// renderPreview draws the post in a box with its display length underneath.
func renderPreview(text string) string {
	n := post.Length(text)
	counter := fmt.Sprintf("%d/%d", n, post.MaxLength)

	style := counterStyle
	if !post.Fits(n) {
		style = overLimitStyle
	}

	return lipgloss.JoinVertical(lipgloss.Right, previewBoxStyle.Render(text), style.Render(counter))
}
