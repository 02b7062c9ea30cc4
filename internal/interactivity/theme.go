package interactivity

import (
	"github.com/charmbracelet/huh"

	"github.com/i18nmerge/i18nmerge/internal/charm/styles"
)

// formTheme returns the huh theme used by every prompt.
func formTheme() *huh.Theme {
	t := huh.ThemeBase()

	focused := styles.Focused.GetForeground()
	dimmed := styles.Dimmed.GetForeground()

	f := &t.Focused
	f.Base = f.Base.BorderForeground(focused)
	f.Title = f.Title.Foreground(focused).Bold(true)
	f.Description = f.Description.Foreground(dimmed).Italic(true)
	f.ErrorIndicator = f.ErrorIndicator.Foreground(styles.Colors.Red)
	f.ErrorMessage = f.ErrorMessage.Foreground(styles.Colors.Red)
	f.SelectSelector = f.SelectSelector.Foreground(focused)
	f.SelectedOption = f.SelectedOption.Foreground(focused)
	f.FocusedButton = f.FocusedButton.Background(styles.Colors.Green)
	f.BlurredButton = f.BlurredButton.Background(dimmed)

	b := &t.Blurred
	b.Description = b.Description.Italic(true)
	b.SelectSelector = b.SelectSelector.Foreground(styles.Colors.DimYellow)
	b.SelectedOption = b.SelectedOption.Foreground(styles.Colors.DimYellow)

	return t
}
