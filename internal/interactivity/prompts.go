package interactivity

import (
	"errors"
	"fmt"

	"github.com/charmbracelet/huh"

	"github.com/i18nmerge/i18nmerge/internal/merging"
)

// ErrAborted is returned when the user dismisses a prompt.
var ErrAborted = errors.New("aborted by user")

// Confirm asks a yes/no question. Dismissing the prompt counts as no.
func Confirm(title, description string) (bool, error) {
	confirm := true

	err := huh.NewForm(huh.NewGroup(
		huh.NewConfirm().
			Title(title).
			Description(description).
			Affirmative("Yes").
			Negative("No").
			Value(&confirm),
	)).WithTheme(formTheme()).Run()
	if errors.Is(err, huh.ErrUserAborted) {
		return false, nil
	}
	if err != nil {
		return false, err
	}

	return confirm, nil
}

// retryOptions are offered for files the smart strategy could not resolve.
func retryOptions() []huh.Option[string] {
	return []huh.Option[string]{
		huh.NewOption("Leave the files unresolved", ""),
		huh.NewOption(fmt.Sprintf("Keep our side (%s)", merging.StrategyOurs), string(merging.StrategyOurs)),
		huh.NewOption(fmt.Sprintf("Take their side (%s)", merging.StrategyTheirs), string(merging.StrategyTheirs)),
	}
}

// SelectRetryStrategy asks how to handle files that failed to resolve. An empty strategy
// means leave them as they are.
func SelectRetryStrategy(failed int) (merging.Strategy, error) {
	var choice string

	err := huh.NewForm(huh.NewGroup(
		huh.NewSelect[string]().
			Title(fmt.Sprintf("%d %s could not be resolved automatically", failed, plural(failed))).
			Description("Choose a fallback for the remaining conflicts").
			Options(retryOptions()...).
			Value(&choice),
	)).WithTheme(formTheme()).Run()
	if errors.Is(err, huh.ErrUserAborted) {
		return "", ErrAborted
	}
	if err != nil {
		return "", err
	}

	return merging.Strategy(choice), nil
}

func plural(n int) string {
	if n == 1 {
		return "file"
	}
	return "files"
}
