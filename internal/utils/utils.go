package utils

import (
	"os"
	"unicode"

	"golang.org/x/term"

	"github.com/i18nmerge/i18nmerge/internal/env"
)

var FlagsToIgnore = []string{"help", "version", "logLevel"}

func IsInteractive() bool {
	return term.IsTerminal(int(os.Stdout.Fd())) && !env.IsCI()
}

func CapitalizeFirst(s string) string {
	if s == "" {
		return ""
	}
	r := []rune(s)
	r[0] = unicode.ToUpper(r[0])
	return string(r)
}

// Pluralize returns singular when count is one and plural otherwise.
func Pluralize(count int, singular, plural string) string {
	if count == 1 {
		return singular
	}
	return plural
}
