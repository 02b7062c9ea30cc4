package utils_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/i18nmerge/i18nmerge/internal/utils"
)

func TestCapitalizeFirst(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "", utils.CapitalizeFirst(""))
	assert.Equal(t, "Resolved", utils.CapitalizeFirst("resolved"))
	assert.Equal(t, "Édition", utils.CapitalizeFirst("édition"))
}

func TestPluralize(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "conflict", utils.Pluralize(1, "conflict", "conflicts"))
	assert.Equal(t, "conflicts", utils.Pluralize(0, "conflict", "conflicts"))
	assert.Equal(t, "conflicts", utils.Pluralize(3, "conflict", "conflicts"))
}
