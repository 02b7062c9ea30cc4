package flag

import (
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEnumFlag(t *testing.T) {
	t.Parallel()

	f := EnumFlag{
		Common:        Common{Name: "strategy", Shorthand: "s", Description: "resolution strategy"},
		DefaultValue:  "smart",
		AllowedValues: []string{"smart", "ours", "theirs"},
	}

	cmd := &cobra.Command{Use: "test"}
	require.NoError(t, f.Init(cmd))
	assert.Contains(t, cmd.Flags().Lookup("strategy").Usage, "smart|ours|theirs")

	v, err := f.ParseValue("theirs")
	require.NoError(t, err)
	assert.Equal(t, "theirs", v)

	v, err = f.ParseValue("")
	require.NoError(t, err)
	assert.Equal(t, "smart", v)

	_, err = f.ParseValue("union")
	assert.ErrorContains(t, err, "expected one of smart, ours, theirs")

	bad := EnumFlag{Common: Common{Name: "x"}, DefaultValue: "a", AllowedValues: []string{"b"}}
	assert.Error(t, bad.Init(&cobra.Command{Use: "bad"}))
	assert.Error(t, EnumFlag{Common: Common{Name: "y"}}.Init(&cobra.Command{Use: "bad"}))
}

func TestSizeFlag(t *testing.T) {
	t.Parallel()

	f := SizeFlag{Common: Common{Name: "max-size"}, DefaultValue: "10MiB"}
	require.NoError(t, f.Init(&cobra.Command{Use: "test"}))

	tests := map[string]int64{
		"":       0,
		"1024":   1024,
		"512KiB": 512 * 1024,
		"10MiB":  10 * 1024 * 1024,
		"1 MB":   1000 * 1000,
	}
	for in, want := range tests {
		v, err := f.ParseValue(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, v, in)
	}

	_, err := f.ParseValue("lots")
	assert.Error(t, err)

	assert.Error(t, SizeFlag{Common: Common{Name: "s"}, DefaultValue: "huge"}.Init(&cobra.Command{Use: "bad"}))
}

func TestIntFlag(t *testing.T) {
	t.Parallel()

	f := IntFlag{Common: Common{Name: "concurrency"}, DefaultValue: 8, Min: 1}

	v, err := f.ParseValue("4")
	require.NoError(t, err)
	assert.Equal(t, 4, v)

	_, err = f.ParseValue("0")
	assert.ErrorContains(t, err, "at least 1")

	_, err = f.ParseValue("four")
	assert.Error(t, err)
}

func TestStringSliceFlag(t *testing.T) {
	t.Parallel()

	f := StringSliceFlag{Common: Common{Name: "include"}}

	v, err := f.ParseValue("[]")
	require.NoError(t, err)
	assert.Equal(t, []string{}, v)

	v, err = f.ParseValue("[meta.json,dictionary.*]")
	require.NoError(t, err)
	assert.Equal(t, []string{"meta.json", "dictionary.*"}, v)
}

func TestCommon_RequiredAndHidden(t *testing.T) {
	t.Parallel()

	cmd := &cobra.Command{Use: "test"}
	require.NoError(t, StringFlag{Common: Common{Name: "path", Required: true, Hidden: true}}.Init(cmd))
	require.NoError(t, BooleanFlag{Common: Common{Name: "old", DeprecationMessage: "use --new"}}.Init(cmd))

	path := cmd.Flags().Lookup("path")
	assert.True(t, path.Hidden)
	assert.Equal(t, []string{"true"}, path.Annotations[cobra.BashCompOneRequiredFlag])
	assert.Equal(t, "use --new", cmd.Flags().Lookup("old").Deprecated)
}
