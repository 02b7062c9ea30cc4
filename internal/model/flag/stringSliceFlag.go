package flag

import (
	"encoding/csv"
	"strings"

	"github.com/spf13/cobra"
)

type StringSliceFlag struct {
	Common
	DefaultValue []string
}

func (f StringSliceFlag) Init(cmd *cobra.Command) error {
	cmd.Flags().StringSliceP(f.Name, f.Shorthand, f.DefaultValue, f.Description+" (comma-separated list)")
	return f.finish(cmd)
}

// ParseValue decodes pflag's "[a,b]" rendering of a string slice.
func (f StringSliceFlag) ParseValue(v string) (any, error) {
	v = strings.TrimSuffix(strings.TrimPrefix(v, "["), "]")
	if v == "" {
		return []string{}, nil
	}

	return csv.NewReader(strings.NewReader(v)).Read()
}
