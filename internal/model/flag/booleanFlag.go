package flag

import (
	"strconv"

	"github.com/spf13/cobra"
)

type BooleanFlag struct {
	Common
	DefaultValue bool
}

func (f BooleanFlag) Init(cmd *cobra.Command) error {
	cmd.Flags().BoolP(f.Name, f.Shorthand, f.DefaultValue, f.Description)
	return f.finish(cmd)
}

func (f BooleanFlag) ParseValue(v string) (any, error) {
	return strconv.ParseBool(v)
}
