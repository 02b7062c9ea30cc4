package flag

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"
)

type IntFlag struct {
	Common
	DefaultValue int
	// Min rejects smaller values when non-zero
	Min int
}

func (f IntFlag) Init(cmd *cobra.Command) error {
	cmd.Flags().IntP(f.Name, f.Shorthand, f.DefaultValue, f.Description)
	return f.finish(cmd)
}

func (f IntFlag) ParseValue(v string) (any, error) {
	n, err := strconv.Atoi(v)
	if err != nil {
		return nil, err
	}
	if f.Min != 0 && n < f.Min {
		return nil, fmt.Errorf("--%s must be at least %d, got %d", f.Name, f.Min, n)
	}
	return n, nil
}
