package flag

import (
	"fmt"
	"slices"
	"strings"

	"github.com/spf13/cobra"
)

type EnumFlag struct {
	Common
	DefaultValue  string
	AllowedValues []string
}

func (f EnumFlag) Init(cmd *cobra.Command) error {
	if len(f.AllowedValues) == 0 {
		return fmt.Errorf("allowed values must not be empty")
	}

	if !f.Required {
		if f.DefaultValue == "" {
			return fmt.Errorf("default value must not be empty if the flag is not required")
		}
		if !slices.Contains(f.AllowedValues, f.DefaultValue) {
			return fmt.Errorf("default value %s is not in the list of allowed values", f.DefaultValue)
		}
	}

	cmd.Flags().StringP(f.Name, f.Shorthand, f.DefaultValue, fmt.Sprintf("%s (%s)", f.Description, strings.Join(f.AllowedValues, "|")))
	if err := cmd.RegisterFlagCompletionFunc(f.Name, cobra.FixedCompletions(f.AllowedValues, cobra.ShellCompDirectiveNoFileComp)); err != nil {
		return err
	}
	return f.finish(cmd)
}

func (f EnumFlag) ParseValue(v string) (any, error) {
	if v == "" && !f.Required {
		return f.DefaultValue, nil
	}
	if !slices.Contains(f.AllowedValues, v) {
		return nil, fmt.Errorf("invalid value %q for --%s, expected one of %s", v, f.Name, strings.Join(f.AllowedValues, ", "))
	}
	return v, nil
}
