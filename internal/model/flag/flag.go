// Package flag declares typed command line flags. Each flag registers itself on a cobra
// command and converts its string form into the value decoded into a command's flags struct.
package flag

import (
	"github.com/spf13/cobra"
)

type Flag interface {
	Init(cmd *cobra.Command) error
	GetName() string
	ParseValue(v string) (any, error)
}

// Common holds the settings shared by every flag type.
type Common struct {
	Name, Shorthand, Description string
	Required, Hidden             bool
	DeprecationMessage           string
}

func (c Common) GetName() string {
	return c.Name
}

func (c Common) finish(cmd *cobra.Command) error {
	if c.Required {
		if err := cmd.MarkFlagRequired(c.Name); err != nil {
			return err
		}
	}
	if c.Hidden {
		if err := cmd.Flags().MarkHidden(c.Name); err != nil {
			return err
		}
	}
	if c.DeprecationMessage != "" {
		if err := cmd.Flags().MarkDeprecated(c.Name, c.DeprecationMessage); err != nil {
			return err
		}
	}
	return nil
}

// Verify that the flag types implement the Flag interface
var _ = []Flag{
	&StringFlag{},
	&BooleanFlag{},
	&IntFlag{},
	&EnumFlag{},
	&SizeFlag{},
	&StringSliceFlag{},
}
