package flag

import (
	"github.com/spf13/cobra"
)

type StringFlag struct {
	Common
	DefaultValue string
	// AutocompleteFileExtensions limits shell completion to files with these extensions
	AutocompleteFileExtensions []string
}

func (f StringFlag) Init(cmd *cobra.Command) error {
	cmd.Flags().StringP(f.Name, f.Shorthand, f.DefaultValue, f.Description)
	if len(f.AutocompleteFileExtensions) > 0 {
		if err := cmd.MarkFlagFilename(f.Name, f.AutocompleteFileExtensions...); err != nil {
			return err
		}
	}
	return f.finish(cmd)
}

func (f StringFlag) ParseValue(v string) (any, error) {
	return v, nil
}
