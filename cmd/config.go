package cmd

import (
	"context"
	"fmt"
	"os"
	"slices"

	"github.com/spf13/cobra"

	"github.com/i18nmerge/i18nmerge/internal/charm/styles"
	"github.com/i18nmerge/i18nmerge/internal/config"
	"github.com/i18nmerge/i18nmerge/internal/log"
	"github.com/i18nmerge/i18nmerge/internal/model"
)

func configCmd() model.Command {
	return &model.CommandGroup{
		Usage: "config",
		Short: "Show and change i18nmerge settings",
		Long: `Show and change i18nmerge settings.

Settings are read from ~/.i18nmerge/config.yaml, then .i18nmerge.yaml in the working directory, then I18NMERGE_* environment variables.
"config set" only writes the user file.`,
		Commands: []model.Command{
			&model.ExecutableCommand[struct{}]{
				Usage: "get [key]",
				Short: "Print the effective value of one or all settings",
				Args:  cobra.MaximumNArgs(1),
				Run:   runConfigGet,
			},
			&model.ExecutableCommand[struct{}]{
				Usage: "set <key> <value>",
				Short: "Persist a setting in the user config file",
				Args:  cobra.ExactArgs(2),
				Run:   runConfigSet,
			},
		},
	}
}

func runConfigGet(_ context.Context, _ struct{}, args []string) error {
	keys := config.Keys()
	if len(args) == 1 {
		keys = []string{args[0]}
	}

	for _, key := range keys {
		if !slices.Contains(config.Keys(), key) {
			return fmt.Errorf("unknown config key %q", key)
		}
		fmt.Fprintf(os.Stdout, "%s %v\n", styles.Dimmed.Render(key+":"), config.Get(key))
	}
	return nil
}

func runConfigSet(ctx context.Context, _ struct{}, args []string) error {
	if err := config.Set(args[0], args[1]); err != nil {
		return err
	}
	log.From(ctx).Successf("Set %s to %s", args[0], args[1])
	return nil
}
