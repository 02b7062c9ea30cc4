package cmd

import (
	"errors"
	"fmt"
	"os"
	"slices"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/i18nmerge/i18nmerge/internal/charm/styles"
	"github.com/i18nmerge/i18nmerge/internal/config"
	"github.com/i18nmerge/i18nmerge/internal/log"
	"github.com/i18nmerge/i18nmerge/internal/model"
)

var rootCmd = &cobra.Command{
	Use:   "i18nmerge",
	Short: "Resolve git merge conflicts in localization metadata and dictionary files",
	Long: `i18nmerge resolves git conflict markers left in localization files:
	- meta.json scope metadata
	- dictionary.* translation modules (ts, js, mjs, ...)

Conflicts are merged structurally where possible, or resolved wholesale with the ours/theirs strategies.`,
}

var l = log.New().WithLevel(log.LevelInfo)

func init() {
	// Commands are listed in the order they are added
	cobra.EnableCommandSorting = false
	if err := config.Load(); err != nil {
		l.Error("", zap.Error(err))
		os.Exit(1)
	}
}

func Init(version string) {
	rootCmd.PersistentFlags().String("logLevel", string(log.LevelInfo), fmt.Sprintf("the log level (available options: [%s])", strings.Join(log.Levels, ", ")))

	addCommand(rootCmd, resolveCmd())
	addCommand(rootCmd, checkCmd())
	addCommand(rootCmd, mergeDriverCmd())
	addCommand(rootCmd, installDriverCmd())
	addCommand(rootCmd, configCmd())
}

func addCommand(cmd *cobra.Command, command model.Command) {
	c, err := command.Init()
	if err != nil {
		l.Error("", zap.Error(err))
		os.Exit(1)
	}
	cmd.AddCommand(c)
}

func CmdForTest(version string) *cobra.Command {
	setupRootCmd(version)

	return rootCmd
}

func Execute(version string) {
	setupRootCmd(version)

	err := rootCmd.Execute()
	if err == nil {
		return
	}

	// An ExitError without a cause has already reported its outcome
	var exitErr *model.ExitError
	if !errors.As(err, &exitErr) || exitErr.Err != nil {
		l.Error("", zap.Error(err))
		l.WithInteractiveOnly().PrintfStyled(styles.DimmedItalic, "Run '%s --help' for usage.\n", rootCmd.CommandPath())
	}
	os.Exit(model.ExitCode(err))
}

func setupRootCmd(version string) {
	rootCmd.Version = version
	rootCmd.SilenceErrors = true
	rootCmd.SilenceUsage = true
	rootCmd.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		return setLogLevel(cmd)
	}

	Init(version)
}

func GetRootCommand() *cobra.Command {
	return rootCmd
}

func setLogLevel(cmd *cobra.Command) error {
	logLevel, err := cmd.Flags().GetString("logLevel")
	if err != nil {
		return err
	}
	if !slices.Contains(log.Levels, logLevel) {
		return fmt.Errorf("log level must be one of: %s", strings.Join(log.Levels, ", "))
	}

	l = l.WithLevel(log.Level(logLevel))
	ctx := log.With(cmd.Context(), l)
	cmd.SetContext(ctx)

	return nil
}
