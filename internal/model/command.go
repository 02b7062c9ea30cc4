package model

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"slices"

	"github.com/fatih/structs"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/i18nmerge/i18nmerge/internal/env"
	"github.com/i18nmerge/i18nmerge/internal/model/flag"
	"github.com/i18nmerge/i18nmerge/internal/utils"
)

type Command interface {
	Init() (*cobra.Command, error)
}

// CommandGroup is a command that only hosts subcommands.
type CommandGroup struct {
	Usage, Short, Long string
	Aliases            []string
	Commands           []Command
}

func (c CommandGroup) Init() (*cobra.Command, error) {
	cmd := &cobra.Command{
		Use:     c.Usage,
		Short:   c.Short,
		Long:    c.Long,
		Aliases: c.Aliases,
	}

	for _, subcommand := range c.Commands {
		subcmd, err := subcommand.Init()
		if err != nil {
			return nil, err
		}
		cmd.AddCommand(subcmd)
	}

	return cmd, nil
}

// ExitError carries a process exit code out of a command. Err may be nil when the command
// has already reported its outcome.
type ExitError struct {
	Code int
	Err  error
}

func (e *ExitError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("exit status %d", e.Code)
	}
	return e.Err.Error()
}

func (e *ExitError) Unwrap() error {
	return e.Err
}

// ExitCode extracts the exit code for err: 0 for nil, the carried code for an ExitError, 1 otherwise.
func ExitCode(err error) int {
	if err == nil {
		return 0
	}
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return exitErr.Code
	}
	return 1
}

// ExecutableCommand is a runnable "leaf" command that can be executed directly and has no subcommands
// F is a struct type that represents the flags for the command. The json tags on the struct fields are used to map to the command line flags
type ExecutableCommand[F any] struct {
	Usage, Short, Long string
	Aliases            []string
	Args               cobra.PositionalArgs
	Flags              []flag.Flag
	PreRun             func(cmd *cobra.Command, flags *F) error
	Run                func(ctx context.Context, flags F, args []string) error
	RunInteractive     func(ctx context.Context, flags F, args []string) error
	Hidden             bool
}

func (c ExecutableCommand[F]) Init() (*cobra.Command, error) {
	preRun := func(cmd *cobra.Command, args []string) error {
		if c.PreRun == nil {
			return nil
		}
		flags, err := c.GetFlagValues(cmd)
		if err != nil {
			return err
		}
		return c.PreRun(cmd, flags)
	}

	run := func(cmd *cobra.Command, args []string) error {
		flags, err := c.GetFlagValues(cmd)
		if err != nil {
			return err
		}

		// Flags parsed; failures from here on are not usage errors
		cmd.SilenceUsage = true

		if c.RunInteractive != nil && utils.IsInteractive() && !env.IsGithubAction() {
			return c.RunInteractive(cmd.Context(), *flags, args)
		}
		if c.Run == nil {
			return fmt.Errorf("this command is only available in an interactive terminal")
		}
		return c.Run(cmd.Context(), *flags, args)
	}

	// Assert that the flags are valid
	if err := c.checkFlags(); err != nil {
		return nil, err
	}

	cmd := &cobra.Command{
		Use:     c.Usage,
		Short:   c.Short,
		Long:    c.Long,
		Aliases: c.Aliases,
		Args:    c.Args,
		PreRunE: preRun,
		RunE:    run,
		Hidden:  c.Hidden,
	}

	for _, f := range c.Flags {
		if err := f.Init(cmd); err != nil {
			return nil, fmt.Errorf("flag %s of command %s: %w", f.GetName(), c.Usage, err)
		}
	}

	return cmd, nil
}

func (c ExecutableCommand[F]) checkFlags() error {
	var f F
	if !structs.IsStruct(f) {
		if len(c.Flags) > 0 {
			return fmt.Errorf("flags type for command %s must be a struct", c.Usage)
		}
		return nil
	}

	tags := make([]string, 0)
	for _, field := range structs.Fields(f) {
		tags = append(tags, field.Tag("json"))
	}

	for _, fl := range c.Flags {
		if !slices.Contains(tags, fl.GetName()) {
			return fmt.Errorf("flag %s is missing from flags type for command %s", fl.GetName(), c.Usage)
		}
	}

	return nil
}

// GetFlagValues decodes the command's flags into F through their json tags.
func (c ExecutableCommand[F]) GetFlagValues(cmd *cobra.Command) (*F, error) {
	var flagValues F

	findFlagDef := func(name string) flag.Flag {
		if slices.Contains(utils.FlagsToIgnore, name) {
			return nil
		}
		for _, f := range c.Flags {
			if f.GetName() == name {
				return f
			}
		}
		return nil
	}

	var parseErr error
	jsonFlags := make(map[string]any)
	cmd.Flags().VisitAll(func(f *pflag.Flag) {
		def := findFlagDef(f.Name)
		if def == nil || parseErr != nil {
			return
		}

		v, err := def.ParseValue(f.Value.String())
		if err != nil {
			parseErr = err
			return
		}
		jsonFlags[f.Name] = v
	})
	if parseErr != nil {
		return nil, parseErr
	}

	jsonBytes, err := json.Marshal(jsonFlags)
	if err != nil {
		return nil, err
	}

	if err := json.Unmarshal(jsonBytes, &flagValues); err != nil {
		return nil, err
	}

	return &flagValues, nil
}

// Verify that the command types implement the Command interface
var _ = []Command{
	&ExecutableCommand[struct{}]{},
	&CommandGroup{},
}
