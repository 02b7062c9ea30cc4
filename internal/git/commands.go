package git

import (
	"bytes"
	"fmt"
	"os/exec"
)

// RunGitCommand executes a native git command in the given directory and returns its stdout.
// stderr is returned in the error message on failure.
func RunGitCommand(dir string, args ...string) (string, error) {
	cmd := exec.Command("git", args...)
	cmd.Dir = dir
	var outb, errb bytes.Buffer
	cmd.Stdout = &outb
	cmd.Stderr = &errb
	if err := cmd.Run(); err != nil {
		return "", fmt.Errorf("failed to run git %s: %w - %s", args[0], err, errb.String())
	}

	return outb.String(), nil
}

// RunGitCommandInRepo executes a native git command in the repository's root directory.
func (r *Repository) RunGitCommandInRepo(args ...string) (string, error) {
	root := r.Root()
	if root == "" {
		return "", fmt.Errorf("repository root not found")
	}
	return RunGitCommand(root, args...)
}

// InstallMergeDriver registers a custom merge driver in the repository's local git config.
// command is the driver command line, using git's %O %A %B %P placeholders.
func (r *Repository) InstallMergeDriver(name, description, command string) error {
	if _, err := r.RunGitCommandInRepo("config", "--local", "merge."+name+".name", description); err != nil {
		return err
	}
	if _, err := r.RunGitCommandInRepo("config", "--local", "merge."+name+".driver", command); err != nil {
		return err
	}
	return nil
}
