package flag

import (
	"fmt"
	"math"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
)

// SizeFlag accepts a byte size such as "512KiB", "10MB" or "1048576" and decodes to int64 bytes.
type SizeFlag struct {
	Common
	DefaultValue string
}

func (f SizeFlag) Init(cmd *cobra.Command) error {
	if f.DefaultValue != "" {
		if _, err := f.ParseValue(f.DefaultValue); err != nil {
			return err
		}
	}
	cmd.Flags().StringP(f.Name, f.Shorthand, f.DefaultValue, f.Description)
	return f.finish(cmd)
}

func (f SizeFlag) ParseValue(v string) (any, error) {
	if v == "" {
		return int64(0), nil
	}
	n, err := humanize.ParseBytes(v)
	if err != nil {
		return nil, fmt.Errorf("invalid size %q for --%s: %w", v, f.Name, err)
	}
	if n > math.MaxInt64 {
		return nil, fmt.Errorf("size %q for --%s is too large", v, f.Name)
	}
	return int64(n), nil
}
