package main

import (
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/qri-io/coords-go"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

const envPrefix = "COORDINFO"

var logLevels = map[string]slog.Level{
	"debug": slog.LevelDebug,
	"info":  slog.LevelInfo,
	"warn":  slog.LevelWarn,
	"error": slog.LevelError,
}

// app carries the configuration and logger shared by subcommands
type app struct {
	v   *viper.Viper
	log *slog.Logger
}

func newRootCmd() *cobra.Command {
	v := viper.New()
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()
	a := &app{v: v, log: slog.New(slog.NewTextHandler(io.Discard, nil))}

	root := &cobra.Command{
		Use:   "coordinfo",
		Short: "Inspect coordinate description files",
		Long: `coordinfo reads a YAML or JSON description of an array's coordinates
(optionally gzip or zstandard compressed) and reports on it.

Configuration is read from flags first, then COORDINFO_* environment
variables (eg. COORDINFO_FORMAT=json, COORDINFO_LOG_LEVEL=debug).

Examples:
  coordinfo describe patch.yaml
  coordinfo attrs --format json patch.yaml.gz
  coordinfo select patch.yaml --range distance=100..400 --range time=..2020-01-01T00:00:05`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.setupLogging(cmd)
		},
	}

	flags := root.PersistentFlags()
	flags.StringP("format", "f", "text", "Output format (text|yaml|json)")
	flags.String("log-level", "warn", "Log level (debug|info|warn|error)")
	flags.String("compression", "", "Input compression (gzip|zst); guessed from the file extension when empty")
	for _, name := range []string{"format", "log-level", "compression"} {
		_ = v.BindPFlag(name, flags.Lookup(name))
	}

	root.AddCommand(
		newDescribeCmd(a),
		newAttrsCmd(a),
		newSelectCmd(a),
	)
	return root
}

func (a *app) setupLogging(cmd *cobra.Command) error {
	name := strings.ToLower(a.v.GetString("log-level"))
	level, ok := logLevels[name]
	if !ok {
		return fmt.Errorf("unknown log level %q", name)
	}
	h := slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: level})
	a.log = slog.New(h).With("cmd", cmd.Name())
	coords.SetLogger(a.log)
	return nil
}

func newDescribeCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "describe FILE",
		Short: "Summarise the coordinates of a description file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			m, _, err := loadManager(a.log, args[0], a.v.GetString("compression"))
			if err != nil {
				return err
			}
			return writeManager(cmd.OutOrStdout(), a.v.GetString("format"), m)
		},
	}
}

func newAttrsCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "attrs FILE",
		Short: "Write the compact attributes of a description file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			m, desc, err := loadManager(a.log, args[0], a.v.GetString("compression"))
			if err != nil {
				return err
			}
			attrs := m.UpdateToAttrs(&desc.Attrs)
			return writeAttrs(cmd.OutOrStdout(), a.v.GetString("format"), attrs)
		},
	}
}

func newSelectCmd(a *app) *cobra.Command {
	var (
		ranges []string
		output string
	)
	cmd := &cobra.Command{
		Use:   "select FILE",
		Short: "Select coordinate ranges and summarise the result",
		Long: `Select keeps the samples of each named coordinate that fall inside an
inclusive range. Ranges are written NAME=LO..HI; leave a side empty for an
open bound. Bounds may be numbers, quantities ("100 ft"), dates or
durations. With --output the selected coordinates are also written as a
new (uncompressed) description file.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			sel, err := parseRanges(ranges)
			if err != nil {
				return err
			}
			m, desc, err := loadManager(a.log, args[0], a.v.GetString("compression"))
			if err != nil {
				return err
			}
			out, _, err := m.Select(sel, nil)
			if err != nil {
				return err
			}
			if output != "" {
				st, key, err := openFile(output)
				if err != nil {
					return err
				}
				if err := writeDescription(st, key, describeManager(out, desc.Attrs)); err != nil {
					return fmt.Errorf("writing %q: %w", output, err)
				}
				a.log.Info("wrote selection", "path", output, "shape", out.Shape())
			}
			return writeManager(cmd.OutOrStdout(), a.v.GetString("format"), out)
		},
	}
	cmd.Flags().StringArrayVarP(&ranges, "range", "r", nil, "Range to select, as NAME=LO..HI (repeatable)")
	cmd.Flags().StringVarP(&output, "output", "o", "", "Write the selected coordinates to this description file")
	return cmd
}

// parseRanges reads NAME=LO..HI flags
func parseRanges(specs []string) (map[string]coords.Range, error) {
	out := make(map[string]coords.Range, len(specs))
	for _, s := range specs {
		name, bounds, ok := strings.Cut(s, "=")
		if !ok || name == "" {
			return nil, fmt.Errorf("invalid range %q, expected NAME=LO..HI", s)
		}
		lo, hi, ok := strings.Cut(bounds, "..")
		if !ok {
			return nil, fmt.Errorf("invalid range %q, expected NAME=LO..HI", s)
		}
		var r coords.Range
		if lo = strings.TrimSpace(lo); lo != "" {
			r.Lo = lo
		}
		if hi = strings.TrimSpace(hi); hi != "" {
			r.Hi = hi
		}
		out[strings.TrimSpace(name)] = r
	}
	return out, nil
}
