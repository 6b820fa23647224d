package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/kikiluvv/framescan/internal/config"
	"github.com/kikiluvv/framescan/internal/logging"
	"github.com/kikiluvv/framescan/internal/pipeline"
	"github.com/kikiluvv/framescan/internal/scanner"
	"github.com/kikiluvv/framescan/internal/watch"
)

type rootOptions struct {
	cfgFile  string
	verbose  bool
	logLevel string
	stderr   io.Writer
}

func main() {
	os.Exit(run(context.Background(), os.Args[1:], os.Stdout, os.Stderr))
}

// run executes the CLI and returns the process exit code. scan always
// exits 0 and always prints a result, even when its flags do not parse.
// It stays silent on stderr unless logging was asked for.
func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	root := newRootCmd(stderr)
	root.SetArgs(args)
	root.SetOut(stdout)
	root.SetErr(stderr)

	cmd, err := root.ExecuteContextC(ctx)
	if err == nil {
		return 0
	}
	if cmd != nil && cmd.Name() == "scan" {
		_ = writeJSON(stdout, scanner.Fallback())
		return 0
	}
	fmt.Fprintln(stderr, "Error:", err)
	return 1
}

func newRootCmd(stderr io.Writer) *cobra.Command {
	opts := &rootOptions{stderr: stderr}

	root := &cobra.Command{
		Use:   "framescan",
		Short: "framescan - single-pass video signal analyzer",
		Long: "Samples a sparse set of frames from a video and reports orientation, " +
			"face-centering and motion signals as JSON.",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			scan := cmd.Name() == "scan"
			lenient := scan || cmd.Name() == "probe"

			// scan only logs when asked to
			fallback := zerolog.WarnLevel
			if scan {
				fallback = zerolog.Disabled
			}
			level, err := logging.ParseLevel(opts.logLevel, fallback)
			if err != nil && !lenient {
				return err
			}
			if opts.verbose {
				level = zerolog.DebugLevel
			}
			logging.InitWriter(opts.stderr, level)
			logger := logging.WithComponent(log.Logger, "cli")

			// Load config
			cfg, err := config.Load(opts.cfgFile)
			if err != nil {
				if !lenient {
					return err
				}
				logger.Warn().Err(err).Msg("config unusable, using defaults")
				cfg = config.Default()
			}

			// Store config in context
			cmd.SetContext(config.WithConfig(cmd.Context(), cfg))
			return nil
		},
	}

	root.PersistentFlags().StringVar(&opts.cfgFile, "config", "", "config file (default: ./framescan.yaml)")
	root.PersistentFlags().BoolVarP(&opts.verbose, "verbose", "v", false, "debug output on stderr")
	root.PersistentFlags().StringVar(&opts.logLevel, "log-level", "", "log level: trace, debug, info, warn, error")

	root.AddCommand(newScanCmd())
	root.AddCommand(newProbeCmd())
	root.AddCommand(newWatchCmd())
	root.AddCommand(newConfigCmd())
	return root
}

func newScanCmd() *cobra.Command {
	var (
		input string
		ratio float64
	)

	cmd := &cobra.Command{
		Use:   "scan",
		Short: "Scan a video and print its signals as JSON",
		Args:  cobra.ArbitraryArgs,
		FParseErrWhitelist: cobra.FParseErrWhitelist{
			UnknownFlags: true,
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.FromContext(cmd.Context())
			if !cmd.Flags().Changed("sample-ratio") {
				ratio = cfg.Scan.SampleRatio
			}

			pipe := pipeline.New(log.Logger, cfg)
			defer pipe.Close()

			res := pipe.Scan(cmd.Context(), input, ratio)
			if err := writeJSON(cmd.OutOrStdout(), res); err != nil {
				logger := logging.WithComponent(log.Logger, "cli")
				logger.Error().Err(err).Msg("failed to write result")
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&input, "input", "i", "", "input video path")
	cmd.Flags().Float64Var(&ratio, "sample-ratio", scanner.DefaultSampleRatio, "fraction of frames to sample, clamped to [0.01, 0.5]")
	return cmd
}

func newProbeCmd() *cobra.Command {
	var input string

	cmd := &cobra.Command{
		Use:   "probe",
		Short: "Print the metadata the scanner sees for a video",
		RunE: func(cmd *cobra.Command, args []string) error {
			pipe := pipeline.New(log.Logger, config.FromContext(cmd.Context()))
			defer pipe.Close()

			return writeJSON(cmd.OutOrStdout(), pipe.Probe(cmd.Context(), input))
		},
	}

	cmd.Flags().StringVarP(&input, "input", "i", "", "input video path")
	return cmd
}

func newWatchCmd() *cobra.Command {
	var ratio float64

	cmd := &cobra.Command{
		Use:   "watch [directory]",
		Short: "Scan videos as they appear in a directory",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.FromContext(cmd.Context())
			if !cmd.Flags().Changed("sample-ratio") {
				ratio = cfg.Scan.SampleRatio
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			pipe := pipeline.New(log.Logger, cfg)
			defer pipe.Close()

			scan := func(ctx context.Context, path string) scanner.Result {
				return pipe.Scan(ctx, path, ratio)
			}

			w, err := watch.New(log.Logger, args[0], watch.DefaultDebounce, scan, cmd.OutOrStdout())
			if err != nil {
				return err
			}
			return w.Run(ctx)
		},
	}

	cmd.Flags().Float64Var(&ratio, "sample-ratio", scanner.DefaultSampleRatio, "fraction of frames to sample")
	return cmd
}

func newConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Config management commands",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Print the effective configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := yaml.Marshal(config.FromContext(cmd.Context()))
			if err != nil {
				return err
			}
			_, err = cmd.OutOrStdout().Write(data)
			return err
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "init [path]",
		Short: "Write the default configuration",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := "framescan.yaml"
			if len(args) == 1 {
				path = args[0]
			}
			if _, err := os.Stat(path); err == nil {
				return fmt.Errorf("%s already exists", path)
			}
			if err := config.Default().Save(path); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), path)
			return nil
		},
	})

	return cmd
}

func writeJSON(w io.Writer, v any) error {
	return json.NewEncoder(w).Encode(v)
}
