// Command jlbridge drives a Julia worker from the command line: launch
// the worker, evaluate one-off expressions, serve as a stand-in worker,
// or hold an interactive session.
package main

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/term"

	"github.com/pgs62/juliabridge/bridge"
	"github.com/pgs62/juliabridge/protocol"
	"github.com/pgs62/juliabridge/worker"
)

func main() {
	if err := rootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

type rootFlags struct {
	configPath string
	exePath    string
	tempDir    string
	verbose    bool
}

func (f *rootFlags) load() (bridge.Config, *zap.Logger, error) {
	cfg, err := bridge.LoadConfig(f.configPath)
	if err != nil {
		return cfg, nil, err
	}
	if f.exePath != "" {
		cfg.ExePath = f.exePath
	}
	if f.tempDir != "" {
		cfg.TempDir = f.tempDir
	}
	log := zap.NewNop()
	if f.verbose {
		if log, err = zap.NewDevelopment(); err != nil {
			return cfg, nil, err
		}
	}
	return cfg, log, nil
}

func rootCmd() *cobra.Command {
	flags := &rootFlags{}
	root := &cobra.Command{
		Use:           "jlbridge",
		Short:         "Bridge this machine's Julia installation to a calling host",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	pf := root.PersistentFlags()
	pf.StringVarP(&flags.configPath, "config", "c", "", "YAML config file")
	pf.StringVar(&flags.exePath, "exe", "", "Julia executable (overrides config and "+bridge.ExeEnv+")")
	pf.StringVar(&flags.tempDir, "temp-dir", "", "exchange-file directory")
	pf.BoolVarP(&flags.verbose, "verbose", "v", false, "log protocol activity")

	root.AddCommand(launchCmd(flags), evalCmd(flags), serveCmd(flags), replCmd(flags))
	return root
}

func launchCmd(flags *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "launch",
		Short: "Start the Julia worker if one is not already serving",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, log, err := flags.load()
			if err != nil {
				return err
			}
			desc, err := bridge.New(cfg, log).Launch(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), desc)
			return nil
		},
	}
}

func evalCmd(flags *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "eval <expression>",
		Short: "Evaluate one Julia expression and print the result",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, log, err := flags.load()
			if err != nil {
				return err
			}
			v, err := bridge.New(cfg, log).Eval(cmd.Context(), strings.Join(args, " "))
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), v.String())
			return nil
		},
	}
}

// serveCmd runs the Go worker loop, standing in for Julia against the
// named host process. Used for exercising a deployment without a Julia
// installation.
func serveCmd(flags *rootFlags) *cobra.Command {
	var hostPID int
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve as a worker for the given host process",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, log, err := flags.load()
			if err != nil {
				return err
			}
			p := protocol.DefaultPaths()
			if cfg.TempDir != "" {
				p.Dir = cfg.TempDir
			}
			p.HostPID = hostPID
			if p.HostPID == 0 {
				p.HostPID = os.Getppid()
			}
			w := worker.New(p, nil, worker.Config{
				PollInterval: time.Duration(cfg.PollInterval),
			}, log)
			return w.Serve(cmd.Context())
		},
	}
	cmd.Flags().IntVar(&hostPID, "host-pid", 0, "host process to serve (default: this process's parent)")
	return cmd
}

func replCmd(flags *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "repl",
		Short: "Interactive session against the worker",
		Args:  cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			if !term.IsTerminal(int(os.Stdin.Fd())) {
				return fmt.Errorf("repl requires a terminal")
			}
			cfg, log, err := flags.load()
			if err != nil {
				return err
			}
			return runRepl(bridge.New(cfg, log))
		},
	}
}
