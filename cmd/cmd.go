package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"multiput/internal/config"
	apperrors "multiput/internal/errors"
)

const version = "0.2.0"

type app struct {
	v          *viper.Viper
	cfg        *config.Config
	configPath string
	out        io.Writer
	errOut     io.Writer
}

func newRootCommand(out, errOut io.Writer) *cobra.Command {
	a := &app{v: viper.New(), out: out, errOut: errOut}

	root := &cobra.Command{
		Use:           "multiput",
		Short:         "Upload the files of a directory to a peer, one negotiated file at a time",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if err := bindFlags(a.v, cmd.Root().PersistentFlags(), map[string]string{
				"transport": "transport",
				"quiet":     "quiet",
				"log_level": "log-level",
			}); err != nil {
				return apperrors.NewError(apperrors.ErrArgs, apperrors.ERROR, "config", "flag binding", err)
			}
			return a.loadConfig()
		},
	}
	root.SetOut(out)
	root.SetErr(errOut)
	root.SetFlagErrorFunc(func(cmd *cobra.Command, err error) error {
		return usageError(err.Error())
	})

	flags := root.PersistentFlags()
	flags.StringVar(&a.configPath, "config", "", "config file (default $HOME/.multiput.yaml)")
	flags.String("transport", "tcp", "transport to the peer: tcp or quic")
	flags.BoolP("quiet", "q", false, "disable progress bars")
	flags.String("log-level", "warning", "log level: debug, info, warning, error")

	root.AddCommand(newPutCommand(a), newDiscoverCommand(a))
	return root
}

func bindFlags(v *viper.Viper, flags *pflag.FlagSet, keys map[string]string) error {
	for key, name := range keys {
		if err := v.BindPFlag(key, flags.Lookup(name)); err != nil {
			return fmt.Errorf("bind flag --%s: %w", name, err)
		}
	}
	return nil
}

func (a *app) loadConfig() error {
	cfg, err := config.Load(a.v, a.configPath)
	if err != nil {
		return apperrors.NewError(apperrors.ErrArgs, apperrors.ERROR, "config", "invalid configuration", err)
	}
	level, _ := cfg.Level()
	logrus.SetOutput(a.errOut)
	logrus.SetLevel(level)
	logrus.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	a.cfg = cfg
	return nil
}

func usageError(msg string) error {
	return apperrors.NewError(apperrors.ErrArgs, apperrors.ERROR, "cli", msg, nil)
}

func exactArgs(n int) cobra.PositionalArgs {
	return func(cmd *cobra.Command, args []string) error {
		if len(args) != n {
			return usageError(fmt.Sprintf("usage: %s", cmd.UseLine()))
		}
		return nil
	}
}

// run executes the command line and returns the process exit status.
func run(ctx context.Context, args []string, out, errOut io.Writer) int {
	root := newRootCommand(out, errOut)
	root.SetArgs(args)
	err := root.ExecuteContext(ctx)
	if err == nil {
		return apperrors.ExitOK
	}
	fmt.Fprintf(errOut, "Error: %v\n", err)
	if _, ok := apperrors.TypeOf(err); !ok {
		// cobra's own errors (unknown command and the like) are usage errors.
		return apperrors.ExitArgs
	}
	return apperrors.ExitCode(err)
}

func Execute(ctx context.Context) int {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()
	return run(ctx, os.Args[1:], os.Stdout, os.Stderr)
}
