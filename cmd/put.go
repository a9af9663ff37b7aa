package cmd

import (
	"io"
	"strconv"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	apperrors "multiput/internal/errors"
	"multiput/internal/store"
	"multiput/internal/transfer"
)

func newPutCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "put ADDRESS PORT DIRNAME THRESHOLD",
		Short: "Offer every file of DIRNAME of at least THRESHOLD bytes to the peer",
		Long: `Connects once to the peer and offers the files of DIRNAME in name order.
The peer accepts or refuses each file; accepted files are sent whole.

Exit status: 1 connection failure, 2 file vanished during the session,
3 I/O failure, 4 invalid arguments.`,
		Args: exactArgs(4),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.put(cmd, args)
		},
	}
}

func (a *app) put(cmd *cobra.Command, args []string) error {
	port, err := strconv.Atoi(args[1])
	if err != nil {
		return usageError("PORT must be an integer")
	}
	threshold, err := strconv.ParseInt(args[3], 10, 64)
	if err != nil {
		return usageError("THRESHOLD must be an integer")
	}
	dialer, err := transfer.NewDialer(a.cfg.Transport)
	if err != nil {
		return apperrors.NewError(apperrors.ErrArgs, apperrors.ERROR, "cli", "invalid transport", err)
	}

	ctx := cmd.Context()
	endpoint, err := transfer.ResolveEndpoint(ctx, args[0], port)
	if err != nil {
		return err
	}

	var progress io.Writer
	if !a.cfg.Quiet {
		progress = a.errOut
	}
	session, err := transfer.NewSession(endpoint, args[2], threshold, transfer.Options{
		Dialer:   dialer,
		Reporter: consoleReporter{out: a.out},
		Logger:   logrus.WithField("transport", a.cfg.Transport),
		Progress: progress,
	})
	if err != nil {
		return err
	}

	report, err := session.Run(ctx)
	logrus.WithFields(logrus.Fields{
		"session":  report.Session,
		"uploaded": report.Count(store.Uploaded),
		"rejected": report.Count(store.Rejected),
		"failed":   report.Count(store.TransferError),
	}).Info("Session finished")
	return err
}
