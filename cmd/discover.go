package cmd

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"multiput/internal/discovery"
	apperrors "multiput/internal/errors"
)

func newDiscoverCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "discover",
		Short: "List peers advertising themselves on the local network",
		Args:  exactArgs(0),
		RunE: func(cmd *cobra.Command, args []string) error {
			d := a.cfg.Discovery
			peers, err := discovery.Browse(cmd.Context(), d.Service, d.Domain, d.Timeout)
			if err != nil {
				return apperrors.Fatal(apperrors.ErrConnection, "discovery", "mDNS browse failed", err)
			}
			if len(peers) == 0 {
				fmt.Fprintf(a.out, "No peers found for %s within %s\n", d.Service, d.Timeout)
				return nil
			}
			w := tabwriter.NewWriter(a.out, 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "INSTANCE\tADDRESS\tPORT")
			for _, p := range peers {
				fmt.Fprintf(w, "%s\t%s\t%d\n", p.Instance, p.IP, p.Port)
			}
			return w.Flush()
		},
	}
}
