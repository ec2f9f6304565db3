package main

import (
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"epic-nft-gallery/internal/config"
)

func newNetworksCmd(root *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "networks",
		Short: "List built-in and configured networks",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(root.configPath)
			if err != nil {
				return err
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "NAME\tCHAIN ID\tRPC\tEXPLORER")
			for _, n := range append(config.Networks(), cfg.Networks...) {
				explorer := n.Explorer
				if explorer == "" {
					explorer = "-"
				}
				fmt.Fprintf(w, "%s\t%d\t%s\t%s\n", n.Name, n.ChainID, strings.Join(n.RPCURLs, ","), explorer)
			}
			return w.Flush()
		},
	}
}
