package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"epic-nft-gallery/internal/domain"
)

func newSupplyCmd(root *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "supply",
		Short: "Show minted supply and mint progress",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := root.loadConfig(cmd)
			if err != nil {
				return err
			}
			contract, err := root.openContract(cfg)
			if err != nil {
				return err
			}

			ctx, cancel := root.withTimeout(cmd)
			defer cancel()

			minted, err := contract.TotalMinted(ctx)
			if err != nil {
				return fmt.Errorf("read supply: %w", err)
			}
			printProgress(cmd, domain.NewMintProgress(minted, cfg.MaxSupply))
			return nil
		},
	}
}

func printProgress(cmd *cobra.Command, p domain.MintProgress) {
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Minted:    %d / %d (%.1f%%)\n", p.Minted, p.MaxSupply, p.PercentMinted)
	fmt.Fprintf(out, "Remaining: %d\n", p.Remaining)
	if p.SoldOut {
		fmt.Fprintln(out, "Sold out")
	}
}
