package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"epic-nft-gallery/internal/mint"
	"epic-nft-gallery/internal/notify"
)

func newMintCmd(root *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "mint",
		Short: "Submit makeAnEpicNFT from an account",
		Long: `Submits makeAnEpicNFT via eth_sendTransaction from --account. The node
(or the wallet behind it) signs the transaction; galleryctl never handles
private keys. The command waits for the transaction to be mined and fails
when the receipt reports a revert. Failed submissions are not retried.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := root.loadConfig(cmd)
			if err != nil {
				return err
			}
			contract, err := root.openContract(cfg)
			if err != nil {
				return err
			}
			network, err := cfg.ResolveNetwork()
			if err != nil {
				return err
			}

			ctx, cancel := root.withTimeout(cmd)
			defer cancel()

			svc := mint.NewService(contract, notify.Nop{},
				mint.WithMaxSupply(cfg.MaxSupply),
				mint.WithReceiptTimeout(root.timeout),
			)
			result, err := svc.Mint(ctx, cfg.Account)
			if err != nil {
				if errors.Is(err, mint.ErrNoAccount) {
					return fmt.Errorf("%s (use --account)", mint.MsgConnectWallet)
				}
				return fmt.Errorf("%s: %w", mint.MsgMintFailed, err)
			}

			out := cmd.OutOrStdout()
			fmt.Fprintln(out, mint.MsgMinted)
			fmt.Fprintf(out, "Account: %s\n", result.Account)
			fmt.Fprintf(out, "Tx:      %s\n", result.TxHash)
			fmt.Fprintf(out, "Block:   %d\n", result.BlockNumber)
			if url := network.TxURL(result.TxHash); url != "" {
				fmt.Fprintf(out, "View:    %s\n", url)
			}
			return nil
		},
	}
}
