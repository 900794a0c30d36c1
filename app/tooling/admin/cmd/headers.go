package cmd

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/taikoxyz/taiko-mono/foundation/blockchain/header"
	"github.com/taikoxyz/taiko-mono/foundation/blockchain/protocol"
)

var headersCmd = &cobra.Command{
	Use:   "headers",
	Short: "Print the derived block headers in order.",
	RunE:  headersRun,
}

func init() {
	rootCmd.AddCommand(headersCmd)
}

func headersRun(cmd *cobra.Command, args []string) error {
	strg, err := openStore()
	if err != nil {
		return err
	}
	defer strg.Close()

	tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "NUMBER\tTIMESTAMP\tBASEFEE\tPROPOSAL\tFLAGS\tHASH")

	iter := strg.ForEach()
	for h, err := iter.Next(); !iter.Done(); h, err = iter.Next() {
		if err != nil {
			return err
		}

		var proposal uint64
		var flags string
		if info, err := header.ParseExtraData(h.ExtraData); err == nil {
			proposal = info.ProposalID
			if info.LastBlock {
				flags += "L"
			}
			if info.DefaultContent {
				flags += "D"
			}
		}

		fmt.Fprintf(tw, "%d\t%d\t%s\t%d\t%s\t%s\n", h.Number, h.Timestamp, protocol.Amount(h.BaseFeePerGas).Dec(), proposal, flags, h.Hash())
	}

	return tw.Flush()
}
