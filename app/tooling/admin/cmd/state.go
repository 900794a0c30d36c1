package cmd

import (
	"encoding/json"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/spf13/cobra"
)

var stateCmd = &cobra.Command{
	Use:   "state",
	Short: "Print the protocol state.",
	RunE:  stateRun,
}

var bondCmd = &cobra.Command{
	Use:   "bond <account>",
	Short: "Print the bond balance of an account.",
	Args:  cobra.ExactArgs(1),
	RunE:  bondRun,
}

func init() {
	rootCmd.AddCommand(stateCmd)
	rootCmd.AddCommand(bondCmd)
}

func stateRun(cmd *cobra.Command, args []string) error {
	strg, err := openStore()
	if err != nil {
		return err
	}
	defer strg.Close()

	state, err := strg.LoadProtoState()
	if err != nil {
		return err
	}

	data, err := json.MarshalIndent(state, "", "  ")
	if err != nil {
		return err
	}

	fmt.Fprintln(cmd.OutOrStdout(), string(data))
	return nil
}

func bondRun(cmd *cobra.Command, args []string) error {
	if !common.IsHexAddress(args[0]) {
		return fmt.Errorf("invalid account %q", args[0])
	}

	strg, err := openStore()
	if err != nil {
		return err
	}
	defer strg.Close()

	bal, err := strg.BondBalance(common.HexToAddress(args[0]))
	if err != nil {
		return err
	}

	fmt.Fprintln(cmd.OutOrStdout(), bal.Dec())
	return nil
}
