package cmd

import (
	"fmt"
	"math/big"

	"github.com/spf13/cobra"

	"github.com/taikoxyz/taiko-mono/foundation/blockchain/feecurve"
	"github.com/taikoxyz/taiko-mono/foundation/fixedpoint"
)

var (
	excess  uint64
	gasUsed uint64
)

var baseFeeCmd = &cobra.Command{
	Use:   "basefee",
	Short: "Print the base fee the genesis fee curve charges at an excess.",
	RunE:  baseFeeRun,
}

var expCmd = &cobra.Command{
	Use:   "exp <x>",
	Short: "Print e^x for an 18 decimal fixed point x.",
	Args:  cobra.ExactArgs(1),
	RunE:  expRun,
}

func init() {
	rootCmd.AddCommand(baseFeeCmd)
	rootCmd.AddCommand(expCmd)
	baseFeeCmd.Flags().Uint64VarP(&excess, "excess", "e", 0, "Gas excess to price at.")
	baseFeeCmd.Flags().Uint64Var(&gasUsed, "gas", 0, "Gas purchased at the excess.")
}

func baseFeeRun(cmd *cobra.Command, args []string) error {
	gen, err := loadGenesis()
	if err != nil {
		return err
	}

	curve, err := feecurve.New(gen.Config.GasTarget, gen.Config.AdjustmentQuotient, gen.Config.MinBaseFee)
	if err != nil {
		return err
	}

	fmt.Fprintln(cmd.OutOrStdout(), curve.PurchaseBaseFee(excess, gasUsed).Dec())
	return nil
}

func expRun(cmd *cobra.Command, args []string) error {
	x, ok := new(big.Int).SetString(args[0], 10)
	if !ok {
		return fmt.Errorf("invalid fixed point value %q", args[0])
	}

	v, err := fixedpoint.Exp(x)
	if err != nil {
		return err
	}

	fmt.Fprintln(cmd.OutOrStdout(), v.String())
	return nil
}
