// Package cmd contains the admin commands for inspecting a deriver store
// and preparing proposal content.
package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/taikoxyz/taiko-mono/foundation/blockchain/genesis"
	"github.com/taikoxyz/taiko-mono/foundation/blockchain/storage/disk"
)

var (
	dbPath      string
	genesisPath string
)

func init() {
	rootCmd.PersistentFlags().StringVarP(&dbPath, "db", "d", "zblock/deriver.db", "Path to the deriver database.")
	rootCmd.PersistentFlags().StringVarP(&genesisPath, "genesis", "g", genesis.DefaultPath, "Path to the genesis file.")
}

var rootCmd = &cobra.Command{
	Use:           "admin",
	Short:         "Inspect derived L2 state and build proposal content",
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the command named on the command line.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "ERROR:", err)
		os.Exit(1)
	}
}

// openStore opens the database named by the db flag. The caller must close
// the returned store.
func openStore() (*disk.Disk, error) {
	strg, err := disk.New(dbPath)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", dbPath, err)
	}
	return strg, nil
}

func loadGenesis() (genesis.Genesis, error) {
	gen, err := genesis.Load(genesisPath)
	if err != nil {
		return genesis.Genesis{}, fmt.Errorf("loading %s: %w", genesisPath, err)
	}
	return gen, nil
}
