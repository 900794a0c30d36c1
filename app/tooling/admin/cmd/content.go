package cmd

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/holiman/uint256"
	"github.com/spf13/cobra"

	"github.com/taikoxyz/taiko-mono/foundation/blockchain/content"
	"github.com/taikoxyz/taiko-mono/foundation/blockchain/protocol"
	"github.com/taikoxyz/taiko-mono/foundation/blockchain/signature"
)

var (
	contentPath string
	keyPath     string
	proposalID  uint64
	proposer    string
)

var encodeCmd = &cobra.Command{
	Use:   "encode",
	Short: "Encode a JSON content file into a hex blob frame.",
	RunE:  encodeRun,
}

var decodeCmd = &cobra.Command{
	Use:   "decode <frame>",
	Short: "Decode a hex blob frame into JSON content.",
	Args:  cobra.ExactArgs(1),
	RunE:  decodeRun,
}

var signCmd = &cobra.Command{
	Use:   "sign",
	Short: "Sign a content file as the prover of a proposal.",
	RunE:  signRun,
}

var genKeyCmd = &cobra.Command{
	Use:   "genkey <path>",
	Short: "Generate a new prover key.",
	Args:  cobra.ExactArgs(1),
	RunE:  genKeyRun,
}

func init() {
	rootCmd.AddCommand(encodeCmd)
	rootCmd.AddCommand(decodeCmd)
	rootCmd.AddCommand(signCmd)
	rootCmd.AddCommand(genKeyCmd)

	encodeCmd.Flags().StringVarP(&contentPath, "content", "c", "", "Path to the JSON content.")
	encodeCmd.MarkFlagRequired("content")

	signCmd.Flags().StringVarP(&contentPath, "content", "c", "", "Path to the JSON content.")
	signCmd.Flags().StringVarP(&keyPath, "key", "k", "", "Path to the prover's private key.")
	signCmd.Flags().Uint64VarP(&proposalID, "proposal", "p", 0, "Id of the proposal being signed for.")
	signCmd.Flags().StringVar(&proposer, "proposer", "", "Account of the proposer.")
	signCmd.MarkFlagRequired("content")
	signCmd.MarkFlagRequired("key")
	signCmd.MarkFlagRequired("proposer")
}

func encodeRun(cmd *cobra.Command, args []string) error {
	c, err := readContent(contentPath)
	if err != nil {
		return err
	}

	frame, err := content.Codec{}.Encode(c)
	if err != nil {
		return err
	}

	fmt.Fprintln(cmd.OutOrStdout(), hexutil.Encode(frame))
	return nil
}

func decodeRun(cmd *cobra.Command, args []string) error {
	frame, err := hexutil.Decode(args[0])
	if err != nil {
		return fmt.Errorf("invalid frame: %w", err)
	}

	c, err := content.Codec{}.Decode(frame)
	if err != nil {
		return err
	}

	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return err
	}

	fmt.Fprintln(cmd.OutOrStdout(), string(data))
	return nil
}

// signRun writes the content back out carrying a prover signature over the
// proposal identity and the content's prover fee.
func signRun(cmd *cobra.Command, args []string) error {
	if !common.IsHexAddress(proposer) {
		return fmt.Errorf("invalid proposer %q", proposer)
	}

	gen, err := loadGenesis()
	if err != nil {
		return err
	}

	c, err := readContent(contentPath)
	if err != nil {
		return err
	}

	privateKey, err := crypto.LoadECDSA(keyPath)
	if err != nil {
		return fmt.Errorf("loading key: %w", err)
	}

	auth := signature.ProverAuth{
		ChainID:    gen.Config.ChainID,
		ProposalID: proposalID,
		Proposer:   common.HexToAddress(proposer),
		ProverFee:  c.Fee(),
	}

	sig, err := signature.Sign(auth, privateKey)
	if err != nil {
		return err
	}
	c.ProverSignature = sig

	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return err
	}

	fmt.Fprintln(cmd.OutOrStdout(), string(data))
	return nil
}

func genKeyRun(cmd *cobra.Command, args []string) error {
	privateKey, err := crypto.GenerateKey()
	if err != nil {
		return err
	}

	if err := crypto.SaveECDSA(args[0], privateKey); err != nil {
		return err
	}

	fmt.Fprintln(cmd.OutOrStdout(), crypto.PubkeyToAddress(privateKey.PublicKey))
	return nil
}

func readContent(path string) (protocol.Content, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return protocol.Content{}, err
	}

	var c protocol.Content
	if err := json.Unmarshal(data, &c); err != nil {
		return protocol.Content{}, fmt.Errorf("decode content: %w", err)
	}
	if c.ProverFee == nil {
		c.ProverFee = new(uint256.Int)
	}

	return c, nil
}
