package cmd

import (
	"encoding/hex"
	"fmt"

	"github.com/spf13/cobra"

	"cardlink/classifier"
	"cardlink/output"
)

var classifyProfile string

var classifyCmd = &cobra.Command{
	Use:   "classify HEADER_HEX",
	Short: "Resolve an APDU header to its ISO 7816-3 case",
	Long: `Classify decodes a 5-byte APDU header (CLA INS P1 P2 P3) against a
profile's instruction tables and prints which of ISO 7816-3 cases 1-4 it is.

Example:
  cardlink classify --profile uicc+sim 00A4040007`,
	Args: cobra.ExactArgs(1),
	RunE: runClassify,
}

func init() {
	classifyCmd.Flags().StringVar(&classifyProfile, "profile", "uicc+sim", "APDU classifier profile")
	rootCmd.AddCommand(classifyCmd)
}

func runClassify(cmd *cobra.Command, args []string) error {
	raw, err := hex.DecodeString(args[0])
	if err != nil {
		return fmt.Errorf("decode header hex: %w", err)
	}
	if len(raw) != 5 {
		return fmt.Errorf("header must be exactly 5 bytes, got %d", len(raw))
	}

	profile, err := resolveProfile(classifyProfile)
	if err != nil {
		return err
	}

	h := classifier.Header{CLA: raw[0], INS: raw[1], P1: raw[2], P2: raw[3], P3: raw[4]}
	result := classifier.Classify(h, profile)
	output.PrintClassification(h, profile.Name, result)
	return nil
}
