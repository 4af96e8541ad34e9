package cmd

import (
	"encoding/hex"
	"fmt"

	"github.com/spf13/cobra"

	"cardlink/output"
	"cardlink/rsap"
)

var (
	rsapMAC     string
	rsapChannel int
)

var rsapCmd = &cobra.Command{
	Use:   "rsap",
	Short: "Transfer an APDU over rSAP (Bluetooth RFCOMM)",
	Long: `Connect to a phone's rSAP server over Bluetooth RFCOMM and transfer a
single command APDU.

Example:
  cardlink rsap --mac AA:BB:CC:DD:EE:FF --channel 9 apdu 00A4040000`,
}

func init() {
	rsapCmd.PersistentFlags().StringVar(&rsapMAC, "mac", "", "Bluetooth MAC address of the rSAP server")
	rsapCmd.PersistentFlags().IntVar(&rsapChannel, "channel", 1, "RFCOMM channel the rSAP service is bound to")
	rsapCmd.MarkPersistentFlagRequired("mac")

	apduCmd := &cobra.Command{
		Use:   "apdu HEX",
		Short: "Send a single command APDU over the rSAP session",
		Args:  cobra.ExactArgs(1),
		RunE:  runRSAPAPDU,
	}
	rsapCmd.AddCommand(apduCmd)
	rootCmd.AddCommand(rsapCmd)
}

func runRSAPAPDU(cmd *cobra.Command, args []string) error {
	apdu, err := hex.DecodeString(args[0])
	if err != nil {
		return fmt.Errorf("decode APDU hex: %w", err)
	}

	sess, err := rsap.Dial(rsapMAC, rsapChannel)
	if err != nil {
		return err
	}
	defer sess.Close()

	output.PrintSessionInfo("rsap", fmt.Sprintf("%s ch=%d", rsapMAC, rsapChannel), 0)

	resp, err := sess.TransferAPDU(apdu)
	if err != nil {
		return err
	}
	output.PrintAPDUExchange(apdu, resp)
	return nil
}
