package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"cardlink/dictionaries"
	"cardlink/output"
	"cardlink/reader"
)

var (
	readerDevice   string
	readerClockHz  int
	readerResetPin string
	readerProfile  string
	readerNoPPS    bool
	readerTimeout  time.Duration
	readerNewCard  bool
)

var readerCmd = &cobra.Command{
	Use:   "reader",
	Short: "Drive a physical card reader",
	Long: `Drive a physical UICC/SIM over a serial RS-232 connection: reset,
collect the ATR, optionally negotiate PPS, and exchange APDUs.

Examples:
  cardlink reader --device /dev/ttyUSB0 --reset-pin +rts apdu 00A4040000
  cardlink reader --device /dev/ttyUSB0 --reset-pin +rts wait --timeout 30s`,
}

func init() {
	readerCmd.PersistentFlags().StringVar(&readerDevice, "device", "", "serial device path")
	readerCmd.PersistentFlags().IntVar(&readerClockHz, "clock", 3571200, "card clock in Hz")
	readerCmd.PersistentFlags().StringVar(&readerResetPin, "reset-pin", "+rts", "reset line and asserted level, e.g. +rts or -dtr")
	readerCmd.PersistentFlags().StringVar(&readerProfile, "profile", "uicc+sim", "APDU classifier profile")
	readerCmd.PersistentFlags().BoolVar(&readerNoPPS, "no-pps", false, "skip PPS negotiation after ATR")
	readerCmd.MarkPersistentFlagRequired("device")

	apduCmd := &cobra.Command{
		Use:   "apdu HEX",
		Short: "Connect to the card and send a single APDU",
		Args:  cobra.ExactArgs(1),
		RunE:  runReaderAPDU,
	}
	waitCmd := &cobra.Command{
		Use:   "wait",
		Short: "Poll the reader until a card answers reset",
		RunE:  runReaderWait,
	}
	waitCmd.Flags().DurationVar(&readerTimeout, "timeout", 30*time.Second, "how long to keep polling")
	waitCmd.Flags().BoolVar(&readerNewCard, "new-card-only", false, "ignore a card already present; wait for removal and reinsertion")

	readerCmd.AddCommand(apduCmd, waitCmd)
	rootCmd.AddCommand(readerCmd)
}

func openReader() (*reader.Reader, error) {
	profile, err := resolveProfile(readerProfile)
	if err != nil {
		return nil, err
	}
	return reader.New(readerDevice, reader.Options{
		ClockHz:      readerClockHz,
		ResetPinSpec: readerResetPin,
		Profile:      profile,
	})
}

func runReaderAPDU(cmd *cobra.Command, args []string) error {
	r, err := openReader()
	if err != nil {
		return err
	}
	defer r.Close()

	output.PrintSessionInfo("reader", readerDevice, readerClockHz)

	if err := r.Connect(!readerNoPPS); err != nil {
		return err
	}
	if atr := r.ATR(); atr != nil {
		output.PrintATR(atr, nil)
		if descs := dictionaries.LookupATR(fmt.Sprintf("%X", atr.Raw)); len(descs) > 0 {
			output.PrintCardIdentity(fmt.Sprintf("%X", atr.Raw), descs)
		}
	}

	dataHex, swHex, err := r.SendAPDUHex(args[0])
	if err != nil {
		return err
	}
	fmt.Printf("Data: %s\nSW:   %s\n", dataHex, swHex)
	return nil
}

func runReaderWait(cmd *cobra.Command, args []string) error {
	r, err := openReader()
	if err != nil {
		return err
	}
	defer r.Close()

	output.PrintSessionInfo("reader", readerDevice, readerClockHz)
	if err := r.WaitForCard(readerTimeout, readerNewCard); err != nil {
		return err
	}
	output.PrintSuccess("card present")
	if atr := r.ATR(); atr != nil {
		output.PrintATR(atr, nil)
	}
	return nil
}
