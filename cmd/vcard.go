package cmd

import (
	"fmt"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"cardlink/serialport"
	"cardlink/vcard"
)

var (
	vcardDevice  string
	vcardClockHz int
	vcardProfile string
	vcardNoPPS   bool
	vcardHandler string
)

var vcardCmd = &cobra.Command{
	Use:   "vcard",
	Short: "Emulate a card on a serial line",
	Long: `Emulate a UICC/SIM card on a serial line: answer reset with an ATR,
optionally accept a PPS, and dispatch incoming APDUs to a handler.

Example:
  cardlink vcard --device /dev/ttyUSB1 --handler built-in-echo`,
	RunE: runVCard,
}

func init() {
	vcardCmd.Flags().StringVar(&vcardDevice, "device", "", "serial device path")
	vcardCmd.Flags().IntVar(&vcardClockHz, "clock", 3571200, "card clock in Hz")
	vcardCmd.Flags().StringVar(&vcardProfile, "profile", "uicc+sim", "APDU classifier profile")
	vcardCmd.Flags().BoolVar(&vcardNoPPS, "no-pps", false, "don't offer a PPS after ATR")
	vcardCmd.Flags().StringVar(&vcardHandler, "handler", "built-in-echo", "response handler (built-in-echo)")
	vcardCmd.MarkFlagRequired("device")

	rootCmd.AddCommand(vcardCmd)
}

// builtinEchoHandler answers every command with SW 9000 and echoes back
// any command data unchanged; it does not truncate or pad it to Le.
func builtinEchoHandler(apdu []byte) ([]byte, error) {
	var data []byte
	if len(apdu) > 5 {
		data = apdu[5:]
	}
	return append(append([]byte(nil), data...), 0x90, 0x00), nil
}

func runVCard(cmd *cobra.Command, args []string) error {
	profile, err := resolveProfile(vcardProfile)
	if err != nil {
		return err
	}

	var handler vcard.Handler
	switch vcardHandler {
	case "built-in-echo":
		handler = builtinEchoHandler
	default:
		return fmt.Errorf("unknown handler %q", vcardHandler)
	}

	port, err := serialport.Open(vcardDevice, serialport.DefaultOptions())
	if err != nil {
		return err
	}
	defer port.Close()

	v := vcard.New(port, vcard.Options{
		ClockHz: vcardClockHz,
		DoPPS:   !vcardNoPPS,
		Profile: profile,
		Handler: handler,
	})

	log.WithField("device", vcardDevice).Info("vcard: running")
	return v.Run(!vcardNoPPS)
}
