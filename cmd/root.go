package cmd

import (
	"os"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"cardlink/config"
)

var (
	version = "0.1.0"

	configPath string
	verbose    bool
	cfg        *config.Config
)

var rootCmd = &cobra.Command{
	Use:   "cardlink",
	Short: "Smart card transport driver and emulator",
	Long: `cardlink v` + version + `

Drives the ISO/IEC 7816-3 byte/timing layer and ISO/IEC 7816-4 message
layer over a serial UICC/SIM reader, or emulates a card on the other
end of that same link. Also speaks rSAP over Bluetooth RFCOMM.

This tool supports:
  - reader: drive a physical card reader (ATR, PPS, T=0 exchange)
  - vcard: emulate a card on a serial line
  - rsap: transfer APDUs to a phone's SIM over Bluetooth rSAP
  - classify: resolve an APDU header to its ISO 7816-3 case`,
	Version: version,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		if verbose {
			log.SetLevel(log.DebugLevel)
		}
		log.SetFormatter(&log.TextFormatter{FullTimestamp: true})

		if configPath != "" {
			loaded, err := config.Load(configPath)
			if err != nil {
				log.Fatalf("failed to load config %s: %v", configPath, err)
			}
			cfg = loaded
		}
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "",
		"path to a cardlink.yaml config file")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false,
		"enable debug logging")
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// GetVersion returns the current version.
func GetVersion() string {
	return version
}
