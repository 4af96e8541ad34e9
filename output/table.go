// Package output renders cardlink CLI results as terminal tables.
package output

import (
	"fmt"
	"os"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"cardlink/classifier"
	"cardlink/link"
)

var (
	colorHeader  = text.Colors{text.FgCyan, text.Bold}
	colorLabel   = text.Colors{text.FgYellow}
	colorValue   = text.Colors{text.FgWhite}
	colorSuccess = text.Colors{text.FgGreen}
	colorError   = text.Colors{text.FgRed}
	colorWarn    = text.Colors{text.FgYellow}
)

func getTableStyle() table.Style {
	style := table.StyleRounded
	style.Color.Header = colorHeader
	style.Color.Row = text.Colors{text.FgWhite}
	style.Color.RowAlternate = text.Colors{text.FgHiWhite}
	style.Options.SeparateRows = false
	return style
}

func newTable() table.Writer {
	t := table.NewWriter()
	t.SetOutputMirror(os.Stdout)
	t.SetStyle(getTableStyle())
	t.Style().Options.SeparateRows = false
	return t
}

// PrintATR prints a decoded ATR and the link parameters negotiated from it.
func PrintATR(atr *link.ATR, params *link.Params) {
	fmt.Println()
	t := newTable()
	t.SetTitle("ATR")
	t.SetColumnConfigs([]table.ColumnConfig{
		{Number: 1, Colors: colorLabel, WidthMin: 18},
		{Number: 2, Colors: colorValue, WidthMin: 55},
	})

	t.AppendRow(table.Row{"Raw", fmt.Sprintf("% X", atr.Raw)})
	t.AppendRow(table.Row{"Convention", atr.Convention()})
	if len(atr.HB) > 0 {
		t.AppendRow(table.Row{"Historical Bytes", fmt.Sprintf("% X", atr.HB)})
	}
	if atr.TCK != nil {
		t.AppendRow(table.Row{"TCK", fmt.Sprintf("%02X", *atr.TCK)})
	}
	if params != nil {
		t.AppendRow(table.Row{"FI / DI", fmt.Sprintf("FI=%d, DI=%d", params.FI, params.DI)})
		if baud, err := params.Baud(); err == nil {
			t.AppendRow(table.Row{"Baud Rate", fmt.Sprintf("%d bps", baud)})
		}
		if etu, err := params.WorkEtu(); err == nil {
			t.AppendRow(table.Row{"Work ETU", fmt.Sprintf("%.3f us", etu*1e6)})
		}
	}
	t.Render()
}

// PrintPPSResult prints the outcome of a PPS negotiation.
func PrintPPSResult(proposal, response []byte, accepted bool) {
	fmt.Println()
	t := newTable()
	t.SetTitle("PPS NEGOTIATION")
	t.SetColumnConfigs([]table.ColumnConfig{
		{Number: 1, Colors: colorLabel, WidthMin: 14},
		{Number: 2, Colors: colorValue, WidthMin: 55},
	})
	t.AppendRow(table.Row{"Request", fmt.Sprintf("% X", proposal)})
	t.AppendRow(table.Row{"Response", fmt.Sprintf("% X", response)})
	if accepted {
		t.AppendRow(table.Row{"Status", colorSuccess.Sprint("accepted")})
	} else {
		t.AppendRow(table.Row{"Status", colorError.Sprint("rejected")})
	}
	t.Render()
}

// PrintAPDUExchange prints a single command/response pair.
func PrintAPDUExchange(command, response []byte) {
	fmt.Println()
	t := newTable()
	t.SetTitle("APDU EXCHANGE")
	t.AppendHeader(table.Row{"Direction", "Bytes"})
	t.SetColumnConfigs([]table.ColumnConfig{
		{Number: 1, Colors: colorLabel, WidthMin: 10},
		{Number: 2, Colors: colorValue, WidthMin: 60},
	})
	t.AppendRow(table.Row{"→ Command", fmt.Sprintf("% X", command)})
	t.AppendRow(table.Row{"← Response", fmt.Sprintf("% X", response)})
	if len(response) >= 2 {
		sw := fmt.Sprintf("%02X%02X", response[len(response)-2], response[len(response)-1])
		status := colorSuccess.Sprint(sw)
		if sw != "9000" {
			status = colorWarn.Sprint(sw)
		}
		t.AppendRow(table.Row{"SW", status})
	}
	t.Render()
}

// PrintClassification prints the result of classifying an APDU header.
func PrintClassification(h classifier.Header, profileName string, result classifier.Result) {
	fmt.Println()
	t := newTable()
	t.SetTitle("APDU CLASSIFICATION")
	t.SetColumnConfigs([]table.ColumnConfig{
		{Number: 1, Colors: colorLabel, WidthMin: 14},
		{Number: 2, Colors: colorValue, WidthMin: 55},
	})
	t.AppendRow(table.Row{"Profile", profileName})
	t.AppendRow(table.Row{"Header", fmt.Sprintf("CLA=%02X INS=%02X P1=%02X P2=%02X", h.CLA, h.INS, h.P1, h.P2)})
	if result.Case == 0 {
		t.AppendRow(table.Row{"Case", colorWarn.Sprint("unknown instruction")})
	} else {
		t.AppendRow(table.Row{"Case", fmt.Sprintf("%d", result.Case)})
	}
	t.Render()
}

// PrintSessionInfo prints a generic connection summary (serial device or
// Bluetooth RFCOMM endpoint) shared by the reader, vcard and rsap
// subcommands.
func PrintSessionInfo(kind, endpoint string, clockHz int) {
	fmt.Println()
	t := newTable()
	t.SetTitle("SESSION")
	t.SetColumnConfigs([]table.ColumnConfig{
		{Number: 1, Colors: colorLabel, WidthMin: 12},
		{Number: 2, Colors: colorValue, WidthMin: 55},
	})
	t.AppendRow(table.Row{"Role", kind})
	t.AppendRow(table.Row{"Endpoint", endpoint})
	if clockHz > 0 {
		t.AppendRow(table.Row{"Clock", fmt.Sprintf("%d Hz", clockHz)})
	}
	t.Render()
}

// PrintCardIdentity prints the dictionary lookup for an observed ATR, when
// one is available.
func PrintCardIdentity(atrHex string, descriptions []string) {
	fmt.Println()
	t := newTable()
	t.SetTitle("CARD IDENTITY")
	t.SetColumnConfigs([]table.ColumnConfig{
		{Number: 1, Colors: colorLabel, WidthMin: 14},
		{Number: 2, Colors: colorValue, WidthMin: 55},
	})
	if len(descriptions) == 0 {
		t.AppendRow(table.Row{"Match", colorWarn.Sprint("not found in dictionary")})
	} else {
		t.AppendRow(table.Row{"Match", strings.Join(descriptions, " / ")})
	}
	t.Render()
}

// PrintError prints an error message.
func PrintError(msg string) {
	fmt.Println(colorError.Sprintf("✗ Error: %s", msg))
}

// PrintSuccess prints a success message.
func PrintSuccess(msg string) {
	fmt.Println(colorSuccess.Sprintf("✓ %s", msg))
}

// PrintWarning prints a warning message.
func PrintWarning(msg string) {
	fmt.Println(colorWarn.Sprintf("⚠ %s", msg))
}
