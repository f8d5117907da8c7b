// Package display renders ntag424 results as terminal tables for the CLI.
package display

import (
	"fmt"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"github.com/nikeee/go-ntag424"
)

var (
	colorLabel   = text.Colors{text.FgYellow}
	colorValue   = text.Colors{text.FgWhite}
	colorSuccess = text.Colors{text.FgGreen}
	colorError   = text.Colors{text.FgRed}
	colorWarn    = text.Colors{text.FgHiYellow}
)

func newTable() table.Writer {
	t := table.NewWriter()
	style := table.StyleRounded
	style.Options.SeparateRows = false
	t.SetStyle(style)
	return t
}

func accessLabel(keyNo byte) string {
	switch keyNo {
	case 0x0E:
		return "free (no key needed)"
	case 0x0F:
		return "denied (never)"
	default:
		return fmt.Sprintf("key slot %d", keyNo)
	}
}

// FileSettings renders a GetFileSettingsResult as a table.
func FileSettings(label string, fileNo byte, fs *ntag424.GetFileSettingsResult) {
	t := newTable()
	t.SetTitle(fmt.Sprintf("%s - file %d settings", label, fileNo))
	t.SetColumnConfigs([]table.ColumnConfig{
		{Number: 1, Colors: colorLabel, WidthMin: 18},
		{Number: 2, Colors: colorValue, WidthMin: 40},
	})

	t.AppendRow(table.Row{"Comm mode", fs.CommMode.String()})
	t.AppendRow(table.Row{"File size", fs.FileSize})
	t.AppendRow(table.Row{"Read", accessLabel(fs.Access.Read)})
	t.AppendRow(table.Row{"Write", accessLabel(fs.Access.Write)})
	t.AppendRow(table.Row{"Read+Write", accessLabel(fs.Access.ReadWrite)})
	t.AppendRow(table.Row{"Change settings", accessLabel(fs.Access.Change)})

	if fs.SDMOptions != nil {
		sdm := fs.SDMOptions
		t.AppendRow(table.Row{"SDM", colorSuccess.Sprint("enabled")})
		t.AppendRow(table.Row{"  Meta read", accessLabel(sdm.Access.MetaRead)})
		t.AppendRow(table.Row{"  File read", accessLabel(sdm.Access.FileRead)})
		t.AppendRow(table.Row{"  Counter retrieval", accessLabel(sdm.Access.CounterRetrieval)})
		if sdm.UIDOffsetPresent {
			t.AppendRow(table.Row{"  UID offset", sdm.UIDOffset})
		}
		if sdm.ReadCounterOffsetPresent {
			t.AppendRow(table.Row{"  Read counter offset", sdm.ReadCounterOffset})
		}
		if sdm.PICCDataOffsetPresent {
			t.AppendRow(table.Row{"  PICC data offset", sdm.PICCDataOffset})
		}
		if sdm.MACInputOffsetPresent {
			t.AppendRow(table.Row{"  MAC input offset", sdm.MACInputOffset})
		}
		if sdm.MACOffsetPresent {
			t.AppendRow(table.Row{"  MAC offset", sdm.MACOffset})
		}
		if sdm.ReadCounterLimitPresent {
			t.AppendRow(table.Row{"  Read counter limit", sdm.ReadCounterLimit})
		}
	} else {
		t.AppendRow(table.Row{"SDM", "disabled"})
	}
	t.Render()
}

// ReaderList renders available PC/SC reader names.
func ReaderList(readers []string) {
	t := newTable()
	t.SetTitle("available readers")
	t.SetColumnConfigs([]table.ColumnConfig{
		{Number: 1, Colors: colorLabel, WidthMin: 6},
		{Number: 2, Colors: colorValue, WidthMin: 40},
	})
	if len(readers) == 0 {
		t.AppendRow(table.Row{"status", colorWarn.Sprint("no readers found")})
	} else {
		for i, r := range readers {
			t.AppendRow(table.Row{fmt.Sprintf("[%d]", i), r})
		}
	}
	t.Render()
}

// AuthSlots renders the results of DiagnoseAuthSlots.
func AuthSlots(results []ntag424.AuthSlotResult) {
	t := newTable()
	t.SetTitle("auth slot diagnosis")
	t.AppendHeader(table.Row{"slot", "result", "step", "SW"})
	t.SetColumnConfigs([]table.ColumnConfig{
		{Number: 1, Colors: colorLabel, WidthMin: 6},
		{Number: 2, WidthMin: 10},
		{Number: 3, Colors: colorValue, WidthMin: 18},
		{Number: 4, Colors: colorValue, WidthMin: 8},
	})
	for _, r := range results {
		status := colorSuccess.Sprint("ok")
		if !r.Success {
			status = colorError.Sprint("fail")
		}
		t.AppendRow(table.Row{r.Slot, status, r.Step, fmt.Sprintf("%04X", r.SW)})
	}
	t.Render()
}

// Error prints a red error line.
func Error(msg string) {
	fmt.Println(colorError.Sprintf("✗ %s", msg))
}

// Success prints a green success line.
func Success(msg string) {
	fmt.Println(colorSuccess.Sprintf("✓ %s", msg))
}

// Warning prints a yellow warning line.
func Warning(msg string) {
	fmt.Println(colorWarn.Sprintf("⚠ %s", msg))
}
