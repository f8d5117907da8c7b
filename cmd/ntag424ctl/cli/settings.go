package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	ntag424 "github.com/nikeee/go-ntag424"
	"github.com/nikeee/go-ntag424/internal/display"
)

var (
	settingsKeyHexFile string
	settingsKeyNo      int
	settingsFileNo     int

	settingsSetRead      int
	settingsSetWrite     int
	settingsSetReadWrite int
	settingsSetChange    int
	settingsSetCommMode  string
)

var settingsCmd = &cobra.Command{
	Use:   "settings",
	Short: "Read or change a standard data file's settings",
}

var settingsGetCmd = &cobra.Command{
	Use:   "get",
	Short: "Read a file's settings, trying plain before authenticated Full",
	RunE: func(cmd *cobra.Command, args []string) error {
		conn, tag, err := connectTag()
		if err != nil {
			return err
		}
		defer conn.Close()

		if settingsKeyHexFile != "" {
			key, err := ntag424.LoadKeyHexFile(settingsKeyHexFile)
			if err != nil {
				return fmt.Errorf("load key: %w", err)
			}
			if err := tag.Authenticate(byte(settingsKeyNo), key); err != nil {
				return fmt.Errorf("authenticate: %w", err)
			}
		}

		fs, err := tag.GetFileSettings(byte(settingsFileNo))
		if err != nil {
			return fmt.Errorf("get file settings: %w", err)
		}
		display.FileSettings("CURRENT", byte(settingsFileNo), fs)
		return nil
	},
}

// settingsSetCmd rewrites access rights and comm mode on a standard data
// file, leaving SDM configuration untouched (use the sdm subcommand for
// that). Requires authentication under the file's Change key.
var settingsSetCmd = &cobra.Command{
	Use:   "set",
	Short: "Change a file's access rights and communication mode",
	RunE: func(cmd *cobra.Command, args []string) error {
		if settingsKeyHexFile == "" {
			return fmt.Errorf("--key is required to change file settings")
		}
		mode, err := parseCommModeFlag(settingsSetCommMode)
		if err != nil {
			return err
		}

		conn, tag, err := connectTag()
		if err != nil {
			return err
		}
		defer conn.Close()

		key, err := ntag424.LoadKeyHexFile(settingsKeyHexFile)
		if err != nil {
			return fmt.Errorf("load key: %w", err)
		}
		if err := tag.Authenticate(byte(settingsKeyNo), key); err != nil {
			return fmt.Errorf("authenticate: %w", err)
		}

		fs := &ntag424.FileSettings{
			CommMode: mode,
			Access: ntag424.FileAccessRights{
				Read:      byte(settingsSetRead),
				Write:     byte(settingsSetWrite),
				ReadWrite: byte(settingsSetReadWrite),
				Change:    byte(settingsSetChange),
			},
		}
		if err := tag.SetFileSettings(byte(settingsFileNo), fs, nil); err != nil {
			return fmt.Errorf("change file settings: %w", err)
		}

		if final, err := tag.GetFileSettings(byte(settingsFileNo)); err == nil {
			display.FileSettings("FINAL", byte(settingsFileNo), final)
		}
		display.Success("file settings updated")
		return nil
	},
}

func parseCommModeFlag(s string) (ntag424.CommMode, error) {
	switch s {
	case "plain":
		return ntag424.CommModePlain, nil
	case "mac":
		return ntag424.CommModeMAC, nil
	case "full":
		return ntag424.CommModeFull, nil
	default:
		return 0, fmt.Errorf("unknown comm mode %q (want plain, mac, or full)", s)
	}
}

func init() {
	for _, c := range []*cobra.Command{settingsGetCmd, settingsSetCmd} {
		c.Flags().IntVar(&settingsFileNo, "file-no", int(ntag424.FileNoNDEF), "file number")
		c.Flags().StringVar(&settingsKeyHexFile, "key", "", "path to a 16-byte hex key file (authenticates before reading)")
		c.Flags().IntVar(&settingsKeyNo, "key-no", 0, "key slot number to authenticate with")
	}
	settingsSetCmd.Flags().IntVar(&settingsSetRead, "read", 0x0E, "read access key index (0xE = free)")
	settingsSetCmd.Flags().IntVar(&settingsSetWrite, "write", 0x0E, "write access key index")
	settingsSetCmd.Flags().IntVar(&settingsSetReadWrite, "read-write", 0x0E, "read-write access key index")
	settingsSetCmd.Flags().IntVar(&settingsSetChange, "change", 0x00, "change (settings) access key index")
	settingsSetCmd.Flags().StringVar(&settingsSetCommMode, "comm-mode", "plain", "communication mode: plain, mac, or full")

	settingsCmd.AddCommand(settingsGetCmd)
	settingsCmd.AddCommand(settingsSetCmd)
}
