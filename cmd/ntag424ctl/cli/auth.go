package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	ntag424 "github.com/nikeee/go-ntag424"
	"github.com/nikeee/go-ntag424/internal/display"
)

var (
	authKeyHexFile string
	authKeyNo      int
	diagKeyHexFile string
)

var authCmd = &cobra.Command{
	Use:   "auth",
	Short: "Authentication diagnostics and key-slot discovery",
}

var authDiagCmd = &cobra.Command{
	Use:   "diag",
	Short: "Attempt AuthenticateEV2First against every key slot 0..15",
	RunE: func(cmd *cobra.Command, args []string) error {
		if diagKeyHexFile == "" {
			return fmt.Errorf("--key is required")
		}
		key, err := ntag424.LoadKeyHexFile(diagKeyHexFile)
		if err != nil {
			return fmt.Errorf("load key: %w", err)
		}

		conn, _, err := connectTag()
		if err != nil {
			return err
		}
		defer conn.Close()

		slots := make([]byte, 16)
		for i := range slots {
			slots[i] = byte(i)
		}
		results := ntag424.DiagnoseAuthSlots(conn.Card, key, slots)
		display.AuthSlots(results)

		for _, r := range results {
			if r.Success {
				display.Success(fmt.Sprintf("slot %d authenticates with this key", r.Slot))
			}
		}
		return nil
	},
}

var authVersionCmd = &cobra.Command{
	Use:   "version",
	Short: "Read tag hardware/software version and UID via GetVersion",
	RunE: func(cmd *cobra.Command, args []string) error {
		conn, _, err := connectTag()
		if err != nil {
			return err
		}
		defer conn.Close()

		v, err := ntag424.GetVersion(conn.Card)
		if err != nil {
			return fmt.Errorf("get version: %w", err)
		}
		fmt.Printf("UID: %X\n", v.UID)
		fmt.Printf("HW: vendor=%02X type=%02X subtype=%02X ver=%d.%d storage=%02X protocol=%02X\n",
			v.HWVendorID, v.HWType, v.HWSubType, v.HWMajorVer, v.HWMinorVer, v.HWStorageSize, v.HWProtocol)
		fmt.Printf("SW: vendor=%02X type=%02X subtype=%02X ver=%d.%d storage=%02X protocol=%02X\n",
			v.SWVendorID, v.SWType, v.SWSubType, v.SWMajorVer, v.SWMinorVer, v.SWStorageSize, v.SWProtocol)
		fmt.Printf("Batch: %X  FabKey: %02X  Produced: week %d of 20%02d\n", v.BatchNo, v.FabKey, v.ProdWeek, v.ProdYear)
		return nil
	},
}

var authTestCmd = &cobra.Command{
	Use:   "test",
	Short: "Authenticate against a single key slot and report the result",
	RunE: func(cmd *cobra.Command, args []string) error {
		if authKeyHexFile == "" {
			return fmt.Errorf("--key is required")
		}
		key, err := ntag424.LoadKeyHexFile(authKeyHexFile)
		if err != nil {
			return fmt.Errorf("load key: %w", err)
		}

		conn, tag, err := connectTag()
		if err != nil {
			return err
		}
		defer conn.Close()

		if err := tag.Authenticate(byte(authKeyNo), key); err != nil {
			return fmt.Errorf("authenticate: %w", err)
		}
		display.Success(fmt.Sprintf("authenticated against key slot %d", authKeyNo))
		fmt.Printf("cmd_ctr=%d\n", tag.Session().CmdCtr())
		return nil
	},
}

var (
	probeKeyHexFile string
	probeKeyNo      int
	probeAltKeyNo   int
)

var authProbeCmd = &cobra.Command{
	Use:   "probe",
	Short: "Authenticate trying keyNo, altKeyNo, slot 0, then the factory-default key",
	RunE: func(cmd *cobra.Command, args []string) error {
		if probeKeyHexFile == "" {
			return fmt.Errorf("--key is required")
		}
		key, err := ntag424.LoadKeyHexFile(probeKeyHexFile)
		if err != nil {
			return fmt.Errorf("load key: %w", err)
		}

		conn, _, err := connectTag()
		if err != nil {
			return err
		}
		defer conn.Close()

		_, _, usedKeyNo, err := ntag424.AuthenticateWithFallback(conn.Card, key, byte(probeKeyNo), byte(probeAltKeyNo))
		if err != nil {
			return fmt.Errorf("all fallback attempts failed: %w", err)
		}
		display.Success(fmt.Sprintf("authenticated against key slot %d", usedKeyNo))
		return nil
	},
}

func init() {
	authDiagCmd.Flags().StringVar(&diagKeyHexFile, "key", "", "path to a 16-byte hex key file")
	authCmd.AddCommand(authDiagCmd)

	authTestCmd.Flags().StringVar(&authKeyHexFile, "key", "", "path to a 16-byte hex key file")
	authTestCmd.Flags().IntVar(&authKeyNo, "key-no", 0, "key slot number (0-15)")
	authCmd.AddCommand(authTestCmd)

	authProbeCmd.Flags().StringVar(&probeKeyHexFile, "key", "", "path to a 16-byte hex key file")
	authProbeCmd.Flags().IntVar(&probeKeyNo, "key-no", 0, "primary key slot number")
	authProbeCmd.Flags().IntVar(&probeAltKeyNo, "alt-key-no", 0, "fallback key slot number")
	authCmd.AddCommand(authProbeCmd)

	authCmd.AddCommand(authVersionCmd)
}
