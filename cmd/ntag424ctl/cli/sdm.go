package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	ntag424 "github.com/nikeee/go-ntag424"
	"github.com/nikeee/go-ntag424/internal/config"
	"github.com/nikeee/go-ntag424/internal/display"
)

var sdmConfigPath string

var sdmCmd = &cobra.Command{
	Use:   "sdm",
	Short: "Provision Secure Dynamic Messaging from a YAML config",
}

var sdmEnableCmd = &cobra.Command{
	Use:   "enable",
	Short: "Write the SDM NDEF template and enable SDM on the configured file",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(sdmConfigPath)
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}

		settingsKey, err := ntag424.LoadKeyHexFile(cfg.Auth.SettingsKeyHexFile)
		if err != nil {
			return fmt.Errorf("load settings key: %w", err)
		}

		sdm, err := ntag424.BuildSDMTextNDEF(cfg.URL)
		if err != nil {
			return fmt.Errorf("build SDM NDEF: %w", err)
		}
		fmt.Printf("SDM URL template: %s\n", sdm.URL)

		conn, tag, err := connectTag()
		if err != nil {
			return err
		}
		defer conn.Close()

		fileNo := byte(*cfg.SDM.FileNo)
		sdmKeyNo := byte(*cfg.SDM.SDMKeyNo)

		if err := tag.Authenticate(byte(*cfg.Auth.SettingsKeyNo), settingsKey); err != nil {
			return fmt.Errorf("settings auth: %w", err)
		}

		access := ntag424.FileAccessRights{Read: 0x0E, Write: 0x02, ReadWrite: 0x02, Change: 0x00}
		fileSize := len(sdm.NDEF)
		if current, err := tag.GetFileSettings(fileNo); err == nil {
			access = current.Access
			fileSize = int(current.FileSize)
			display.FileSettings("CURRENT", fileNo, current)
		}

		// Write the NDEF template while SDM is still disabled, assuming
		// free write access at this point in the provisioning flow.
		if err := ntag424.WriteNDEFPlain(conn.Card, sdm.NDEF); err != nil {
			return fmt.Errorf("write NDEF: %w", err)
		}
		fmt.Println("NDEF template written")

		if err := tag.Authenticate(byte(*cfg.Auth.SettingsKeyNo), settingsKey); err != nil {
			return fmt.Errorf("re-auth for SDM enable: %w", err)
		}

		fs := &ntag424.FileSettings{
			CommMode: ntag424.CommModePlain,
			Access:   access,
			SDMOptions: &ntag424.SdmOptions{
				UIDOffsetPresent:         true,
				UIDOffset:                sdm.UIDOffset,
				ReadCounterOffsetPresent: true,
				ReadCounterOffset:        sdm.CtrOffset,
				MACInputOffsetPresent:    true,
				MACInputOffset:           sdm.MACInputOffset,
				MACOffsetPresent:         true,
				MACOffset:                sdm.MACOffset,
				EncodingMode:             "ascii",
				Access: ntag424.SDMAccessRights{
					MetaRead:         0x0E,
					FileRead:         sdmKeyNo,
					CounterRetrieval: sdmKeyNo,
				},
			},
		}
		params := &ntag424.TagParams{FileSize: fileSize}

		if err := tag.SetFileSettings(fileNo, fs, params); err != nil {
			return fmt.Errorf("change file settings: %w", err)
		}
		display.Success("SDM enabled")

		if err := tag.Authenticate(byte(*cfg.Auth.SettingsKeyNo), settingsKey); err == nil {
			if final, err := tag.GetFileSettings(fileNo); err == nil {
				display.FileSettings("FINAL", fileNo, final)
			}
		}
		return nil
	},
}

var sdmDisableCmd = &cobra.Command{
	Use:   "disable",
	Short: "Disable SDM on the configured file, restoring free read/write",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(sdmConfigPath)
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}

		settingsKey, err := ntag424.LoadKeyHexFile(cfg.Auth.SettingsKeyHexFile)
		if err != nil {
			return fmt.Errorf("load settings key: %w", err)
		}

		conn, tag, err := connectTag()
		if err != nil {
			return err
		}
		defer conn.Close()

		fileNo := byte(*cfg.SDM.FileNo)

		if err := tag.Authenticate(byte(*cfg.Auth.SettingsKeyNo), settingsKey); err != nil {
			return fmt.Errorf("settings auth: %w", err)
		}
		if current, err := tag.GetFileSettings(fileNo); err == nil {
			display.FileSettings("CURRENT", fileNo, current)
		}

		if err := tag.Authenticate(byte(*cfg.Auth.SettingsKeyNo), settingsKey); err != nil {
			return fmt.Errorf("re-auth before change: %w", err)
		}

		fs := &ntag424.FileSettings{
			CommMode: ntag424.CommModePlain,
			Access: ntag424.FileAccessRights{
				Read: 0x0E, Write: 0x0E, ReadWrite: 0x0E, Change: 0x00,
			},
			SDMOptions: nil,
		}
		if err := tag.SetFileSettings(fileNo, fs, nil); err != nil {
			return fmt.Errorf("change file settings: %w", err)
		}
		display.Success("SDM disabled")

		if err := tag.SelectFile([]byte{byte(ntag424.FileIDNDEF >> 8), byte(ntag424.FileIDNDEF)}, ntag424.SelectFromMF); err != nil {
			display.Warning(fmt.Sprintf("could not re-select NDEF file: %v", err))
		}
		return nil
	},
}

func init() {
	for _, c := range []*cobra.Command{sdmEnableCmd, sdmDisableCmd} {
		c.Flags().StringVarP(&sdmConfigPath, "config", "c", "config.yaml", "path to the SDM provisioning config")
	}
	sdmCmd.AddCommand(sdmEnableCmd)
	sdmCmd.AddCommand(sdmDisableCmd)
}
