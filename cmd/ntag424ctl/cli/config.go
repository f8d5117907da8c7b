package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/nikeee/go-ntag424/internal/config"
	"github.com/nikeee/go-ntag424/internal/display"
)

var configValidatePath string

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Inspect and validate the YAML provisioning config",
}

var configValidateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Parse and validate a provisioning config against the full validation rules",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(configValidatePath)
		if err != nil {
			display.Error(err.Error())
			return err
		}
		display.Success(fmt.Sprintf("%s is valid", configValidatePath))
		fmt.Printf("url=%s sdm.file_no=%d sdm.sdm_key_no=%d\n", cfg.URL, *cfg.SDM.FileNo, *cfg.SDM.SDMKeyNo)
		return nil
	},
}

func init() {
	configValidateCmd.Flags().StringVarP(&configValidatePath, "config", "c", "config.yaml", "path to the provisioning config")
	configCmd.AddCommand(configValidateCmd)
}
