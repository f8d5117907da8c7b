package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	ntag424 "github.com/nikeee/go-ntag424"
	"github.com/nikeee/go-ntag424/internal/display"
)

var (
	keysChangeAuthKeyHexFile string
	keysChangeAuthKeyNo      int
	keysChangeTargetKeyNo    int
	keysChangeOldKeyHexFile  string
	keysChangeNewKeyHexFile  string
	keysChangeVersion        int
)

// keysCmd groups slot-level key management commands, as distinct from
// keystore (which manages key material on disk, not on the card).
var keysCmd = &cobra.Command{
	Use:   "keys",
	Short: "Change keys on the card",
}

var keysChangeCmd = &cobra.Command{
	Use:   "change",
	Short: "Authenticate, then change one key slot via ChangeKey",
	RunE: func(cmd *cobra.Command, args []string) error {
		authKey, err := ntag424.LoadKeyHexFile(keysChangeAuthKeyHexFile)
		if err != nil {
			return fmt.Errorf("load auth key: %w", err)
		}
		newKey, err := ntag424.LoadKeyHexFile(keysChangeNewKeyHexFile)
		if err != nil {
			return fmt.Errorf("load new key: %w", err)
		}

		var oldKey []byte
		if keysChangeTargetKeyNo != 0 {
			if keysChangeOldKeyHexFile == "" {
				return fmt.Errorf("--old-key is required when changing a non-zero key slot")
			}
			oldKey, err = ntag424.LoadKeyHexFile(keysChangeOldKeyHexFile)
			if err != nil {
				return fmt.Errorf("load old key: %w", err)
			}
		}

		conn, tag, err := connectTag()
		if err != nil {
			return err
		}
		defer conn.Close()

		if err := tag.Authenticate(byte(keysChangeAuthKeyNo), authKey); err != nil {
			return fmt.Errorf("authenticate: %w", err)
		}
		if err := tag.ChangeKey(byte(keysChangeTargetKeyNo), oldKey, newKey, byte(keysChangeVersion)); err != nil {
			return fmt.Errorf("change key: %w", err)
		}
		display.Success(fmt.Sprintf("key slot %d changed", keysChangeTargetKeyNo))
		return nil
	},
}

func init() {
	keysChangeCmd.Flags().StringVar(&keysChangeAuthKeyHexFile, "auth-key", "", "path to the key to authenticate with")
	keysChangeCmd.Flags().IntVar(&keysChangeAuthKeyNo, "auth-key-no", 0, "key slot to authenticate against")
	keysChangeCmd.Flags().IntVar(&keysChangeTargetKeyNo, "key-no", 0, "key slot to change")
	keysChangeCmd.Flags().StringVar(&keysChangeOldKeyHexFile, "old-key", "", "path to the slot's current key (required for slot != 0)")
	keysChangeCmd.Flags().StringVar(&keysChangeNewKeyHexFile, "new-key", "", "path to the new key")
	keysChangeCmd.Flags().IntVar(&keysChangeVersion, "version", 0, "new key version byte")

	keysCmd.AddCommand(keysChangeCmd)
}
