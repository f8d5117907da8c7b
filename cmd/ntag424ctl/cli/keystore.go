package cli

import (
	"encoding/hex"
	"fmt"
	"os"
	"sort"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	ntag424 "github.com/nikeee/go-ntag424"
	"github.com/nikeee/go-ntag424/internal/display"
)

var (
	keystorePath  string
	keystorePBKDF bool
	keyImportDir  string
)

var keystoreCmd = &cobra.Command{
	Use:   "keystore",
	Short: "Manage an encrypted-at-rest store of AES key material",
}

var keystoreInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Create a key store from every .hex file in a directory",
	RunE: func(cmd *cobra.Command, args []string) error {
		if keyImportDir == "" {
			return fmt.Errorf("--from is required")
		}
		files, err := ntag424.LoadAllHexKeys(keyImportDir)
		if err != nil {
			return fmt.Errorf("load hex keys: %w", err)
		}
		if len(files) == 0 {
			return fmt.Errorf("no .hex key files found in %s", keyImportDir)
		}

		ks := &ntag424.KeyStore{Keys: map[string][]byte{}}
		for _, f := range files {
			ks.Keys[f.Name] = f.Key
		}

		passphrase, err := readPassphraseTwice()
		if err != nil {
			return err
		}

		save := ntag424.SaveKeyStore
		if keystorePBKDF {
			save = ntag424.SaveKeyStorePBKDF2
		}
		if err := save(keystorePath, ks, passphrase); err != nil {
			return fmt.Errorf("save key store: %w", err)
		}
		display.Success(fmt.Sprintf("wrote %d keys to %s", len(ks.Keys), keystorePath))
		return nil
	},
}

var keystoreListCmd = &cobra.Command{
	Use:   "list",
	Short: "List the key names held in a key store",
	RunE: func(cmd *cobra.Command, args []string) error {
		passphrase, err := readPassphrase("Passphrase: ")
		if err != nil {
			return err
		}
		ks, err := ntag424.LoadKeyStore(keystorePath, passphrase)
		if err != nil {
			return fmt.Errorf("load key store: %w", err)
		}
		names := make([]string, 0, len(ks.Keys))
		for name := range ks.Keys {
			names = append(names, name)
		}
		sort.Strings(names)
		for _, name := range names {
			fmt.Println(name)
		}
		return nil
	},
}

var keystoreShowCmd = &cobra.Command{
	Use:   "show <name>",
	Short: "Print a single key's hex value",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		passphrase, err := readPassphrase("Passphrase: ")
		if err != nil {
			return err
		}
		ks, err := ntag424.LoadKeyStore(keystorePath, passphrase)
		if err != nil {
			return fmt.Errorf("load key store: %w", err)
		}
		key, err := ks.Key(args[0])
		if err != nil {
			return err
		}
		fmt.Println(hex.EncodeToString(key))
		return nil
	},
}

func readPassphrase(prompt string) ([]byte, error) {
	fmt.Fprint(os.Stderr, prompt)
	passphrase, err := term.ReadPassword(int(os.Stdin.Fd()))
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return nil, fmt.Errorf("read passphrase: %w", err)
	}
	return passphrase, nil
}

func readPassphraseTwice() ([]byte, error) {
	first, err := readPassphrase("New passphrase: ")
	if err != nil {
		return nil, err
	}
	second, err := readPassphrase("Confirm passphrase: ")
	if err != nil {
		return nil, err
	}
	if string(first) != string(second) {
		return nil, fmt.Errorf("passphrases do not match")
	}
	return first, nil
}

func init() {
	for _, c := range []*cobra.Command{keystoreInitCmd, keystoreListCmd, keystoreShowCmd} {
		c.Flags().StringVarP(&keystorePath, "store", "s", "keystore.json", "path to the key store file")
	}
	keystoreInitCmd.Flags().StringVar(&keyImportDir, "from", "", "directory of .hex key files to import")
	keystoreInitCmd.Flags().BoolVar(&keystorePBKDF, "pbkdf2", false, "use PBKDF2-HMAC-SHA256 instead of Argon2id")

	keystoreCmd.AddCommand(keystoreInitCmd)
	keystoreCmd.AddCommand(keystoreListCmd)
	keystoreCmd.AddCommand(keystoreShowCmd)
}
