package cli

import (
	"encoding/hex"
	"fmt"

	"github.com/spf13/cobra"

	ntag424 "github.com/nikeee/go-ntag424"
)

var (
	readFileNo     int
	readOffset     int
	readLength     int
	readKeyHexFile string
	readKeyNo      int
)

var readCmd = &cobra.Command{
	Use:   "read",
	Short: "Read a standard data file",
	RunE: func(cmd *cobra.Command, args []string) error {
		conn, tag, err := connectTag()
		if err != nil {
			return err
		}
		defer conn.Close()

		if readKeyHexFile == "" {
			data, err := ntag424.ReadFileDataPlain(conn.Card, byte(readFileNo), readOffset, readLength)
			if err != nil {
				return fmt.Errorf("read plain: %w", err)
			}
			fmt.Println(hex.EncodeToString(data))
			return nil
		}

		key, err := ntag424.LoadKeyHexFile(readKeyHexFile)
		if err != nil {
			return fmt.Errorf("load key: %w", err)
		}
		if err := tag.Authenticate(byte(readKeyNo), key); err != nil {
			return fmt.Errorf("authenticate: %w", err)
		}
		data, err := ntag424.ReadFileDataSecure(conn.Card, tag.Session(), byte(readFileNo), readOffset, readLength)
		if err != nil {
			return fmt.Errorf("read secure: %w", err)
		}
		fmt.Println(hex.EncodeToString(data))
		return nil
	},
}

func init() {
	readCmd.Flags().IntVar(&readFileNo, "file-no", int(ntag424.FileNoNDEF), "file number")
	readCmd.Flags().IntVar(&readOffset, "offset", 0, "byte offset")
	readCmd.Flags().IntVar(&readLength, "length", 0, "bytes to read (0 = whole file)")
	readCmd.Flags().StringVar(&readKeyHexFile, "key", "", "path to a 16-byte hex key file (reads under CommMode Full if set)")
	readCmd.Flags().IntVar(&readKeyNo, "key-no", 0, "key slot number to authenticate with")
}
