package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	ntag424 "github.com/nikeee/go-ntag424"
	"github.com/nikeee/go-ntag424/internal/display"
)

var readersCmd = &cobra.Command{
	Use:   "readers",
	Short: "List PC/SC readers visible to this host",
	RunE: func(cmd *cobra.Command, args []string) error {
		readers, err := ntag424.ListReaders()
		if err != nil {
			return fmt.Errorf("list readers: %w", err)
		}
		display.ReaderList(readers)
		return nil
	},
}
