// Command ntag424ctl provisions, reads, and diagnoses NTAG 424 DNA tags
// over a PC/SC reader.
package main

import (
	"os"

	"github.com/nikeee/go-ntag424/cmd/ntag424ctl/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
