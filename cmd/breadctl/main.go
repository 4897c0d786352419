// breadctl queries the bread source directory from the terminal.
package main

import (
	"os"

	"github.com/zatekoja/breadfindr/backend/cmd/breadctl/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
