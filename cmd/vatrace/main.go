// Command vatrace runs programs with the libva tracing library preloaded
// and inspects which libva entry points it can intercept.
package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/thesyncim/vatrace/cmd/vatrace/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		var exitErr *cmd.ExitError
		if errors.As(err, &exitErr) {
			os.Exit(exitErr.Code)
		}
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
