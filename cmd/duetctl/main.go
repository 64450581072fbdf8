// Command duetctl talks to a running duet server.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/kailas-cloud/duet/internal/version"
)

func main() {
	rootCmd := NewRootCmd(version.String())
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}
