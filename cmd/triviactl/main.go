// Command triviactl lists the editor's AI actions, checks model responses
// against their expected shape, and calls a running server's generation
// proxy.
package main

import (
	"fmt"
	"os"
)

func main() {
	if err := rootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
