// Package main provides the lazio CLI tool for writing and reading chunked
// point streams through lazio's file adapters.
package main

import (
	"os"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
