package main

import (
	"os"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		renderError(os.Stderr, err)
		os.Exit(1)
	}
}
