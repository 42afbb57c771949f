package main

import (
	"fmt"
	"os"

	"github.com/thiagonache/arraycmp"
)

func main() {
	if err := arraycmp.RunCLI(os.Args[1:]); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
