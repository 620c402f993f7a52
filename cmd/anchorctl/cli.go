package main

import (
	"fmt"
	"os"
	"path/filepath"
)

func run(args []string) int {
	if len(args) < 2 {
		usage(args)
		return 1
	}

	switch args[1] {
	case "receipt-hash":
		return runReceiptHash(args[2:])
	case "digest":
		return runDigest(args[2:])
	}

	usage(args)
	return 1
}

func usage(args []string) {
	name := "anchorctl"
	if len(args) > 0 && args[0] != "" {
		name = filepath.Base(args[0])
	}
	fmt.Fprintf(os.Stderr, "usage:\n")
	fmt.Fprintf(os.Stderr, "  %s receipt-hash [<json document>]        (reads stdin when no argument)\n", name)
	fmt.Fprintf(os.Stderr, "  %s digest --hw-id <hex32> --fw-hash <hex32> --exec-hash <hex32> --counter <n> [--chain-id <n>]\n", name)
}
