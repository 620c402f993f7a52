package main

import (
	"fmt"
	"io"
	"os"

	cryptoinfra "anchord/internal/infra/crypto"
)

func runReceiptHash(args []string) int {
	var input []byte
	switch {
	case len(args) == 1 && args[0] != "-":
		input = []byte(args[0])
	case len(args) == 0 || (len(args) == 1 && args[0] == "-"):
		raw, err := io.ReadAll(os.Stdin)
		if err != nil {
			fmt.Fprintf(os.Stderr, "read stdin: %v\n", err)
			return 1
		}
		input = raw
	default:
		fmt.Fprintln(os.Stderr, "receipt-hash takes at most one argument")
		return 1
	}

	digest, err := cryptoinfra.HashReceiptDocument(input)
	if err != nil {
		fmt.Fprintf(os.Stderr, "invalid receipt document: %v\n", err)
		return 1
	}
	fmt.Println(digest)
	return 0
}
