package main

import (
	"context"
	"errors"
	"fmt"
	"os"
)

func main() {
	err := newRootCommand().Execute()
	if err == nil {
		return
	}
	// An interrupt during watch surfaces as context.Canceled; that is a
	// clean shutdown, reported with the usual signal exit status.
	if errors.Is(err, context.Canceled) {
		os.Exit(130)
	}
	fmt.Fprintln(os.Stderr, "librarian:", err)
	os.Exit(1)
}
