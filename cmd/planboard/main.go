package main

import (
	"context"
	"fmt"
	"os"

	"github.com/javiermolinar/planboard/internal/ui"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	return ui.NewApp().Execute(context.Background())
}
