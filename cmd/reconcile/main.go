package main

import (
	"fmt"
	"os"

	"github.com/ledgerai/reconcile-backend/internal/cli"
	"github.com/ledgerai/reconcile-backend/internal/infrastructure/config"
)

func main() {
	flags := cli.ParseReconcileFlags()

	cfg, err := config.LoadOrEnv("config.yaml")
	if err != nil {
		fmt.Fprintf(os.Stderr, "configuration error: %v\n", err)
		os.Exit(1)
	}

	if err := cli.RunReconcile(cfg, flags); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}
