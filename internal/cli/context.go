package cli

import (
	"context"
	"os"

	"github.com/example/brickline/internal/config"
	"github.com/example/brickline/internal/ctxutil"
)

// commandContext returns the base context for CLI commands with the
// operator's identity attached for ledger and activity attribution.
func commandContext() context.Context {
	ctx := context.Background()
	cwd, err := os.Getwd()
	if err != nil {
		return ctx
	}
	if actor := config.ResolveActor(cwd); actor != "" {
		ctx = ctxutil.WithActorID(ctx, actor)
	}
	return ctx
}

// defaultStation returns the operator's configured station, or empty.
func defaultStation() string {
	cwd, err := os.Getwd()
	if err != nil {
		return ""
	}
	return config.DefaultStation(cwd)
}
