package cmd

import (
	"log/slog"

	"github.com/servo/angle-buildgen/internal/log"
)

type Generate struct {
	Tree   `embed:""`
	Output `embed:""`
}

// Run is called by Kong when the generate command is executed.
func (g *Generate) Run(logger *slog.Logger, tracer log.EvalTracer) error {
	logger.Info("Starting build data generation", "repo", g.Repo, "root", g.Root, "output", g.Output.Output)
	return g.generator(g.Output, logger, tracer).Generate()
}
