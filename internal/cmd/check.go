package cmd

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/servo/angle-buildgen/internal/log"
)

// Check verifies that the committed artifact matches the manifests.
type Check struct {
	Tree   `embed:""`
	Output `embed:""`

	stdout io.Writer `kong:"-"`
}

// Run is called by Kong when the check command is executed.
func (c *Check) Run(logger *slog.Logger, tracer log.EvalTracer) error {
	diff, err := c.generator(c.Output, logger, tracer).Check()
	if diff != "" {
		w := c.stdout
		if w == nil {
			w = os.Stdout
		}
		_, _ = fmt.Fprint(w, diff)
	}
	return err
}
