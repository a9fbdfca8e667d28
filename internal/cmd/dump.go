package cmd

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/servo/angle-buildgen/internal/codegen/dump"
	"github.com/servo/angle-buildgen/internal/log"
)

// Dump prints the normalized catalog.
type Dump struct {
	Tree   `embed:""`
	Format string `help:"Output format" enum:"json,yaml,toml" default:"json" env:"ANGLE_BUILDGEN_DUMP_FORMAT"`
	File   string `help:"Write to this file instead of stdout" type:"path"`

	stdout io.Writer `kong:"-"`
}

// Run is called by Kong when the dump command is executed.
func (d *Dump) Run(logger *slog.Logger, tracer log.EvalTracer) error {
	cat, err := d.generator(Output{}, logger, tracer).Catalog()
	if err != nil {
		return err
	}

	w := d.stdout
	if w == nil {
		w = os.Stdout
	}
	if d.File != "" {
		f, err := os.Create(d.File)
		if err != nil {
			return fmt.Errorf("create %s: %w", d.File, err)
		}
		defer f.Close()
		w = f
	}
	return dump.Write(w, cat, d.Format)
}
