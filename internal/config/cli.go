// Package config defines the command line and configuration file surface.
package config

import (
	"github.com/alecthomas/kong"

	"github.com/servo/angle-buildgen/internal/cmd"
)

// LogConfig controls logging and statement tracing.
type LogConfig struct {
	Level     string `help:"Log level" default:"info" enum:"trace,debug,info,warn,error" env:"ANGLE_BUILDGEN_LOG_LEVEL"`
	File      string `help:"Write logs to this file instead of stdout" env:"ANGLE_BUILDGEN_LOG_FILE"`
	Format    string `help:"Log record format" default:"text" enum:"text,json" env:"ANGLE_BUILDGEN_LOG_FORMAT"`
	TraceFile string `help:"Write one line per evaluated manifest statement to this file" env:"ANGLE_BUILDGEN_LOG_TRACE_FILE"`
}

type CLI struct {
	ConfigFile string           `name:"config" help:"Path to a JSON, YAML or TOML configuration file" env:"ANGLE_BUILDGEN_CONFIG"`
	Version    kong.VersionFlag `help:"Print version and exit"`
	Log        LogConfig        `embed:"" prefix:"log."`

	Generate cmd.Generate      `cmd:"" default:"withargs" help:"Generate the build data module (default)"`
	Check    cmd.Check         `cmd:"" help:"Fail if the build data module is out of date"`
	Dump     cmd.Dump          `cmd:"" help:"Print the normalized catalog"`
	Config   cmd.ConfigCommand `cmd:"" help:"Configuration helpers"`
}
