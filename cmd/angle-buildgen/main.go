package main

import (
	"os"
	"runtime/debug"
	"strings"

	"github.com/servo/angle-buildgen/internal/cmd"
	"github.com/servo/angle-buildgen/internal/config"
	"github.com/servo/angle-buildgen/internal/configpaths"
	"github.com/servo/angle-buildgen/internal/log"

	"github.com/alecthomas/kong"
	kongtoml "github.com/alecthomas/kong-toml"
	kongyaml "github.com/alecthomas/kong-yaml"
)

// version is set with -ldflags "-X main.version=...".
var version = ""

func main() {

	userCfg := findUserConfig(os.Args[1:])
	jsonPaths, yamlPaths, tomlPaths := configpaths.ConfigCandidatePaths(userCfg)

	vars := cmd.Vars()
	vars["version"] = resolveVersion()

	var cli config.CLI
	ctx := kong.Parse(&cli,
		kong.Name(configpaths.AppName),
		kong.Description("Generate ANGLE build data from moz.build manifests"),
		kong.UsageOnError(),
		vars,
		// Load configuration from JSON/YAML/TOML in priority order; flags/env override config values.
		kong.Configuration(kong.JSON, jsonPaths...),
		kong.Configuration(kongyaml.Loader, yamlPaths...),
		kong.Configuration(kongtoml.Loader, tomlPaths...),
	)

	logger, closeFiles, err := log.SetupLogger(cli.Log.Level, cli.Log.File, cli.Log.Format)
	if err != nil {
		_, _ = os.Stderr.WriteString("failed to setup logger: " + err.Error() + "\n")
		os.Exit(2)
	}
	defer func() {
		for _, c := range closeFiles {
			_ = c.Close()
		}
	}()

	var tracer log.EvalTracer
	if cli.Log.TraceFile != "" {
		f, err := os.OpenFile(cli.Log.TraceFile, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0o644)
		if err != nil {
			logger.Error("failed to open trace file", "file", cli.Log.TraceFile, "error", err)
			tracer = log.NewTracer(nil)
		} else {
			tracer = log.NewTracer(f)
			closeFiles = append(closeFiles, f)
		}
	} else if cli.Log.Level == "trace" {
		tracer = log.NewTracer(os.Stdout)
	} else {
		tracer = log.NewTracer(nil)
	}

	ctx.Bind(logger)
	ctx.BindTo(tracer, (*log.EvalTracer)(nil))

	err = ctx.Run()
	ctx.FatalIfErrorf(err)
}

func resolveVersion() string {
	if version != "" {
		return version
	}
	if info, ok := debug.ReadBuildInfo(); ok && info.Main.Version != "" {
		return info.Main.Version
	}
	return "dev"
}

func findUserConfig(args []string) string {
	for i := 0; i < len(args); i++ {
		a := args[i]
		if strings.HasPrefix(a, "--config=") {
			return a[len("--config="):]
		}
		if a == "--config" && i+1 < len(args) {
			return args[i+1]
		}
	}
	if v := os.Getenv("ANGLE_BUILDGEN_CONFIG"); v != "" {
		return v
	}
	return ""
}
