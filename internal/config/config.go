// Package config declares the command line of gobjgen. Every flag can also be
// set from a JSON, YAML or TOML configuration file.
package config

import "github.com/Alia5/gobjgen/internal/cmd"

// Log configures the process-wide logger.
type Log struct {
	Level   string `help:"Log level" enum:"trace,debug,info,warn,error" default:"info" env:"GOBJGEN_LOG_LEVEL"`
	File    string `help:"Also write logs to this file" env:"GOBJGEN_LOG_FILE"`
	JSON    bool   `name:"json" help:"Write logs as JSON" env:"GOBJGEN_LOG_JSON"`
	RawFile string `help:"Dump generated sources to this file" env:"GOBJGEN_LOG_RAW_FILE"`
}

type CLI struct {
	Config string `help:"Path to a configuration file" type:"path" env:"GOBJGEN_CONFIG"`
	Log    Log    `embed:"" prefix:"log."`

	Generate cmd.Generate      `cmd:"" default:"withargs" help:"Generate code for tagged types"`
	Check    cmd.Check         `cmd:"" help:"Report diagnostics without generating code"`
	Inspect  cmd.Inspect       `cmd:"" help:"Print the resolved type model"`
	Verify   cmd.Verify        `cmd:"" help:"Fail when generated files are out of date"`
	Hooks    cmd.Hooks         `cmd:"" help:"List registered extension hooks"`
	Cfg      cmd.ConfigCommand `cmd:"" name:"config" help:"Configuration utilities"`
	Version  cmd.Version       `cmd:"" help:"Print the version"`
}
