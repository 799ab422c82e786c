// Package cli contains the command line interface for molang.
//
// # Usage
//
// Evaluation is the default command, so an expression can follow the
// program name directly:
//
//	molang 'math.sqrt(16) + 1'
//	molang --var variable.hp=3 --bind world.yaml -f step.molang
//	molang fmt json step.molang
//	molang repl --bind world.yaml
//	molang init
//
// # Search Path
//
// Relative script and bindings paths are looked up in the directories given
// with --path, followed by the entries of $MOLANG_PATH.
//
// # Configuration
//
// Flag defaults are read from config.yaml (and config.json) in the user
// configuration directory. The YAML loader accepts hyphenated, underscored,
// or nested keys:
//
//	log-level: debug
//	log:
//	  format: text
//	path:
//	  - ~/scripts
//
// "molang init" writes the current flag values to config.yaml. Command-line
// flags override configuration file values.
//
// # Logging Options
//
//   - --log-level: Set minimum log level (trace, debug, info, warn, error)
//   - --log-format: Set log output format (json, text)
//   - --log-time-layout: Set timestamp layout (RFC3339, Kitchen, none, etc.)
//   - --log-caller: Include caller information in log output
//   - --log-pretty: Colorize output when writing to a terminal
//
// # Profiling Options
//
// Profiling is only available when built with the pprof build tag:
//
//	go build -tags pprof -o molang .
//
//   - --pprof-mode: Enable profiling (allocs, block, clock, cpu, goroutine,
//     heap, mem, mutex, thread, trace)
//   - --pprof-dir: Set profile output directory (default ~/.cache/molang/pprof)
package cli
