// Package cmd implements the molang subcommands: eval, fmt, init, and repl.
//
// Commands receive a [context.Context] carrying the parsed kong context
// ([WithContext]) and the source search path ([WithSearchPath]). Script and
// bindings files named on the command line are resolved against the search
// path, and a file named more than once is opened only once.
package cmd

var (
	// CacheIdentifier is the kong variable identifier containing the path to
	// the runtime cache directory.
	CacheIdentifier = "cache"

	// ConfigIdentifier is the kong variable identifier containing the path
	// of the YAML configuration file written by init.
	ConfigIdentifier = "config"
)
