package profile

// Stopper stops a running profiler and flushes its output.
type Stopper interface{ Stop() }

// Profiler configures a profiling session.
type Profiler struct {
	// Mode is one of [Modes]. An empty or unknown mode disables profiling.
	Mode string
	// Path is the output directory. If empty, a temporary directory is used.
	Path string
	// Quiet suppresses the start and stop messages of the profiler.
	Quiet bool
}

// Make returns a Profiler configured by opts.
func Make(opts ...Option) Profiler {
	return apply(Profiler{}, opts...)
}

// Enabled reports whether Start would actually profile.
func (p Profiler) Enabled() bool {
	return p.Mode != "" && supported(p.Mode)
}

// Start starts profiling and returns a [Stopper] that ends it.
//
// If the pprof build tag or p.Mode are unset, Start returns a no-op
// implementation. Both Start and Stop are always safely callable.
func (p Profiler) Start() Stopper {
	if !p.Enabled() {
		return ignore{}
	}

	return start(p)
}

type ignore struct{}

func (ignore) Stop() {}
