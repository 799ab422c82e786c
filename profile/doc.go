// Package profile provides optional runtime profiling for molang.
//
// Profiling is implemented with [github.com/pkg/profile] and must be enabled
// at build time using the "pprof" build tag:
//
//	go build -tags pprof -o molang .
//
// Without the tag, [Modes] is empty and [Profiler.Start] returns a no-op
// [Stopper], so callers never need build tags of their own.
//
// # Modes
//
// The following modes are supported when built with the pprof tag:
//
//   - allocs:    memory allocation profiling (all allocations)
//   - block:     block (synchronization) profiling
//   - clock:     wall-clock profiling
//   - cpu:       CPU profiling
//   - goroutine: goroutine profiling
//   - heap:      heap profiling (live allocations)
//   - mem:       general memory profiling
//   - mutex:     mutex contention profiling
//   - thread:    thread creation profiling
//   - trace:     execution trace
//
// # Usage
//
//	p := profile.Make(
//		profile.WithMode("cpu"),
//		profile.WithPath("/tmp/profiles"),
//	)
//	defer p.Start().Stop()
//
// Profiles are written to the configured directory with names matching the
// mode (e.g., cpu.pprof) and can be analyzed with "go tool pprof".
//
// The pprof build also imports [net/http/pprof], so a host that serves
// [net/http.DefaultServeMux] exposes the /debug/pprof/ endpoints.
package profile

// Tag is the build tag required to enable pprof profiling.
const Tag = `pprof`
