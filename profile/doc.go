// Package profile provides optional runtime profiling for tmplc.
//
// Profiling wraps [github.com/pkg/profile] and is compiled in only with the
// "pprof" build tag:
//
//	go build -tags pprof .
//
// Without the tag, [Modes] is empty and [Profiler.Start] is a no-op.
//
// A session is described by a [Profiler] value:
//
//	p := profile.Profiler{Mode: "cpu", Dir: "/tmp/tmplc"}
//	defer p.Start().Stop()
//
// Profile files are named after the mode (cpu.pprof, mem.pprof, and so on)
// and written to Dir.
package profile
