// Package vatrace traces libva (VA-API) calls by interposing on the
// library's entry points.
//
// Key pieces include:
//   - EntryPoint descriptors for the intercepted functions (EntryPoints)
//   - SymbolResolver, which finds the real implementation by name and, where
//     required, exact symbol version, never returning the interposer itself
//   - Registry, resolved exactly once on first use and read-only afterwards
//   - Interposer, one shim per entry point: trace, look up, forward
//   - Sinks for per-call trace lines and Prometheus metrics
//
// # Architecture
//
//	program -> vaXxx (libvatrace.so, via LD_PRELOAD) -> Interposer.Xxx
//	        -> Sink.Emit -> Registry.Get -> real vaXxx (libva.so, via RTLD_NEXT)
//
// A shim whose entry point could not be resolved returns
// StatusGenericFailure on every call. Statuses and out-parameters from the
// real implementation are returned untouched.
//
// # Native Libraries
//
// cmd/libvatrace builds the preload library:
//
//	go build -buildmode=c-shared -o build/libvatrace.so ./cmd/libvatrace
//
// The library must come before libva in the loader's search order, which
// LD_PRELOAD provides; `vatrace run` (cmd/vatrace) sets it up. Symbols are
// looked up and called through purego, so the core package itself builds
// with CGO_ENABLED=0.
//
// # Configuration
//
// The preload library reads VATRACE_OUTPUT, VATRACE_TIMESTAMPS,
// VATRACE_METRICS_ADDR and VATRACE_LOG_LEVEL (see ConfigFromEnv).
package vatrace
