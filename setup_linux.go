//go:build linux

package vatrace

import (
	"errors"
	"net/http"
	"time"
)

// Setup builds the interposer used by the preload library: an RTLD_NEXT
// resolver excluding this module, a registry over every declared entry
// point, the configured trace sink, and optionally metrics served on
// cfg.MetricsAddr.
//
// Setup always returns a usable Interposer. The error reports the parts
// that degraded (unopenable output, unknown log level, missing loader
// support); with no symbol table every shim answers StatusGenericFailure.
func Setup(cfg Config) (*Interposer, error) {
	var errs []error

	factory, err := cfg.LoggerFactory()
	if err != nil {
		errs = append(errs, err)
	}
	log := factory.NewLogger("vatrace")

	sink, _, err := cfg.OpenSink()
	if err != nil {
		errs = append(errs, err)
	}

	var resolver Resolver
	table, err := NextSymbols()
	if err != nil {
		errs = append(errs, err)
		resolver = ResolverFunc(func(EntryPoint) (any, error) { return nil, ErrNotInitialized })
	} else {
		resolver = NewResolver(table, SelfAddress())
	}

	opts := []RegistryOption{WithLogger(log)}
	var metrics *Metrics
	if cfg.MetricsAddr != "" {
		metrics = NewMetrics()
		opts = append(opts, WithObserver(metrics))
		sink = MultiSink{sink, metrics}
	}

	ip := NewInterposer(NewRegistry(resolver, EntryPoints(), opts...), InterposerConfig{
		Sink:    sink,
		Metrics: metrics,
		Logger:  log,
	})

	if metrics != nil {
		srv := &http.Server{
			Addr:              cfg.MetricsAddr,
			Handler:           NewDiagnosticsHandler(ip, metrics),
			ReadHeaderTimeout: 5 * time.Second,
		}
		go func() {
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				log.Errorf("diagnostics server on %s: %v", cfg.MetricsAddr, err)
			}
		}()
	}

	return ip, errors.Join(errs...)
}
