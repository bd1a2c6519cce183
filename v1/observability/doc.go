// Package observability defines the hook every package in this module uses to
// report completed operations.
//
// Packages never talk to prometheus or OpenTelemetry directly for per-operation
// accounting; they call an Observer, and the application decides what to do with
// the observation. v1/metrics ships an Observer that turns observations into
// prometheus counters and histograms.
//
//	codec, _ := codec.NewCodec(cfg, log, registry, codec.WithObserver(metricsClient))
package observability
