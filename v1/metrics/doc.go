// Package metrics exposes Prometheus metrics for the transcoding stack.
//
// *Metrics implements observability.Observer, so handing it to the schema
// registry, the codec or the kafka client turns every completed operation
// into three metric families, all labelled with component and operation:
//
//	pbcodec_operations_total{component,operation,status}
//	pbcodec_operation_duration_seconds{component,operation}
//	pbcodec_payload_bytes{component,operation}
//
// Every metric also carries a constant service label taken from
// Config.ServiceName. Further metrics can be added with CreateCounter,
// CreateHistogram and CreateGauge.
//
// Direct usage:
//
//	m := metrics.NewMetrics(metrics.Config{Address: ":9090", ServiceName: "unicorns"})
//	go m.Server.ListenAndServe()
//
//	registry := schema.NewRegistry(schema.WithObserver(m))
//
// With fx, metrics.FXModule provides both *Metrics and observability.Observer
// and manages the HTTP server lifecycle.
package metrics
