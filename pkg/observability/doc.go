/*
Package observability turns graph lifecycle hooks into Prometheus metrics and
structured log records.

Both are plain graph.Hooks and can be combined:

	metrics, _ := observability.NewMetrics(prometheus.DefaultRegisterer)
	g := graph.New(graph.WithHooks(graph.CombineHooks(
		metrics.Hooks(),
		observability.LogHooks(logger),
	)))
*/
package observability
