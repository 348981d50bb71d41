// Package metrics exports lane activity to Prometheus.
//
//	collector := metrics.MustNewCollector(prometheus.DefaultRegisterer)
//	m := mediator.New(mediator.WithObserver(collector))
//
// Every metric is labelled with the lane kind and the message name.
// handled_total additionally carries result="success" or result="failure".
package metrics
