/*
Package monitoring provides Prometheus-based metrics collection.

Tracked concerns:

  - HTTP request metrics (latency, throughput)
  - Session lifecycle (active, created, exited)
  - Byte throughput per direction (output, input)
  - Display surface and event feed connections
  - Attention flashes
  - Service uptime

Usage:

	metrics := monitoring.NewMetrics()
	router.Use(monitoring.Middleware(metrics))
	router.GET("/metrics", gin.WrapH(metrics.Handler()))
*/
package monitoring
