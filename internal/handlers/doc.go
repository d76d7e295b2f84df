// Package handlers implements the HTTP surface of the catalog service:
// health probes, version, synchronization trigger and status, read-only
// catalog listings, thumbnails and Prometheus metrics.
package handlers
