// Package collector provides the core functionality of this exporter.
//
// A collection pass opens a connection to an htmlcoin node, goes through a
// fixed sequence of read-only rpc calls and copies what's reported into the
// instruments of a metrics.Registry, which are then served by pkg/exporter
// whenever prometheus scrapes us. Passes are driven by a Poller at a fixed
// interval rather than by scrapes, so a slow node never slows a scrape down.
//
package collector
