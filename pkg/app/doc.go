// Package app wires configuration into the components used by the pulse
// binaries: the database and activity store, the metric cache, the StatsD
// client, the tracker registry, and the instrumented HTTP handler.
package app
