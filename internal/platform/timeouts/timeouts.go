// Package timeouts defines shared timeout constants used across the
// directory service. Centralizing these values prevents drift between
// component boundaries and makes the durations discoverable.
package timeouts

import "time"

// RemoteRequest caps a single round-trip to the upstream directory API.
const RemoteRequest = 30 * time.Second

// ConnectivityProbe caps one reachability validation request.
const ConnectivityProbe = 5 * time.Second

// Shutdown limits how long the runtime waits for in-flight work during
// graceful shutdown.
const Shutdown = 5 * time.Second
