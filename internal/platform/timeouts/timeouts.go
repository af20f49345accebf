// Package timeouts defines shared timeout constants used across the arena
// process. Centralizing these values prevents drift between the transport,
// the engine and the HTTP server.
package timeouts

import "time"

// Handshake caps how long an authenticated handshake may take, including the
// identity backend round trip.
const Handshake = 5 * time.Second

// Identity caps a single identity call made from the game engine, such as a
// rating lookup or adjustment.
const Identity = 3 * time.Second

// ReadHeader limits how long the HTTP server waits for request headers.
const ReadHeader = 10 * time.Second

// Shutdown limits how long the HTTP server waits for in-flight requests
// during graceful shutdown.
const Shutdown = 5 * time.Second
