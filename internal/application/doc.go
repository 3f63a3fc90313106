// Package application provides application initialization and dependency wiring.
// It resolves the configuration provider, binds the enabled services into a
// registry, and builds the HTTP router and server on top of them, keeping the
// main package focused on CLI parsing and orchestration.
package application
