// Package persistence writes the fixed values of stored nodes through to a
// ports.FixedStore and restores them into a graph on startup.
package persistence
