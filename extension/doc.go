// Package extension holds the run-time registry of action services and the
// tool names they are invoked by.
package extension
