// Package service runs the chart pipeline for organigram.
//
// ChartService opens the configured directory, feeds its containers and
// agents through the container hierarchy and the hierarchy builder, and
// derives the chart view that handlers and exporters read.
//
// # Runs
//
// Every Build is an independent run with its own builder, container
// hierarchy and run ID. A finished run is immutable; the service swaps it
// in as the current result under a read/write lock, so readers never see
// a run that is still being built.
//
// # Event System
//
// Finished and failed runs are published on the EventBus so that the SSE
// hub can notify connected clients.
package service
