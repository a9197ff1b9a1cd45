// Package handler implements the HTTP API for organigram.
//
// # Routes
//
//	GET  /api/chart                  current chart view
//	GET  /api/agents/{id}            one agent without its subtree
//	GET  /api/containers/attribute   inherited attribute (?path=&name=)
//	GET  /api/warnings               warnings of the current run
//	GET  /api/export/{format}        chart as json, yaml or xlsx
//	POST /api/rebuild                start a new run
//	GET  /events                     Server-Sent Events
//	GET  /metrics                    Prometheus metrics
//
// Until the first run completes the chart routes answer 503.
//
// # Response Format
//
// Success responses return JSON data. Error responses return JSON with
// {error, details} structure.
package handler
