// Package repository defines the storage interface for directory snapshots.
//
// A stored snapshot doubles as a directory source: the repository serves
// the agent and container feeds and answers manager lookups, so a run can
// resolve against a database instead of a YAML file. The implementation
// lives in the sqlite subpackage.
//
// # SQLite Implementation
//
// The sqlite implementation keeps agents, containers and container
// attributes in separate tables, preserves source order through a
// sequence column, and replaces the whole snapshot in one transaction on
// import.
//
// # Testing
//
// The sqlite repository is tested against in-memory databases.
package repository
