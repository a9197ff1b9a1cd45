// Package domain defines the core domain types for the organigram resolution engine.
//
// This package contains the entities and value objects shared by the hierarchy
// builder, the container hierarchy and the export layer.
//
// # Core Types
//
// Agent represents one organizational position (a person, or a synthesized
// placeholder) in the management tree. Agents live in an arena owned by the
// hierarchy registry and reference each other through Ref indices.
//
// Container represents one organizational unit, keyed by its path identifier,
// carrying the attributes that descendants inherit.
//
// AgentRecord, ContainerRecord and DirectoryEntry are the shapes delivered by
// directory sources: the agent stream, the container feed and the on-demand
// manager lookup.
//
// # Path Identifiers
//
// Path identifiers are directory distinguished names. NormalizePath produces the
// comparison key; ParentPath strips the leading RDN, which is how both the
// agent-to-container mapping and container chaining walk upward.
//
// # Name Ordering
//
// NameOrder is the explicit comparator used for sibling ordering.
// DefaultNameOrder compares case- and accent-insensitive (last name, first name)
// keys computed once per agent with golang.org/x/text.
//
// # Warnings
//
// Warning records a non-fatal resolution anomaly (duplicate identity,
// unresolvable manager, orphan container, ...). Nothing in the engine aborts a
// run on these; they are collected, logged and counted.
//
// # Design Principles
//
// - No database or external dependencies beyond text folding
// - Pure domain logic without infrastructure concerns
// - Integer references instead of pointers between tree nodes
package domain
