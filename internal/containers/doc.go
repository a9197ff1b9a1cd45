// Package containers reconstructs organizational-unit containment from
// path identifiers and answers attribute-inheritance queries.
//
// A Store owns the containers of a run in a backing list; Hierarchy adds
// parent chaining (Chain), inherited attribute lookup (AttributeValue) and
// the sub-container scan used by "group by structure" exports.
package containers
