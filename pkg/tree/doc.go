// Package tree provides the hierarchical directory model that feeds the
// layout engine.
//
// A [Tree] is an arena of nodes keyed by absolute path. Nodes hold no owning
// references to each other: parent/child relationships are expressed through
// path keys, so a rebuild replaces the whole arena cheaply and stale focus
// paths are reconciled explicitly rather than through dangling pointers.
//
// Trees are built from a [Lister] collaborator, which abstracts directory
// enumeration. The OS-backed lister is the production implementation; tests
// substitute in-memory listers to exercise partial-failure behavior.
//
// # Partial success
//
// Building a tree never aborts because a subdirectory is unreadable. The
// offending entry becomes a leaf with its Unreadable flag set, and the build
// continues. Only a root that cannot be listed at all fails the build, with
// errors.ErrCodeUnreadableDir.
//
// # Ordering
//
// Children are sorted case-insensitively by name, and the tree records a
// pre-order enumeration that is stable for a given build. Layout and
// navigation both rely on this order for deterministic tie-breaking.
package tree
