// Package domain defines the core types shared by the engine, the bridge and
// the adapters.
//
// This package is part of the hexagonal architecture's innermost layer.
// It has NO external dependencies and defines the fundamental types:
//
//   - DocID, TermPos, Slot: engine identifiers
//   - CallbackRole, CallbackError: host extension points and their failures
//   - StoredDocument, Snapshot, ChangeSet: the persisted form of an index
//   - SearchOptions, SearchPage, ExpandOptions: service-level DTOs
//   - Settings: typed configuration with defaults
//
// # Architectural Position
//
// Domain is at the centre of the hexagon. It may only import
// the Go standard library. All other packages depend on domain,
// never the reverse.
//
// # Import Rules
//
//   - Can Import: Standard library only
//   - Cannot Import: Any internal/ package, any external dependency
package domain
