// Package driven defines the interfaces that core calls OUT to infrastructure.
//
// These are the "driven" or "secondary" ports in hexagonal architecture.
// Core services and the engine depend on these interfaces, and
// infrastructure adapters implement them.
//
// # Required Interfaces
//
//   - IndexStore: Persistence of a search index (SQLite or in-memory)
//   - ConfigStore: Application configuration
//
// # Optional Interfaces
//
// These can be nil - the application degrades gracefully:
//
//   - ChangeWatcher: Notifies readers of commits by other processes.
//     Without it, read-only handles only see changes after an explicit reopen.
//
// # Import Rules
//
//   - Can Import: domain package only
//   - Cannot Import: Any adapter package
package driven
