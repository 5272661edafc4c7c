// Package services implements the driving port interfaces.
// Services contain the core business logic and orchestrate
// calls to the engine through the bridge.
//
// Every operation opens its own bridge.Scope, registers the configured
// stopper and range processors in it, and copies results out of pages
// and cursors before the scope is closed.
package services
