// Package bridge is the boundary between host code and the search engine.
//
// Host decision logic reaches the engine through trampolines registered on
// a Scope; the engine's lazy result sequences reach the host through
// cursors that check the liveness of their source on every use. Execute
// and Expand tie both together.
package bridge
