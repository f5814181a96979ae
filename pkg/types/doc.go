// Package types defines the capability contracts shared by every LLM, embedder and
// vector-store backend, the data structures that flow through them, and the typed
// errors returned by provider resolution and construction.
package types
