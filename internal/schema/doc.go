// Package schema holds the plugin data the engine is parameterized by:
// element and attribute definitions, declarative lint rules with their
// compiled conditions, snippets and formatting preferences. A Snapshot
// is immutable and versioned; the Registry swaps snapshots atomically
// so a reload never disturbs evaluations already in flight.
package schema
