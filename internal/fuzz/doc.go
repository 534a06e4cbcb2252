// Package fuzztests houses Go fuzz harnesses that exercise the markup
// front end (source -> parser -> document model) and the formatter on
// arbitrary inputs. Its goal is to smoke test robustness and guard
// against panics, broken tree invariants and formatter instability.
package fuzztests
