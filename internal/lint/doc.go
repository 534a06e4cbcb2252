// Package lint evaluates schema-driven rules over parsed documents.
// The built-in checks (required attributes, enum values, child
// cardinality, duplicate identifiers) and the plugin-declared rules
// run in one pass and share the same configuration surface: severity
// overrides, path excludes and inline suppression directives.
//
// Evaluation is pure with respect to its inputs. Given the same
// document revision and schema snapshot it produces the same
// diagnostics in the same order, which keeps watch mode and editor
// sessions free of flicker.
package lint
