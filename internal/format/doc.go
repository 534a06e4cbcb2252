// Package format renders parsed documents into their canonical textual
// form. It is layout-only: attribute values, text content and comments
// come through byte for byte, so formatting never changes what a
// document means. Preferences (indent, wrap threshold, primary
// attribute) come from the active plugin's format section.
package format
