// Package project locates and decodes frost.toml, the per-project
// manifest that names the schema plugin and carries lint and format
// settings shared by every command.
package project
