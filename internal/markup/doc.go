// Package markup parses XML-like installer definition sources into an
// addressable node tree. The parser is recovery-oriented: an unclosed
// element does not blank out the rest of the document, it is closed
// implicitly and flagged so downstream checks can stay quiet about it.
// Each parse produces a wholly new immutable Document; node identities
// are never reused within a revision and never survive across one.
package markup
