// Package complete answers editor queries: completion candidates and
// hover cards. Context detection runs over the raw text so it stays
// useful mid-keystroke; candidate selection consults the last parsed
// revision and the active schema snapshot.
package complete
