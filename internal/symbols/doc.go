// Package symbols maintains the definition/reference index over one or
// more documents sharing an identifier namespace. Which attribute
// defines an identifier and which attributes reference one comes from
// the plugin schema; the indexer itself is domain-blind. Updates are
// incremental per document: replacing a revision removes the old
// contribution and inserts the new one without touching other
// documents.
package symbols
