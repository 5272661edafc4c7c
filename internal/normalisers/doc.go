// Package normalisers extracts searchable text from files. Each normaliser
// knows one family of formats, selected by file extension; anything else
// is read as plain text.
package normalisers
