// Package file stores engine settings in a TOML file, by default
// ~/.sercha-engine/config.toml.
//
// Keys are read and written as dotted paths ("search.page_size"); the file
// itself is written as nested tables.
package file
