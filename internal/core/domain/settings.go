package domain

import "fmt"

const unknownDescription = "Unknown"

// Backend selects where an index is kept.
type Backend string

// Available backends.
const (
	// BackendSQLite persists the index in a SQLite file.
	BackendSQLite Backend = "sqlite"

	// BackendInMemory keeps the index in process memory only.
	BackendInMemory Backend = "inmemory"
)

// IsValid returns true if the backend is recognised.
func (b Backend) IsValid() bool {
	return b == BackendSQLite || b == BackendInMemory
}

// String returns the string representation.
func (b Backend) String() string {
	return string(b)
}

// Description returns a human-readable description of the backend.
func (b Backend) Description() string {
	switch b {
	case BackendSQLite:
		return "SQLite (persistent)"
	case BackendInMemory:
		return "In-memory (discarded on exit)"
	default:
		return unknownDescription
	}
}

// StemStrategy controls which query and index terms are stemmed.
type StemStrategy string

// Available stemming strategies.
const (
	// StemNone disables stemming.
	StemNone StemStrategy = "none"

	// StemSome stems terms that are not capitalised or in phrases, adding a Z prefix.
	StemSome StemStrategy = "some"

	// StemAll stems every term without a prefix marker.
	StemAll StemStrategy = "all"

	// StemAllZ stems every term and marks it with a Z prefix.
	StemAllZ StemStrategy = "all_z"

	// StemSomeFullPos behaves like StemSome and also records positions for stems.
	StemSomeFullPos StemStrategy = "some_full_pos"
)

// IsValid returns true if the strategy is recognised.
func (s StemStrategy) IsValid() bool {
	switch s {
	case StemNone, StemSome, StemAll, StemAllZ, StemSomeFullPos:
		return true
	default:
		return false
	}
}

// String returns the string representation.
func (s StemStrategy) String() string {
	return string(s)
}

// Description returns a human-readable description of the strategy.
func (s StemStrategy) Description() string {
	switch s {
	case StemNone:
		return "No stemming"
	case StemSome:
		return "Stem lower-case terms (Z-prefixed)"
	case StemAll:
		return "Stem all terms"
	case StemAllZ:
		return "Stem all terms (Z-prefixed)"
	case StemSomeFullPos:
		return "Stem lower-case terms with positions"
	default:
		return unknownDescription
	}
}

// StopStrategy controls what happens to stopwords during indexing.
type StopStrategy string

// Available stop strategies.
const (
	// StopNone indexes stopwords like any other word.
	StopNone StopStrategy = "none"

	// StopAll drops stopwords entirely.
	StopAll StopStrategy = "all"

	// StopStemmed indexes stopwords unstemmed but skips their stemmed form.
	StopStemmed StopStrategy = "stemmed"
)

// IsValid returns true if the strategy is recognised.
func (s StopStrategy) IsValid() bool {
	return s == StopNone || s == StopAll || s == StopStemmed
}

// String returns the string representation.
func (s StopStrategy) String() string {
	return string(s)
}

// RangeKind selects the built-in interpretation of a value-range expression.
type RangeKind string

// Available range kinds.
const (
	RangeString   RangeKind = "string"
	RangeNumber   RangeKind = "number"
	RangeDate     RangeKind = "date"
	RangeDateTime RangeKind = "datetime"
)

// IsValid returns true if the range kind is recognised.
func (k RangeKind) IsValid() bool {
	switch k {
	case RangeString, RangeNumber, RangeDate, RangeDateTime:
		return true
	}
	return false
}

// String returns the string representation.
func (k RangeKind) String() string {
	return string(k)
}

// RangeSpec configures one value-range processor.
type RangeSpec struct {
	Slot      Slot      `toml:"slot"`
	Marker    string    `toml:"marker"`
	Kind      RangeKind `toml:"kind"`
	Suffix    bool      `toml:"suffix"`
	Repeated  bool      `toml:"repeated"`
	PreferMDY bool      `toml:"prefer_mdy"`
}

// Validate checks the range is usable.
func (r RangeSpec) Validate() error {
	if !r.Kind.IsValid() {
		return fmt.Errorf("%w: range kind %q", ErrInvalidInput, r.Kind)
	}
	if r.Slot == BadSlot {
		return fmt.Errorf("%w: range slot unset", ErrInvalidInput)
	}
	return nil
}

// DatabaseSettings configures where the index lives.
type DatabaseSettings struct {
	Path    string
	Backend Backend
}

// SearchSettings configures query parsing and paging.
type SearchSettings struct {
	PageSize        int
	CheckAtLeast    int
	Language        string
	StemStrategy    StemStrategy
	Stopwords       []string
	Prefixes        map[string]string
	BooleanPrefixes map[string]string
	Ranges          []RangeSpec
}

// LogSettings configures diagnostic output.
type LogSettings struct {
	// Verbose enables debug logging without the --verbose flag.
	Verbose bool
}

// Settings is the full engine configuration.
type Settings struct {
	Database DatabaseSettings
	Search   SearchSettings
	Log      LogSettings
}

// DefaultSettings returns the settings used when no config file exists.
func DefaultSettings() Settings {
	return Settings{
		Database: DatabaseSettings{
			Backend: BackendSQLite,
		},
		Search: SearchSettings{
			PageSize:     10,
			CheckAtLeast: 0,
			Language:     "english",
			StemStrategy: StemSome,
			Stopwords:    DefaultStopwords(),
			Prefixes: map[string]string{
				"title":  "S",
				"author": "A",
			},
			BooleanPrefixes: map[string]string{
				"type": "XT",
				"tag":  "K",
			},
		},
	}
}

// DefaultStopwords returns a short English stoplist.
func DefaultStopwords() []string {
	return []string{
		"a", "an", "and", "are", "as", "at", "be", "by", "for", "from",
		"in", "is", "it", "of", "on", "or", "that", "the", "to", "was",
		"with",
	}
}

// Validate checks the settings are usable.
func (s Settings) Validate() error {
	if !s.Database.Backend.IsValid() {
		return fmt.Errorf("%w: backend %q", ErrInvalidInput, s.Database.Backend)
	}
	if !s.Search.StemStrategy.IsValid() {
		return fmt.Errorf("%w: stem strategy %q", ErrInvalidInput, s.Search.StemStrategy)
	}
	if s.Search.PageSize < 0 || s.Search.CheckAtLeast < 0 {
		return fmt.Errorf("%w: negative paging setting", ErrInvalidInput)
	}
	for _, r := range s.Search.Ranges {
		if err := r.Validate(); err != nil {
			return err
		}
	}
	return nil
}
