package domain

// SearchOptions configures a search query.
type SearchOptions struct {
	// Offset is the number of ranked matches to skip.
	Offset int

	// Limit is the maximum number of results. Zero uses the configured page size.
	Limit int

	// CheckAtLeast is the minimum number of matches to confirm before
	// stopping early. Larger values make the match count more exact.
	CheckAtLeast int

	// RelevantIDs is an optional relevance-feedback set.
	RelevantIDs []DocID

	// ExcludeIDs drops these documents from the results and the count.
	ExcludeIDs []DocID

	// FacetSlots lists value slots to count across checked matches.
	FacetSlots []Slot

	// Snippets requests a highlighted extract of each hit's data.
	Snippets bool
}

// SearchHit represents a single ranked match.
type SearchHit struct {
	DocID   DocID
	Rank    int
	Weight  float64
	Percent int
	Data    string
	Snippet string
}

// Facet is the value distribution of one slot across checked matches.
type Facet struct {
	Slot   Slot
	Counts map[string]int
	Total  int
}

// SearchPage is one window of ranked results plus the total-match bounds.
type SearchPage struct {
	Query       string
	Description string
	Offset      int
	Limit       int
	Hits        []SearchHit

	MatchesLower     int
	MatchesEstimated int
	MatchesUpper     int

	// Exact is true when every candidate was confirmed.
	Exact bool

	Facets []Facet
}

// ExpandOptions configures query expansion.
type ExpandOptions struct {
	// MaxTerms is the maximum number of suggested terms.
	MaxTerms int

	// RelevantIDs marks documents as relevant. When empty, the top
	// FromTop matches of the query are used instead.
	RelevantIDs []DocID

	// FromTop is how many top-ranked matches to treat as relevant.
	FromTop int

	// MinWeight drops suggestions at or below this weight.
	MinWeight float64

	// ExcludePrefixes drops suggestions starting with any of these.
	ExcludePrefixes []string

	// IncludeQueryTerms keeps terms already present in the query.
	IncludeQueryTerms bool
}

// ExpandTerm is one suggested expansion term.
type ExpandTerm struct {
	Term   string
	Weight float64
}

// IndexRequest describes a document to index.
type IndexRequest struct {
	// UniqueID, when set, replaces any document already indexed under it.
	UniqueID string

	// Data is stored verbatim and returned with search hits.
	Data string

	// Text is indexed as free text.
	Text string

	// Fields are indexed under the configured field prefixes.
	Fields map[string]string

	// Filters are added as boolean terms under the configured boolean prefixes.
	Filters map[string]string

	// Values are stored in value slots. Range slots configured as numbers or
	// dates are serialised sortably.
	Values map[Slot]string
}

// IndexStats summarises an index.
type IndexStats struct {
	UUID      string
	Path      string
	Backend   Backend
	DocCount  int
	LastDocID DocID
	AvgLength float64
	TermCount int
	Revision  uint64
}
