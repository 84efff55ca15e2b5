package domain

// RegulationUnit is one retrievable unit of a regulation document.
// Units are produced once per ingestion run, are immutable, and are
// wholesale-replaced when the source document is re-ingested.
type RegulationUnit struct {
	// ID is the regulation identifier taken from the unit marker line
	// (e.g. "RAIL-MNT-001"). Unique within one chunking pass.
	ID string

	// Content is the unit text including boundary overlap from
	// neighbouring units.
	Content string

	// Index is the ordinal position in the source document.
	Index int

	// TotalUnits is the number of units produced from the document.
	TotalUnits int

	// Fields holds metadata extracted from `[Label]: value` lines
	// within the unit. Keys are opaque pass-through data.
	Fields map[string]string

	// SourceName is the originating document (usually a filename).
	SourceName string
}

// RetrievedChunk is a single similarity-search hit from the knowledge store,
// ordered ascending by Distance (best match first).
type RetrievedChunk struct {
	// Content is the stored unit text.
	Content string

	// SourceID is the regulation ID the chunk belongs to.
	SourceID string

	// Distance is the embedding distance to the query (lower is closer).
	Distance float64

	// Metadata holds the stored per-chunk metadata.
	Metadata map[string]string
}
