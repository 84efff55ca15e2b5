package domain

import "time"

// Category is one of the fixed top-level classification folders in an
// input archive.
type Category string

// The closed category set. Archives may not introduce new categories.
const (
	CategoryRail      Category = "rail"
	CategoryInsulator Category = "insulator"
	CategoryNest      Category = "nest"
)

// Categories lists all valid archive categories.
var Categories = []Category{CategoryRail, CategoryInsulator, CategoryNest}

// ValidCategory reports whether name is a member of the closed category set.
func ValidCategory(name string) bool {
	for _, c := range Categories {
		if string(c) == name {
			return true
		}
	}
	return false
}

// DisplayName returns the human-readable artifact name for the category.
func (c Category) DisplayName() string {
	switch c {
	case CategoryRail:
		return "rail_inspection_report"
	case CategoryInsulator:
		return "insulator_inspection_report"
	case CategoryNest:
		return "nest_inspection_report"
	default:
		return string(c)
	}
}

// ItemStatus is the per-item processing outcome.
type ItemStatus string

const (
	// ItemSucceeded marks an item whose generation (and review, when
	// enabled) completed.
	ItemSucceeded ItemStatus = "succeeded"

	// ItemFailed marks an item where generation or review errored.
	// The failure is recorded; the batch continues.
	ItemFailed ItemStatus = "failed"
)

// ItemResult records the outcome of processing one archive item.
type ItemResult struct {
	// Index is the 1-based processing order across the whole run.
	Index int

	// Category is the archive folder the item came from.
	Category Category

	// SourceFile is the detection result filename.
	SourceFile string

	// AssetFile is the paired image filename, if any.
	AssetFile string

	// Status is succeeded or failed.
	Status ItemStatus

	// Document is the final report text for succeeded items.
	Document string

	// Error holds the failure message for failed items.
	Error string
}

// ArtifactItem is one processed report inside a BatchArtifact.
type ArtifactItem struct {
	// Index is the 1-based position within the category.
	Index int `json:"index"`

	// SourceFile is the detection result filename.
	SourceFile string `json:"source_file"`

	// RawDocument is the final generated report text.
	RawDocument string `json:"document_content"`

	// ParsedFields is the section map recovered from RawDocument.
	ParsedFields map[string]string `json:"document_sections"`
}

// BatchArtifact is the persisted per-category aggregate of one pipeline run.
type BatchArtifact struct {
	// ID is the run-derived artifact identifier
	// (RPT-<yyyymmdd>-<6 hex>). It is not a content hash.
	ID string `json:"report_id"`

	// Category is the archive folder the artifact aggregates.
	Category Category `json:"category"`

	// CategoryName is the human-readable artifact name.
	CategoryName string `json:"category_name"`

	// CreatedAt is the artifact creation time.
	CreatedAt time.Time `json:"created_at"`

	// TotalCount is the number of aggregated items.
	TotalCount int `json:"total_count"`

	// RunMetadata is the archive-level metadata passed to generation,
	// pass-through and schemaless.
	RunMetadata map[string]any `json:"metadata,omitempty"`

	// Items are the aggregated reports in processing order.
	Items []ArtifactItem `json:"reports"`
}

// BatchResult is the outcome of one ProcessArchive run. Partial success is
// expected: failed items sit alongside succeeded ones.
type BatchResult struct {
	// RunID identifies the pipeline run.
	RunID string

	// Items holds one entry per discovered archive item.
	Items []ItemResult

	// Artifacts holds one aggregate per category with processed items.
	Artifacts []BatchArtifact
}

// Succeeded returns the number of items that completed.
func (r *BatchResult) Succeeded() int {
	n := 0
	for _, item := range r.Items {
		if item.Status == ItemSucceeded {
			n++
		}
	}
	return n
}

// Failed returns the number of items that errored.
func (r *BatchResult) Failed() int {
	return len(r.Items) - r.Succeeded()
}
