package quote

// ExportRecord represents a quote record in JSONL export format.
// It is used for parsing export files during import.
type ExportRecord struct {
	// Header detection field - true only for header line
	MuseExport bool `json:"_muse_export,omitempty"`

	// Header fields (only present in header line)
	SchemaVersion string `json:"schema_version,omitempty"`
	ExportedAt    int64  `json:"exported_at,omitempty"`

	// Quote fields
	ID            string `json:"id"`
	Text          string `json:"text"`
	Category      string `json:"category"` // renormalized on import
	Author        string `json:"author"`
	IsAIGenerated bool   `json:"is_ai_generated"`
	CreatedAt     int64  `json:"created_at"`
	UpdatedAt     int64  `json:"updated_at"`
	DeletedAt     *int64 `json:"deleted_at"`
}

// ToQuote converts an ExportRecord to a Quote, recomputing derived fields.
func (r *ExportRecord) ToQuote() *Quote {
	category := NormalizeCategory(r.Category)
	if category == "" {
		category = DefaultCategory
	}
	return &Quote{
		ID:            r.ID,
		Text:          r.Text,
		Category:      category,
		Author:        DefaultAuthor(r.Author, r.IsAIGenerated),
		IsAIGenerated: r.IsAIGenerated,
		CreatedAt:     r.CreatedAt,
		UpdatedAt:     r.UpdatedAt,
		DeletedAt:     r.DeletedAt,
	}
}

// ToExportRecord converts a Quote to an ExportRecord for export.
func ToExportRecord(q *Quote) *ExportRecord {
	return &ExportRecord{
		ID:            q.ID,
		Text:          q.Text,
		Category:      q.Category,
		Author:        q.Author,
		IsAIGenerated: q.IsAIGenerated,
		CreatedAt:     q.CreatedAt,
		UpdatedAt:     q.UpdatedAt,
		DeletedAt:     q.DeletedAt,
	}
}
