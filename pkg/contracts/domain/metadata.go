package domain

// Metadata column names produced by the filename parser
const (
	ColumnSample  = "sample"
	ColumnCapping = "capping"
	ColumnAnneal  = "anneal"
)

// MetadataColumns lists the metadata columns in table order
var MetadataColumns = []string{ColumnSample, ColumnCapping, ColumnAnneal}

// FileMetadata holds the attributes decoded from a measurement filename.
// A version segment, when present, is already folded into Sample.
type FileMetadata struct {
	Sample  string `json:"sample" yaml:"sample" validate:"required"`
	Capping string `json:"capping" yaml:"capping" validate:"required"`
	Anneal  string `json:"anneal" yaml:"anneal" validate:"required"`
}

// AsMap returns the metadata keyed by column name. It always has exactly three keys.
func (m FileMetadata) AsMap() map[string]any {
	return map[string]any{
		ColumnSample:  m.Sample,
		ColumnCapping: m.Capping,
		ColumnAnneal:  m.Anneal,
	}
}
