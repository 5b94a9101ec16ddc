package metadata

// Fields compared for every evaluated cover, in report order.
var Fields = []string{"title", "authors", "publisher", "year"}

// RecordComparison represents field-by-field comparison of a scanned record
// against its reference.
type RecordComparison struct {
	Fields           map[string]FieldComparison `yaml:"fields"`
	OverallScore     float64                    `yaml:"overallscore"`
	FieldsMatched    int                        `yaml:"fieldsmatched"`
	FieldsMissing    int                        `yaml:"fieldsmissing"`
	FieldsIncorrect  int                        `yaml:"fieldsincorrect"`
	LevenshteinTotal int                        `yaml:"levenshteintotal"`
}

// FieldComparison represents comparison for a single metadata field
type FieldComparison struct {
	FieldName string  `yaml:"field"`
	Expected  string  `yaml:"expected"`
	Actual    string  `yaml:"actual"`
	Score     float64 `yaml:"score"`    // 0.0 to 1.0
	Distance  int     `yaml:"distance"` // Levenshtein distance in runes
	Match     string  `yaml:"match"`    // "exact", "fuzzy_high", "fuzzy_medium", "fuzzy_low", "no_match", "missing"
	Notes     string  `yaml:"notes,omitempty"`
}

// Scored reports whether the field has a reference value and counts toward
// the overall score.
func (f FieldComparison) Scored() bool {
	return f.Match != MatchNoReference && f.Match != MatchBothEmpty
}

const (
	MatchExact       = "exact"
	MatchFuzzyHigh   = "fuzzy_high"
	MatchFuzzyMedium = "fuzzy_medium"
	MatchFuzzyLow    = "fuzzy_low"
	MatchNone        = "no_match"
	MatchMissing     = "missing"
	MatchNoReference = "no_reference"
	MatchBothEmpty   = "both_empty"
)
