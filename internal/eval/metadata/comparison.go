package metadata

import (
	"fmt"
	"strings"
	"unicode"

	"github.com/lehigh-university-libraries/coverscan/internal/models"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// CompareRecords performs field-by-field comparison using Levenshtein distance.
// Fields without a reference value are reported but do not affect the score.
// A nil actual record compares as an empty one.
func CompareRecords(expected, actual *models.BookRecord) *RecordComparison {
	if expected == nil {
		expected = &models.BookRecord{}
	}
	if actual == nil {
		actual = &models.BookRecord{}
	}

	comparison := &RecordComparison{
		Fields: make(map[string]FieldComparison, len(Fields)),
	}

	pairs := map[string][2]string{
		"title":     {expected.Title, actual.Title},
		"authors":   {strings.Join(expected.Authors, "; "), strings.Join(actual.Authors, "; ")},
		"publisher": {expected.Publisher, actual.Publisher},
		"year":      {expected.Year, actual.Year},
	}

	totalScore := 0.0
	scored := 0
	for _, name := range Fields {
		pair := pairs[name]
		comp := compareField(name, pair[0], pair[1])
		comparison.Fields[name] = comp
		comparison.LevenshteinTotal += comp.Distance

		if !comp.Scored() {
			continue
		}
		scored++
		totalScore += comp.Score

		switch {
		case comp.Score > 0.8:
			comparison.FieldsMatched++
		case comp.Match == MatchMissing:
			comparison.FieldsMissing++
		default:
			comparison.FieldsIncorrect++
		}
	}

	if scored > 0 {
		comparison.OverallScore = totalScore / float64(scored)
	}

	return comparison
}

// compareField compares a single field using Levenshtein distance
func compareField(fieldName, expected, actual string) FieldComparison {
	comp := FieldComparison{
		FieldName: fieldName,
		Expected:  expected,
		Actual:    actual,
	}

	expNorm := []rune(NormalizeText(expected))
	actNorm := []rune(NormalizeText(actual))

	switch {
	case len(expNorm) == 0 && len(actNorm) == 0:
		comp.Match = MatchBothEmpty
		comp.Notes = "Both fields are empty"
		return comp
	case len(expNorm) == 0:
		comp.Distance = len(actNorm)
		comp.Match = MatchNoReference
		comp.Notes = "No reference value"
		return comp
	case len(actNorm) == 0:
		comp.Distance = len(expNorm)
		comp.Match = MatchMissing
		comp.Notes = "Field missing from scanned record"
		return comp
	}

	distance := levenshteinDistance(expNorm, actNorm)
	comp.Distance = distance

	if distance == 0 {
		comp.Score = 1.0
		comp.Match = MatchExact
		comp.Notes = "Exact match"
		return comp
	}

	similarity := 1.0 - float64(distance)/float64(max(len(expNorm), len(actNorm)))
	comp.Score = similarity

	switch {
	case similarity > 0.9:
		comp.Match = MatchFuzzyHigh
		comp.Notes = fmt.Sprintf("Very high similarity (%.1f%%), Levenshtein: %d", similarity*100, distance)
	case similarity > 0.7:
		comp.Match = MatchFuzzyMedium
		comp.Notes = fmt.Sprintf("Medium similarity (%.1f%%), Levenshtein: %d", similarity*100, distance)
	case similarity > 0.5:
		comp.Match = MatchFuzzyLow
		comp.Notes = fmt.Sprintf("Low similarity (%.1f%%), Levenshtein: %d", similarity*100, distance)
	default:
		comp.Match = MatchNone
		comp.Notes = fmt.Sprintf("Poor match (%.1f%%), Levenshtein: %d", similarity*100, distance)
	}

	return comp
}

// NormalizeText lowercases, drops niqqud and other combining marks, removes
// punctuation and collapses whitespace.
func NormalizeText(text string) string {
	// Chained transformers keep state, so each call builds its own.
	stripMarks := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	if stripped, _, err := transform.String(stripMarks, text); err == nil {
		text = stripped
	}

	text = strings.Map(func(r rune) rune {
		switch {
		case unicode.IsLetter(r), unicode.IsDigit(r):
			return unicode.ToLower(r)
		case unicode.IsSpace(r):
			return ' '
		default:
			return -1
		}
	}, text)

	return strings.Join(strings.Fields(text), " ")
}

// levenshteinDistance calculates the edit distance between two rune slices
func levenshteinDistance(s1, s2 []rune) int {
	if len(s1) == 0 {
		return len(s2)
	}
	if len(s2) == 0 {
		return len(s1)
	}

	prev := make([]int, len(s2)+1)
	curr := make([]int, len(s2)+1)
	for j := range prev {
		prev[j] = j
	}

	for i := 1; i <= len(s1); i++ {
		curr[0] = i
		for j := 1; j <= len(s2); j++ {
			cost := 1
			if s1[i-1] == s2[j-1] {
				cost = 0
			}
			curr[j] = min(prev[j]+1, curr[j-1]+1, prev[j-1]+cost)
		}
		prev, curr = curr, prev
	}

	return prev[len(s2)]
}
