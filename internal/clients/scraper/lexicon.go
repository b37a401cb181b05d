package scraper

import (
	"strings"
	"unicode"

	"github.com/AndrewLi0420/OpenAlpha-sub000/internal/domain"
)

// lexicon maps lower-cased keywords to a fixed polarity weight. Deliberately
// small and static: spec §4.D.4 calls for a "deterministic lexicon/keyword
// sentiment function", not a statistical model.
var lexicon = map[string]float64{
	"surge":        1.0,
	"soar":         1.0,
	"rally":        0.8,
	"beat":         0.7,
	"beats":        0.7,
	"upgrade":      0.8,
	"upgraded":     0.8,
	"outperform":   0.7,
	"bullish":      0.9,
	"strong":       0.5,
	"growth":       0.5,
	"record":       0.6,
	"gain":         0.5,
	"gains":        0.5,
	"profit":       0.5,
	"buy":          0.6,
	"miss":         -0.7,
	"misses":       -0.7,
	"downgrade":    -0.8,
	"downgraded":   -0.8,
	"underperform": -0.7,
	"bearish":      -0.9,
	"weak":         -0.5,
	"decline":      -0.5,
	"drop":         -0.6,
	"plunge":       -1.0,
	"slump":        -0.8,
	"loss":         -0.6,
	"losses":       -0.6,
	"sell":         -0.6,
	"lawsuit":      -0.7,
	"investigation": -0.6,
	"recall":       -0.6,
	"warning":      -0.5,
}

// Score tokenizes text into lower-cased words and averages the lexicon
// weight of every recognized keyword, clamped to [-1, 1]. Returns (score,
// true) when at least one keyword was found, (0, false) when the text
// carries no scorable signal (spec §4.D.4: "missing/unparseable content
// yields a skip").
func Score(text string) (float64, bool) {
	words := tokenize(text)
	if len(words) == 0 {
		return 0, false
	}

	var sum float64
	matches := 0
	for _, w := range words {
		if weight, ok := lexicon[w]; ok {
			sum += weight
			matches++
		}
	}
	if matches == 0 {
		return 0, false
	}

	return domain.ClampScore(sum / float64(matches)), true
}

func tokenize(text string) []string {
	return strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}
