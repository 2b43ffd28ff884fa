// Package albumtype classifies album names whose publishing metadata year is
// known to diverge from the original release year (compilations, reissues,
// b-side collections). Detection is a pure function over the album name.
package albumtype

import (
	"regexp"
	"strings"

	"golang.org/x/text/unicode/norm"
)

// Type is the classified album category.
type Type string

const (
	TypeNormal      Type = "normal"
	TypeSpecial     Type = "special"
	TypeCompilation Type = "compilation"
	TypeReissue     Type = "reissue"
)

// Strategy tells the fallback engine what to do with a proposed year for an
// album of this type.
type Strategy string

const (
	// StrategyApply accepts proposed years without extra scrutiny.
	StrategyApply Strategy = "apply"
	// StrategyMarkAndSkip records the album for verification and preserves
	// the existing year.
	StrategyMarkAndSkip Strategy = "mark_and_skip"
	// StrategyMarkAndUpdate records the album for verification but applies
	// the proposed year anyway; reissue years are usually legitimate.
	StrategyMarkAndUpdate Strategy = "mark_and_update"
)

// Result describes a classification outcome. Pattern is empty for normal
// albums.
type Result struct {
	Type     Type
	Pattern  string
	Strategy Strategy
}

// Pattern sets are checked in order; the first match wins.
var specialPatterns = []string{
	"b sides", "b side", "demo", "demos", "vault", "rarities", "rare",
	"outtakes", "unreleased", "sessions", "session", "bonus", "bootleg",
	"alternate", "alternates", "acoustic versions", "instrumentals",
	"live at", "live from", "live in", "singles",
}

var compilationPatterns = []string{
	"greatest hits", "best of", "the best", "collection", "collected",
	"anthology", "essential", "essentials", "ultimate", "hits",
	"retrospective", "compilation", "complete works", "definitive",
}

var reissuePatterns = []string{
	"remaster", "remastered", "remasters", "anniversary", "deluxe",
	"expanded", "redux", "re issue", "reissue", "re release", "rerelease",
	"special edition", "legacy edition", "super deluxe",
}

type patternSet struct {
	albumType Type
	strategy  Strategy
	patterns  []*regexp.Regexp
}

var orderedSets = []patternSet{
	{TypeSpecial, StrategyMarkAndSkip, compilePatterns(specialPatterns)},
	{TypeCompilation, StrategyMarkAndSkip, compilePatterns(compilationPatterns)},
	{TypeReissue, StrategyMarkAndUpdate, compilePatterns(reissuePatterns)},
}

func compilePatterns(phrases []string) []*regexp.Regexp {
	compiled := make([]*regexp.Regexp, 0, len(phrases))
	for _, phrase := range phrases {
		compiled = append(compiled, regexp.MustCompile(`\b`+regexp.QuoteMeta(phrase)+`\b`))
	}
	return compiled
}

var (
	bracketPattern    = regexp.MustCompile(`[()\[\]{}]`)
	whitespacePattern = regexp.MustCompile(`\s+`)
)

// Normalize lowers and flattens an album name for pattern matching and for
// pending-store keying: NFKC fold, hyphens and underscores become spaces,
// bracket punctuation is stripped, runs of whitespace collapse.
func Normalize(album string) string {
	cleaned := norm.NFKC.String(album)
	cleaned = strings.ToLower(cleaned)
	cleaned = strings.NewReplacer("-", " ", "_", " ").Replace(cleaned)
	cleaned = bracketPattern.ReplaceAllString(cleaned, " ")
	cleaned = whitespacePattern.ReplaceAllString(cleaned, " ")
	return strings.TrimSpace(cleaned)
}

// Detect classifies an album name. Total: every input yields a result, with
// unmatched names classified normal.
func Detect(album string) Result {
	normalized := Normalize(album)
	for _, set := range orderedSets {
		for _, pattern := range set.patterns {
			if loc := pattern.FindString(normalized); loc != "" {
				return Result{Type: set.albumType, Pattern: loc, Strategy: set.strategy}
			}
		}
	}
	return Result{Type: TypeNormal, Strategy: StrategyApply}
}
