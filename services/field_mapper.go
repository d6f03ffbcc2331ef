package services

import (
	"strings"
)

// Match stages, in resolution order
const (
	StageTokenAlias = "token-alias"
	StageLabelAlias = "label-alias"
	StagePhrase     = "phrase"
	StageFuzzy      = "fuzzy"
	StageOverlap    = "token-overlap"
)

// MapperConfig carries the tunable matching policy. Zero values fall back to
// the defaults below; the numbers are empirical, not contracts.
type MapperConfig struct {
	FuzzyThreshold float64
	CandidateFloor float64
	MinFuzzyLength int
	Keywords       KeywordTable
	Aliases        map[string]string
	ChoiceSynonyms map[string]string
	Stopwords      []string
}

const (
	defaultFuzzyThreshold = 0.7
	defaultCandidateFloor = 0.3
	defaultMinFuzzyLength = 4
)

// MatchResult describes how a label was mapped
type MatchResult struct {
	Key   string  `json:"key"`
	Stage string  `json:"stage"`
	Score float64 `json:"score"`
}

type mapperEntry struct {
	key     string
	phrases []string // normalized
	tokens  map[string]struct{}
}

// FieldMapper maps form question signatures onto canonical profile keys and
// decides whether an option label satisfies a desired value.
type FieldMapper struct {
	cfg       MapperConfig
	entries   []mapperEntry
	aliases   map[string]string
	canonical map[string]string
	synonyms  map[string]string
	stopwords map[string]struct{}
}

// NewFieldMapper builds a mapper; nil tables are replaced by the defaults
func NewFieldMapper(cfg MapperConfig) *FieldMapper {
	if cfg.FuzzyThreshold <= 0 {
		cfg.FuzzyThreshold = defaultFuzzyThreshold
	}
	if cfg.CandidateFloor <= 0 {
		cfg.CandidateFloor = defaultCandidateFloor
	}
	if cfg.MinFuzzyLength <= 0 {
		cfg.MinFuzzyLength = defaultMinFuzzyLength
	}
	if cfg.Keywords == nil {
		cfg.Keywords = DefaultKeywordTable()
	}
	if cfg.Aliases == nil {
		cfg.Aliases = DefaultAliasTable()
	}
	if cfg.ChoiceSynonyms == nil {
		cfg.ChoiceSynonyms = DefaultChoiceSynonyms()
	}
	if cfg.Stopwords == nil {
		cfg.Stopwords = defaultStopwords
	}

	m := &FieldMapper{
		cfg:       cfg,
		aliases:   make(map[string]string, len(cfg.Aliases)),
		canonical: make(map[string]string, len(cfg.Keywords)),
		synonyms:  make(map[string]string, len(cfg.ChoiceSynonyms)),
		stopwords: make(map[string]struct{}, len(cfg.Stopwords)),
	}

	for _, word := range cfg.Stopwords {
		m.stopwords[Normalize(word)] = struct{}{}
	}
	for alias, key := range cfg.Aliases {
		m.aliases[Normalize(alias)] = key
	}
	for short, long := range cfg.ChoiceSynonyms {
		m.synonyms[Normalize(short)] = Normalize(long)
	}
	for _, entry := range cfg.Keywords {
		m.canonical[strings.ToLower(entry.Key)] = entry.Key
		me := mapperEntry{key: entry.Key, tokens: make(map[string]struct{})}
		for _, phrase := range entry.Phrases {
			normalized := Normalize(phrase)
			if normalized == "" {
				continue
			}
			me.phrases = append(me.phrases, normalized)
			for _, tok := range strings.Fields(normalized) {
				if !m.isStopword(tok) {
					me.tokens[tok] = struct{}{}
				}
			}
		}
		m.entries = append(m.entries, me)
	}

	return m
}

// FindMatch returns the canonical key for a question label or signature
func (m *FieldMapper) FindMatch(label string) (string, bool) {
	result, ok := m.Resolve(label)
	return result.Key, ok
}

// Resolve runs the full resolution order and reports the winning stage
func (m *FieldMapper) Resolve(label string) (MatchResult, bool) {
	normalized := Normalize(label)
	if normalized == "" {
		return MatchResult{}, false
	}
	tokens := strings.Fields(normalized)

	// 1. token-level alias or canonical key
	for _, tok := range tokens {
		key, ok := m.exactKey(tok)
		if !ok || m.claimedByLongerPhrase(normalized, tok, key) {
			continue
		}
		return MatchResult{Key: key, Stage: StageTokenAlias, Score: 1}, true
	}

	// 2. whole label alias or canonical key
	if key, ok := m.exactKey(normalized); ok {
		return MatchResult{Key: key, Stage: StageLabelAlias, Score: 1}, true
	}
	if key, ok := m.exactKey(strings.ReplaceAll(normalized, " ", "")); ok {
		return MatchResult{Key: key, Stage: StageLabelAlias, Score: 1}, true
	}

	// 3. phrase containment, most specific phrase wins
	if key, ok := m.phraseMatch(normalized); ok {
		return MatchResult{Key: key, Stage: StagePhrase, Score: 1}, true
	}

	// 4. fuzzy similarity
	if len([]rune(normalized)) < m.cfg.MinFuzzyLength {
		return MatchResult{}, false
	}
	best, bestScore := -1, 0.0
	for i, entry := range m.entries {
		for _, phrase := range entry.phrases {
			if score := similarity(normalized, phrase); score > bestScore {
				best, bestScore = i, score
			}
		}
	}
	if best < 0 {
		return MatchResult{}, false
	}
	candidate := m.entries[best]
	if bestScore >= m.cfg.FuzzyThreshold {
		return MatchResult{Key: candidate.key, Stage: StageFuzzy, Score: bestScore}, true
	}

	// 5. token overlap with the sub-threshold candidate
	if bestScore >= m.cfg.CandidateFloor {
		for _, tok := range tokens {
			if _, shared := candidate.tokens[tok]; shared {
				return MatchResult{Key: candidate.key, Stage: StageOverlap, Score: bestScore}, true
			}
		}
	}

	return MatchResult{}, false
}

// ChoiceMatches reports whether an option label satisfies the desired value.
// A generic "Other" option never matches unless the desired value mentions it.
func (m *FieldMapper) ChoiceMatches(optionLabel, desired string) bool {
	option := Normalize(optionLabel)
	want := Normalize(desired)
	if option == "" || want == "" {
		return false
	}
	if isOtherDecoy(option, want) {
		return false
	}

	for _, o := range m.expand(option) {
		for _, w := range m.expand(want) {
			if o == w || containsWords(o, w) || containsWords(w, o) {
				return true
			}
			if m.sharesContentToken(o, w) {
				return true
			}
		}
	}
	return false
}

func (m *FieldMapper) exactKey(text string) (string, bool) {
	if key, ok := m.aliases[text]; ok {
		return key, true
	}
	if key, ok := m.canonical[text]; ok {
		return key, true
	}
	return "", false
}

// claimedByLongerPhrase reports whether tok is part of a multi-word phrase of
// another key present in the label ("phone" inside "alternate phone").
func (m *FieldMapper) claimedByLongerPhrase(label, tok, key string) bool {
	for _, entry := range m.entries {
		if entry.key == key {
			continue
		}
		for _, phrase := range entry.phrases {
			if !strings.Contains(phrase, " ") || !containsWords(phrase, tok) {
				continue
			}
			if containsWords(label, phrase) {
				return true
			}
		}
	}
	return false
}

func (m *FieldMapper) phraseMatch(label string) (string, bool) {
	bestKey, bestLen := "", 0
	labelLen := len(label)
	for _, entry := range m.entries {
		for _, phrase := range entry.phrases {
			matched := 0
			switch {
			case containsWords(label, phrase):
				matched = len(phrase)
			case labelLen*2 >= len(phrase) && containsWords(phrase, label):
				matched = labelLen
			}
			if matched > bestLen {
				bestKey, bestLen = entry.key, matched
			}
		}
	}
	return bestKey, bestLen > 0
}

func (m *FieldMapper) expand(text string) []string {
	if long, ok := m.synonyms[text]; ok && long != text {
		return []string{text, long}
	}
	return []string{text}
}

func (m *FieldMapper) sharesContentToken(a, b string) bool {
	seen := make(map[string]struct{})
	for _, tok := range strings.Fields(a) {
		if !m.isStopword(tok) {
			seen[tok] = struct{}{}
		}
	}
	for _, tok := range strings.Fields(b) {
		if _, ok := seen[tok]; ok {
			return true
		}
	}
	return false
}

func (m *FieldMapper) isStopword(tok string) bool {
	_, ok := m.stopwords[tok]
	return ok
}

func isOtherDecoy(option, want string) bool {
	return containsWords(option, "other") && !containsWords(want, "other")
}

func isOtherOption(label string) bool {
	return containsWords(Normalize(label), "other")
}

// similarity is 1 - levenshtein/maxLen over runes
func similarity(a, b string) float64 {
	if a == b {
		return 1
	}
	ra, rb := []rune(a), []rune(b)
	maxLen := len(ra)
	if len(rb) > maxLen {
		maxLen = len(rb)
	}
	if maxLen == 0 {
		return 0
	}
	score := 1 - float64(levenshtein(ra, rb))/float64(maxLen)
	if score < 0 {
		return 0
	}
	return score
}

func levenshtein(a, b []rune) int {
	if len(a) == 0 {
		return len(b)
	}
	if len(b) == 0 {
		return len(a)
	}

	prev := make([]int, len(b)+1)
	curr := make([]int, len(b)+1)
	for j := range prev {
		prev[j] = j
	}

	for i := 1; i <= len(a); i++ {
		curr[0] = i
		for j := 1; j <= len(b); j++ {
			cost := 1
			if a[i-1] == b[j-1] {
				cost = 0
			}
			curr[j] = min(prev[j]+1, curr[j-1]+1, prev[j-1]+cost)
		}
		prev, curr = curr, prev
	}

	return prev[len(b)]
}
