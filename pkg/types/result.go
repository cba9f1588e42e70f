package types

// RankNotPresent marks a pattern that a retriever did not return.
// Ranks are 1-based, so the sentinel can never collide with a real rank.
const RankNotPresent = -1

// ScoredResult is one retriever's verdict on a pattern
type ScoredResult struct {
	PatternID string
	Score     float64 // Raw retriever score (BM25 or similarity)
	Rank      int     // Position in that retriever's sorted output (1-based)
}

// FusedResult is a pattern's position after score fusion
type FusedResult struct {
	PatternID  string
	FinalScore float64 // Always within [0, 1]
	FinalRank  int
}

// Weights records the fusion weights used for a ranking
type Weights struct {
	Lexical  float64 `json:"lexical"`
	Semantic float64 `json:"semantic"`
}

// RankingDetails exposes each retriever's contribution to a fused result
type RankingDetails struct {
	LexicalScore  float64 `json:"lexical_score"`
	LexicalRank   int     `json:"lexical_rank"`
	SemanticScore float64 `json:"semantic_score"`
	SemanticRank  int     `json:"semantic_rank"`
	Weights       Weights `json:"weights"`
}

// InLexical reports whether the lexical retriever returned the pattern
func (d RankingDetails) InLexical() bool { return d.LexicalRank != RankNotPresent }

// InSemantic reports whether the semantic retriever returned the pattern
func (d RankingDetails) InSemantic() bool { return d.SemanticRank != RankNotPresent }

// Explanation says why a pattern ranked where it did. It is generated fresh
// for every request.
type Explanation struct {
	PatternID       string         `json:"pattern_id"`
	Confidence      float64        `json:"confidence"`
	Rationale       string         `json:"rationale"`
	MatchedProps    []string       `json:"matched_props"`
	MatchedVariants []string       `json:"matched_variants"`
	MatchedA11y     []string       `json:"matched_a11y"`
	RankingDetails  RankingDetails `json:"ranking_details"`
}

// Validate checks the explanation's numeric bounds
func (e *Explanation) Validate() error {
	if e.PatternID == "" {
		return ErrMissingPatternID
	}
	if e.Confidence < 0 || e.Confidence > 1 {
		return ErrInvalidConfidence
	}
	if e.Rationale == "" {
		return ErrEmptyRationale
	}
	return nil
}
