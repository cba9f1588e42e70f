package searcher

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"

	"github.com/dshills/patternrank/internal/explain"
	"github.com/dshills/patternrank/internal/fusion"
	"github.com/dshills/patternrank/internal/lexical"
	"github.com/dshills/patternrank/internal/query"
	"github.com/dshills/patternrank/pkg/types"
)

// Mode selects which retrievers contribute to a ranking
type Mode string

const (
	ModeHybrid   Mode = "hybrid"   // Lexical + semantic with weighted fusion
	ModeLexical  Mode = "lexical"  // BM25 only
	ModeSemantic Mode = "semantic" // Embedding similarity only
)

// Policy decides what a semantic failure does to the request
type Policy string

const (
	// PolicyDegrade ranks with the lexical results alone and flags the response
	PolicyDegrade Policy = "degrade"
	// PolicyRequireHybrid fails the request with the semantic error
	PolicyRequireHybrid Policy = "require_hybrid"
)

// SemanticStatus reports how the semantic leg of a request went
type SemanticStatus string

const (
	StatusOK                SemanticStatus = "ok"
	StatusSkipped           SemanticStatus = "skipped"            // Mode did not ask for it
	StatusDisabled          SemanticStatus = "disabled"           // No semantic retriever configured
	StatusUnavailable       SemanticStatus = "unavailable"        // Embedding or vector index failure
	StatusCollectionMissing SemanticStatus = "collection_missing" // Index has no such collection
)

// Request limits
const (
	DefaultLimit = 10
	MaxLimit     = 100
)

var (
	ErrInvalidRequest    = errors.New("invalid search request")
	ErrUnsupportedMode   = errors.New("unsupported search mode")
	ErrUnsupportedPolicy = errors.New("unsupported degradation policy")
	// ErrSemanticDisabled is the semantic leg's error when no retriever is configured
	ErrSemanticDisabled = errors.New("semantic retrieval disabled")
)

// SemanticSearcher is the semantic leg of a hybrid search
type SemanticSearcher interface {
	Search(ctx context.Context, query string, topK int, filters map[string]string) ([]types.ScoredResult, error)
}

// Config holds the request defaults
type Config struct {
	DefaultLimit int
	MaxLimit     int
	Mode         Mode
	Policy       Policy
}

// DefaultConfig returns hybrid mode with graceful degradation
func DefaultConfig() Config {
	return Config{
		DefaultLimit: DefaultLimit,
		MaxLimit:     MaxLimit,
		Mode:         ModeHybrid,
		Policy:       PolicyDegrade,
	}
}

// SearchRequest contains parameters for a search operation.
// Zero values take the searcher's configured defaults.
type SearchRequest struct {
	Requirements types.Requirements
	Limit        int
	Mode         Mode
	Policy       Policy
}

// Result is one ranked pattern with its explanation
type Result struct {
	PatternID       string               `json:"pattern_id"`
	Pattern         types.Pattern        `json:"pattern"`
	FinalScore      float64              `json:"final_score"`
	FinalRank       int                  `json:"final_rank"`
	Confidence      float64              `json:"confidence"`
	Rationale       string               `json:"rationale"`
	MatchedProps    []string             `json:"matched_props"`
	MatchedVariants []string             `json:"matched_variants"`
	MatchedA11y     []string             `json:"matched_a11y"`
	RankingDetails  types.RankingDetails `json:"ranking_details"`
}

// SearchResponse contains search results and metadata
type SearchResponse struct {
	RequestID       string         `json:"request_id"`
	Results         []Result       `json:"results"`
	TotalResults    int            `json:"total_results"`
	Mode            Mode           `json:"mode"`
	Duration        time.Duration  `json:"duration"`
	Degraded        bool           `json:"degraded"`
	SemanticStatus  SemanticStatus `json:"semantic_status"`
	SemanticError   string         `json:"semantic_error,omitempty"`
	LexicalResults  int            `json:"lexical_results"`
	SemanticResults int            `json:"semantic_results"`
}

// Searcher coordinates the lexical and semantic retrievers, fuses their
// rankings and explains every result
type Searcher struct {
	patterns  map[string]types.Pattern
	lexical   *lexical.Retriever
	semantic  SemanticSearcher
	fusion    *fusion.Fusion
	explainer *explain.Explainer
	config    Config
}

// NewSearcher creates a new Searcher. sem may be nil, which disables the
// semantic leg; fus and exp default to fusion.Default and explain.New.
func NewSearcher(corpus []types.Pattern, lex *lexical.Retriever, sem SemanticSearcher, fus *fusion.Fusion, exp *explain.Explainer, cfg Config) (*Searcher, error) {
	if lex == nil {
		return nil, errors.New("searcher requires a lexical retriever")
	}

	patterns := make(map[string]types.Pattern, len(corpus))
	for _, p := range corpus {
		if _, dup := patterns[p.ID]; dup {
			return nil, fmt.Errorf("%w: %s", types.ErrDuplicatePatternID, p.ID)
		}
		patterns[p.ID] = p
	}

	if fus == nil {
		fus = fusion.Default()
	}
	if exp == nil {
		exp = explain.New()
	}

	defaults := DefaultConfig()
	if cfg.DefaultLimit <= 0 {
		cfg.DefaultLimit = defaults.DefaultLimit
	}
	if cfg.MaxLimit <= 0 {
		cfg.MaxLimit = defaults.MaxLimit
	}
	if cfg.Mode == "" {
		cfg.Mode = defaults.Mode
	}
	if cfg.Policy == "" {
		cfg.Policy = defaults.Policy
	}
	if err := validateMode(cfg.Mode, cfg.Policy); err != nil {
		return nil, err
	}

	return &Searcher{
		patterns:  patterns,
		lexical:   lex,
		semantic:  sem,
		fusion:    fus,
		explainer: exp,
		config:    cfg,
	}, nil
}

// SemanticEnabled reports whether a semantic retriever is configured
func (s *Searcher) SemanticEnabled() bool {
	return s.semantic != nil
}

// Len returns the corpus size
func (s *Searcher) Len() int {
	return len(s.patterns)
}

// Search ranks the corpus against req.Requirements
func (s *Searcher) Search(ctx context.Context, req SearchRequest) (*SearchResponse, error) {
	startTime := time.Now()

	if err := s.validateRequest(&req); err != nil {
		return nil, err
	}

	requestID := uuid.NewString()
	q := query.Build(req.Requirements)
	fetch := req.Limit * 2

	var lexRes, semRes []types.ScoredResult
	var semErr error
	status := StatusSkipped

	switch req.Mode {
	case ModeHybrid:
		var err error
		lexRes, semRes, semErr, err = s.hybridSearch(ctx, q, fetch)
		if err != nil {
			return nil, err
		}
		status = StatusOK
	case ModeLexical:
		lexRes = s.lexicalSearch(q, fetch)
	case ModeSemantic:
		semRes, semErr = s.semanticSearch(ctx, q, fetch)
		status = StatusOK
	}

	resp := &SearchResponse{
		RequestID: requestID,
		Mode:      req.Mode,
	}

	if semErr != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		if req.Policy == PolicyRequireHybrid {
			log.Printf("searcher: [%s] semantic retrieval failed: %v", requestID, semErr)
			return nil, semErr
		}
		status = semanticStatus(semErr)
		semRes = nil
		resp.Degraded = true
		resp.SemanticError = semErr.Error()
		log.Printf("searcher: [%s] semantic retrieval degraded (%s): %v", requestID, status, semErr)

		// A semantic-only request with nothing semantic left falls back to
		// the lexical ranking
		if req.Mode == ModeSemantic {
			lexRes = s.lexicalSearch(q, fetch)
		}
	}

	semRes = s.knownOnly(requestID, semRes)

	// Both legs are complete here; fusion never sees partial results
	details := s.fusion.FuseWithDetails(lexRes, semRes, req.Limit)
	resp.Results = s.hydrate(req.Requirements, details)
	resp.TotalResults = len(resp.Results)
	resp.SemanticStatus = status
	resp.LexicalResults = len(lexRes)
	resp.SemanticResults = len(semRes)
	resp.Duration = time.Since(startTime)

	log.Printf("searcher: [%s] mode=%s lexical=%d semantic=%d status=%s results=%d duration=%v",
		requestID, req.Mode, resp.LexicalResults, resp.SemanticResults, status, resp.TotalResults, resp.Duration)

	return resp, nil
}

// legResult holds the output of one retriever
type legResult struct {
	results []types.ScoredResult
	err     error
}

// hybridSearch runs both legs concurrently and waits for both. The semantic
// error is returned separately so the caller can apply its policy.
func (s *Searcher) hybridSearch(ctx context.Context, q query.Query, fetch int) (lex, sem []types.ScoredResult, semErr, err error) {
	lexChan := make(chan legResult, 1)
	semChan := make(chan legResult, 1)

	go func() {
		lexChan <- legResult{results: s.lexicalSearch(q, fetch)}
	}()
	go func() {
		results, err := s.semanticSearch(ctx, q, fetch)
		semChan <- legResult{results: results, err: err}
	}()

	// Wait for both searches
	var lexRes, semRes legResult
	var lexDone, semDone bool
	for !lexDone || !semDone {
		select {
		case lexRes = <-lexChan:
			lexDone = true
		case semRes = <-semChan:
			semDone = true
		case <-ctx.Done():
			return nil, nil, nil, ctx.Err()
		}
	}

	return lexRes.results, semRes.results, semRes.err, nil
}

// lexicalSearch returns no results for an empty query rather than the whole
// corpus at score zero
func (s *Searcher) lexicalSearch(q query.Query, fetch int) []types.ScoredResult {
	if q.Lexical == "" {
		return nil
	}
	return s.lexical.Search(q.Lexical, fetch)
}

func (s *Searcher) semanticSearch(ctx context.Context, q query.Query, fetch int) ([]types.ScoredResult, error) {
	if s.semantic == nil {
		return nil, ErrSemanticDisabled
	}
	return s.semantic.Search(ctx, q.Semantic, fetch, q.Filters)
}

// knownOnly drops vector index hits that are not in the corpus and closes
// the rank gaps they leave
func (s *Searcher) knownOnly(requestID string, results []types.ScoredResult) []types.ScoredResult {
	out := results[:0:0]
	for _, r := range results {
		if _, ok := s.patterns[r.PatternID]; !ok {
			log.Printf("searcher: [%s] skipping unknown pattern %q from vector index", requestID, r.PatternID)
			continue
		}
		r.Rank = len(out) + 1
		out = append(out, r)
	}
	return out
}

func (s *Searcher) hydrate(req types.Requirements, details []fusion.Detail) []Result {
	results := make([]Result, 0, len(details))
	for _, d := range details {
		p, ok := s.patterns[d.PatternID]
		if !ok {
			continue
		}

		exp := s.explainer.Explain(p, req, explain.Signals{
			LexicalScore:      d.LexicalScore,
			LexicalRank:       d.LexicalRank,
			LexicalNormalized: d.LexicalNormalized,
			SemanticScore:     d.SemanticScore,
			SemanticRank:      d.SemanticRank,
			FinalScore:        d.FinalScore,
			FinalRank:         d.FinalRank,
			Weights:           d.Weights,
		})

		results = append(results, Result{
			PatternID:       p.ID,
			Pattern:         p,
			FinalScore:      d.FinalScore,
			FinalRank:       d.FinalRank,
			Confidence:      exp.Confidence,
			Rationale:       exp.Rationale,
			MatchedProps:    exp.MatchedProps,
			MatchedVariants: exp.MatchedVariants,
			MatchedA11y:     exp.MatchedA11y,
			RankingDetails:  exp.RankingDetails,
		})
	}
	return results
}

// semanticStatus classifies a semantic failure for the response
func semanticStatus(err error) SemanticStatus {
	switch {
	case errors.Is(err, ErrSemanticDisabled):
		return StatusDisabled
	case errors.Is(err, types.ErrCollectionNotFound):
		return StatusCollectionMissing
	default:
		return StatusUnavailable
	}
}

// validateRequest fills defaults and checks the request
func (s *Searcher) validateRequest(req *SearchRequest) error {
	if req.Requirements.IsEmpty() {
		return fmt.Errorf("%w: requirements are empty", ErrInvalidRequest)
	}
	if req.Limit < 0 {
		return fmt.Errorf("%w: limit must not be negative", ErrInvalidRequest)
	}
	if req.Limit == 0 {
		req.Limit = s.config.DefaultLimit
	}
	if req.Limit > s.config.MaxLimit {
		req.Limit = s.config.MaxLimit
	}
	if req.Mode == "" {
		req.Mode = s.config.Mode
	}
	if req.Policy == "" {
		req.Policy = s.config.Policy
	}
	return validateMode(req.Mode, req.Policy)
}

func validateMode(mode Mode, policy Policy) error {
	switch mode {
	case ModeHybrid, ModeLexical, ModeSemantic:
	default:
		return fmt.Errorf("%w: %q", ErrUnsupportedMode, mode)
	}
	switch policy {
	case PolicyDegrade, PolicyRequireHybrid:
	default:
		return fmt.Errorf("%w: %q", ErrUnsupportedPolicy, policy)
	}
	return nil
}
