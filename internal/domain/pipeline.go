package domain

// Intent labels produced by the perception stage.
const (
	IntentQuestion = "question"
	IntentSearch   = "search"
	IntentUnknown  = "unknown"
)

// Action names a plan can contain, in their fixed priority order.
const (
	ActionSearch          = "search"
	ActionHighlight       = "highlight"
	ActionCategorize      = "categorize"
	ActionFavoriteEnabled = "favorite_enabled"
)

// Perception is the analysis of a raw query: intent, a heuristic category
// guess, keyword tokens, an embedding and a relevance estimate.
type Perception struct {
	Query          string    `json:"query"`
	Intent         string    `json:"intent"`
	Category       string    `json:"category"`
	Keywords       []string  `json:"keywords"`
	RelevanceScore float64   `json:"relevance_score"`
	Embedding      []float32 `json:"-"`
	// Error carries a degraded-analysis note; perception never fails hard.
	Error string `json:"error,omitempty"`
}

// Recall holds candidates retrieved by the memory stage.
type Recall struct {
	LongTerm   []SearchResult   `json:"long_term"`
	ShortTerm  []ShortTermEntry `json:"short_term"`
	TotalCount int              `json:"total_count"`
}

// ScoringConfig tunes how the action stage adjusts retrieval scores.
type ScoringConfig struct {
	BoostMatchingCategories bool    `json:"boost_matching_categories"`
	PenalizeConfidential    bool    `json:"penalize_confidential"`
	UserPreferencesWeight   float64 `json:"user_preferences_weight"`
}

// FilteringRules tells the action stage what to drop or demote.
type FilteringRules struct {
	SkipConfidentialSites bool     `json:"skip_confidential_sites"`
	Categories            []string `json:"categories"`
	MinRelevanceScore     float64  `json:"min_relevance_score"`
}

// Plan is the decision stage output: which actions to run and how.
type Plan struct {
	Actions        []string       `json:"actions"`
	Categorization bool           `json:"categorization"`
	Scoring        ScoringConfig  `json:"scoring_config"`
	Filtering      FilteringRules `json:"filtering_rules"`
	Priority       map[string]int `json:"priority"`
}

// Categorization is a one-shot category assignment for a piece of content.
type Categorization struct {
	Categories      []string `json:"categories"`
	PrimaryCategory string   `json:"primary_category"`
	Confidence      float64  `json:"confidence"`
}

// SearchOutcome is the executed search action.
type SearchOutcome struct {
	Success bool           `json:"success"`
	Results []SearchResult `json:"results,omitempty"`
	Count   int            `json:"count"`
	Error   string         `json:"error,omitempty"`
}

// HighlightOutcome signals that the caller should highlight query terms.
// No text manipulation happens server-side.
type HighlightOutcome struct {
	Enabled bool   `json:"enabled"`
	Query   string `json:"query"`
}

// CategorizeOutcome signals whether result categorization was requested.
type CategorizeOutcome struct {
	Enabled bool `json:"enabled"`
}

// ActionOutcome collects the per-action results of an executed plan.
type ActionOutcome struct {
	Search          *SearchOutcome     `json:"search,omitempty"`
	Highlight       *HighlightOutcome  `json:"highlight,omitempty"`
	Categorize      *CategorizeOutcome `json:"categorize,omitempty"`
	FavoriteEnabled bool               `json:"favorite_enabled,omitempty"`
}

// AgentResult is the combined output of one pipeline run. On failure Error is
// set and the stage outputs computed before the failure are preserved for
// diagnostics.
type AgentResult struct {
	Query      string         `json:"query"`
	Perception *Perception    `json:"perception,omitempty"`
	Memory     *Recall        `json:"memory,omitempty"`
	Plan       *Plan          `json:"decision,omitempty"`
	Action     *ActionOutcome `json:"action,omitempty"`
	Error      string         `json:"error,omitempty"`
}
