package model

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// HeaderType drives how a comparison cell value is formatted.
type HeaderType string

const (
	HeaderText     HeaderType = "text"
	HeaderCurrency HeaderType = "currency"
	HeaderPercent  HeaderType = "percent"
	HeaderNumber   HeaderType = "number"
	HeaderBoolean  HeaderType = "boolean"
)

// Header describes one column of a comparison matrix. Weight is the
// column's share of the row total score; zero-weight columns are
// informational only. Text columns score a flat neutral value, so their
// weight dampens the spread without reordering rows.
type Header struct {
	Key    string     `json:"key"`
	Label  string     `json:"label"`
	Type   HeaderType `json:"type"`
	Weight float64    `json:"weight"`
}

// Cell is one formatted, scored value of a comparison row.
//
// IsBest allows ties: every row whose raw value equals the column
// extremum is flagged. The aggregate best-in-category map is stricter
// and keeps a single winner. Both behaviors are intentional.
type Cell struct {
	Raw       Value   `json:"raw"`
	Formatted string  `json:"formatted"`
	IsBest    bool    `json:"isBest"`
	IsWorst   bool    `json:"isWorst"`
	Score     float64 `json:"score"`
	Note      string  `json:"note,omitempty"`
}

// ComparisonRow is one product's line in the matrix.
type ComparisonRow struct {
	ProductID     uuid.UUID       `json:"productId"`
	ProductName   string          `json:"productName"`
	BankName      string          `json:"bankName"`
	Values        map[string]Cell `json:"values"`
	TotalScore    float64         `json:"totalScore"`
	IsBestOverall bool            `json:"isBestOverall"`
	Highlights    []string        `json:"highlights"`
}

// ComparisonResult is the comparison engine's primary output: a pure
// projection, recomputed on demand, never authoritative state.
type ComparisonResult struct {
	Category       ProductCategory      `json:"category"`
	Headers        []Header             `json:"headers"`
	Rows           []ComparisonRow      `json:"rows"`
	BestInCategory map[string]uuid.UUID `json:"bestInCategory"`
	Summary        string               `json:"summary"`
}

// CostBreakdown is the amortized cost of carrying a product over a
// requested amount and term.
type CostBreakdown struct {
	TotalCost      decimal.Decimal `json:"totalCost"`
	MonthlyPayment decimal.Decimal `json:"monthlyPayment"`
	EffectiveRate  float64         `json:"effectiveRate"`
}

// RankedProduct is one entry of a ranked matching result.
type RankedProduct struct {
	Product          *Product        `json:"product"`
	Rank             int             `json:"rank"`
	Score            float64         `json:"score"`
	Pros             []string        `json:"pros"`
	Cons             []string        `json:"cons"`
	EligibilityScore float64         `json:"eligibilityScore"`
	ReferralValue    decimal.Decimal `json:"referralValue"`
}

// Reasoning explains a recommendation in user-facing terms.
type Reasoning struct {
	PrimaryFactors []string `json:"primaryFactors"`
	Tradeoffs      []string `json:"tradeoffs"`
	Warnings       []string `json:"warnings"`
	Assumptions    []string `json:"assumptions"`
}

// RiskLevel buckets the integer risk score of a recommendation.
type RiskLevel string

const (
	RiskLow      RiskLevel = "low"
	RiskMedium   RiskLevel = "medium"
	RiskHigh     RiskLevel = "high"
	RiskVeryHigh RiskLevel = "very_high"
)

// Escalated returns the next level up, saturating at very_high.
func (r RiskLevel) Escalated() RiskLevel {
	switch r {
	case RiskLow:
		return RiskMedium
	case RiskMedium:
		return RiskHigh
	default:
		return RiskVeryHigh
	}
}

// NextStep is one ordered action of the post-recommendation plan.
type NextStep struct {
	Order       int    `json:"order"`
	Title       string `json:"title"`
	Description string `json:"description"`
	URL         string `json:"url,omitempty"`
}

// OptimalSolution is the matching algorithm's output. A no-solution
// outcome is this same structure with Found=false, an empty primary
// recommendation and at least one warning; it is never an error.
type OptimalSolution struct {
	Found                 bool            `json:"found"`
	PrimaryRecommendation RankedProduct   `json:"primaryRecommendation"`
	Alternatives          []RankedProduct `json:"alternatives"`
	Reasoning             Reasoning       `json:"reasoning"`
	RiskLevel             RiskLevel       `json:"riskLevel"`
	EstimatedSavings      decimal.Decimal `json:"estimatedSavings"`
	NextSteps             []NextStep      `json:"nextSteps"`
}

// AlternativeSuggestion is a product found by relaxing one requirement
// dimension.
type AlternativeSuggestion struct {
	Product         *Product `json:"product"`
	RelaxedDimension string  `json:"relaxedDimension"` // amount, term, region
	Explanation     string   `json:"explanation"`
}

// ProductCombination pairs complementary products (mortgage+insurance,
// deposit split).
type ProductCombination struct {
	Products []*Product `json:"products"`
	Strategy string     `json:"strategy"`
	Benefits []string   `json:"benefits"`
	Risks    []string   `json:"risks"`
}

// CatalogChange describes one detected difference between the catalog a
// solution was computed against and the current one.
type CatalogChange struct {
	ProductID   uuid.UUID `json:"productId"`
	Kind        string    `json:"kind"` // removed, rate_changed, new_candidate
	Impact      string    `json:"impact"` // low, medium, high
	Description string    `json:"description"`
}

// DynamicRecommendation is the outcome of diffing a previous solution
// against a refreshed catalog.
type DynamicRecommendation struct {
	Changes              []CatalogChange `json:"changes"`
	NewCandidateCount    int             `json:"newCandidateCount"`
	RecomputeRecommended bool            `json:"recomputeRecommended"`
}
