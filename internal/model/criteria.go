package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// FinancialProfile is the optional financial context a user supplies with
// a comparison request.
type FinancialProfile struct {
	MonthlyIncome *decimal.Decimal `json:"monthlyIncome,omitempty"`
	CreditScore   *int             `json:"creditScore,omitempty"`
	DesiredAmount *decimal.Decimal `json:"desiredAmount,omitempty"`
	DesiredTerm   *int             `json:"desiredTermMonths,omitempty"`
	DownPayment   *decimal.Decimal `json:"downPayment,omitempty"`
	RiskTolerance string           `json:"riskTolerance,omitempty"` // low, medium, high
}

// ComparisonCriteria is a per-request value object. It is never persisted
// by the core itself; saved comparisons carry a serialized copy.
type ComparisonCriteria struct {
	SortBy            string             `json:"sortBy,omitempty"`
	IncludePromotions bool               `json:"includePromotions"`
	Region            string             `json:"region,omitempty"`
	Profile           *FinancialProfile  `json:"profile,omitempty"`
	WeightOverrides   map[string]float64 `json:"weightOverrides,omitempty"`
}

// CatalogFilter narrows a product set in a single ordered pass:
// category, rate range, amount range, region, promotion presence, bank
// allowlist. Zero-valued fields are skipped.
type CatalogFilter struct {
	Category     ProductCategory  `json:"category,omitempty"`
	MinRate      *float64         `json:"minRate,omitempty"`
	MaxRate      *float64         `json:"maxRate,omitempty"`
	MinAmount    *decimal.Decimal `json:"minAmount,omitempty"`
	MaxAmount    *decimal.Decimal `json:"maxAmount,omitempty"`
	Region       string           `json:"region,omitempty"`
	PromoOnly    bool             `json:"promoOnly,omitempty"`
	AllowedBanks []uuid.UUID      `json:"allowedBanks,omitempty"`
}

// ConstraintType enumerates the user-suppliable hard/soft constraint kinds.
type ConstraintType string

const (
	ConstraintMaxRate         ConstraintType = "max_rate"
	ConstraintMinAmount       ConstraintType = "min_amount"
	ConstraintMaxAmount       ConstraintType = "max_amount"
	ConstraintMinTerm         ConstraintType = "min_term"
	ConstraintMaxTerm         ConstraintType = "max_term"
	ConstraintRequiredFeature ConstraintType = "required_feature"
	ConstraintMaxFees         ConstraintType = "max_fees"
)

// Constraint is a single user-supplied rule. Strict constraints eliminate
// non-conforming products outright; non-strict ones are preference
// signals only.
type Constraint struct {
	Type   ConstraintType `json:"type"`
	Value  Value          `json:"value"`
	Strict bool           `json:"strict"`
}

// UserPreferences carries the five priority flags plus bank lists that
// drive weight derivation during matching.
type UserPreferences struct {
	PrioritizeRate   bool        `json:"prioritizeRate"`
	PrioritizeFees   bool        `json:"prioritizeFees"`
	PrioritizeSpeed  bool        `json:"prioritizeSpeed"`
	PrioritizeRating bool        `json:"prioritizeRating"`
	AcceptPromotions bool        `json:"acceptPromotions"`
	PreferredBanks   []uuid.UUID `json:"preferredBanks,omitempty"`
	AvoidBanks       []uuid.UUID `json:"avoidBanks,omitempty"`
}

// UserRequirements is the full input to the matching algorithm.
type UserRequirements struct {
	Category    ProductCategory  `json:"category"`
	Amount      decimal.Decimal  `json:"amount"`
	TermMonths  int              `json:"termMonths"`
	Income      *decimal.Decimal `json:"income,omitempty"`
	CreditScore *int             `json:"creditScore,omitempty"`
	Region      string           `json:"region"`
	Preferences UserPreferences  `json:"preferences"`
	Constraints []Constraint     `json:"constraints,omitempty"`
}

// StrictConstraints returns only the hard constraints, preserving order.
func (r *UserRequirements) StrictConstraints() []Constraint {
	var strict []Constraint
	for _, c := range r.Constraints {
		if c.Strict {
			strict = append(strict, c)
		}
	}
	return strict
}

// MarketConditions is a snapshot of macro indicators used for dynamic
// re-evaluation of an existing recommendation.
type MarketConditions struct {
	CentralBankRate  float64     `json:"centralBankRate"`
	InflationRate    float64     `json:"inflationRate"`
	GDPGrowth        float64     `json:"gdpGrowth"`
	TrendingProducts []uuid.UUID `json:"trendingProducts,omitempty"`
	FetchedAt        time.Time   `json:"fetchedAt"`
}

// SavedComparison is the record handed to the persistence collaborator
// when a user bookmarks a comparison.
type SavedComparison struct {
	ID         string             `db:"id" json:"id"`
	UserID     uuid.UUID          `db:"user_id" json:"userId"`
	ProductIDs []uuid.UUID        `db:"-" json:"productIds"`
	Criteria   ComparisonCriteria `db:"-" json:"comparisonCriteria"`
	CreatedAt  time.Time          `db:"created_at" json:"createdAt"`
}
