package model

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ProductCategory identifies the kind of financial product being offered.
type ProductCategory string

const (
	CategoryMortgage  ProductCategory = "mortgage"
	CategoryDeposit   ProductCategory = "deposit"
	CategoryCredit    ProductCategory = "credit"
	CategoryInsurance ProductCategory = "insurance"
)

// RegionAll is the sentinel region meaning the product is offered everywhere.
const RegionAll = "all"

// Bank is a read-only attribute source for scoring and display. The core
// never creates or mutates banks.
type Bank struct {
	ID                    uuid.UUID `db:"id" json:"id"`
	Name                  string    `db:"name" json:"name"`
	Website               string    `db:"website" json:"website,omitempty"`
	OverallRating         *float64  `db:"overall_rating" json:"overallRating,omitempty"`                // 0-5
	ServiceRating         *float64  `db:"service_rating" json:"serviceRating,omitempty"`                // 0-5
	ReliabilityRating     *float64  `db:"reliability_rating" json:"reliabilityRating,omitempty"`        // 0-5
	ProcessingSpeedRating *float64  `db:"processing_speed_rating" json:"processingSpeedRating,omitempty"` // 0-5
	IsPartner             bool      `db:"is_partner" json:"isPartner"`
	CommissionRate        *float64  `db:"commission_rate" json:"commissionRate,omitempty"` // percent
	CreatedAt             time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt             time.Time `db:"updated_at" json:"updatedAt"`
}

// Fees maps a named fee (application, monthly, early_repayment, ...) to its
// amount. Unknown keys are allowed and participate in the total-fees sum.
type Fees map[string]decimal.Decimal

// Total sums every fee in the map.
func (f Fees) Total() decimal.Decimal {
	total := decimal.Zero
	for _, amount := range f {
		total = total.Add(amount)
	}
	return total
}

// Get returns the named fee, or zero when absent.
func (f Fees) Get(key string) decimal.Decimal {
	if v, ok := f[key]; ok {
		return v
	}
	return decimal.Zero
}

// Well-known fee and feature keys.
const (
	FeeApplication    = "application"
	FeeMonthly        = "monthly"
	FeeEarlyRepayment = "early_repayment"

	FeatureEarlyRepayment    = "early_repayment"
	FeatureOnlineApplication = "online_application"
	FeatureFastApproval      = "fast_approval"
	FeatureCapitalization    = "capitalization"
	FeatureReplenishment     = "replenishment"
	FeaturePartialWithdrawal = "partial_withdrawal"
	FeatureGracePeriod       = "grace_period"

	RequirementIncomeProof     = "income_proof"
	RequirementMinCreditScore  = "min_credit_score"
	RequirementEmploymentYears = "employment_years"
)

// Product is the unit being compared and matched. The core only reads
// products; catalog management owns their lifecycle.
type Product struct {
	ID              uuid.UUID        `db:"id" json:"id"`
	BankID          uuid.UUID        `db:"bank_id" json:"bankId"`
	Bank            *Bank            `db:"-" json:"bank,omitempty"`
	Name            string           `db:"name" json:"name"`
	Category        ProductCategory  `db:"category" json:"category"`
	InterestRate    float64          `db:"interest_rate" json:"interestRate"` // APR as percentage
	PromotionalRate *float64         `db:"promotional_rate" json:"promotionalRate,omitempty"`
	PromoValidUntil *time.Time       `db:"promo_valid_until" json:"promoValidUntil,omitempty"`
	PromoConditions string           `db:"promo_conditions" json:"promoConditions,omitempty"`
	MinAmount       *decimal.Decimal `db:"min_amount" json:"minAmount,omitempty"`
	MaxAmount       *decimal.Decimal `db:"max_amount" json:"maxAmount,omitempty"`
	MinTermMonths   *int             `db:"min_term_months" json:"minTermMonths,omitempty"`
	MaxTermMonths   *int             `db:"max_term_months" json:"maxTermMonths,omitempty"`
	Fees            Fees             `db:"-" json:"fees"`
	Requirements    Attributes       `db:"-" json:"requirements"`
	Features        Attributes       `db:"-" json:"features"`
	Regions         []string         `db:"-" json:"regions"`
	IsActive        bool             `db:"is_active" json:"isActive"`
	IsFeatured      bool             `db:"is_featured" json:"isFeatured"`
	Priority        int              `db:"priority" json:"priority"`
	CreatedAt       time.Time        `db:"created_at" json:"createdAt"`
	UpdatedAt       time.Time        `db:"updated_at" json:"updatedAt"`
}

// Validate checks the structural invariants the catalog guarantees.
func (p *Product) Validate() error {
	if p.Name == "" {
		return fmt.Errorf("product name is required")
	}
	switch p.Category {
	case CategoryMortgage, CategoryDeposit, CategoryCredit, CategoryInsurance:
	default:
		return fmt.Errorf("unknown product category %q", p.Category)
	}
	if p.InterestRate < 0 {
		return fmt.Errorf("interest rate must be non-negative")
	}
	if p.MinAmount != nil && p.MaxAmount != nil && p.MinAmount.GreaterThan(*p.MaxAmount) {
		return fmt.Errorf("min amount exceeds max amount")
	}
	if p.MinTermMonths != nil && p.MaxTermMonths != nil && *p.MinTermMonths > *p.MaxTermMonths {
		return fmt.Errorf("min term exceeds max term")
	}
	return nil
}

// EffectiveRate returns the promotional rate while it is still valid at
// now, otherwise the nominal rate.
func (p *Product) EffectiveRate(now time.Time) float64 {
	if p.HasActivePromo(now) {
		return *p.PromotionalRate
	}
	return p.InterestRate
}

// HasActivePromo reports whether the promotional rate is present and not
// yet expired at now. An expired promo must be treated as absent.
func (p *Product) HasActivePromo(now time.Time) bool {
	if p.PromotionalRate == nil {
		return false
	}
	if p.PromoValidUntil != nil && !now.Before(*p.PromoValidUntil) {
		return false
	}
	return true
}

// OfferedIn reports whether the product is available in the given region.
func (p *Product) OfferedIn(region string) bool {
	for _, r := range p.Regions {
		if r == RegionAll || r == region {
			return true
		}
	}
	return false
}

// BankName returns the owning bank's display name, or empty when the bank
// is not embedded.
func (p *Product) BankName() string {
	if p.Bank == nil {
		return ""
	}
	return p.Bank.Name
}
