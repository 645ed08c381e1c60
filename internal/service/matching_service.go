package service

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/finchoice/backend/internal/apperror"
	"github.com/finchoice/backend/internal/model"
)

// CatalogListInterface is the catalog access the matching algorithm
// needs: the full active product set for a category.
type CatalogListInterface interface {
	ListActive(ctx context.Context, category model.ProductCategory) ([]model.Product, error)
}

// MatchingService filters the catalog against hard constraints, ranks the
// survivors by a preference-weighted multi-criteria score, and explains
// the result.
type MatchingService struct {
	catalog    CatalogListInterface
	comparison *ComparisonService
	th         Thresholds
	now        func() time.Time
}

// NewMatchingService creates a MatchingService. The comparison service
// supplies the shared amortized-cost math.
func NewMatchingService(catalog CatalogListInterface, comparison *ComparisonService) *MatchingService {
	return &MatchingService{
		catalog:    catalog,
		comparison: comparison,
		th:         defaultThresholds(),
		now:        time.Now,
	}
}

// weights is the six-dimension scoring weight vector.
type weights struct {
	Rate            float64
	Fees            float64
	Eligibility     float64
	BankRating      float64
	Features        float64
	ProcessingSpeed float64
}

func baseWeights() weights {
	return weights{
		Rate:            0.30,
		Fees:            0.20,
		Eligibility:     0.20,
		BankRating:      0.15,
		Features:        0.10,
		ProcessingSpeed: 0.05,
	}
}

// dimensionScores holds one product's per-dimension scores, all in [0,100].
type dimensionScores struct {
	Rate            float64
	Fees            float64
	Eligibility     float64
	BankRating      float64
	Features        float64
	ProcessingSpeed float64
}

// desirableFeatures is the fixed checklist the features dimension counts.
var desirableFeatures = []string{
	model.FeatureEarlyRepayment,
	model.FeatureOnlineApplication,
	model.FeatureFastApproval,
	model.FeatureCapitalization,
	model.FeatureReplenishment,
	model.FeaturePartialWithdrawal,
}

// referralBaseValues is the per-category commission base for partner
// banks. An internal monetization signal, never shown as a consumer pro.
var referralBaseValues = map[model.ProductCategory]int64{
	model.CategoryMortgage:  1000,
	model.CategoryCredit:    500,
	model.CategoryInsurance: 300,
	model.CategoryDeposit:   200,
}

// Match loads the active catalog for the requested category and runs the
// optimization against it.
func (s *MatchingService) Match(ctx context.Context, req model.UserRequirements) (*model.OptimalSolution, error) {
	products, err := s.catalog.ListActive(ctx, req.Category)
	if err != nil {
		return nil, fmt.Errorf("loading catalog for %s matching: %w", req.Category, err)
	}
	return s.FindOptimalProducts(req, products)
}

// Combinations loads the catalog slices a bundle needs and proposes
// complementary product combinations for the requirements.
func (s *MatchingService) Combinations(ctx context.Context, req model.UserRequirements) ([]model.ProductCombination, error) {
	products, err := s.catalog.ListActive(ctx, req.Category)
	if err != nil {
		return nil, fmt.Errorf("loading catalog for %s combinations: %w", req.Category, err)
	}
	if req.Category == model.CategoryMortgage {
		insurance, err := s.catalog.ListActive(ctx, model.CategoryInsurance)
		if err != nil {
			return nil, fmt.Errorf("loading insurance catalog: %w", err)
		}
		products = append(products, insurance...)
	}
	return s.SuggestProductCombinations(req, products), nil
}

// FindOptimalProducts runs the full matching pipeline over an
// already-loaded catalog: eligibility filter, weight derivation, scoring,
// ranking, reasoning, risk assessment and next steps. A fully filtered-out
// catalog yields a structured no-solution result, not an error.
func (s *MatchingService) FindOptimalProducts(req model.UserRequirements, available []model.Product) (*model.OptimalSolution, error) {
	if err := ValidateConstraints(req.Constraints); err != nil {
		return nil, err
	}

	now := s.now()
	candidates := StripExpiredPromos(available, now)

	eligible := s.eligibleProducts(req, candidates, now)
	if len(eligible) == 0 {
		return s.noSolution(req, candidates, now), nil
	}

	w := deriveWeights(req.Preferences, s.th)
	ranked := s.scoreAndRank(req, eligible, w, now)

	primary := ranked[0]
	alternatives := ranked[1:]
	if len(alternatives) > 4 {
		alternatives = alternatives[:4]
	}

	return &model.OptimalSolution{
		Found:                 true,
		PrimaryRecommendation: primary,
		Alternatives:          alternatives,
		Reasoning:             s.buildReasoning(req, w, primary, alternatives, now),
		RiskLevel:             s.assessRisk(primary, now),
		EstimatedSavings:      s.estimateSavings(req, ranked),
		NextSteps:             s.nextSteps(primary.Product),
	}, nil
}

// ValidateConstraints rejects constraints with unknown types or malformed
// values before any filtering runs.
func ValidateConstraints(constraints []model.Constraint) error {
	for _, c := range constraints {
		switch c.Type {
		case model.ConstraintMaxRate, model.ConstraintMinAmount, model.ConstraintMaxAmount,
			model.ConstraintMinTerm, model.ConstraintMaxTerm, model.ConstraintMaxFees:
			if c.Value.Kind != model.KindNumber || c.Value.Num <= 0 {
				return apperror.InvalidConstraint(fmt.Sprintf("constraint %q requires a positive numeric value", c.Type))
			}
		case model.ConstraintRequiredFeature:
			if c.Value.Kind != model.KindText || c.Value.Str == "" {
				return apperror.InvalidConstraint("constraint \"required_feature\" requires a feature name")
			}
		default:
			return apperror.InvalidConstraint(fmt.Sprintf("unknown constraint type %q", c.Type))
		}
	}
	return nil
}

// eligibleProducts applies the hard, non-negotiable filters in order:
// category and activation, region, amount bounds, term bounds, strict
// constraints, avoided banks.
func (s *MatchingService) eligibleProducts(req model.UserRequirements, products []model.Product, now time.Time) []model.Product {
	survivors := products
	for _, stage := range s.filterStages(req, now) {
		survivors = stage.apply(survivors)
		if len(survivors) == 0 {
			return nil
		}
	}
	return survivors
}

// filterStage is one step of the eligibility pipeline. Stages run in
// order, each consuming the previous stage's survivor set, which makes
// the "first exhausted stage" diagnostic a structural property.
type filterStage struct {
	name    string
	warning string
	apply   func([]model.Product) []model.Product
}

func (s *MatchingService) filterStages(req model.UserRequirements, now time.Time) []filterStage {
	stages := []filterStage{
		{
			name:    "category",
			warning: fmt.Sprintf("no active %s products are available", req.Category),
			apply: keepIf(func(p *model.Product) bool {
				return p.Category == req.Category && p.IsActive
			}),
		},
		{
			name:    "region",
			warning: fmt.Sprintf("no products are offered in region %q", req.Region),
			apply: keepIf(func(p *model.Product) bool {
				return p.OfferedIn(req.Region)
			}),
		},
		{
			name:    "amount",
			warning: fmt.Sprintf("no product accepts an amount of %s", req.Amount),
			apply: keepIf(func(p *model.Product) bool {
				if p.MinAmount != nil && req.Amount.LessThan(*p.MinAmount) {
					return false
				}
				if p.MaxAmount != nil && req.Amount.GreaterThan(*p.MaxAmount) {
					return false
				}
				return true
			}),
		},
		{
			name:    "term",
			warning: fmt.Sprintf("no product offers a term of %d months", req.TermMonths),
			apply: keepIf(func(p *model.Product) bool {
				if p.MinTermMonths != nil && req.TermMonths < *p.MinTermMonths {
					return false
				}
				if p.MaxTermMonths != nil && req.TermMonths > *p.MaxTermMonths {
					return false
				}
				return true
			}),
		},
	}

	for _, c := range req.StrictConstraints() {
		c := c
		stages = append(stages, filterStage{
			name:    "constraint:" + string(c.Type),
			warning: constraintWarning(c),
			apply: keepIf(func(p *model.Product) bool {
				return checkConstraint(p, c, now)
			}),
		})
	}

	if len(req.Preferences.AvoidBanks) > 0 {
		avoided := make(map[string]bool, len(req.Preferences.AvoidBanks))
		for _, id := range req.Preferences.AvoidBanks {
			avoided[id.String()] = true
		}
		stages = append(stages, filterStage{
			name:    "avoid_banks",
			warning: "all remaining products belong to banks you chose to avoid",
			apply: keepIf(func(p *model.Product) bool {
				return !avoided[p.BankID.String()]
			}),
		})
	}
	return stages
}

func keepIf(pred func(*model.Product) bool) func([]model.Product) []model.Product {
	return func(products []model.Product) []model.Product {
		out := make([]model.Product, 0, len(products))
		for i := range products {
			if pred(&products[i]) {
				out = append(out, products[i])
			}
		}
		return out
	}
}

func constraintWarning(c model.Constraint) string {
	switch c.Type {
	case model.ConstraintMaxRate:
		return fmt.Sprintf("no product offers a rate at or below %.2f%%", c.Value.Num)
	case model.ConstraintMaxFees:
		return fmt.Sprintf("every product's total fees exceed %.0f", c.Value.Num)
	case model.ConstraintRequiredFeature:
		return fmt.Sprintf("no product offers the required feature %q", c.Value.Str)
	default:
		return fmt.Sprintf("no product satisfies the %s constraint", c.Type)
	}
}

// checkConstraint evaluates one strict constraint against a product.
//
// The min_amount/max_amount/min_term/max_term rules compare the
// constraint value against the product's own stated bound of the same
// name, not against the user's requested amount: the product's window
// must be able to accommodate the constrained bound. Non-strict
// constraints never reach this function.
func checkConstraint(p *model.Product, c model.Constraint, now time.Time) bool {
	switch c.Type {
	case model.ConstraintMaxRate:
		return p.EffectiveRate(now) <= c.Value.Num
	case model.ConstraintMinAmount:
		return p.MinAmount == nil || p.MinAmount.InexactFloat64() <= c.Value.Num
	case model.ConstraintMaxAmount:
		return p.MaxAmount == nil || p.MaxAmount.InexactFloat64() >= c.Value.Num
	case model.ConstraintMinTerm:
		return p.MinTermMonths == nil || float64(*p.MinTermMonths) <= c.Value.Num
	case model.ConstraintMaxTerm:
		return p.MaxTermMonths == nil || float64(*p.MaxTermMonths) >= c.Value.Num
	case model.ConstraintRequiredFeature:
		return p.Features.Has(c.Value.Str)
	case model.ConstraintMaxFees:
		return p.Fees.Total().InexactFloat64() <= c.Value.Num
	default:
		return true
	}
}

// deriveWeights starts from the base vector and shifts weight toward each
// flagged priority: +boost on the flagged dimension, -penalty on each of
// its three non-aligned dimensions, then renormalizes to sum 1.
func deriveWeights(prefs model.UserPreferences, th Thresholds) weights {
	w := baseWeights()

	boost := func(target *float64, others ...*float64) {
		*target += th.WeightBoost
		for _, o := range others {
			*o -= th.WeightPenalty
		}
	}

	if prefs.PrioritizeRate {
		boost(&w.Rate, &w.BankRating, &w.Features, &w.ProcessingSpeed)
	}
	if prefs.PrioritizeFees {
		boost(&w.Fees, &w.BankRating, &w.Features, &w.ProcessingSpeed)
	}
	if prefs.PrioritizeRating {
		boost(&w.BankRating, &w.Rate, &w.Fees, &w.Features)
	}
	if prefs.PrioritizeSpeed {
		boost(&w.ProcessingSpeed, &w.Rate, &w.Fees, &w.Eligibility)
	}

	for _, dim := range []*float64{&w.Rate, &w.Fees, &w.Eligibility, &w.BankRating, &w.Features, &w.ProcessingSpeed} {
		if *dim < 0 {
			*dim = 0
		}
	}

	sum := w.Rate + w.Fees + w.Eligibility + w.BankRating + w.Features + w.ProcessingSpeed
	if sum > 0 {
		w.Rate /= sum
		w.Fees /= sum
		w.Eligibility /= sum
		w.BankRating /= sum
		w.Features /= sum
		w.ProcessingSpeed /= sum
	}
	return w
}

// scoreAndRank computes per-product dimension scores against the eligible
// set, combines them with the derived weights, and returns the ranked
// list, best first.
func (s *MatchingService) scoreAndRank(req model.UserRequirements, eligible []model.Product, w weights, now time.Time) []model.RankedProduct {
	rateValues := make([]model.Value, len(eligible))
	feeValues := make([]model.Value, len(eligible))
	for i := range eligible {
		rateValues[i] = model.Number(eligible[i].EffectiveRate(now))
		feeValues[i] = model.Number(eligible[i].Fees.Total().InexactFloat64())
	}
	rateScores := scoreValues(rateValues, LowerIsBetter, s.th)
	feeScores := scoreValues(feeValues, LowerIsBetter, s.th)

	preferred := make(map[string]bool, len(req.Preferences.PreferredBanks))
	for _, id := range req.Preferences.PreferredBanks {
		preferred[id.String()] = true
	}

	ranked := make([]model.RankedProduct, len(eligible))
	for i := range eligible {
		p := &eligible[i]
		dims := dimensionScores{
			Rate:            rateScores[i],
			Fees:            feeScores[i],
			Eligibility:     s.eligibilityScore(p),
			BankRating:      bankRatingScore(p.Bank, s.th),
			Features:        featuresScore(p),
			ProcessingSpeed: processingSpeedScore(p),
		}

		final := dims.Rate*w.Rate +
			dims.Fees*w.Fees +
			dims.Eligibility*w.Eligibility +
			dims.BankRating*w.BankRating +
			dims.Features*w.Features +
			dims.ProcessingSpeed*w.ProcessingSpeed

		if preferred[p.BankID.String()] {
			final += s.th.PreferredBankBonus
		}

		pros, cons := s.prosAndCons(p, dims, req.Preferences, now)

		ranked[i] = model.RankedProduct{
			Product:          p,
			Score:            clampScore(final),
			Pros:             pros,
			Cons:             cons,
			EligibilityScore: dims.Eligibility,
			ReferralValue:    referralValue(p),
		}
	}

	sort.SliceStable(ranked, func(a, b int) bool {
		if ranked[a].Score != ranked[b].Score {
			return ranked[a].Score > ranked[b].Score
		}
		return ranked[a].Product.Priority > ranked[b].Product.Priority
	})
	for i := range ranked {
		ranked[i].Rank = i + 1
	}
	return ranked
}

// eligibilityScore is a coarse proxy for how likely the user is to
// qualify: products demanding hard-to-verify requirement fields score
// lower. Floored at zero.
func (s *MatchingService) eligibilityScore(p *model.Product) float64 {
	score := 100.0
	if !p.Requirements.Get(model.RequirementIncomeProof).IsNone() {
		score -= s.th.EligibilityIncomeDeduct
	}
	if !p.Requirements.Get(model.RequirementMinCreditScore).IsNone() {
		score -= s.th.EligibilityCreditDeduct
	}
	if !p.Requirements.Get(model.RequirementEmploymentYears).IsNone() {
		score -= s.th.EligibilityEmploymentDeduct
	}
	if score < 0 {
		return 0
	}
	return score
}

func bankRatingScore(bank *model.Bank, th Thresholds) float64 {
	if bank == nil || bank.OverallRating == nil {
		return th.NeutralScore
	}
	return *bank.OverallRating / 5 * 100
}

// featuresScore is the share of the desirable-feature checklist the
// product carries.
func featuresScore(p *model.Product) float64 {
	present := 0
	for _, key := range desirableFeatures {
		if p.Features.Has(key) {
			present++
		}
	}
	return float64(present) / float64(len(desirableFeatures)) * 100
}

func processingSpeedScore(p *model.Product) float64 {
	score := 50.0
	if p.Features.Has(model.FeatureFastApproval) {
		score += 30
	}
	if p.Features.Has(model.FeatureOnlineApplication) {
		score += 20
	}
	if p.Bank != nil && p.Bank.ProcessingSpeedRating != nil {
		score += *p.Bank.ProcessingSpeedRating / 5 * 50
	}
	return clampScore(score)
}

func referralValue(p *model.Product) decimal.Decimal {
	if p.Bank == nil || !p.Bank.IsPartner || p.Bank.CommissionRate == nil {
		return decimal.Zero
	}
	base, ok := referralBaseValues[p.Category]
	if !ok {
		return decimal.Zero
	}
	return decimal.NewFromInt(base).
		Mul(decimal.NewFromFloat(*p.Bank.CommissionRate)).
		Div(decimal.NewFromInt(100)).
		Round(2)
}

func (s *MatchingService) prosAndCons(p *model.Product, dims dimensionScores, prefs model.UserPreferences, now time.Time) (pros, cons []string) {
	if dims.Rate >= s.th.ProScore {
		pros = append(pros, "One of the lowest rates in the selection")
	} else if dims.Rate < s.th.ConScore {
		cons = append(cons, "Rate is high compared to alternatives")
	}
	if dims.Fees >= s.th.ProScore {
		pros = append(pros, "Low total fees")
	} else if dims.Fees < s.th.ConScore {
		cons = append(cons, "Fees are high compared to alternatives")
	}
	if dims.BankRating >= s.th.ProScore {
		pros = append(pros, "Highly rated bank")
	} else if dims.BankRating < s.th.ConScore {
		cons = append(cons, "Bank rating is below average")
	}
	if dims.Eligibility < s.th.ConScore {
		cons = append(cons, "Strict eligibility requirements")
	}

	if p.Features.Has(model.FeatureFastApproval) {
		pros = append(pros, "Fast approval")
	}
	if p.Features.Has(model.FeatureOnlineApplication) {
		pros = append(pros, "Online application")
	}
	if p.Features.Has(model.FeatureEarlyRepayment) && p.Fees.Get(model.FeeEarlyRepayment).IsZero() {
		pros = append(pros, "No early repayment fee")
	}
	if p.HasActivePromo(now) && prefs.AcceptPromotions {
		pros = append(pros, "Promotional rate available")
	}
	if p.IsFeatured {
		pros = append(pros, "Featured offer")
	}
	return pros, cons
}

// buildReasoning derives the structured explanation: which weight
// dimensions dominated, primary-vs-alternative tradeoffs, warnings, and
// the standing disclaimers.
func (s *MatchingService) buildReasoning(req model.UserRequirements, w weights, primary model.RankedProduct, alternatives []model.RankedProduct, now time.Time) model.Reasoning {
	r := model.Reasoning{
		Assumptions: []string{
			"Rates reflect currently published terms and may change before application.",
			"Final terms depend on the bank's underwriting decision.",
		},
	}

	if w.Rate > 0.30 {
		r.PrimaryFactors = append(r.PrimaryFactors, "Selection optimized for the lowest interest rate")
	}
	if w.Fees > 0.25 {
		r.PrimaryFactors = append(r.PrimaryFactors, "Selection optimized for minimal fees")
	}
	if w.BankRating > 0.20 {
		r.PrimaryFactors = append(r.PrimaryFactors, "Selection optimized for bank reliability")
	}
	if len(r.PrimaryFactors) == 0 {
		r.PrimaryFactors = append(r.PrimaryFactors, "Balanced weighting across rate, fees and bank quality")
	}

	if len(alternatives) > 0 {
		primaryRate := primary.Product.EffectiveRate(now)
		altRate := alternatives[0].Product.EffectiveRate(now)
		if altRate < primaryRate {
			r.Tradeoffs = append(r.Tradeoffs, fmt.Sprintf(
				"%s offers a lower rate (%.2f%% vs %.2f%%) but scored lower on your other priorities",
				alternatives[0].Product.Name, altRate, primaryRate))
		}
	}

	if primary.EligibilityScore < s.th.LowEligibilityWarn {
		r.Warnings = append(r.Warnings, "The recommended product has eligibility requirements you may not meet; verify before applying")
	}
	if primary.Product.HasActivePromo(now) {
		r.Warnings = append(r.Warnings, "The recommended rate is promotional and will change after the promotional period")
	}
	return r
}

// estimateSavings is the best-vs-worst total-cost spread over the
// requested amount and term. Illustrative, floored at zero.
func (s *MatchingService) estimateSavings(req model.UserRequirements, ranked []model.RankedProduct) decimal.Decimal {
	if len(ranked) < 2 {
		return decimal.Zero
	}
	best := s.comparison.Cost(ranked[0].Product, req.Amount, req.TermMonths)
	worst := s.comparison.Cost(ranked[len(ranked)-1].Product, req.Amount, req.TermMonths)
	savings := worst.TotalCost.Sub(best.TotalCost)
	if savings.IsNegative() {
		return decimal.Zero
	}
	return savings
}

// assessRisk maps an additive risk score to a level: 0 low, 1-2 medium,
// 3-4 high, 5+ very high.
func (s *MatchingService) assessRisk(primary model.RankedProduct, now time.Time) model.RiskLevel {
	p := primary.Product
	score := 0

	if p.EffectiveRate(now) > s.th.HighRateRisk {
		score += 2
	}
	if p.Bank != nil && p.Bank.OverallRating != nil && *p.Bank.OverallRating < s.th.LowBankRatingRisk {
		score += 2
	}
	if primary.EligibilityScore < s.th.LowEligibilityRisk {
		score++
	}
	if p.Fees.Total().GreaterThan(s.th.HighFeesRisk) {
		score++
	}
	if p.HasActivePromo(now) {
		// The quoted rate is not locked in.
		score++
	}

	switch {
	case score == 0:
		return model.RiskLow
	case score <= 2:
		return model.RiskMedium
	case score <= 4:
		return model.RiskHigh
	default:
		return model.RiskVeryHigh
	}
}

// nextSteps emits the ordered three-step plan: verify eligibility, apply
// (online or in branch), await decision.
func (s *MatchingService) nextSteps(p *model.Product) []model.NextStep {
	steps := []model.NextStep{
		{
			Order:       1,
			Title:       "Verify eligibility",
			Description: fmt.Sprintf("Review the requirements for %s and confirm you meet them", p.Name),
		},
	}

	apply := model.NextStep{Order: 2, Title: "Apply"}
	if p.Features.Has(model.FeatureOnlineApplication) {
		apply.Description = "Submit the application through the bank's online form"
		if p.Bank != nil {
			apply.URL = p.Bank.Website
		}
	} else {
		apply.Description = "Visit a branch with your documents to submit the application"
	}
	steps = append(steps, apply)

	wait := model.NextStep{Order: 3, Title: "Await decision"}
	if p.Features.Has(model.FeatureFastApproval) {
		wait.Description = "Expect a decision within 1-2 days"
	} else {
		wait.Description = "Expect a decision within 5-7 business days"
	}
	steps = append(steps, wait)

	return steps
}
