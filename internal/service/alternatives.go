package service

import (
	"fmt"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/finchoice/backend/internal/model"
)

// noSolution builds the structured empty result: diagnostics explaining
// which filters exhausted the catalog, relaxation suggestions surfaced as
// warnings, and a generic recovery plan.
func (s *MatchingService) noSolution(req model.UserRequirements, candidates []model.Product, now time.Time) *model.OptimalSolution {
	warnings := s.diagnose(req, candidates, now)

	for _, alt := range s.suggestAlternatives(req, candidates, now) {
		warnings = append(warnings, alt.Explanation)
	}

	return &model.OptimalSolution{
		Found: false,
		Reasoning: model.Reasoning{
			Warnings: warnings,
			Assumptions: []string{
				"Results are limited to the currently listed catalog.",
			},
		},
		RiskLevel:        model.RiskLow,
		EstimatedSavings: decimal.Zero,
		NextSteps: []model.NextStep{
			{Order: 1, Title: "Adjust your requirements", Description: "Relax the amount, term or constraints and search again"},
			{Order: 2, Title: "Talk to an advisor", Description: "A financial advisor can suggest offers beyond the listed catalog"},
			{Order: 3, Title: "Check back later", Description: "The catalog is refreshed regularly and new offers appear often"},
		},
	}
}

// diagnose replays the filter pipeline and reports why it came up empty.
// Stages run cumulatively; at the first stage that exhausts the set, that
// stage and every later one are each tested against the last surviving
// set, so independent simultaneous causes surface together.
func (s *MatchingService) diagnose(req model.UserRequirements, products []model.Product, now time.Time) []string {
	stages := s.filterStages(req, now)
	survivors := products

	for i, stage := range stages {
		next := stage.apply(survivors)
		if len(next) > 0 {
			survivors = next
			continue
		}
		if len(survivors) == 0 {
			return []string{stage.warning}
		}
		var warnings []string
		for _, later := range stages[i:] {
			if len(later.apply(survivors)) == 0 {
				warnings = append(warnings, later.warning)
			}
		}
		return warnings
	}
	return []string{"no products match your requirements"}
}

// suggestAlternatives retries the search with exactly one requirement
// relaxed at a time: (a) the amount window widened by the relax factor
// over the category+region set, (b) any term over the category+region
// set at the requested amount, (c) category products offered in every
// region regardless of the user's own. Each non-empty relaxation
// contributes its best-rate product, at most one per dimension.
func (s *MatchingService) suggestAlternatives(req model.UserRequirements, products []model.Product, now time.Time) []model.AlternativeSuggestion {
	inCategory := func(p *model.Product) bool {
		return p.Category == req.Category && p.IsActive
	}
	inRegion := func(p *model.Product) bool {
		return p.OfferedIn(req.Region)
	}
	fitsAmount := func(p *model.Product) bool {
		if p.MinAmount != nil && req.Amount.LessThan(*p.MinAmount) {
			return false
		}
		if p.MaxAmount != nil && req.Amount.GreaterThan(*p.MaxAmount) {
			return false
		}
		return true
	}

	low := req.Amount.Mul(decimal.NewFromFloat(1 - s.th.AmountRelaxFactor))
	high := req.Amount.Mul(decimal.NewFromFloat(1 + s.th.AmountRelaxFactor))
	fitsWidenedAmount := func(p *model.Product) bool {
		if p.MinAmount != nil && high.LessThan(*p.MinAmount) {
			return false
		}
		if p.MaxAmount != nil && low.GreaterThan(*p.MaxAmount) {
			return false
		}
		return true
	}

	relaxations := []struct {
		dimension string
		keep      func(*model.Product) bool
		explain   func(p *model.Product) string
	}{
		{
			dimension: "amount",
			keep: func(p *model.Product) bool {
				return inCategory(p) && inRegion(p) && fitsWidenedAmount(p)
			},
			explain: func(p *model.Product) string {
				return fmt.Sprintf("%s becomes available if you adjust the amount within %.0f%% of the requested one", p.Name, s.th.AmountRelaxFactor*100)
			},
		},
		{
			dimension: "term",
			keep: func(p *model.Product) bool {
				return inCategory(p) && inRegion(p) && fitsAmount(p)
			},
			explain: func(p *model.Product) string {
				return fmt.Sprintf("%s becomes available with a different term", p.Name)
			},
		},
		{
			dimension: "region",
			keep: func(p *model.Product) bool {
				return inCategory(p) && offeredEverywhere(p)
			},
			explain: func(p *model.Product) string {
				return fmt.Sprintf("%s is offered in every region", p.Name)
			},
		},
	}

	var suggestions []model.AlternativeSuggestion
	for _, r := range relaxations {
		survivors := keepIf(r.keep)(products)
		if len(survivors) == 0 {
			continue
		}
		best := bestByRate(survivors, req.Category, now)
		suggestions = append(suggestions, model.AlternativeSuggestion{
			Product:          best,
			RelaxedDimension: r.dimension,
			Explanation:      r.explain(best),
		})
	}
	return suggestions
}

// offeredEverywhere reports whether the product carries the all-regions
// sentinel, as opposed to merely listing many specific regions.
func offeredEverywhere(p *model.Product) bool {
	for _, r := range p.Regions {
		if r == model.RegionAll {
			return true
		}
	}
	return false
}

// bestByRate picks the most attractive product by effective rate, which
// for deposits means the highest one.
func bestByRate(products []model.Product, category model.ProductCategory, now time.Time) *model.Product {
	best := &products[0]
	for i := 1; i < len(products); i++ {
		p := &products[i]
		if category == model.CategoryDeposit {
			if p.EffectiveRate(now) > best.EffectiveRate(now) {
				best = p
			}
		} else if p.EffectiveRate(now) < best.EffectiveRate(now) {
			best = p
		}
	}
	return best
}

// SuggestProductCombinations proposes complementary product bundles:
// mortgage requests get mortgage+insurance pairs, deposit requests get a
// split across several banks. Other categories yield nothing.
func (s *MatchingService) SuggestProductCombinations(req model.UserRequirements, catalog []model.Product) []model.ProductCombination {
	now := s.now()
	catalog = StripExpiredPromos(catalog, now)

	switch req.Category {
	case model.CategoryMortgage:
		return s.mortgageInsurancePairs(req, catalog, now)
	case model.CategoryDeposit:
		return s.depositSplit(req, catalog, now)
	default:
		return nil
	}
}

// mortgageInsurancePairs crosses the top three eligible mortgages with
// the top two insurance products available in the user's region.
func (s *MatchingService) mortgageInsurancePairs(req model.UserRequirements, catalog []model.Product, now time.Time) []model.ProductCombination {
	mortgages := s.eligibleProducts(req, catalog, now)
	sortByRate(mortgages, false, now)
	if len(mortgages) > 3 {
		mortgages = mortgages[:3]
	}

	var insurance []model.Product
	for i := range catalog {
		p := &catalog[i]
		if p.Category == model.CategoryInsurance && p.IsActive && p.OfferedIn(req.Region) {
			insurance = append(insurance, *p)
		}
	}
	sort.SliceStable(insurance, func(a, b int) bool {
		return insurance[a].Priority > insurance[b].Priority
	})
	if len(insurance) > 2 {
		insurance = insurance[:2]
	}

	var combos []model.ProductCombination
	for i := range mortgages {
		for j := range insurance {
			pair := []*model.Product{&mortgages[i], &insurance[j]}
			benefits, risks := s.combinationNotes(pair)
			combos = append(combos, model.ProductCombination{
				Products: pair,
				Strategy: "mortgage_with_insurance",
				Benefits: benefits,
				Risks:    risks,
			})
		}
	}
	return combos
}

// combinationNotes derives a bundle's benefit and risk bullets from its
// shape: product count, insurance presence, and the owning banks'
// overall ratings. Products without a rated bank stay out of the rating
// average.
func (s *MatchingService) combinationNotes(products []*model.Product) (benefits, risks []string) {
	if len(products) > 1 {
		benefits = append(benefits, "Spreads your money across more than one product")
	}
	for _, p := range products {
		if p.Category == model.CategoryInsurance {
			benefits = append(benefits, "Insurance coverage protects the bundled products")
			break
		}
	}

	var ratingSum float64
	rated := 0
	lowRated := false
	for _, p := range products {
		if p.Bank == nil || p.Bank.OverallRating == nil {
			continue
		}
		ratingSum += *p.Bank.OverallRating
		rated++
		if *p.Bank.OverallRating < s.th.ComboReliabilityRisk {
			lowRated = true
		}
	}
	if rated > 0 && ratingSum/float64(rated) >= s.th.ComboRatingBenefit {
		benefits = append(benefits, "Offered by highly rated banks")
	}

	if len(products) > 2 {
		risks = append(risks, "Several products to open and manage")
	}
	if lowRated {
		risks = append(risks, "At least one bank has a below-average rating")
	}
	return benefits, risks
}

// depositSplit proposes spreading the amount across the three
// best-yielding eligible deposits. Needs at least two candidates.
func (s *MatchingService) depositSplit(req model.UserRequirements, catalog []model.Product, now time.Time) []model.ProductCombination {
	deposits := s.eligibleProducts(req, catalog, now)
	if len(deposits) < 2 {
		return nil
	}
	sortByRate(deposits, true, now)
	if len(deposits) > 3 {
		deposits = deposits[:3]
	}

	parts := make([]*model.Product, len(deposits))
	for i := range deposits {
		parts[i] = &deposits[i]
	}
	benefits, risks := s.combinationNotes(parts)
	return []model.ProductCombination{{
		Products: parts,
		Strategy: "deposit_split",
		Benefits: benefits,
		Risks:    risks,
	}}
}

func sortByRate(products []model.Product, higherBetter bool, now time.Time) {
	sort.SliceStable(products, func(a, b int) bool {
		if higherBetter {
			return products[a].EffectiveRate(now) > products[b].EffectiveRate(now)
		}
		return products[a].EffectiveRate(now) < products[b].EffectiveRate(now)
	})
}
