package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/finchoice/backend/internal/model"
)

// MarketService adjusts existing recommendations for macro conditions and
// detects when a refreshed catalog invalidates them.
type MarketService struct {
	matching *MatchingService
	th       Thresholds
	now      func() time.Time
}

func NewMarketService(matching *MatchingService) *MarketService {
	return &MarketService{
		matching: matching,
		th:       defaultThresholds(),
		now:      time.Now,
	}
}

// UpdateForMarketConditions returns a copy of the solution annotated for
// the current macro picture: adverse indicators escalate the risk level
// one step each and add a warning, and a trending primary product is
// called out. The input solution is not modified.
func (s *MarketService) UpdateForMarketConditions(sol *model.OptimalSolution, mc model.MarketConditions) *model.OptimalSolution {
	adjusted := *sol
	adjusted.Reasoning.Warnings = append([]string(nil), sol.Reasoning.Warnings...)

	if mc.CentralBankRate > s.th.HighCentralBankRate {
		adjusted.RiskLevel = adjusted.RiskLevel.Escalated()
		adjusted.Reasoning.Warnings = append(adjusted.Reasoning.Warnings,
			fmt.Sprintf("The central bank rate is elevated (%.2f%%); borrowing costs may rise further", mc.CentralBankRate))
	}
	if mc.InflationRate > s.th.HighInflation {
		adjusted.RiskLevel = adjusted.RiskLevel.Escalated()
		adjusted.Reasoning.Warnings = append(adjusted.Reasoning.Warnings,
			fmt.Sprintf("Inflation is high (%.2f%%); fixed-rate products lose real value faster", mc.InflationRate))
	}
	if mc.GDPGrowth < 0 {
		adjusted.RiskLevel = adjusted.RiskLevel.Escalated()
		adjusted.Reasoning.Warnings = append(adjusted.Reasoning.Warnings,
			"The economy is contracting; banks may tighten approval criteria")
	}

	if sol.Found && isTrending(sol.PrimaryRecommendation.Product, mc.TrendingProducts) {
		primary := sol.PrimaryRecommendation
		primary.Pros = append(append([]string(nil), primary.Pros...), "Currently in high demand")
		adjusted.PrimaryRecommendation = primary
	}
	return &adjusted
}

func isTrending(p *model.Product, trending []uuid.UUID) bool {
	if p == nil {
		return false
	}
	for _, id := range trending {
		if id == p.ID {
			return true
		}
	}
	return false
}

// RefreshRecommendations reloads the active catalog for the
// requirements' category and diffs the previous solution against it.
func (s *MarketService) RefreshRecommendations(ctx context.Context, prev *model.OptimalSolution, req model.UserRequirements) (*model.DynamicRecommendation, error) {
	refreshed, err := s.matching.catalog.ListActive(ctx, req.Category)
	if err != nil {
		return nil, fmt.Errorf("reloading catalog for %s: %w", req.Category, err)
	}
	rec := s.GenerateDynamicRecommendations(prev, req, refreshed)
	return &rec, nil
}

// GenerateDynamicRecommendations diffs a previously computed solution
// against a refreshed catalog: a vanished primary product, drifted rates
// on recommended products, and newly eligible candidates each become a
// change entry. Any high-impact change marks the solution as stale.
func (s *MarketService) GenerateDynamicRecommendations(prev *model.OptimalSolution, req model.UserRequirements, refreshed []model.Product) model.DynamicRecommendation {
	now := s.now()
	refreshed = StripExpiredPromos(refreshed, now)

	current := make(map[uuid.UUID]*model.Product, len(refreshed))
	for i := range refreshed {
		current[refreshed[i].ID] = &refreshed[i]
	}

	recommended := make([]model.RankedProduct, 0, 1+len(prev.Alternatives))
	known := make(map[uuid.UUID]bool)
	if prev.Found {
		recommended = append(recommended, prev.PrimaryRecommendation)
	}
	recommended = append(recommended, prev.Alternatives...)
	for _, r := range recommended {
		if r.Product != nil {
			known[r.Product.ID] = true
		}
	}

	var rec model.DynamicRecommendation
	for i, r := range recommended {
		old := r.Product
		if old == nil {
			continue
		}
		isPrimary := prev.Found && i == 0

		fresh, ok := current[old.ID]
		if !ok || !fresh.IsActive {
			impact := "medium"
			if isPrimary {
				impact = "high"
			}
			rec.Changes = append(rec.Changes, model.CatalogChange{
				ProductID:   old.ID,
				Kind:        "removed",
				Impact:      impact,
				Description: fmt.Sprintf("%s is no longer offered", old.Name),
			})
			continue
		}

		drift := fresh.EffectiveRate(now) - old.EffectiveRate(now)
		if drift < 0 {
			drift = -drift
		}
		if drift > s.th.RateDriftMinor {
			impact := "medium"
			if drift > s.th.RateDriftMajor {
				impact = "high"
			}
			rec.Changes = append(rec.Changes, model.CatalogChange{
				ProductID: old.ID,
				Kind:      "rate_changed",
				Impact:    impact,
				Description: fmt.Sprintf("%s rate moved from %.2f%% to %.2f%%",
					old.Name, old.EffectiveRate(now), fresh.EffectiveRate(now)),
			})
		}
	}

	for _, p := range s.matching.eligibleProducts(req, refreshed, now) {
		if known[p.ID] {
			continue
		}
		rec.NewCandidateCount++
		rec.Changes = append(rec.Changes, model.CatalogChange{
			ProductID:   p.ID,
			Kind:        "new_candidate",
			Impact:      "low",
			Description: fmt.Sprintf("%s is newly available and matches your requirements", p.Name),
		})
	}

	for _, c := range rec.Changes {
		if c.Impact == "high" {
			rec.RecomputeRecommended = true
			break
		}
	}
	return rec
}
