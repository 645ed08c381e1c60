package service

import (
	"context"
	"fmt"
	"math"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/finchoice/backend/internal/apperror"
	"github.com/finchoice/backend/internal/model"
	"github.com/finchoice/backend/pkg/currency"
)

// noValue is the placeholder shown for cells with no extractable value.
const noValue = "—"

// ProductCatalogInterface defines the catalog access the comparison
// engine needs. The engine only ever reads products.
type ProductCatalogInterface interface {
	GetByIDs(ctx context.Context, ids []uuid.UUID) ([]model.Product, error)
}

// ComparisonStoreInterface is the persistence collaborator for saved
// comparisons. The storage medium is not the engine's concern.
type ComparisonStoreInterface interface {
	Save(ctx context.Context, cmp *model.SavedComparison) error
	GetByID(ctx context.Context, id string) (*model.SavedComparison, error)
	ListByUser(ctx context.Context, userID uuid.UUID) ([]model.SavedComparison, error)
	Delete(ctx context.Context, id string, userID uuid.UUID) error
}

// ComparisonService builds normalized, scored comparison matrices across
// products of one category.
type ComparisonService struct {
	catalog ProductCatalogInterface
	store   ComparisonStoreInterface
	display currency.Currency
	th      Thresholds
	now     func() time.Time
}

// NewComparisonService creates a ComparisonService using the given
// catalog and saved-comparison store. displayCurrency controls how
// currency cells are formatted.
func NewComparisonService(catalog ProductCatalogInterface, store ComparisonStoreInterface, displayCurrency currency.Currency) *ComparisonService {
	if displayCurrency == "" {
		displayCurrency = currency.DefaultCurrency
	}
	return &ComparisonService{
		catalog: catalog,
		store:   store,
		display: displayCurrency,
		th:      defaultThresholds(),
		now:     time.Now,
	}
}

// headerSpec pairs a matrix column with its scoring polarity and value
// extractor.
type headerSpec struct {
	model.Header
	Polarity Polarity
	Extract  func(p *model.Product, now time.Time) model.Value
}

func textHeaders() []headerSpec {
	return []headerSpec{
		{
			Header:  model.Header{Key: "bank_name", Label: "Bank", Type: model.HeaderText, Weight: 0.10},
			Extract: func(p *model.Product, _ time.Time) model.Value { return textOrNone(p.BankName()) },
		},
		{
			Header:  model.Header{Key: "product_name", Label: "Product", Type: model.HeaderText, Weight: 0.10},
			Extract: func(p *model.Product, _ time.Time) model.Value { return textOrNone(p.Name) },
		},
	}
}

// headerSchema returns the fixed ordered column set for a product
// category. The weights are design choices per category, not derived.
func headerSchema(category model.ProductCategory) []headerSpec {
	headers := textHeaders()

	switch category {
	case model.CategoryMortgage:
		headers = append(headers,
			headerSpec{Header: model.Header{Key: "interest_rate", Label: "Interest rate", Type: model.HeaderPercent, Weight: 0.30}, Polarity: LowerIsBetter, Extract: extractRate},
			headerSpec{Header: model.Header{Key: "min_amount", Label: "Min amount", Type: model.HeaderCurrency, Weight: 0.10}, Polarity: LowerIsBetter, Extract: extractDecimal(func(p *model.Product) *decimal.Decimal { return p.MinAmount })},
			headerSpec{Header: model.Header{Key: "max_amount", Label: "Max amount", Type: model.HeaderCurrency, Weight: 0.10}, Polarity: HigherIsBetter, Extract: extractDecimal(func(p *model.Product) *decimal.Decimal { return p.MaxAmount })},
			headerSpec{Header: model.Header{Key: "min_term", Label: "Min term", Type: model.HeaderNumber, Weight: 0.05}, Polarity: LowerIsBetter, Extract: extractInt(func(p *model.Product) *int { return p.MinTermMonths })},
			headerSpec{Header: model.Header{Key: "max_term", Label: "Max term", Type: model.HeaderNumber, Weight: 0.05}, Polarity: HigherIsBetter, Extract: extractInt(func(p *model.Product) *int { return p.MaxTermMonths })},
			headerSpec{Header: model.Header{Key: "fees", Label: "Fees", Type: model.HeaderCurrency, Weight: 0.15}, Polarity: LowerIsBetter, Extract: extractFees},
			headerSpec{Header: model.Header{Key: "early_repayment", Label: "Early repayment", Type: model.HeaderBoolean, Weight: 0.05}, Extract: extractFeature(model.FeatureEarlyRepayment)},
		)
	case model.CategoryDeposit:
		headers = append(headers,
			headerSpec{Header: model.Header{Key: "interest_rate", Label: "Interest rate", Type: model.HeaderPercent, Weight: 0.35}, Polarity: HigherIsBetter, Extract: extractRate},
			headerSpec{Header: model.Header{Key: "min_amount", Label: "Min amount", Type: model.HeaderCurrency, Weight: 0.15}, Polarity: LowerIsBetter, Extract: extractDecimal(func(p *model.Product) *decimal.Decimal { return p.MinAmount })},
			headerSpec{Header: model.Header{Key: "min_term", Label: "Min term", Type: model.HeaderNumber, Weight: 0.10}, Polarity: LowerIsBetter, Extract: extractInt(func(p *model.Product) *int { return p.MinTermMonths })},
			headerSpec{Header: model.Header{Key: "capitalization", Label: "Capitalization", Type: model.HeaderBoolean, Weight: 0.10}, Extract: extractFeature(model.FeatureCapitalization)},
			headerSpec{Header: model.Header{Key: "replenishment", Label: "Replenishment", Type: model.HeaderBoolean, Weight: 0.10}, Extract: extractFeature(model.FeatureReplenishment)},
			headerSpec{Header: model.Header{Key: "partial_withdrawal", Label: "Partial withdrawal", Type: model.HeaderBoolean, Weight: 0.10}, Extract: extractFeature(model.FeaturePartialWithdrawal)},
		)
	case model.CategoryCredit:
		headers = append(headers,
			headerSpec{Header: model.Header{Key: "interest_rate", Label: "Interest rate", Type: model.HeaderPercent, Weight: 0.30}, Polarity: LowerIsBetter, Extract: extractRate},
			headerSpec{Header: model.Header{Key: "max_amount", Label: "Max amount", Type: model.HeaderCurrency, Weight: 0.15}, Polarity: HigherIsBetter, Extract: extractDecimal(func(p *model.Product) *decimal.Decimal { return p.MaxAmount })},
			headerSpec{Header: model.Header{Key: "max_term", Label: "Max term", Type: model.HeaderNumber, Weight: 0.10}, Polarity: HigherIsBetter, Extract: extractInt(func(p *model.Product) *int { return p.MaxTermMonths })},
			headerSpec{Header: model.Header{Key: "grace_period", Label: "Grace period", Type: model.HeaderNumber, Weight: 0.15}, Polarity: HigherIsBetter, Extract: extractNumericFeature(model.FeatureGracePeriod)},
			headerSpec{Header: model.Header{Key: "fees", Label: "Fees", Type: model.HeaderCurrency, Weight: 0.20}, Polarity: LowerIsBetter, Extract: extractFees},
		)
	}
	return headers
}

// highlightLabels maps a best-flagged header to its human-readable badge.
var highlightLabels = map[string]string{
	"interest_rate": "Best rate",
	"fees":          "Lowest fees",
	"max_amount":    "Highest amount",
	"max_term":      "Longest term",
	"grace_period":  "Best grace period",
}

func textOrNone(s string) model.Value {
	if s == "" {
		return model.None
	}
	return model.Text(s)
}

func extractRate(p *model.Product, now time.Time) model.Value {
	return model.Number(p.EffectiveRate(now))
}

func extractFees(p *model.Product, _ time.Time) model.Value {
	return model.Number(p.Fees.Total().InexactFloat64())
}

func extractDecimal(get func(p *model.Product) *decimal.Decimal) func(*model.Product, time.Time) model.Value {
	return func(p *model.Product, _ time.Time) model.Value {
		if d := get(p); d != nil {
			return model.Number(d.InexactFloat64())
		}
		return model.None
	}
}

func extractInt(get func(p *model.Product) *int) func(*model.Product, time.Time) model.Value {
	return func(p *model.Product, _ time.Time) model.Value {
		if n := get(p); n != nil {
			return model.Number(float64(*n))
		}
		return model.None
	}
}

func extractFeature(key string) func(*model.Product, time.Time) model.Value {
	return func(p *model.Product, _ time.Time) model.Value {
		if v := p.Features.Get(key); !v.IsNone() {
			return model.Boolean(v.Truthy())
		}
		return model.Boolean(false)
	}
}

func extractNumericFeature(key string) func(*model.Product, time.Time) model.Value {
	return func(p *model.Product, _ time.Time) model.Value {
		if v := p.Features.Get(key); v.Kind == model.KindNumber {
			return v
		}
		return model.None
	}
}

// Compare resolves the requested products and builds a comparison matrix.
// Fails with InsufficientProducts for fewer than 2 ids and with
// ProductsNotFound when nothing resolves.
func (s *ComparisonService) Compare(ctx context.Context, productIDs []uuid.UUID, criteria model.ComparisonCriteria) (*model.ComparisonResult, error) {
	if len(productIDs) < 2 {
		return nil, apperror.InsufficientProducts(len(productIDs))
	}

	products, err := s.catalog.GetByIDs(ctx, productIDs)
	if err != nil {
		return nil, fmt.Errorf("resolving products for comparison: %w", err)
	}
	if len(products) == 0 {
		return nil, apperror.ProductsNotFound()
	}

	return s.BuildMatrix(products, criteria), nil
}

// CompareDetailed resolves the requested products and builds a matrix
// augmented with amortized-cost columns for the given amount and term.
func (s *ComparisonService) CompareDetailed(ctx context.Context, productIDs []uuid.UUID, criteria model.ComparisonCriteria, amount decimal.Decimal, termMonths int) (*model.ComparisonResult, error) {
	if len(productIDs) < 2 {
		return nil, apperror.InsufficientProducts(len(productIDs))
	}

	products, err := s.catalog.GetByIDs(ctx, productIDs)
	if err != nil {
		return nil, fmt.Errorf("resolving products for comparison: %w", err)
	}
	if len(products) == 0 {
		return nil, apperror.ProductsNotFound()
	}

	return s.BuildDetailedMatrix(products, criteria, amount, termMonths), nil
}

// BuildMatrix computes the comparison matrix for an already-resolved
// product set. Pure: inputs are not mutated.
func (s *ComparisonService) BuildMatrix(products []model.Product, criteria model.ComparisonCriteria) *model.ComparisonResult {
	now := s.now()

	// Expired promos must never influence scoring or display.
	products = StripExpiredPromos(products, now)
	if !criteria.IncludePromotions {
		products = stripAllPromos(products)
	}

	category := products[0].Category
	headers := headerSchema(category)

	rows := s.buildRows(products, headers, now)
	s.applyTotals(rows, headers)
	best := bestInCategory(rows, headers)

	return &model.ComparisonResult{
		Category:       category,
		Headers:        headerList(headers),
		Rows:           rows,
		BestInCategory: best,
		Summary:        s.summarize(category, rows),
	}
}

func headerList(specs []headerSpec) []model.Header {
	headers := make([]model.Header, len(specs))
	for i, spec := range specs {
		headers[i] = spec.Header
	}
	return headers
}

func (s *ComparisonService) buildRows(products []model.Product, headers []headerSpec, now time.Time) []model.ComparisonRow {
	rows := make([]model.ComparisonRow, len(products))
	for i := range products {
		p := &products[i]
		rows[i] = model.ComparisonRow{
			ProductID:   p.ID,
			ProductName: p.Name,
			BankName:    p.BankName(),
			Values:      make(map[string]model.Cell, len(headers)),
		}
	}

	for _, h := range headers {
		values := make([]model.Value, len(products))
		for i := range products {
			values[i] = h.Extract(&products[i], now)
		}

		scores := scoreValues(values, h.Polarity, s.th)
		best, worst := bestWorstMasks(values, h.Polarity)

		for i := range products {
			cell := model.Cell{
				Raw:       values[i],
				Formatted: s.formatValue(values[i], h.Type),
				IsBest:    best[i],
				IsWorst:   worst[i],
				Score:     scores[i],
			}
			if h.Key == "interest_rate" && products[i].HasActivePromo(now) {
				cell.Note = "promotional rate"
			}
			rows[i].Values[h.Key] = cell
		}
	}

	for i := range products {
		rows[i].Highlights = s.highlights(&products[i], rows[i], now)
	}
	return rows
}

// applyTotals computes each row's weight-normalized total score and flags
// rows within tolerance of the maximum as best overall (ties allowed).
func (s *ComparisonService) applyTotals(rows []model.ComparisonRow, headers []headerSpec) {
	var maxTotal float64
	for i := range rows {
		var weighted, weightSum float64
		for _, h := range headers {
			if h.Weight == 0 {
				continue
			}
			weighted += rows[i].Values[h.Key].Score * h.Weight
			weightSum += h.Weight
		}
		if weightSum > 0 {
			rows[i].TotalScore = weighted / weightSum
		}
		if rows[i].TotalScore > maxTotal {
			maxTotal = rows[i].TotalScore
		}
	}
	for i := range rows {
		rows[i].IsBestOverall = maxTotal-rows[i].TotalScore <= s.th.BestOverallTolerance
	}
}

// bestInCategory picks a single winner per non-text header: the row with
// the strictly highest header score, first encountered winning exact
// ties. This is intentionally stricter than the tie-allowing per-cell
// best flags.
func bestInCategory(rows []model.ComparisonRow, headers []headerSpec) map[string]uuid.UUID {
	best := make(map[string]uuid.UUID)
	for _, h := range headers {
		if h.Type == model.HeaderText {
			continue
		}
		winner := -1
		var topScore float64
		for i := range rows {
			cell := rows[i].Values[h.Key]
			if cell.Raw.IsNone() {
				continue
			}
			if winner == -1 || cell.Score > topScore {
				winner = i
				topScore = cell.Score
			}
		}
		if winner >= 0 {
			best[h.Key] = rows[winner].ProductID
		}
	}
	return best
}

func (s *ComparisonService) highlights(p *model.Product, row model.ComparisonRow, now time.Time) []string {
	highlights := make([]string, 0, 2)
	for _, key := range []string{"interest_rate", "fees", "max_amount", "max_term", "grace_period"} {
		cell, ok := row.Values[key]
		if !ok || !cell.IsBest {
			continue
		}
		highlights = append(highlights, highlightLabels[key])
	}
	if p.HasActivePromo(now) {
		highlights = append(highlights, "Promotional rate")
	}
	if p.IsFeatured {
		highlights = append(highlights, "Featured")
	}
	return highlights
}

func (s *ComparisonService) summarize(category model.ProductCategory, rows []model.ComparisonRow) string {
	bestName, bestBank := "", ""
	var bestScore float64
	for _, row := range rows {
		if row.IsBestOverall && row.TotalScore >= bestScore {
			bestName, bestBank, bestScore = row.ProductName, row.BankName, row.TotalScore
		}
	}
	if bestName == "" {
		return fmt.Sprintf("Compared %d %s products.", len(rows), category)
	}
	if bestBank != "" {
		return fmt.Sprintf("Compared %d %s products. Strongest overall: %s from %s (score %.0f/100).",
			len(rows), category, bestName, bestBank, bestScore)
	}
	return fmt.Sprintf("Compared %d %s products. Strongest overall: %s (score %.0f/100).",
		len(rows), category, bestName, bestScore)
}

// formatValue renders a raw value per the header display type. A missing
// value renders as the em-dash placeholder.
func (s *ComparisonService) formatValue(v model.Value, t model.HeaderType) string {
	if v.IsNone() {
		return noValue
	}
	switch t {
	case model.HeaderCurrency:
		return currency.NewMoneyFromFloat(v.Num, s.display).FormatWhole()
	case model.HeaderPercent:
		return strconv.FormatFloat(v.Num, 'f', 2, 64) + "%"
	case model.HeaderBoolean:
		if v.Bool {
			return "Yes"
		}
		return "No"
	case model.HeaderNumber:
		return strconv.FormatFloat(v.Num, 'f', -1, 64)
	default:
		return v.Str
	}
}

// StripExpiredPromos removes promotional fields from products whose promo
// expiry has passed. Copy-on-write: the input slice and its products are
// left untouched. Running the pass twice is identical to running it once.
func StripExpiredPromos(products []model.Product, now time.Time) []model.Product {
	out := make([]model.Product, len(products))
	copy(out, products)
	for i := range out {
		p := &out[i]
		if p.PromotionalRate != nil && p.PromoValidUntil != nil && !now.Before(*p.PromoValidUntil) {
			clearPromo(p)
		}
	}
	return out
}

func stripAllPromos(products []model.Product) []model.Product {
	out := make([]model.Product, len(products))
	copy(out, products)
	for i := range out {
		clearPromo(&out[i])
	}
	return out
}

func clearPromo(p *model.Product) {
	p.PromotionalRate = nil
	p.PromoValidUntil = nil
	p.PromoConditions = ""
}

// FilterProducts applies the catalog filter in one fixed-order pass:
// category, rate range, amount range, region, promotion presence, bank
// allowlist. Each product short-circuits on its first failing predicate.
// Expired promos are stripped before filtering so they cannot satisfy the
// promotion predicate.
func (s *ComparisonService) FilterProducts(products []model.Product, filter model.CatalogFilter) []model.Product {
	now := s.now()
	products = StripExpiredPromos(products, now)

	allowed := make(map[uuid.UUID]bool, len(filter.AllowedBanks))
	for _, id := range filter.AllowedBanks {
		allowed[id] = true
	}

	out := make([]model.Product, 0, len(products))
	for i := range products {
		p := &products[i]
		if filter.Category != "" && p.Category != filter.Category {
			continue
		}
		rate := p.EffectiveRate(now)
		if filter.MinRate != nil && rate < *filter.MinRate {
			continue
		}
		if filter.MaxRate != nil && rate > *filter.MaxRate {
			continue
		}
		if filter.MinAmount != nil && p.MaxAmount != nil && p.MaxAmount.LessThan(*filter.MinAmount) {
			continue
		}
		if filter.MaxAmount != nil && p.MinAmount != nil && p.MinAmount.GreaterThan(*filter.MaxAmount) {
			continue
		}
		if filter.Region != "" && !p.OfferedIn(filter.Region) {
			continue
		}
		if filter.PromoOnly && !p.HasActivePromo(now) {
			continue
		}
		if len(allowed) > 0 && !allowed[p.BankID] {
			continue
		}
		out = append(out, *p)
	}
	return out
}

// Cost computes the amortized cost of carrying the product over the
// requested amount and term: fixed-rate annuity payments plus the flat
// application fee and the recurring monthly fee.
func (s *ComparisonService) Cost(p *model.Product, amount decimal.Decimal, termMonths int) model.CostBreakdown {
	if termMonths <= 0 || !amount.IsPositive() {
		return model.CostBreakdown{TotalCost: amount, MonthlyPayment: decimal.Zero}
	}

	rate := p.EffectiveRate(s.now())
	monthlyRate := rate / 100 / 12

	// Standard annuity formula, following the loan amortization math:
	// M = P * [r(1+r)^n] / [(1+r)^n - 1]
	principal := amount.InexactFloat64()
	n := float64(termMonths)

	var payment float64
	if monthlyRate == 0 {
		payment = principal / n
	} else {
		growth := math.Pow(1+monthlyRate, n)
		payment = principal * (monthlyRate * growth) / (growth - 1)
	}

	total := decimal.NewFromFloat(payment * n).
		Add(p.Fees.Get(model.FeeApplication)).
		Add(p.Fees.Get(model.FeeMonthly).Mul(decimal.NewFromInt(int64(termMonths)))).
		Round(2)

	return model.CostBreakdown{
		TotalCost:      total,
		MonthlyPayment: total.Div(decimal.NewFromInt(int64(termMonths))).Round(2),
		EffectiveRate:  effectiveRate(total, amount, termMonths),
	}
}

// effectiveRate annualizes the rate implied by total cost over principal.
// Floored at zero: a cost at or below principal implies no effective
// interest.
func effectiveRate(totalCost, amount decimal.Decimal, termMonths int) float64 {
	if !amount.IsPositive() || termMonths <= 0 {
		return 0
	}
	overpay := totalCost.Sub(amount).InexactFloat64()
	rate := overpay / amount.InexactFloat64() / float64(termMonths) * 12 * 100
	if rate < 0 {
		return 0
	}
	return rate
}

// BuildDetailedMatrix augments every row of the standard matrix with
// informational total-cost, effective-rate and monthly-payment cells.
// The extra cells carry no weight and do not affect scoring.
func (s *ComparisonService) BuildDetailedMatrix(products []model.Product, criteria model.ComparisonCriteria, amount decimal.Decimal, termMonths int) *model.ComparisonResult {
	result := s.BuildMatrix(products, criteria)

	now := s.now()
	stripped := StripExpiredPromos(products, now)
	if !criteria.IncludePromotions {
		stripped = stripAllPromos(stripped)
	}

	byID := make(map[uuid.UUID]*model.Product, len(stripped))
	for i := range stripped {
		byID[stripped[i].ID] = &stripped[i]
	}

	result.Headers = append(result.Headers,
		model.Header{Key: "total_cost", Label: "Total cost", Type: model.HeaderCurrency},
		model.Header{Key: "effective_rate", Label: "Effective rate", Type: model.HeaderPercent},
		model.Header{Key: "monthly_payment", Label: "Monthly payment", Type: model.HeaderCurrency},
	)

	for i := range result.Rows {
		p, ok := byID[result.Rows[i].ProductID]
		if !ok {
			continue
		}
		cost := s.Cost(p, amount, termMonths)

		totalVal := model.Number(cost.TotalCost.InexactFloat64())
		rateVal := model.Number(cost.EffectiveRate)
		monthlyVal := model.Number(cost.MonthlyPayment.InexactFloat64())

		result.Rows[i].Values["total_cost"] = model.Cell{Raw: totalVal, Formatted: s.formatValue(totalVal, model.HeaderCurrency)}
		result.Rows[i].Values["effective_rate"] = model.Cell{Raw: rateVal, Formatted: s.formatValue(rateVal, model.HeaderPercent)}
		result.Rows[i].Values["monthly_payment"] = model.Cell{Raw: monthlyVal, Formatted: s.formatValue(monthlyVal, model.HeaderCurrency)}
	}
	return result
}

// SaveComparison assigns a synthetic id and hands the bookmark to the
// persistence collaborator.
func (s *ComparisonService) SaveComparison(ctx context.Context, userID uuid.UUID, productIDs []uuid.UUID, criteria model.ComparisonCriteria) (*model.SavedComparison, error) {
	if len(productIDs) < 2 {
		return nil, apperror.InsufficientProducts(len(productIDs))
	}

	now := s.now()
	cmp := &model.SavedComparison{
		ID:         fmt.Sprintf("comparison_%d_%s", now.Unix(), userID),
		UserID:     userID,
		ProductIDs: productIDs,
		Criteria:   criteria,
		CreatedAt:  now,
	}

	if err := s.store.Save(ctx, cmp); err != nil {
		return nil, fmt.Errorf("saving comparison %s: %w", cmp.ID, err)
	}
	return cmp, nil
}

// GetSavedComparison looks a bookmark back up by its id.
func (s *ComparisonService) GetSavedComparison(ctx context.Context, id string) (*model.SavedComparison, error) {
	cmp, err := s.store.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("loading comparison %s: %w", id, err)
	}
	return cmp, nil
}

// ListSavedComparisons returns a user's bookmarks, newest first.
func (s *ComparisonService) ListSavedComparisons(ctx context.Context, userID uuid.UUID) ([]model.SavedComparison, error) {
	return s.store.ListByUser(ctx, userID)
}

// DeleteSavedComparison removes one of the user's bookmarks.
func (s *ComparisonService) DeleteSavedComparison(ctx context.Context, id string, userID uuid.UUID) error {
	return s.store.Delete(ctx, id, userID)
}
