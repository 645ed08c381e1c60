package service

import (
	"sync"
	"time"

	"github.com/finchoice/backend/internal/model"
)

// MarketDataService caches the latest scraped macro indicators. Reads
// fall back to a conservative snapshot until the first refresh lands.
type MarketDataService struct {
	mu       sync.RWMutex
	latest   model.MarketConditions
	hasFresh bool
}

// fallbackConditions is served before the first successful refresh.
func fallbackConditions() model.MarketConditions {
	return model.MarketConditions{
		CentralBankRate: 16.0,
		InflationRate:   7.4,
		GDPGrowth:       1.5,
	}
}

func NewMarketDataService() *MarketDataService {
	return &MarketDataService{latest: fallbackConditions()}
}

// Set replaces the cached snapshot.
func (s *MarketDataService) Set(mc model.MarketConditions) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if mc.FetchedAt.IsZero() {
		mc.FetchedAt = time.Now()
	}
	s.latest = mc
	s.hasFresh = true
}

// Current returns the cached snapshot and whether it came from a real
// refresh rather than the built-in fallback.
func (s *MarketDataService) Current() (model.MarketConditions, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.latest, s.hasFresh
}
