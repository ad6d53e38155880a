package model

// Settings is the per-user settings document: unit costs, the size costing
// mode, per-variant cost overrides for unified mode, and the UI theme flag.
type Settings struct {
	CostSettings       map[string]float64            `json:"costSettings"`
	SizeCostingEnabled bool                          `json:"sizeCostingEnabled"`
	SizeOverrides      map[string]map[string]float64 `json:"sizeOverrides"`
	DarkMode           bool                          `json:"darkMode"`
}

// DefaultSettings returns the settings applied when a user has no stored
// document. Dark mode is on by default.
func DefaultSettings() *Settings {
	return &Settings{
		CostSettings:  map[string]float64{},
		SizeOverrides: map[string]map[string]float64{},
		DarkMode:      true,
	}
}

// SetCost records the unit cost for a cost key. Negative values clamp to 0.
func (s *Settings) SetCost(key string, cost float64) {
	if s.CostSettings == nil {
		s.CostSettings = map[string]float64{}
	}
	if cost < 0 {
		cost = 0
	}
	s.CostSettings[key] = cost
}

// UnsetCost removes the unit cost for a cost key.
func (s *Settings) UnsetCost(key string) {
	delete(s.CostSettings, key)
}

// CostFor returns the unit cost for a key, defaulting to 0 when absent.
// Absence is a valid state, not an error.
func (s *Settings) CostFor(key string) float64 {
	if s == nil {
		return 0
	}
	return s.CostSettings[key]
}

// SetSizeOverride records a per-variant cost override for unified mode.
// A non-positive cost clears the override instead.
func (s *Settings) SetSizeOverride(product, variant string, cost float64) {
	if cost <= 0 {
		s.RemoveSizeOverride(product, variant)
		return
	}
	if s.SizeOverrides == nil {
		s.SizeOverrides = map[string]map[string]float64{}
	}
	if s.SizeOverrides[product] == nil {
		s.SizeOverrides[product] = map[string]float64{}
	}
	s.SizeOverrides[product][variant] = cost
}

// RemoveSizeOverride clears one variant override, pruning the product entry
// when no overrides remain.
func (s *Settings) RemoveSizeOverride(product, variant string) {
	overrides, ok := s.SizeOverrides[product]
	if !ok {
		return
	}
	delete(overrides, variant)
	if len(overrides) == 0 {
		delete(s.SizeOverrides, product)
	}
}

// OverridesFor returns the override map for a product name, or nil.
func (s *Settings) OverridesFor(product string) map[string]float64 {
	if s == nil {
		return nil
	}
	return s.SizeOverrides[product]
}
