package fundamentals

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/aristath/valuescreen/internal/domain"
	"github.com/aristath/valuescreen/pkg/formulas"
)

// Valuation ratio names.
const (
	FairValuePER   = "FAIR_VALUE_PER"
	FairValuePBR   = "FAIR_VALUE_PBR"
	FairValueROE   = "FAIR_VALUE_ROE"
	FairValue      = "FAIR_VALUE"
	MarginOfSafety = "MARGIN_OF_SAFETY"
)

// PBRBand assigns a fair PBR to securities whose ROE is at least MinROE.
type PBRBand struct {
	MinROE float64 `json:"min_roe" yaml:"min_roe"`
	PBR    float64 `json:"pbr" yaml:"pbr"`
}

// ValuationWeights blend the three fair value estimates into FAIR_VALUE.
// Only defined estimates take part; their weights are renormalised.
type ValuationWeights struct {
	PER float64 `json:"per" yaml:"per"`
	PBR float64 `json:"pbr" yaml:"pbr"`
	ROE float64 `json:"roe" yaml:"roe"`
}

// Valuation parameterises the fair value per share estimates:
//
//	FAIR_VALUE_PER = EPS × fair PER(sector) × PERDiscount
//	FAIR_VALUE_PBR = BPS × fair PBR(ROE band) × PBRDiscount
//	FAIR_VALUE_ROE = BPS × min(ROE / RequiredReturn, MaxROEPremium), or
//	                 BPS × ROEDiscount when ROE does not beat RequiredReturn
//	MARGIN_OF_SAFETY = FAIR_VALUE / price - 1
type Valuation struct {
	// SectorPER maps a sector (case-insensitive) to its fair PER.
	SectorPER   map[string]float64 `json:"sector_per" yaml:"sector_per"`
	DefaultPER  float64            `json:"default_per" yaml:"default_per"`
	PERDiscount float64            `json:"per_discount" yaml:"per_discount"`

	PBRBands    []PBRBand `json:"pbr_bands" yaml:"pbr_bands"`
	BasePBR     float64   `json:"base_pbr" yaml:"base_pbr"` // below every band
	PBRDiscount float64   `json:"pbr_discount" yaml:"pbr_discount"`

	RequiredReturn float64 `json:"required_return" yaml:"required_return"`
	MaxROEPremium  float64 `json:"max_roe_premium" yaml:"max_roe_premium"`
	ROEDiscount    float64 `json:"roe_discount" yaml:"roe_discount"`

	Weights ValuationWeights `json:"weights" yaml:"weights"`
}

// DefaultValuation uses conservative multiples for a domestic equity market
// and a 15% required return.
func DefaultValuation() Valuation {
	return Valuation{
		SectorPER: map[string]float64{
			"technology":     15,
			"semiconductors": 12,
			"automotive":     8,
			"chemicals":      10,
			"financials":     6,
			"biotech":        20,
		},
		DefaultPER:  12,
		PERDiscount: 0.8,
		PBRBands: []PBRBand{
			{MinROE: 0.15, PBR: 1.5},
			{MinROE: 0.10, PBR: 1.2},
		},
		BasePBR:        1.0,
		PBRDiscount:    0.9,
		RequiredReturn: 0.15,
		MaxROEPremium:  2.0,
		ROEDiscount:    0.8,
		Weights:        ValuationWeights{PER: 0.25, PBR: 0.15, ROE: 0.20},
	}
}

// Validate checks that every multiple is a positive number.
func (v Valuation) Validate() error {
	type check struct {
		field string
		value float64
	}
	positive := []check{
		{"valuation.default_per", v.DefaultPER},
		{"valuation.per_discount", v.PERDiscount},
		{"valuation.base_pbr", v.BasePBR},
		{"valuation.pbr_discount", v.PBRDiscount},
		{"valuation.required_return", v.RequiredReturn},
		{"valuation.roe_discount", v.ROEDiscount},
	}
	for sector, per := range v.SectorPER {
		positive = append(positive, check{"valuation.sector_per." + sector, per})
	}
	for i, b := range v.PBRBands {
		if !finite(b.MinROE) {
			return domain.NewParameterError(fmt.Sprintf("valuation.pbr_bands[%d].min_roe", i), b.MinROE, "must be a number")
		}
		positive = append(positive, check{fmt.Sprintf("valuation.pbr_bands[%d].pbr", i), b.PBR})
	}
	for _, c := range positive {
		if !finite(c.value) || c.value <= 0 {
			return domain.NewParameterError(c.field, c.value, "must be positive")
		}
	}
	if !finite(v.MaxROEPremium) || v.MaxROEPremium < 1 {
		return domain.NewParameterError("valuation.max_roe_premium", v.MaxROEPremium, "must be at least 1")
	}

	w := v.Weights
	for _, c := range []check{{"valuation.weights.per", w.PER}, {"valuation.weights.pbr", w.PBR}, {"valuation.weights.roe", w.ROE}} {
		if !finite(c.value) || c.value < 0 {
			return domain.NewParameterError(c.field, c.value, "must be non-negative")
		}
	}
	if w.PER+w.PBR+w.ROE <= 0 {
		return domain.NewParameterError("valuation.weights", 0, "need at least one positive weight")
	}
	return nil
}

// valuer is a validated Valuation with normalised lookups.
type valuer struct {
	cfg       Valuation
	sectorPER map[string]float64
	bands     []PBRBand // MinROE descending
}

func newValuer(cfg Valuation) valuer {
	sectors := make(map[string]float64, len(cfg.SectorPER))
	for name, per := range cfg.SectorPER {
		sectors[normalizeSector(name)] = per
	}
	bands := append([]PBRBand(nil), cfg.PBRBands...)
	sort.SliceStable(bands, func(i, j int) bool { return bands[i].MinROE > bands[j].MinROE })
	return valuer{cfg: cfg, sectorPER: sectors, bands: bands}
}

func (v valuer) fairPER(sector string) float64 {
	if per, ok := v.sectorPER[normalizeSector(sector)]; ok {
		return per
	}
	return v.cfg.DefaultPER
}

// fairPBR picks the highest band the ROE reaches. An undefined ROE earns
// the base PBR.
func (v valuer) fairPBR(roe domain.Value) float64 {
	if roe.Valid {
		for _, b := range v.bands {
			if roe.Float64 >= b.MinROE {
				return b.PBR
			}
		}
	}
	return v.cfg.BasePBR
}

// apply fills the valuation keys from the already computed EPS, BPS and ROE.
func (v valuer) apply(result domain.FundamentalResult, sector string, price domain.Value) {
	eps, bps, roe := result[EPS], result[BPS], result[ROE]

	perValue := domain.Undefined()
	if eps.Valid && eps.Float64 > 0 {
		perValue = domain.Defined(eps.Float64 * v.fairPER(sector) * v.cfg.PERDiscount)
	}
	pbrValue := domain.Undefined()
	if bps.Valid && bps.Float64 > 0 {
		pbrValue = domain.Defined(bps.Float64 * v.fairPBR(roe) * v.cfg.PBRDiscount)
	}
	roeValue := domain.Undefined()
	if bps.Valid && bps.Float64 > 0 && roe.Valid && roe.Float64 > 0 {
		multiple := v.cfg.ROEDiscount
		if roe.Float64 > v.cfg.RequiredReturn {
			multiple = math.Min(roe.Float64/v.cfg.RequiredReturn, v.cfg.MaxROEPremium)
		}
		roeValue = domain.Defined(bps.Float64 * multiple)
	}

	result[FairValuePER] = perValue
	result[FairValuePBR] = pbrValue
	result[FairValueROE] = roeValue

	var values, weights []float64
	for _, e := range []struct {
		value  domain.Value
		weight float64
	}{
		{perValue, v.cfg.Weights.PER},
		{pbrValue, v.cfg.Weights.PBR},
		{roeValue, v.cfg.Weights.ROE},
	} {
		if e.value.Valid && e.weight > 0 {
			values = append(values, e.value.Float64)
			weights = append(weights, e.weight)
		}
	}
	fair := domain.Undefined()
	if m, ok := formulas.WeightedMean(values, weights); ok {
		fair = domain.Defined(m)
	}
	result[FairValue] = fair

	margin := domain.Ratio(fair, price, true)
	if margin.Valid {
		margin = domain.Defined(margin.Float64 - 1)
	}
	result[MarginOfSafety] = margin
}

func normalizeSector(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

func finite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}
