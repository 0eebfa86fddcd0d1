// Package fertilizer turns soil sensor readings into a fertilizer
// recommendation using a fixed decision table over nutrient deficits,
// soil pH, moisture and temperature.
//
// Predict is a pure function: it holds no state and is safe to call from
// any number of goroutines. Inputs must be finite; NaN or infinite values
// produce an unspecified (but non-panicking) result, so callers validate at
// the boundary.
package fertilizer

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Optimal nutrient levels in ppm.
const (
	OptimalNitrogen   = 50.0
	OptimalPhosphorus = 30.0
	OptimalPotassium  = 40.0
)

// A nutrient is deficient once its deficit exceeds these margins.
const (
	nitrogenThreshold   = 10.0
	phosphorusThreshold = 5.0
	potassiumThreshold  = 10.0
)

const (
	OptimalPHMin       = 6.0
	OptimalPHMax       = 7.5
	OptimalMoistureMin = 40.0
	OptimalMoistureMax = 70.0
	LowTemperature     = 15.0
	HighTemperature    = 35.0
)

const (
	baseConfidence        = 0.8
	maintenanceConfidence = 0.9
	phConfidence          = 0.85
	conditionPenalty      = 0.05
	minConfidence         = 0.5
	maxConfidence         = 0.95
)

// Fertilizer names produced by the engine.
const (
	Balanced        = "NPK 19:19:19 (Balanced)"
	NPBlend         = "NPK 20:20:0"
	NKBlend         = "NPK 17:0:45"
	PKBlend         = "NPK 0:20:20"
	Urea            = "Urea (46-0-0)"
	SuperPhosphate  = "Single Super Phosphate (0-20-0)"
	MuriateOfPotash = "Muriate of Potash (0-0-60)"
	Maintenance     = "Maintenance Fertilizer (10:10:10)"
	Lime            = "Lime (Calcium Carbonate)"
	SulfurOrGypsum  = "Sulfur or Gypsum"

	NoRecommendation = "No specific recommendation"
)

type Priority string

const (
	PriorityHigh   Priority = "high"
	PriorityMedium Priority = "medium"
	PriorityLow    Priority = "low"
)

// Weight ranks priorities when picking the primary option.
func (p Priority) Weight() float64 {
	switch p {
	case PriorityHigh:
		return 1.0
	case PriorityMedium:
		return 0.5
	default:
		return 0.25
	}
}

// Status labels reported per nutrient and for pH / moisture.
const (
	StatusDeficient = "deficient"
	StatusAdequate  = "adequate"
	StatusLow       = "low"
	StatusHigh      = "high"
	StatusOptimal   = "optimal"
)

// Option is one candidate fertilizer application.
type Option struct {
	Name     string   `json:"name"`
	Amount   float64  `json:"amount"` // kg/hectare
	Priority Priority `json:"priority"`
	Reason   string   `json:"reason"`
}

type Deficiencies struct {
	Nitrogen   float64 `json:"nitrogen"`
	Phosphorus float64 `json:"phosphorus"`
	Potassium  float64 `json:"potassium"`
}

type Status struct {
	Nitrogen   string `json:"nitrogen"`
	Phosphorus string `json:"phosphorus"`
	Potassium  string `json:"potassium"`
	PH         string `json:"ph"`
	Moisture   string `json:"moisture"`
}

// Recommendation is the engine output. Every call returns a new value that
// shares no memory with other results.
type Recommendation struct {
	RecommendedFertilizer string       `json:"recommended_fertilizer"`
	FertilizerAmount      float64      `json:"fertilizer_amount"`
	ConfidenceScore       float64      `json:"confidence_score"`
	RecommendationDetails string       `json:"recommendation_details"`
	AllFertilizers        []Option     `json:"all_fertilizers"`
	Deficiencies          Deficiencies `json:"deficiencies"`
	Status                Status       `json:"status"`
}

// Predict recommends a fertilizer for the given soil readings. Nutrients are
// in ppm, moisture in percent and temperature in °C. ec is accepted for
// future use and does not influence the result.
func Predict(nitrogen, phosphorus, potassium, soilPH, soilMoisture, temperature float64, ec *float64) Recommendation {
	nDeficit := OptimalNitrogen - nitrogen
	pDeficit := OptimalPhosphorus - phosphorus
	kDeficit := OptimalPotassium - potassium

	nDeficient := nDeficit > nitrogenThreshold
	pDeficient := pDeficit > phosphorusThreshold
	kDeficient := kDeficit > potassiumThreshold

	phLow := soilPH < OptimalPHMin
	phHigh := soilPH > OptimalPHMax

	var details []string
	options := make([]Option, 0, 2)
	confidence := baseConfidence

	switch {
	case nDeficient && pDeficient && kDeficient:
		options = append(options, Option{
			Name:     Balanced,
			Amount:   math.Max(nDeficit, math.Max(pDeficit, kDeficit)) * 2,
			Priority: PriorityHigh,
			Reason:   "All NPK levels are below optimal",
		})
		details = append(details, "Apply balanced NPK fertilizer to address nitrogen, phosphorus, and potassium deficiencies.")
	case nDeficient && pDeficient:
		options = append(options, Option{
			Name:     NPBlend,
			Amount:   math.Max(nDeficit, pDeficit) * 2.5,
			Priority: PriorityHigh,
			Reason:   "Nitrogen and Phosphorus levels are below optimal",
		})
		details = append(details, "Apply NP fertilizer to address nitrogen and phosphorus deficiencies.")
	case nDeficient && kDeficient:
		options = append(options, Option{
			Name:     NKBlend,
			Amount:   math.Max(nDeficit, kDeficit) * 2.2,
			Priority: PriorityHigh,
			Reason:   "Nitrogen and Potassium levels are below optimal",
		})
		details = append(details, "Apply NK fertilizer to address nitrogen and potassium deficiencies.")
	case pDeficient && kDeficient:
		options = append(options, Option{
			Name:     PKBlend,
			Amount:   math.Max(pDeficit, kDeficit) * 2.3,
			Priority: PriorityHigh,
			Reason:   "Phosphorus and Potassium levels are below optimal",
		})
		details = append(details, "Apply PK fertilizer to address phosphorus and potassium deficiencies.")
	case nDeficient:
		options = append(options, Option{
			Name:     Urea,
			Amount:   nDeficit * 2.2,
			Priority: PriorityHigh,
			Reason:   "Nitrogen level is below optimal",
		})
		details = append(details, "Apply nitrogen-rich fertilizer to address nitrogen deficiency.")
	case pDeficient:
		options = append(options, Option{
			Name:     SuperPhosphate,
			Amount:   pDeficit * 3.0,
			Priority: PriorityMedium,
			Reason:   "Phosphorus level is below optimal",
		})
		details = append(details, "Apply phosphorus fertilizer to address phosphorus deficiency.")
	case kDeficient:
		options = append(options, Option{
			Name:     MuriateOfPotash,
			Amount:   kDeficit * 1.7,
			Priority: PriorityMedium,
			Reason:   "Potassium level is below optimal",
		})
		details = append(details, "Apply potassium fertilizer to address potassium deficiency.")
	default:
		options = append(options, Option{
			Name:     Maintenance,
			Amount:   50.0,
			Priority: PriorityLow,
			Reason:   "All NPK levels are within optimal range",
		})
		details = append(details, "NPK levels are optimal. Apply maintenance fertilizer for sustained growth.")
		confidence = maintenanceConfidence
	}

	// pH correction replaces the running confidence rather than scaling it.
	if phLow {
		options = append(options, Option{
			Name:     Lime,
			Amount:   (OptimalPHMin - soilPH) * 1000,
			Priority: PriorityHigh,
			Reason:   fmt.Sprintf("Soil pH (%.2f) is below optimal range. Apply lime to raise pH.", soilPH),
		})
		details = append(details, fmt.Sprintf("Apply lime to raise soil pH from %.2f to optimal range (6.0-7.5).", soilPH))
		confidence = phConfidence
	} else if phHigh {
		options = append(options, Option{
			Name:     SulfurOrGypsum,
			Amount:   (soilPH - OptimalPHMax) * 800,
			Priority: PriorityMedium,
			Reason:   fmt.Sprintf("Soil pH (%.2f) is above optimal range. Apply acidifying agent.", soilPH),
		})
		details = append(details, fmt.Sprintf("Apply sulfur or gypsum to lower soil pH from %.2f to optimal range (6.0-7.5).", soilPH))
		confidence = phConfidence
	}

	if soilMoisture < OptimalMoistureMin {
		details = append(details, fmt.Sprintf("Soil moisture (%.1f%%) is low. Consider irrigation before fertilizer application.", soilMoisture))
		confidence -= conditionPenalty
	} else if soilMoisture > OptimalMoistureMax {
		details = append(details, fmt.Sprintf("Soil moisture (%.1f%%) is high. Wait for soil to dry slightly before application.", soilMoisture))
		confidence -= conditionPenalty
	}

	if temperature < LowTemperature {
		details = append(details, "Temperature is low. Fertilizer uptake may be slower. Consider waiting for warmer conditions.")
		confidence -= conditionPenalty
	} else if temperature > HighTemperature {
		details = append(details, "Temperature is high. Avoid fertilizer application during peak heat. Apply early morning or evening.")
		confidence -= conditionPenalty
	}

	confidence = math.Max(minConfidence, math.Min(maxConfidence, confidence))

	rec := Recommendation{
		RecommendedFertilizer: NoRecommendation,
		ConfidenceScore:       round2(confidence),
		RecommendationDetails: strings.Join(details, " "),
		AllFertilizers:        options,
		Deficiencies: Deficiencies{
			Nitrogen:   reportedDeficit(nDeficit),
			Phosphorus: reportedDeficit(pDeficit),
			Potassium:  reportedDeficit(kDeficit),
		},
		Status: Status{
			Nitrogen:   nutrientStatus(nDeficient),
			Phosphorus: nutrientStatus(pDeficient),
			Potassium:  nutrientStatus(kDeficient),
			PH:         rangeStatus(phLow, phHigh),
			Moisture:   rangeStatus(soilMoisture < OptimalMoistureMin, soilMoisture > OptimalMoistureMax),
		},
	}

	if primary, ok := Primary(options); ok {
		rec.RecommendedFertilizer = primary.Name
		rec.FertilizerAmount = round2(primary.Amount)
	}
	return rec
}

// Primary returns the option with the highest priority weight. Ties keep
// the earliest option, so nutrient options win over pH corrections of the
// same priority.
func Primary(options []Option) (Option, bool) {
	if len(options) == 0 {
		return Option{}, false
	}
	best := options[0]
	for _, o := range options[1:] {
		if o.Priority.Weight() > best.Priority.Weight() {
			best = o
		}
	}
	return best, true
}

func nutrientStatus(deficient bool) string {
	if deficient {
		return StatusDeficient
	}
	return StatusAdequate
}

func rangeStatus(low, high bool) string {
	switch {
	case low:
		return StatusLow
	case high:
		return StatusHigh
	default:
		return StatusOptimal
	}
}

func reportedDeficit(d float64) float64 {
	if d > 0 {
		return round2(d)
	}
	return 0
}

// round2 rounds to two decimals with ties going to the even digit.
func round2(v float64) float64 {
	r, err := strconv.ParseFloat(strconv.FormatFloat(v, 'f', 2, 64), 64)
	if err != nil {
		return v
	}
	return r
}
