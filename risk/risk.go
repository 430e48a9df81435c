package risk

import (
	"fmt"
	"math"
)

// Algorithm tags, also used as map keys on the wire.
const (
	AlgorithmFramingham = "framingham"
	AlgorithmASCVD      = "ascvd"
	AlgorithmAusangate  = "ausangate"
)

// Categories produced by the calculators. Framingham and Ausangate share
// the bajo/moderado/alto/muy_alto scale, ASCVD uses its own.
const (
	CategoryBajo       = "bajo"
	CategoryModerado   = "moderado"
	CategoryAlto       = "alto"
	CategoryMuyAlto    = "muy_alto"
	CategoryBorderline = "borderline"
	CategoryIntermedio = "intermedio"
)

// Races recognized by the ASCVD adjustment. Any other value leaves the
// score unadjusted.
const (
	RaceBlack    = "black"
	RaceHispanic = "hispanic"
)

// Profile is the flat measurement snapshot the calculators read. Optional
// measurements are pointers; a calculator misses its preconditions by
// returning nil, never by erroring.
type Profile struct {
	Age              *int
	Sex              string
	Race             string
	SystolicBP       *int
	DiastolicBP      *int
	TotalCholesterol *float64
	HDL              *float64
	LDL              *float64
	Glucose          *float64
	BMI              *float64
	Smoker           bool
	Diabetic         bool
	OnBPMeds         bool
	FamilyHistoryCVD bool
}

func (p Profile) hasLipidPanel() bool {
	return p.SystolicBP != nil && p.TotalCholesterol != nil && p.HDL != nil
}

func (p Profile) ageBetween(min, max int) bool {
	return p.Age != nil && *p.Age >= min && *p.Age <= max
}

// Result is the outcome of a single algorithm run.
type Result struct {
	Algorithm      string  `json:"algorithm" bson:"algorithm"`
	Percentage     float64 `json:"riskPercentage" bson:"riskPercentage"`
	Category       string  `json:"riskCategory" bson:"riskCategory"`
	Points         int     `json:"points,omitempty" bson:"points,omitempty"`
	Interpretation string  `json:"interpretation" bson:"interpretation"`
	Notes          string  `json:"notes,omitempty" bson:"notes,omitempty"`
}

// Comparison aggregates the three algorithms over one profile. Nil results
// mark algorithms whose preconditions were not met.
type Comparison struct {
	Framingham        *Result  `json:"framingham,omitempty" bson:"framingham,omitempty"`
	ASCVD             *Result  `json:"ascvd,omitempty" bson:"ascvd,omitempty"`
	Ausangate         *Result  `json:"ausangate,omitempty" bson:"ausangate,omitempty"`
	OverallCategory   string   `json:"overallRiskCategory" bson:"overallRiskCategory"`
	HighestPercentage float64  `json:"highestRiskPercentage" bson:"highestRiskPercentage"`
	Recommended       string   `json:"recommendedAlgorithm" bson:"recommendedAlgorithm"`
	Recommendations   []string `json:"recommendations" bson:"recommendations"`
}

// band awards points when the value reaches its threshold. Tables are
// ordered from the highest threshold down and the first match wins.
type band struct {
	from   float64
	points int
}

func pointsFor(value float64, table []band) int {
	for _, b := range table {
		if value >= b.from {
			return b.points
		}
	}
	return 0
}

var (
	cholesterolBands = []band{{280, 3}, {240, 2}, {200, 1}}

	framinghamAgeMale     = []band{{70, 11}, {60, 8}, {50, 5}, {40, 2}}
	framinghamAgeFemale   = []band{{70, 12}, {60, 9}, {50, 6}, {40, 3}}
	framinghamBPTreated   = []band{{160, 3}, {140, 2}, {130, 1}}
	framinghamBPUntreated = []band{{160, 2}, {140, 1}}

	ausangateAgeMale   = []band{{65, 12}, {55, 9}, {45, 6}, {35, 3}}
	ausangateAgeFemale = []band{{65, 10}, {55, 7}, {45, 4}, {35, 2}}
	ausangateBPBands   = []band{{160, 4}, {140, 3}, {130, 2}, {120, 1}}
	ausangateBMIBands  = []band{{35, 3}, {30, 2}, {25, 1}}
)

func round1(value float64) float64 {
	return math.Round(value*10) / 10
}

func framinghamCategory(pct float64) string {
	switch {
	case pct < 5:
		return CategoryBajo
	case pct < 10:
		return CategoryModerado
	case pct < 20:
		return CategoryAlto
	default:
		return CategoryMuyAlto
	}
}

// Framingham estimates the 10-year general CVD risk for ages 30-74. The
// point-to-percentage mapping is a piecewise linear approximation of the
// published tables, not the exponential survival function.
func Framingham(p Profile) *Result {
	if p.Sex == "" || !p.hasLipidPanel() || !p.ageBetween(30, 74) {
		return nil
	}

	points := 0
	if p.Sex == "M" {
		points += pointsFor(float64(*p.Age), framinghamAgeMale)
	} else {
		points += pointsFor(float64(*p.Age), framinghamAgeFemale)
	}

	points += pointsFor(*p.TotalCholesterol, cholesterolBands)

	if *p.HDL >= 60 {
		points--
	} else if *p.HDL < 40 {
		points += 2
	}

	if p.OnBPMeds {
		points += pointsFor(float64(*p.SystolicBP), framinghamBPTreated)
	} else {
		points += pointsFor(float64(*p.SystolicBP), framinghamBPUntreated)
	}

	if p.Smoker {
		if p.Sex == "M" {
			points += 2
		} else {
			points += 3
		}
	}
	if p.Diabetic {
		points += 2
	}

	var pct float64
	switch {
	case points <= 0:
		pct = 1
	case points <= 5:
		pct = 2 + float64(points)*0.5
	case points <= 10:
		pct = 5 + float64(points-5)*1.5
	case points <= 15:
		pct = 12 + float64(points-10)*2.5
	default:
		pct = math.Min(40, 25+float64(points-15)*3)
	}
	pct = round1(pct)

	return &Result{
		Algorithm:      AlgorithmFramingham,
		Percentage:     pct,
		Category:       framinghamCategory(pct),
		Points:         points,
		Interpretation: fmt.Sprintf("Riesgo de evento cardiovascular a 10 años: %.1f%%", pct),
	}
}

// ASCVD approximates the AHA/ACC Pooled Cohort Equations for ages 40-79
// with a linear score instead of the log-transformed model.
func ASCVD(p Profile) *Result {
	if p.Sex == "" || !p.hasLipidPanel() || !p.ageBetween(40, 79) {
		return nil
	}

	var score float64
	if p.Sex == "M" {
		score = float64(*p.Age-40) * 0.5
	} else {
		score = float64(*p.Age-40) * 0.4
	}

	if *p.TotalCholesterol > 240 {
		score += 3
	} else if *p.TotalCholesterol > 200 {
		score += 1.5
	}

	if *p.HDL < 40 {
		score += 2
	} else if *p.HDL > 60 {
		score--
	}

	switch {
	case *p.SystolicBP >= 160:
		if p.OnBPMeds {
			score += 3
		} else {
			score += 2.5
		}
	case *p.SystolicBP >= 140:
		if p.OnBPMeds {
			score += 2
		} else {
			score += 1.5
		}
	case *p.SystolicBP >= 130:
		score++
	}

	if p.Smoker {
		score += 2.5
	}
	if p.Diabetic {
		score += 2.5
	}

	switch p.Race {
	case RaceBlack:
		score *= 1.15
	case RaceHispanic:
		score *= 0.95
	}

	pct := round1(math.Min(50, math.Max(0.5, score)))

	var category string
	switch {
	case pct < 5:
		category = CategoryBajo
	case pct < 7.5:
		category = CategoryBorderline
	case pct < 20:
		category = CategoryIntermedio
	default:
		category = CategoryAlto
	}

	return &Result{
		Algorithm:      AlgorithmASCVD,
		Percentage:     pct,
		Category:       category,
		Interpretation: fmt.Sprintf("Riesgo ASCVD a 10 años: %.1f%% (AHA/ACC 2013)", pct),
	}
}

// Ausangate scores the same panel with weights adapted to Latin American
// populations: earlier age bands, heavier diabetes and glucose tiers, BMI
// and family history terms. Valid for ages 30-74.
func Ausangate(p Profile) *Result {
	if p.Sex == "" || !p.hasLipidPanel() || !p.ageBetween(30, 74) {
		return nil
	}

	points := 0
	if p.Sex == "M" {
		points += pointsFor(float64(*p.Age), ausangateAgeMale)
	} else {
		points += pointsFor(float64(*p.Age), ausangateAgeFemale)
	}

	points += pointsFor(float64(*p.SystolicBP), ausangateBPBands)
	points += pointsFor(*p.TotalCholesterol, cholesterolBands)

	switch {
	case *p.HDL < 35:
		points += 3
	case *p.HDL < 40:
		points += 2
	case *p.HDL >= 60:
		points--
	}

	switch {
	case p.Diabetic:
		points += 4
	case p.Glucose != nil && *p.Glucose >= 126:
		points += 3
	case p.Glucose != nil && *p.Glucose >= 100:
		points += 2
	}

	if p.Smoker {
		points += 3
	}
	if p.BMI != nil {
		points += pointsFor(*p.BMI, ausangateBMIBands)
	}
	if p.FamilyHistoryCVD {
		points += 2
	}

	var pct float64
	switch {
	case points <= 5:
		pct = 3
	case points <= 10:
		pct = 5 + float64(points-5)*1.5
	case points <= 15:
		pct = 12 + float64(points-10)*2
	case points <= 20:
		pct = 22 + float64(points-15)*2.5
	default:
		pct = math.Min(50, 35+float64(points-20)*2)
	}
	pct = round1(pct)

	return &Result{
		Algorithm:      AlgorithmAusangate,
		Percentage:     pct,
		Category:       framinghamCategory(pct),
		Points:         points,
		Interpretation: fmt.Sprintf("Riesgo cardiovascular a 10 años (población latinoamericana): %.1f%%", pct),
		Notes:          "Adaptado para factores de riesgo prevalentes en América Latina",
	}
}

// Comprehensive runs Framingham, ASCVD and Ausangate in that order and
// keeps the running maximum. The recommended algorithm defaults to
// Ausangate and only a strictly higher ASCVD percentage displaces it; the
// evaluation order is therefore an observable tie-break.
func Comprehensive(p Profile) *Comparison {
	comparison := &Comparison{
		OverallCategory: CategoryBajo,
		Recommended:     AlgorithmAusangate,
	}

	if result := Framingham(p); result != nil {
		comparison.Framingham = result
		if result.Percentage > comparison.HighestPercentage {
			comparison.HighestPercentage = result.Percentage
			comparison.OverallCategory = result.Category
		}
	}

	if result := ASCVD(p); result != nil {
		comparison.ASCVD = result
		if result.Percentage > comparison.HighestPercentage {
			comparison.HighestPercentage = result.Percentage
			comparison.OverallCategory = result.Category
			comparison.Recommended = AlgorithmASCVD
		}
	}

	if result := Ausangate(p); result != nil {
		comparison.Ausangate = result
		if result.Percentage > comparison.HighestPercentage {
			comparison.HighestPercentage = result.Percentage
			comparison.OverallCategory = result.Category
			comparison.Recommended = AlgorithmAusangate
		}
	}

	comparison.Recommendations = recommendationsFor(comparison.HighestPercentage)
	return comparison
}

func recommendationsFor(pct float64) []string {
	switch {
	case pct >= 20:
		return []string{
			"Inicio de estatina de alta intensidad",
			"Control estricto de presión arterial (< 130/80)",
			"Aspirina en prevención primaria (considerar)",
			"Control cada 3 meses",
			"Referencia a cardiología",
		}
	case pct >= 10:
		return []string{
			"Considerar estatina de moderada intensidad",
			"Control de presión arterial (< 140/90)",
			"Modificación de estilo de vida agresiva",
			"Control cada 6 meses",
		}
	case pct >= 5:
		return []string{
			"Modificación de estilo de vida",
			"Control anual de factores de riesgo",
			"Evaluación de otros factores (calcio coronario si disponible)",
		}
	default:
		return []string{
			"Mantener estilo de vida saludable",
			"Control cada 2 años",
		}
	}
}
