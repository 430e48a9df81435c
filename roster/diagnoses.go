package roster

import (
	"strings"
	"sync"

	"github.com/hashicorp/golang-lru/simplelru"

	"github.com/sage3280/tracker/patients"
)

// DefaultDiagnosisCacheSize bounds the normalized diagnosis strings kept
// between rows. Rosters repeat the same free text thousands of times, so a
// small cache removes most of the keyword scanning.
const DefaultDiagnosisCacheSize = 4096

// ParsedDiagnoses are the condition flags extracted from the free-text
// diagnosis column of a roster row.
type ParsedDiagnoses struct {
	Chronic    patients.ChronicConditions
	IsPregnant bool
}

// diagnosisKeywords maps normalized substrings to condition flags. Matching
// is deliberately loose substring matching, the way roster text is actually
// written ("HTA + DM2", "Hipertensión controlada", "E11.9 DIABETES").
var diagnosisKeywords = []struct {
	terms []string
	apply func(*ParsedDiagnoses)
}{
	{
		terms: []string{"HIPERTENSION", "HTA", "HIPERTENSO", "PRESION ALTA"},
		apply: func(d *ParsedDiagnoses) { d.Chronic.IsHypertensive = true },
	},
	{
		terms: []string{"DIABETES", "DM", "DIABETICO", "MELLITUS"},
		apply: func(d *ParsedDiagnoses) { d.Chronic.IsDiabetic = true },
	},
	{
		terms: []string{"ERC", "INSUFICIENCIA RENAL", "ENFERMEDAD RENAL", "NEFROPATIA"},
		apply: func(d *ParsedDiagnoses) { d.Chronic.HasKidneyDisease = true },
	},
	{
		terms: []string{"EPOC", "ENFISEMA", "BRONQUITIS CRONICA"},
		apply: func(d *ParsedDiagnoses) { d.Chronic.HasCOPD = true },
	},
	{
		terms: []string{"ASMA"},
		apply: func(d *ParsedDiagnoses) { d.Chronic.HasAsthma = true },
	},
	{
		terms: []string{"CARDIOPATIA", "INSUFICIENCIA CARDIACA", "FALLA CARDIACA", "INFARTO"},
		apply: func(d *ParsedDiagnoses) { d.Chronic.HasHeartDisease = true },
	},
	{
		terms: []string{"HIPOTIROIDISMO"},
		apply: func(d *ParsedDiagnoses) { d.Chronic.HasHypothyroidism = true },
	},
	{
		terms: []string{"EMBARAZO", "EMBARAZADA", "GESTANTE", "PRENATAL", "PREGNANT"},
		apply: func(d *ParsedDiagnoses) { d.IsPregnant = true },
	},
}

// DiagnosisParser extracts condition flags from diagnosis text, caching
// results by normalized input.
type DiagnosisParser struct {
	cache *simplelru.LRU
	mu    *sync.Mutex
}

func NewDiagnosisParser(size int) (*DiagnosisParser, error) {
	var onEvicted simplelru.EvictCallback
	cache, err := simplelru.NewLRU(size, onEvicted)
	if err != nil {
		return nil, err
	}

	return &DiagnosisParser{
		cache: cache,
		mu:    &sync.Mutex{},
	}, nil
}

func (d *DiagnosisParser) Parse(text string) ParsedDiagnoses {
	normalized := strings.ToUpper(strings.TrimSpace(foldAccents(text)))
	if normalized == "" {
		return ParsedDiagnoses{}
	}

	if parsed, ok := d.getCached(normalized); ok {
		return parsed
	}

	var parsed ParsedDiagnoses
	for _, group := range diagnosisKeywords {
		for _, term := range group.terms {
			if strings.Contains(normalized, term) {
				group.apply(&parsed)
				break
			}
		}
	}

	d.setCached(normalized, parsed)
	return parsed
}

func (d *DiagnosisParser) getCached(key string) (ParsedDiagnoses, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if value, ok := d.cache.Get(key); ok {
		return value.(ParsedDiagnoses), true
	}
	return ParsedDiagnoses{}, false
}

func (d *DiagnosisParser) setCached(key string, parsed ParsedDiagnoses) {
	d.mu.Lock()
	defer d.mu.Unlock()

	_ = d.cache.Add(key, parsed)
}
