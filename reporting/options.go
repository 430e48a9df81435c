package reporting

import (
	"encoding/json"
	"fmt"

	"github.com/TwiN/deepmerge"
	"github.com/mitchellh/mapstructure"

	"github.com/sage3280/tracker/errors"
	"github.com/sage3280/tracker/patients"
)

// Options control what an exported workbook contains. Callers send partial
// JSON; it is deep-merged over the defaults, so `{"sheets":{"alerts":false}}`
// keeps everything else enabled.
type Options struct {
	Sheets  SheetToggles  `json:"sheets" mapstructure:"sheets"`
	Columns []string      `json:"columns,omitempty" mapstructure:"columns"`
	Filter  FilterOptions `json:"filter" mapstructure:"filter"`
}

type SheetToggles struct {
	Patients bool `json:"patients" mapstructure:"patients"`
	Alerts   bool `json:"alerts" mapstructure:"alerts"`
	Controls bool `json:"controls" mapstructure:"controls"`
}

// FilterOptions narrow the exported population. String fields carry the
// canonical enum values ("adultez", "grupo_b", "alto").
type FilterOptions struct {
	AgeGroup        *string `json:"ageGroup,omitempty" mapstructure:"ageGroup"`
	Sex             *string `json:"sex,omitempty" mapstructure:"sex"`
	AttentionType   *string `json:"attentionType,omitempty" mapstructure:"attentionType"`
	RiskLevel       *string `json:"riskLevel,omitempty" mapstructure:"riskLevel"`
	OnlyUncontacted bool    `json:"onlyUncontacted" mapstructure:"onlyUncontacted"`
}

func DefaultOptions() Options {
	return Options{
		Sheets: SheetToggles{
			Patients: true,
			Alerts:   true,
			Controls: true,
		},
	}
}

// ParseOptions merges raw caller overrides over the defaults and decodes
// the result. Empty input yields the defaults.
func ParseOptions(overrides []byte) (Options, error) {
	options := DefaultOptions()
	if len(overrides) == 0 {
		return options, nil
	}

	defaults, err := json.Marshal(options)
	if err != nil {
		return options, err
	}

	merged, err := deepmerge.JSON(defaults, overrides, deepmerge.Config{
		PreventMultipleDefinitionsOfKeysWithPrimitiveValue: false,
	})
	if err != nil {
		return options, fmt.Errorf("%w: %s", errors.BadRequest, err.Error())
	}

	values := map[string]interface{}{}
	if err := json.Unmarshal(merged, &values); err != nil {
		return options, fmt.Errorf("%w: %s", errors.BadRequest, err.Error())
	}

	options = Options{}
	if err := mapstructure.Decode(values, &options); err != nil {
		return options, fmt.Errorf("%w: %s", errors.BadRequest, err.Error())
	}

	return options, nil
}

// PatientFilter translates the export filter to a patient listing filter.
func (o Options) PatientFilter() *patients.Filter {
	filter := &patients.Filter{}

	if o.Filter.AgeGroup != nil {
		group := patients.AgeGroup(*o.Filter.AgeGroup)
		filter.AgeGroup = &group
	}
	if o.Filter.Sex != nil {
		sex := patients.Sex(*o.Filter.Sex)
		filter.Sex = &sex
	}
	if o.Filter.AttentionType != nil {
		attention := patients.AttentionType(*o.Filter.AttentionType)
		filter.AttentionType = &attention
	}
	if o.Filter.RiskLevel != nil {
		level := patients.RiskLevel(*o.Filter.RiskLevel)
		filter.RiskLevel = &level
	}
	if o.Filter.OnlyUncontacted {
		contacted := false
		filter.IsContacted = &contacted
	}

	return filter
}
