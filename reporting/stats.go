package reporting

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/sage3280/tracker/alerts"
	"github.com/sage3280/tracker/controls"
	"github.com/sage3280/tracker/patients"
)

// Dashboard is the population overview the frontend renders on its landing
// page. Patient breakdowns only count active patients.
type Dashboard struct {
	Patients PatientStats   `json:"patients"`
	Alerts   alerts.Stats   `json:"alerts"`
	Controls controls.Stats `json:"controls"`
}

type PatientStats struct {
	Total                  int     `json:"total"`
	Active                 int     `json:"active"`
	Contacted              int     `json:"contacted"`
	ContactedRatio         float64 `json:"contactedRatio"`
	Pregnant               int     `json:"pregnant"`
	WithCardiovascularRisk int     `json:"withCardiovascularRisk"`

	ByAgeGroup      map[string]int `json:"byAgeGroup"`
	BySex           map[string]int `json:"bySex"`
	ByAttentionType map[string]int `json:"byAttentionType"`
	ByRiskLevel     map[string]int `json:"byRiskLevel"`
}

type ReporterParams struct {
	fx.In

	Db       *mongo.Database
	Alerts   alerts.Repository
	Controls controls.Repository
	Logger   *zap.SugaredLogger
}

// Reporter aggregates the stored population into dashboard numbers.
type Reporter struct {
	patients *mongo.Collection
	alerts   alerts.Repository
	controls controls.Repository
	logger   *zap.SugaredLogger
}

func NewReporter(p ReporterParams) (*Reporter, error) {
	return &Reporter{
		patients: p.Db.Collection(patients.CollectionName),
		alerts:   p.Alerts,
		controls: p.Controls,
		logger:   p.Logger,
	}, nil
}

func (r *Reporter) Dashboard(ctx context.Context) (*Dashboard, error) {
	patientStats, err := r.patientStats(ctx)
	if err != nil {
		return nil, err
	}

	alertStats, err := r.alerts.Stats(ctx)
	if err != nil {
		return nil, err
	}

	controlStats, err := r.controls.Stats(ctx)
	if err != nil {
		return nil, err
	}

	return &Dashboard{
		Patients: *patientStats,
		Alerts:   *alertStats,
		Controls: *controlStats,
	}, nil
}

func (r *Reporter) patientStats(ctx context.Context) (*PatientStats, error) {
	stats := &PatientStats{
		ByAgeGroup:      map[string]int{},
		BySex:           map[string]int{},
		ByAttentionType: map[string]int{},
		ByRiskLevel:     map[string]int{},
	}

	counts := []struct {
		selector bson.M
		into     *int
	}{
		{bson.M{}, &stats.Total},
		{bson.M{"isActive": true}, &stats.Active},
		{bson.M{"isActive": true, "isContacted": true}, &stats.Contacted},
		{bson.M{"isActive": true, "isPregnant": true}, &stats.Pregnant},
		{bson.M{"isActive": true, "hasCardiovascularRisk": true}, &stats.WithCardiovascularRisk},
	}
	for _, count := range counts {
		total, err := r.patients.CountDocuments(ctx, count.selector)
		if err != nil {
			return nil, fmt.Errorf("error counting patients: %w", err)
		}
		*count.into = int(total)
	}

	if stats.Active > 0 {
		stats.ContactedRatio = float64(stats.Contacted) / float64(stats.Active)
	}

	groups := []struct {
		field string
		into  map[string]int
	}{
		{"$ageGroup", stats.ByAgeGroup},
		{"$sex", stats.BySex},
		{"$attentionType", stats.ByAttentionType},
		{"$cardiovascularRiskLevel", stats.ByRiskLevel},
	}
	for _, group := range groups {
		if err := r.groupCounts(ctx, group.field, group.into); err != nil {
			return nil, err
		}
	}

	return stats, nil
}

func (r *Reporter) groupCounts(ctx context.Context, field string, into map[string]int) error {
	pipeline := []bson.M{
		{"$match": bson.M{"isActive": true}},
		{"$group": bson.M{
			"_id":   field,
			"count": bson.M{"$sum": 1},
		}},
	}

	cursor, err := r.patients.Aggregate(ctx, pipeline)
	if err != nil {
		return fmt.Errorf("error aggregating patients by %s: %w", field, err)
	}

	var results []struct {
		Id    *string `bson:"_id"`
		Count int     `bson:"count"`
	}
	if err := cursor.All(ctx, &results); err != nil {
		return fmt.Errorf("error decoding patient counts: %w", err)
	}

	for _, result := range results {
		// Unset fields group under a nil key; those patients haven't been
		// classified yet and are left out of the breakdown.
		if result.Id == nil {
			continue
		}
		into[*result.Id] = result.Count
	}
	return nil
}
