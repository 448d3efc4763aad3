package store

import (
	"context"
	"encoding/json"

	"insight-service/internal/model"

	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const (
	seedReportKey    = "demo-report"
	SeedUserID       = "demo-user"
	SeedAddress      = "123 Main Street, Springfield, IL 62701"
	SeedBusinessType = "Coffee Shop"
)

// SeedDemoReport guarantees exactly one demonstration report exists so the UI
// has non-empty initial content. The insert is keyed on a unique seed marker
// and ignores conflicts, so concurrent process startups cannot produce
// duplicates.
func SeedDemoReport(ctx context.Context, db *gorm.DB) error {
	data, err := json.Marshal(seedAnalysisData())
	if err != nil {
		return err
	}

	name := "Demo: Springfield Coffee Shop"
	seedKey := seedReportKey
	report := model.Report{
		UserID:       SeedUserID,
		Name:         &name,
		Address:      SeedAddress,
		BusinessType: SeedBusinessType,
		Data:         datatypes.JSON(data),
		SeedKey:      &seedKey,
	}

	return db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "seed_key"}},
		DoNothing: true,
	}).Create(&report).Error
}

func seedAnalysisData() model.AnalysisData {
	return model.AnalysisData{
		MarketSize: model.MarketSize{
			TAM: model.MarketMetric{Value: 12500000, Description: "Total annual coffee and café spend within the metro area"},
			SAM: model.MarketMetric{Value: 3400000, Description: "Annual spend reachable within a 5-mile radius"},
			SOM: model.MarketMetric{Value: 480000, Description: "Realistic first-year capture given local competition"},
		},
		Demographics: model.Demographics{
			Population:   84200,
			MedianIncome: 58400,
			AgeGroups: []model.AgeGroup{
				{Range: "18-24", Percentage: 14},
				{Range: "25-34", Percentage: 26},
				{Range: "35-44", Percentage: 21},
				{Range: "45-64", Percentage: 27},
				{Range: "65+", Percentage: 12},
			},
			Description: "A mixed downtown and residential area with a strong commuter and student presence",
		},
		Psychographics: model.Psychographics{
			Interests:      []string{"specialty coffee", "local events", "remote work", "fitness"},
			Lifestyle:      "Busy professionals and students who value convenience and quality",
			BuyingBehavior: "Frequent small purchases, loyalty-program responsive, peak spend on weekday mornings",
		},
		Weather: model.WeatherOutlook{
			SeasonalTrends:   "Cold winters drive hot-drink demand; mild summers favor iced beverages and patio seating",
			ImpactOnBusiness: "Expect 20-30% seasonal swing between winter and summer beverage mix",
		},
		Traffic: model.TrafficProfile{
			TypicalTraffic: "Heavy weekday commuter flow along Main Street with steady weekend foot traffic",
			Challenges:     []string{"limited street parking", "morning congestion at the Main/5th intersection"},
			PeakHours:      "7-9am weekdays, 10am-1pm weekends",
		},
	}
}
