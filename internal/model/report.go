package model

import (
	"time"

	"gorm.io/datatypes"
)

// Report represents a persisted hyperlocal market-analysis record. Data is
// stored as an opaque JSON blob once it has been validated at creation time.
type Report struct {
	ID           uint           `json:"id" gorm:"primaryKey"`
	UserID       string         `json:"userId" gorm:"type:varchar(255);index;not null"`
	Name         *string        `json:"name" gorm:"type:varchar(255)"`
	Address      string         `json:"address" gorm:"type:text;not null"`
	BusinessType string         `json:"businessType" gorm:"type:varchar(100);not null"`
	Data         datatypes.JSON `json:"data" gorm:"type:jsonb;not null"`
	SeedKey      *string        `json:"-" gorm:"type:varchar(50);uniqueIndex"`
	CreatedAt    time.Time      `json:"createdAt"`
}

// MarketMetric is one market-sizing figure with its explanation.
type MarketMetric struct {
	Value       float64 `json:"value"`
	Description string  `json:"description" validate:"required"`
}

// MarketSize holds the TAM/SAM/SOM breakdown.
type MarketSize struct {
	TAM MarketMetric `json:"tam"`
	SAM MarketMetric `json:"sam"`
	SOM MarketMetric `json:"som"`
}

// AgeGroup is one slice of the local age distribution.
type AgeGroup struct {
	Range      string  `json:"range" validate:"required"`
	Percentage float64 `json:"percentage"`
}

// Demographics describes the local population around the analyzed address.
type Demographics struct {
	Population   float64    `json:"population"`
	MedianIncome float64    `json:"medianIncome"`
	AgeGroups    []AgeGroup `json:"ageGroups" validate:"required,dive"`
	Description  string     `json:"description" validate:"required"`
}

// Psychographics describes local consumer interests and behavior.
type Psychographics struct {
	Interests      []string `json:"interests" validate:"required"`
	Lifestyle      string   `json:"lifestyle" validate:"required"`
	BuyingBehavior string   `json:"buyingBehavior" validate:"required"`
}

// WeatherOutlook describes seasonal weather effects on the business.
type WeatherOutlook struct {
	SeasonalTrends   string `json:"seasonalTrends" validate:"required"`
	ImpactOnBusiness string `json:"impactOnBusiness" validate:"required"`
}

// TrafficProfile describes local foot/vehicle traffic around the address.
type TrafficProfile struct {
	TypicalTraffic string   `json:"typicalTraffic" validate:"required"`
	Challenges     []string `json:"challenges" validate:"required"`
	PeakHours      string   `json:"peakHours" validate:"required"`
}

// AnalysisData is the contract the report-viewing client renders against.
// Numeric ranges are deliberately unchecked; presence of every section and
// every text field is.
type AnalysisData struct {
	MarketSize     MarketSize     `json:"marketSize"`
	Demographics   Demographics   `json:"demographics"`
	Psychographics Psychographics `json:"psychographics"`
	Weather        WeatherOutlook `json:"weather"`
	Traffic        TrafficProfile `json:"traffic"`
}

// LiveWeather is the current weather snapshot for a report's location.
type LiveWeather struct {
	Temp      float64 `json:"temp"`
	Condition string  `json:"condition" validate:"required"`
	Impact    string  `json:"impact" validate:"required"`
}

// LiveTraffic is the current traffic snapshot for a report's location.
type LiveTraffic struct {
	Status          string `json:"status" validate:"required"`
	Delay           string `json:"delay"`
	NotablePatterns string `json:"notablePatterns"`
}

// NewsItem is one local news headline relevant to the business.
type NewsItem struct {
	Title    string `json:"title" validate:"required"`
	Source   string `json:"source"`
	Summary  string `json:"summary"`
	Date     string `json:"date"`
	Category string `json:"category"`
}

// LiveInsight is an ephemeral weather/traffic/news snapshot. It is generated
// on demand for an existing report and never persisted.
type LiveInsight struct {
	Weather LiveWeather `json:"weather"`
	Traffic LiveTraffic `json:"traffic"`
	News    []NewsItem  `json:"news" validate:"required,dive"`
}
