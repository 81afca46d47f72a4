package model

import "gorm.io/datatypes"

// PredictionModel maps to 'price_predictions'. CreatedAt is unix milliseconds.
type PredictionModel struct {
	ID               int64          `gorm:"column:id;primaryKey;autoIncrement"`
	Symbol           string         `gorm:"column:symbol;size:20;not null;index:idx_prediction_symbol_created,priority:1"`
	Direction        string         `gorm:"column:prediction;size:16;not null"`
	Confidence       float64        `gorm:"column:confidence"`
	SentimentSummary datatypes.JSON `gorm:"column:sentiment_summary"`
	Reasoning        string         `gorm:"column:reasoning"`
	KeyFactors       datatypes.JSON `gorm:"column:key_factors"`
	NewsAnalyzed     int            `gorm:"column:news_analyzed"`
	ModelVersion     string         `gorm:"column:model_version;size:64"`
	CreatedAt        int64          `gorm:"column:created_at;not null;index:idx_prediction_symbol_created,priority:2"`
}

func (PredictionModel) TableName() string { return "price_predictions" }
