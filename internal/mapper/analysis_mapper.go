package mapper

import (
	"encoding/json"

	"rravin-be/internal/entity"
	"rravin-be/internal/model"

	"gorm.io/datatypes"
)

type AnalysisMapper struct{}

func NewAnalysisMapper() *AnalysisMapper {
	return &AnalysisMapper{}
}

func (m *AnalysisMapper) AnalysisToEntity(a *model.Analysis) *entity.Analysis {
	if a == nil {
		return nil
	}

	keyMetrics := make([]entity.Metric, 0)
	if len(a.KeyMetrics) > 0 {
		_ = json.Unmarshal(a.KeyMetrics, &keyMetrics)
	}

	visualizations := make([]entity.Visualization, 0)
	if len(a.Visualizations) > 0 {
		_ = json.Unmarshal(a.Visualizations, &visualizations)
	}

	problems := make([]string, 0)
	if len(a.Problems) > 0 {
		_ = json.Unmarshal(a.Problems, &problems)
	}

	recommendations := make([]string, 0)
	if len(a.Recommendations) > 0 {
		_ = json.Unmarshal(a.Recommendations, &recommendations)
	}

	return &entity.Analysis{
		Id:              a.Id,
		SessionId:       a.SessionId,
		Summary:         a.Summary,
		KeyMetrics:      keyMetrics,
		Visualizations:  visualizations,
		Problems:        problems,
		Recommendations: recommendations,
		ExecutiveReport: a.ExecutiveReport,
		Instructions:    a.Instructions,
		CreatedAt:       a.CreatedAt,
	}
}

func (m *AnalysisMapper) AnalysisToModel(a *entity.Analysis) *model.Analysis {
	if a == nil {
		return nil
	}

	keyMetrics, _ := json.Marshal(a.KeyMetrics)
	visualizations, _ := json.Marshal(a.Visualizations)
	problems, _ := json.Marshal(a.Problems)
	recommendations, _ := json.Marshal(a.Recommendations)

	return &model.Analysis{
		Id:              a.Id,
		SessionId:       a.SessionId,
		Summary:         a.Summary,
		KeyMetrics:      datatypes.JSON(keyMetrics),
		Visualizations:  datatypes.JSON(visualizations),
		Problems:        datatypes.JSON(problems),
		Recommendations: datatypes.JSON(recommendations),
		ExecutiveReport: a.ExecutiveReport,
		Instructions:    a.Instructions,
		CreatedAt:       a.CreatedAt,
	}
}
