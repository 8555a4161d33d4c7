package artifact

import (
	"encoding/json"
	"strconv"
	"strings"

	"rravin-be/internal/apperror"
	"rravin-be/internal/entity"
)

// rawArtifact is the canonical decode target. Unknown fields in the LLM
// response fall away during unmarshalling; absent fields arrive as nil and
// are repaired below.
type rawArtifact struct {
	Summary         string             `json:"summary"`
	KeyMetrics      []rawMetric        `json:"key_metrics"`
	Visualizations  []rawVisualization `json:"visualizations"`
	Problems        []string           `json:"problems"`
	Recommendations []string           `json:"recommendations"`
	ExecutiveReport string             `json:"executive_report"`
}

type rawMetric struct {
	Name           string `json:"name"`
	Value          any    `json:"value"`
	Change         string `json:"change"`
	Trend          string `json:"trend"`
	Interpretation string `json:"description"`
}

type rawVisualization struct {
	Type        string           `json:"type"`
	Title       string           `json:"title"`
	Description string           `json:"description"`
	XKey        string           `json:"xKey"`
	YKey        string           `json:"yKey"`
	Data        []map[string]any `json:"data"`
}

// Validator normalizes untrusted LLM output into the canonical artifact
// shape. Repair is preferred over rejection: only a missing summary or
// executive report fails the whole response.
type Validator struct{}

func NewValidator() *Validator {
	return &Validator{}
}

// Validate parses and repairs one raw LLM response. The returned Analysis
// carries content fields only; ids and timestamps belong to the orchestrator.
func (v *Validator) Validate(response string) (*entity.Analysis, error) {
	cleaned := StripFences(response)

	var raw rawArtifact
	if err := json.Unmarshal([]byte(cleaned), &raw); err != nil {
		return nil, &apperror.MalformedAnalysisError{Reason: "response is not valid JSON: " + err.Error()}
	}

	if strings.TrimSpace(raw.Summary) == "" {
		return nil, &apperror.MalformedAnalysisError{Reason: "summary is empty"}
	}
	if strings.TrimSpace(raw.ExecutiveReport) == "" {
		return nil, &apperror.MalformedAnalysisError{Reason: "executive_report is empty"}
	}

	metrics := make([]entity.Metric, 0, len(raw.KeyMetrics))
	for _, m := range raw.KeyMetrics {
		metrics = append(metrics, entity.Metric{
			Name:           m.Name,
			Value:          stringifyValue(m.Value),
			Change:         m.Change,
			Trend:          normalizeTrend(m.Trend),
			Interpretation: m.Interpretation,
		})
	}

	visualizations := make([]entity.Visualization, 0, len(raw.Visualizations))
	for _, viz := range raw.Visualizations {
		visualizations = append(visualizations, repairVisualization(viz))
	}

	problems := raw.Problems
	if problems == nil {
		problems = make([]string, 0)
	}
	recommendations := raw.Recommendations
	if recommendations == nil {
		recommendations = make([]string, 0)
	}

	return &entity.Analysis{
		Summary:         raw.Summary,
		KeyMetrics:      metrics,
		Visualizations:  visualizations,
		Problems:        problems,
		Recommendations: recommendations,
		ExecutiveReport: raw.ExecutiveReport,
	}, nil
}

func repairVisualization(raw rawVisualization) entity.Visualization {
	vizType := strings.ToLower(strings.TrimSpace(raw.Type))
	switch vizType {
	case entity.VisualizationTypeBar,
		entity.VisualizationTypeLine,
		entity.VisualizationTypeArea,
		entity.VisualizationTypePie,
		entity.VisualizationTypeComposed:
		// recognized
	default:
		vizType = entity.VisualizationTypeBar
	}

	xKey := strings.TrimSpace(raw.XKey)
	if xKey == "" {
		xKey = "name"
	}
	yKey := strings.TrimSpace(raw.YKey)
	if yKey == "" {
		yKey = "value"
	}

	data := raw.Data
	if data == nil {
		data = make([]map[string]any, 0)
	}

	return entity.Visualization{
		Type:        vizType,
		Title:       raw.Title,
		Description: raw.Description,
		XKey:        xKey,
		YKey:        yKey,
		Data:        data,
	}
}

func normalizeTrend(trend string) string {
	switch strings.ToLower(strings.TrimSpace(trend)) {
	case "up", "increasing":
		return entity.TrendUp
	case "down", "decreasing":
		return entity.TrendDown
	case "flat", "stable", "steady":
		return entity.TrendFlat
	default:
		return ""
	}
}

// stringifyValue keeps metric values as display strings even when the model
// emits bare numbers.
func stringifyValue(value any) string {
	switch v := value.(type) {
	case nil:
		return ""
	case string:
		return v
	case float64:
		// JSON numbers always decode to float64
		return strconv.FormatFloat(v, 'f', -1, 64)
	default:
		b, err := json.Marshal(v)
		if err != nil {
			return ""
		}
		return string(b)
	}
}

// StripFences removes a markdown code fence wrapper if the model ignored the
// JSON-only instruction.
func StripFences(response string) string {
	text := strings.TrimSpace(response)
	if !strings.HasPrefix(text, "```") {
		return text
	}
	text = strings.TrimPrefix(text, "```")
	if idx := strings.Index(text, "\n"); idx >= 0 {
		first := strings.TrimSpace(text[:idx])
		if first == "json" || first == "" {
			text = text[idx+1:]
		}
	} else {
		text = strings.TrimPrefix(text, "json")
	}
	if idx := strings.LastIndex(text, "```"); idx >= 0 {
		text = text[:idx]
	}
	return strings.TrimSpace(text)
}
