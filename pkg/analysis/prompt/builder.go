package prompt

import (
	"encoding/json"
	"fmt"
	"strings"

	"rravin-be/internal/entity"
	"rravin-be/pkg/tabular"
)

const analystSystemMessage = "You are rravin, an expert AI data analyst. Always respond with valid JSON only, no markdown formatting."

const responseSchema = `{
    "summary": "A clear 2-3 paragraph executive summary of the data and key findings",
    "key_metrics": [
        {"name": "Metric Name", "value": "Value", "change": "+/-X%", "trend": "up/down/flat", "description": "Brief description"}
    ],
    "visualizations": [
        {"type": "bar/line/pie/area/composed", "title": "Chart Title", "data": [{"name": "Label", "value": 100}], "xKey": "name", "yKey": "value", "description": "What this chart shows"}
    ],
    "problems": ["List of identified issues or anomalies in the data"],
    "recommendations": ["Actionable recommendations based on the analysis"],
    "executive_report": "A formal executive report suitable for stakeholders (3-5 paragraphs)"
}`

// AnalysisBuilder assembles the single prompt an analyze call sends to the
// LLM: bounded file summaries plus optional user instructions, shaped to the
// artifact schema.
type AnalysisBuilder struct {
	summaries    []*tabular.Summary
	instructions string
}

func NewAnalysisBuilder(summaries []*tabular.Summary, instructions string) *AnalysisBuilder {
	return &AnalysisBuilder{
		summaries:    summaries,
		instructions: instructions,
	}
}

func (b *AnalysisBuilder) SystemMessage() string {
	return analystSystemMessage
}

// Build renders the analysis prompt. strict repeats the schema contract after
// a malformed first response.
func (b *AnalysisBuilder) Build(strict bool) string {
	var prompt strings.Builder

	prompt.WriteString("You are rravin, an expert AI data analyst. Analyze the following dataset(s) and provide a comprehensive report.\n\n")

	if b.instructions != "" {
		prompt.WriteString(b.instructions)
	} else {
		prompt.WriteString("Perform a comprehensive data analysis")
	}
	prompt.WriteString("\n\nDATA:\n")
	b.writeDataContext(&prompt)

	prompt.WriteString("\nRespond with a JSON object containing these exact keys:\n")
	prompt.WriteString(responseSchema)
	prompt.WriteString("\n\nEnsure:\n")
	prompt.WriteString("1. Key metrics include at least 4-6 important metrics with realistic values from the data\n")
	prompt.WriteString("2. Visualizations include at least 3-4 different chart types with actual data points\n")
	prompt.WriteString("3. Problems are specific and data-driven\n")
	prompt.WriteString("4. Recommendations are actionable and prioritized\n")
	prompt.WriteString("5. Executive report is professional and insightful\n")

	if strict {
		prompt.WriteString("\nIMPORTANT: your previous response could not be parsed. ")
		prompt.WriteString("Reply with exactly one JSON object matching the schema above. ")
		prompt.WriteString("Both \"summary\" and \"executive_report\" must be non-empty strings. ")
		prompt.WriteString("Do not wrap the JSON in markdown fences or add any text outside it.\n")
	}

	return prompt.String()
}

func (b *AnalysisBuilder) writeDataContext(prompt *strings.Builder) {
	for i, s := range b.summaries {
		if i > 0 {
			prompt.WriteString("\n\n")
		}
		fmt.Fprintf(prompt, "=== FILE: %s ===\n", s.Filename)
		fmt.Fprintf(prompt, "Columns: %s\n", strings.Join(s.ColumnNames, ", "))
		fmt.Fprintf(prompt, "Shape: (%d, %d)\n", s.Rows, s.Columns)
		prompt.WriteString("Data Types:\n")
		for j, name := range s.ColumnNames {
			colType := "text"
			if j < len(s.ColumnTypes) {
				colType = s.ColumnTypes[j]
			}
			fmt.Fprintf(prompt, "  %s: %s\n", name, colType)
		}
		prompt.WriteString("\nData Preview:\n")
		prompt.WriteString(s.SamplePlain)
	}
}

// ChatBuilder assembles the context-grounded prompt for a follow-up question:
// the latest artifact as reference material plus a bounded window of
// completed turns.
type ChatBuilder struct {
	analysis *entity.Analysis
	history  []*entity.ChatTurn
}

func NewChatBuilder(analysis *entity.Analysis, history []*entity.ChatTurn) *ChatBuilder {
	return &ChatBuilder{
		analysis: analysis,
		history:  history,
	}
}

func (b *ChatBuilder) SystemMessage() string {
	var prompt strings.Builder

	prompt.WriteString("You are rravin, an expert AI data analyst assistant. You have analyzed the user's data and are here to answer follow-up questions.\n\n")
	prompt.WriteString("Previous Analysis Context:\n")
	b.writeAnalysisContext(&prompt)
	prompt.WriteString("\nBe helpful, specific, and provide data-driven answers. ")
	prompt.WriteString("If the user asks for something not possible with the available data, explain why and suggest alternatives.")

	return prompt.String()
}

func (b *ChatBuilder) writeAnalysisContext(prompt *strings.Builder) {
	fmt.Fprintf(prompt, "Summary: %s\n", b.analysis.Summary)

	metricsJson, err := json.Marshal(b.analysis.KeyMetrics)
	if err == nil {
		fmt.Fprintf(prompt, "Key Metrics: %s\n", string(metricsJson))
	}

	fmt.Fprintf(prompt, "Problems: %s\n", strings.Join(b.analysis.Problems, "; "))
	fmt.Fprintf(prompt, "Recommendations: %s\n", strings.Join(b.analysis.Recommendations, "; "))
}

// History maps the turn window into alternating user/assistant messages,
// oldest first, ready to precede the new question.
func (b *ChatBuilder) History() [][2]string {
	pairs := make([][2]string, 0, len(b.history))
	for _, turn := range b.history {
		pairs = append(pairs, [2]string{turn.UserMessage, turn.AiResponse})
	}
	return pairs
}
