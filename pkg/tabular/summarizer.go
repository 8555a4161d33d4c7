package tabular

import (
	"context"
	"io"
)

// Summary is the bounded description of one tabular file that goes into the
// analysis prompt. Raw datasets never reach the LLM; only column metadata and
// a capped sample of rows do.
type Summary struct {
	Filename    string
	Rows        int
	Columns     int
	ColumnNames []string
	ColumnTypes []string // "number" | "text", parallel to ColumnNames
	SamplePlain string   // CSV rendering of the first SampleRows rows
}

// Summarizer turns raw file bytes into a Summary. Implementations are keyed
// by file kind ("csv", "xlsx"); parsing is a collaborator concern, the
// orchestrator only consumes summaries.
type Summarizer interface {
	Summarize(ctx context.Context, filename string, r io.Reader) (*Summary, error)
}

// Registry resolves a Summarizer for a file kind.
type Registry struct {
	byKind map[string]Summarizer
}

func NewRegistry() *Registry {
	return &Registry{byKind: make(map[string]Summarizer)}
}

func (r *Registry) Register(kind string, s Summarizer) {
	r.byKind[kind] = s
}

func (r *Registry) For(kind string) (Summarizer, bool) {
	s, ok := r.byKind[kind]
	return s, ok
}
