package tabular

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"
)

type CSVSummarizer struct {
	SampleRows int
}

var _ Summarizer = &CSVSummarizer{}

func NewCSVSummarizer(sampleRows int) *CSVSummarizer {
	if sampleRows <= 0 {
		sampleRows = 50
	}
	return &CSVSummarizer{SampleRows: sampleRows}
}

func (s *CSVSummarizer) Summarize(ctx context.Context, filename string, r io.Reader) (*Summary, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1 // tolerate ragged rows

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("read header of %s: %w", filename, err)
	}

	columnNames := make([]string, len(header))
	for i, h := range header {
		columnNames[i] = strings.TrimSpace(h)
	}

	numeric := make([]bool, len(header))
	for i := range numeric {
		numeric[i] = true
	}

	var sample [][]string
	rows := 0
	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read %s row %d: %w", filename, rows+1, err)
		}
		rows++
		for i, v := range record {
			if i >= len(numeric) || v == "" {
				continue
			}
			if _, convErr := strconv.ParseFloat(strings.TrimSpace(v), 64); convErr != nil {
				numeric[i] = false
			}
		}
		if len(sample) < s.SampleRows {
			sample = append(sample, record)
		}
	}

	columnTypes := make([]string, len(header))
	for i := range columnTypes {
		if numeric[i] {
			columnTypes[i] = "number"
		} else {
			columnTypes[i] = "text"
		}
	}

	var b strings.Builder
	w := csv.NewWriter(&b)
	_ = w.Write(columnNames)
	for _, record := range sample {
		_ = w.Write(record)
	}
	w.Flush()

	return &Summary{
		Filename:    filename,
		Rows:        rows,
		Columns:     len(header),
		ColumnNames: columnNames,
		ColumnTypes: columnTypes,
		SamplePlain: b.String(),
	}, nil
}
