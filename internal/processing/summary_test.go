package processing

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func fixture(groups ...[2]int) []Reading {
	var out []Reading
	for _, g := range groups {
		for i := 0; i < g[0]; i++ {
			out = append(out, Reading(g[1]))
		}
	}
	return out
}

func TestSummarize(t *testing.T) {
	tests := []struct {
		name     string
		readings []Reading
		want     Summary
	}{
		{
			name:     "constant",
			readings: fixture([2]int{50, 2000}),
			want:     Summary{Count: 50, Min: 2000, Max: 2000, Average: 2000, Threshold: 3000},
		},
		{
			name:     "mixed above threshold",
			readings: fixture([2]int{10, 3500}, [2]int{40, 1000}),
			want:     Summary{Count: 50, Min: 1000, Max: 3500, Average: 1500, Threshold: 3000, OverThreshold: 10},
		},
		{
			name:     "threshold itself is not over",
			readings: fixture([2]int{49, 3000}, [2]int{1, 3001}),
			want:     Summary{Count: 50, Min: 3000, Max: 3001, Average: 3000, Threshold: 3000, OverThreshold: 1},
		},
		{
			name:     "unprimed log includes zeros",
			readings: fixture([2]int{3, 4095}, [2]int{47, 0}),
			want:     Summary{Count: 50, Min: 0, Max: 4095, Average: 245, Threshold: 3000, OverThreshold: 3},
		},
		{
			name:     "empty",
			readings: nil,
			want:     Summary{Threshold: 3000},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Summarize(tt.readings, DefaultThreshold))
		})
	}
}

func TestLogReporter(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	reporter := NewLogReporter(zap.New(core))

	reporter.Report(Summarize(fixture([2]int{10, 3500}, [2]int{40, 1000}), DefaultThreshold))

	entries := logs.FilterMessage("[summarizer] log dump").All()
	if assert.Len(t, entries, 1) {
		fields := entries[0].ContextMap()
		assert.EqualValues(t, 50, fields["count"])
		assert.EqualValues(t, 1000, fields["min"])
		assert.EqualValues(t, 3500, fields["max"])
		assert.EqualValues(t, 1500, fields["avg"])
		assert.EqualValues(t, 3000, fields["threshold"])
		assert.EqualValues(t, 10, fields["overThreshold"])
	}
}
