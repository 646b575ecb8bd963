package processing

import "go.uber.org/zap"

const DefaultThreshold Reading = 3000

// Summary aggregates one snapshot of the sample log.
type Summary struct {
	Count         int
	Min           Reading
	Max           Reading
	Average       Reading
	Threshold     Reading
	OverThreshold int
}

// Summarize makes a single pass over readings. Average is the truncated integer
// mean. OverThreshold counts readings strictly above threshold.
func Summarize(readings []Reading, threshold Reading) Summary {
	summary := Summary{Count: len(readings), Threshold: threshold}
	if len(readings) == 0 {
		return summary
	}

	var sum uint32
	summary.Min = MaxReading
	for _, r := range readings {
		if r < summary.Min {
			summary.Min = r
		}
		if r > summary.Max {
			summary.Max = r
		}
		if r > threshold {
			summary.OverThreshold++
		}
		sum += uint32(r)
	}
	summary.Average = Reading(sum / uint32(len(readings)))

	return summary
}

func (s Summary) Fields() []zap.Field {
	return []zap.Field{
		zap.Int("count", s.Count),
		zap.Uint16("min", uint16(s.Min)),
		zap.Uint16("max", uint16(s.Max)),
		zap.Uint16("avg", uint16(s.Average)),
		zap.Uint16("threshold", uint16(s.Threshold)),
		zap.Int("overThreshold", s.OverThreshold),
	}
}

// Reporter receives every summary the summarizer produces.
type Reporter interface {
	Report(Summary)
}

// LogReporter writes summaries to the node log.
type LogReporter struct {
	logger *zap.Logger
}

func NewLogReporter(logger *zap.Logger) *LogReporter {
	return &LogReporter{logger: logger}
}

func (r *LogReporter) Report(s Summary) {
	r.logger.Info("[summarizer] log dump", s.Fields()...)
}
