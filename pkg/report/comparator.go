// Package report turns audit records into per-trial comparisons: success
// rates, fallback rescues, and latency percentiles, with rankings and a
// terminal renderer.
package report

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/odvcencio/crossover/pkg/audit"
)

// Comparator analyzes audit records and computes trial rankings.
type Comparator struct {
	store *audit.Store
}

// ComparisonReport summarizes trial behavior for one contract.
type ComparisonReport struct {
	Contract         string
	GeneratedAt      time.Time
	TotalInvocations int
	Recovered        int
	Failed           int
	Trials           []TrialReport
	Rankings         []Ranking
	Summary          string
}

// TrialReport captures per-trial aggregates over the analyzed window.
type TrialReport struct {
	Key         string
	Selected    int
	Answered    int
	Attempts    int
	Failures    int
	Rescues     int
	SuccessRate float64
	MeanMs      float64
	P50Ms       int64
	P95Ms       int64
}

// Ranking orders trials best-first.
type Ranking struct {
	Key   string
	Score float64
	Rank  int
}

// NewComparator constructs a comparator over an audit store.
func NewComparator(store *audit.Store) *Comparator {
	if store == nil {
		return nil
	}
	return &Comparator{store: store}
}

// Compare loads up to limit recent records for the contract and aggregates
// them per trial. A zero limit analyzes everything on file.
func (c *Comparator) Compare(contract string, limit int) (*ComparisonReport, error) {
	if c == nil || c.store == nil {
		return nil, audit.ErrStoreUnavailable
	}
	if strings.TrimSpace(contract) == "" {
		return nil, errors.New("contract is required")
	}

	records, err := c.store.List(contract, limit)
	if err != nil {
		return nil, err
	}

	report := &ComparisonReport{
		Contract:         contract,
		GeneratedAt:      time.Now(),
		TotalInvocations: len(records),
	}

	type bucket struct {
		trial     TrialReport
		durations []int64
	}
	buckets := make(map[string]*bucket)
	trialBucket := func(key string) *bucket {
		b, ok := buckets[key]
		if !ok {
			b = &bucket{trial: TrialReport{Key: key}}
			buckets[key] = b
		}
		return b
	}

	for _, rec := range records {
		switch rec.Status {
		case audit.StatusRecovered:
			report.Recovered++
		case audit.StatusFailed:
			report.Failed++
		}

		trialBucket(rec.SelectedKey).trial.Selected++
		if rec.Status != audit.StatusFailed {
			answered := trialBucket(rec.FinalKey)
			answered.trial.Answered++
			if rec.FinalKey != rec.SelectedKey {
				answered.trial.Rescues++
			}
		}

		for _, attempt := range rec.Attempts {
			b := trialBucket(attempt.Key)
			b.trial.Attempts++
			if attempt.Error != "" {
				b.trial.Failures++
			} else {
				b.durations = append(b.durations, attempt.DurationMs)
			}
		}
	}

	for _, b := range buckets {
		t := b.trial
		if t.Attempts > 0 {
			t.SuccessRate = float64(t.Attempts-t.Failures) / float64(t.Attempts)
		}
		t.MeanMs = mean(b.durations)
		t.P50Ms = percentile(b.durations, 0.50)
		t.P95Ms = percentile(b.durations, 0.95)
		report.Trials = append(report.Trials, t)
	}
	sort.Slice(report.Trials, func(i, j int) bool {
		return report.Trials[i].Key < report.Trials[j].Key
	})

	report.Rankings = rankTrials(report.Trials)
	report.Summary = summarize(report)
	return report, nil
}

func rankTrials(trials []TrialReport) []Ranking {
	if len(trials) == 0 {
		return nil
	}

	ordered := make([]TrialReport, len(trials))
	copy(ordered, trials)
	sort.Slice(ordered, func(i, j int) bool {
		if ordered[i].SuccessRate != ordered[j].SuccessRate {
			return ordered[i].SuccessRate > ordered[j].SuccessRate
		}
		if ordered[i].P50Ms != ordered[j].P50Ms {
			return ordered[i].P50Ms < ordered[j].P50Ms
		}
		return ordered[i].Key < ordered[j].Key
	})

	rankings := make([]Ranking, 0, len(ordered))
	for i, t := range ordered {
		rankings = append(rankings, Ranking{Key: t.Key, Score: t.SuccessRate, Rank: i + 1})
	}
	return rankings
}

func summarize(report *ComparisonReport) string {
	if len(report.Rankings) == 0 {
		return ""
	}
	best := report.Rankings[0]
	return fmt.Sprintf("Best trial: %s (%.1f%% success)", best.Key, best.Score*100)
}

func findTrialReport(trials []TrialReport, key string) *TrialReport {
	for i := range trials {
		if trials[i].Key == key {
			return &trials[i]
		}
	}
	return nil
}

func mean(values []int64) float64 {
	if len(values) == 0 {
		return 0
	}
	var sum int64
	for _, v := range values {
		sum += v
	}
	return float64(sum) / float64(len(values))
}

// percentile uses nearest-rank on a sorted copy.
func percentile(values []int64, p float64) int64 {
	if len(values) == 0 {
		return 0
	}
	sorted := make([]int64, len(values))
	copy(sorted, values)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })

	idx := int(p * float64(len(sorted)-1))
	if idx < 0 {
		idx = 0
	}
	if idx >= len(sorted) {
		idx = len(sorted) - 1
	}
	return sorted[idx]
}

func formatDurationMs(ms int64) string {
	if ms <= 0 {
		return "-"
	}
	if ms < 1000 {
		return fmt.Sprintf("%dms", ms)
	}
	return fmt.Sprintf("%.1fs", float64(ms)/1000)
}
