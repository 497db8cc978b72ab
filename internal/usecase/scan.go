package usecase

import (
	"context"
	"errors"
	"sort"
	"sync"

	"StockSage/internal/domain/models"
	drepo "StockSage/internal/domain/repository"
	dservice "StockSage/internal/domain/service"
	applogger "StockSage/pkg/logger"
)

// ScanFailure reports one symbol that could not be analyzed during a scan.
type ScanFailure struct {
	Symbol string `json:"symbol"`
	Reason string `json:"reason"`
}

// ScanResult is the outcome of one universe scan.
type ScanResult struct {
	Recommendations []models.Recommendation `json:"recommendations"`
	Failures        []ScanFailure           `json:"failures,omitempty"`
	Scanned         int                     `json:"scanned"`
}

// Recommendations analyzes the configured universe concurrently and returns
// the strongest actionable recommendations matching the requested tolerance.
// Per-symbol failures are collected, not fatal.
func (a *Advisor) Recommendations(ctx context.Context, tolerance models.RiskTier, max int, exclude []string) (ScanResult, error) {
	symbols := a.scanUniverse(exclude)
	if len(symbols) == 0 {
		return ScanResult{}, nil
	}

	type outcome struct {
		rec     models.Recommendation
		failure *ScanFailure
	}

	jobs := make(chan string)
	results := make(chan outcome, len(symbols))

	workers := a.cfg.BatchWorkers
	if workers <= 0 || workers > len(symbols) {
		workers = len(symbols)
	}

	var wg sync.WaitGroup
	wg.Add(workers)
	for i := 0; i < workers; i++ {
		go func() {
			defer wg.Done()
			for symbol := range jobs {
				analysis, err := a.Analyze(ctx, symbol, tolerance, drepo.Period1Year)
				if err != nil {
					results <- outcome{failure: &ScanFailure{Symbol: symbol, Reason: scanReason(err)}}
					continue
				}
				results <- outcome{rec: analysis.Recommendation}
			}
		}()
	}

	go func() {
		defer close(jobs)
		for _, s := range symbols {
			select {
			case jobs <- s:
			case <-ctx.Done():
				return
			}
		}
	}()

	go func() {
		wg.Wait()
		close(results)
	}()

	res := ScanResult{Scanned: len(symbols)}
	for o := range results {
		if o.failure != nil {
			res.Failures = append(res.Failures, *o.failure)
			if a.log != nil {
				a.log.Warn("scan skipped symbol",
					applogger.String("symbol", o.failure.Symbol),
					applogger.String("reason", o.failure.Reason),
				)
			}
			if a.metrics != nil {
				a.metrics.RecordError("scan_symbol")
			}
			continue
		}
		if o.rec.Action == models.ActionHold || o.rec.RiskTier != tolerance {
			continue
		}
		res.Recommendations = append(res.Recommendations, o.rec)
	}

	sort.SliceStable(res.Recommendations, func(i, j int) bool {
		return res.Recommendations[i].Confidence > res.Recommendations[j].Confidence
	})
	if max > 0 && len(res.Recommendations) > max {
		res.Recommendations = res.Recommendations[:max]
	}
	return res, ctx.Err()
}

// scanUniverse applies exclusions and the batch cap to the configured symbols.
func (a *Advisor) scanUniverse(exclude []string) []string {
	skip := make(map[string]struct{}, len(exclude))
	for _, s := range exclude {
		skip[s] = struct{}{}
	}
	out := make([]string, 0, len(a.universe))
	for _, s := range a.universe {
		if _, ok := skip[s]; ok {
			continue
		}
		out = append(out, s)
		if len(out) == a.cfg.MaxBatchSymbols {
			break
		}
	}
	return out
}

func scanReason(err error) string {
	var extErr *dservice.ExternalError
	if errors.As(err, &extErr) {
		return extErr.Op + ": " + extErr.Err.Error()
	}
	return err.Error()
}
