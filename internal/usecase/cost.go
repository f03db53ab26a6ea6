package usecase

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/leadfunnel/opportunity-analyzer/internal/domain"
	"github.com/leadfunnel/opportunity-analyzer/internal/observability"
)

// AlertLevel classifies a budget threshold alert.
type AlertLevel string

// Alert levels emitted by the accountant.
const (
	AlertWarning  AlertLevel = "warning"
	AlertCritical AlertLevel = "critical"
)

// Alert signals that the day's accumulated cost sits above a configured
// fraction of the daily budget. Purely advisory.
type Alert struct {
	Level   AlertLevel `json:"level"`
	Day     string     `json:"day"`
	CostUSD float64    `json:"cost_usd"`
	Budget  float64    `json:"budget_usd"`
	Model   string     `json:"model"`
}

// UsageRecord is the per-calendar-day aggregate of provider usage.
type UsageRecord struct {
	Day              string  `json:"day"`
	Requests         int     `json:"requests"`
	PromptTokens     int     `json:"prompt_tokens"`
	CompletionTokens int     `json:"completion_tokens"`
	CostUSD          float64 `json:"cost_usd"`
	LastModel        string  `json:"last_model"`
}

type modelRate struct {
	inPerM  float64 // USD per 1M prompt tokens
	outPerM float64 // USD per 1M completion tokens
}

// modelRates is the static pricing lookup. Unknown model ids fall back to
// the cheapest known rate so cost is never overstated by a lookup miss.
var modelRates = map[string]modelRate{
	"openai/gpt-4o":                      {inPerM: 2.50, outPerM: 10.00},
	"openai/gpt-4o-mini":                 {inPerM: 0.15, outPerM: 0.60},
	"anthropic/claude-3.5-sonnet":        {inPerM: 3.00, outPerM: 15.00},
	"mistralai/Mistral-7B-Instruct-v0.3": {inPerM: 0.06, outPerM: 0.06},
}

var cheapestRate = modelRate{inPerM: 0.06, outPerM: 0.06}

const (
	usageKeyPrefix = "usage:"
	usageRetention = 30 * 24 * time.Hour
	usageDayF      = "2006-01-02"
)

// CostAccountant tracks estimated spend per calendar day in an injected
// store and raises threshold alerts against a configured daily budget.
// It sits outside the analysis control path: a store failure surfaces as
// an error to the caller's log and nothing else.
type CostAccountant struct {
	store     domain.UsageStore
	budgetUSD float64
	warnRatio float64
	critRatio float64

	// now is swapped in tests to pin the calendar day.
	now func() time.Time

	// mu serializes the read-modify-write of the day record within this
	// process. Cross-process races are accepted drift.
	mu sync.Mutex
}

// NewCostAccountant wires an accountant to a usage store and budget.
func NewCostAccountant(store domain.UsageStore, budgetUSD, warnRatio, critRatio float64) *CostAccountant {
	return &CostAccountant{
		store:     store,
		budgetUSD: budgetUSD,
		warnRatio: warnRatio,
		critRatio: critRatio,
		now:       time.Now,
	}
}

// EstimateCost computes the monetary cost of a single call.
func EstimateCost(model string, usage domain.TokenUsage) float64 {
	rate, ok := modelRates[model]
	if !ok {
		rate = cheapestRate
	}
	return float64(usage.PromptTokens)/1e6*rate.inPerM +
		float64(usage.CompletionTokens)/1e6*rate.outPerM
}

// Record appends one completed call's usage to the current day's
// aggregate and returns a critical alert when accumulated cost sits at or
// above the critical fraction of the daily budget, a warning at or above
// the warn fraction, and nil below both.
func (a *CostAccountant) Record(ctx context.Context, model string, usage domain.TokenUsage) (*Alert, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	day := a.now().UTC().Format(usageDayF)
	key := usageKeyPrefix + day

	rec := UsageRecord{Day: day}
	if raw, err := a.store.Get(ctx, key); err == nil {
		if err := json.Unmarshal(raw, &rec); err != nil {
			// A corrupt record is advisory data; start the day over.
			rec = UsageRecord{Day: day}
		}
	}

	rec.Requests++
	rec.PromptTokens += usage.PromptTokens
	rec.CompletionTokens += usage.CompletionTokens
	rec.CostUSD += EstimateCost(model, usage)
	rec.LastModel = model

	raw, err := json.Marshal(rec)
	if err != nil {
		return nil, fmt.Errorf("op=cost.Record: marshal: %w", err)
	}
	if err := a.store.Set(ctx, key, raw, usageRetention); err != nil {
		return nil, fmt.Errorf("op=cost.Record: %w", err)
	}
	a.prune(ctx)

	observability.DailyCostUSD.Set(rec.CostUSD)

	alert := a.alertFor(rec, model)
	if alert != nil {
		observability.BudgetAlertsTotal.WithLabelValues(string(alert.Level)).Inc()
	}
	return alert, nil
}

// Today returns the current day's aggregate, zero-valued when absent.
func (a *CostAccountant) Today(ctx context.Context) (UsageRecord, error) {
	day := a.now().UTC().Format(usageDayF)
	raw, err := a.store.Get(ctx, usageKeyPrefix+day)
	if err != nil {
		return UsageRecord{Day: day}, nil
	}
	var rec UsageRecord
	if err := json.Unmarshal(raw, &rec); err != nil {
		return UsageRecord{Day: day}, fmt.Errorf("op=cost.Today: %w", err)
	}
	return rec, nil
}

func (a *CostAccountant) alertFor(rec UsageRecord, model string) *Alert {
	if a.budgetUSD <= 0 {
		return nil
	}
	ratio := rec.CostUSD / a.budgetUSD
	switch {
	case ratio >= a.critRatio:
		return &Alert{Level: AlertCritical, Day: rec.Day, CostUSD: rec.CostUSD, Budget: a.budgetUSD, Model: model}
	case ratio >= a.warnRatio:
		return &Alert{Level: AlertWarning, Day: rec.Day, CostUSD: rec.CostUSD, Budget: a.budgetUSD, Model: model}
	}
	return nil
}

// prune drops day records past retention. Stores with native TTL expire
// them on their own; this covers the in-memory backend.
func (a *CostAccountant) prune(ctx context.Context) {
	keys, err := a.store.Keys(ctx)
	if err != nil {
		return
	}
	cutoff := a.now().UTC().Add(-usageRetention).Format(usageDayF)
	for _, k := range keys {
		day, ok := cutKeyDay(k)
		if ok && day < cutoff {
			_ = a.store.Delete(ctx, k)
		}
	}
}

func cutKeyDay(key string) (string, bool) {
	if len(key) <= len(usageKeyPrefix) || key[:len(usageKeyPrefix)] != usageKeyPrefix {
		return "", false
	}
	return key[len(usageKeyPrefix):], true
}
