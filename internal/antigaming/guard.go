// Package antigaming rejects submissions that look automated, rushed or
// self-contradictory, and throttles repeat submissions per client.
package antigaming

import (
	"context"
	"regexp"
	"strings"
	"time"

	"vc-readiness/internal/catalog"
	apperrors "vc-readiness/internal/common/errors"
	"vc-readiness/internal/common/logger"
)

const (
	fieldLTV        = "ltv"
	fieldCAC        = "cac"
	fieldGrowthRate = "growth-rate"
	fieldChurnRate  = "churn-rate"
	fieldTAM        = "market-size-tam"
	fieldSOM        = "market-size-som"

	maxGrowthRate = 150
	maxChurnRate  = 100

	anonymousKey = "anonymous"
)

// Policy holds the guard thresholds. Limit applies per client key and
// OriginLimit per observed network origin; a zero OriginLimit.Max turns the
// origin bucket off.
type Policy struct {
	MinDwell      time.Duration
	HoneypotField string
	Limit         Limit
	OriginLimit   Limit
	ContentChecks bool
}

// DefaultPolicy: 3 minute dwell, `_bot_field` honeypot, 2 submissions per
// client and 10 per origin in 24 hours.
func DefaultPolicy() Policy {
	return Policy{
		MinDwell:      180 * time.Second,
		HoneypotField: "_bot_field",
		Limit:         Limit{Max: 2, Window: 24 * time.Hour},
		OriginLimit:   Limit{Max: 10, Window: 24 * time.Hour},
	}
}

// Submission is what the guard inspects.
type Submission struct {
	// ClientKey is the caller-asserted identity (user id or CSRF token).
	ClientKey string
	// Origin is the server-observed network identity, usually the client IP.
	Origin    string
	Stage     catalog.Stage
	Answers   catalog.Answers
	// StartTime is the session start in ms since epoch; 0 means unknown.
	StartTime int64
}

// Verdict lists every failed check, in check order.
type Verdict struct {
	Passed bool   `json:"passed"`
	Flags  []Flag `json:"flags"`
	Usage  Usage  `json:"-"`
}

// Messages returns the flag messages in order.
func (v *Verdict) Messages() []string {
	out := make([]string, 0, len(v.Flags))
	for _, f := range v.Flags {
		out = append(out, f.Message)
	}
	return out
}

// Codes returns the flag codes in order.
func (v *Verdict) Codes() []Code {
	out := make([]Code, 0, len(v.Flags))
	for _, f := range v.Flags {
		out = append(out, f.Code)
	}
	return out
}

type Guard struct {
	catalog *catalog.Catalog
	store   Store
	policy  Policy
	logger  logger.Logger
	now     func() time.Time
}

func NewGuard(cat *catalog.Catalog, store Store, policy Policy, log logger.Logger) *Guard {
	return &Guard{
		catalog: cat,
		store:   store,
		policy:  policy,
		logger:  log.WithFields(map[string]interface{}{"component": "anti-gaming-guard"}),
		now:     time.Now,
	}
}

// WithClock replaces the time source; used by tests.
func (g *Guard) WithClock(now func() time.Time) *Guard {
	g.now = now
	return g
}

// Check runs every check. When all content checks pass the submission is
// counted against the rate limit in the same store operation that checks
// it; a rejected submission is never counted.
func (g *Guard) Check(ctx context.Context, sub Submission) (*Verdict, error) {
	return g.run(ctx, sub, true)
}

// Inspect runs every check without recording anything.
func (g *Guard) Inspect(ctx context.Context, sub Submission) (*Verdict, error) {
	return g.run(ctx, sub, false)
}

func (g *Guard) run(ctx context.Context, sub Submission, commit bool) (*Verdict, error) {
	now := g.now()
	flags := g.contentFlags(sub, now)
	buckets := g.buckets(sub)

	var (
		usages  []Usage
		allowed bool
		err     error
	)
	if commit && len(flags) == 0 {
		usages, allowed, err = g.store.Reserve(ctx, now, buckets...)
	} else {
		usages, err = g.peek(ctx, buckets)
		allowed = blockingBucket(buckets, usages, now) < 0
	}
	if err != nil {
		g.logger.Error("rate-limit store failed", map[string]interface{}{
			"clientKey": buckets[0].Key,
			"error":     err,
		})
		return nil, apperrors.NewRateLimitStoreFailedError(err)
	}
	if !allowed {
		// A refused reservation leaves usages untouched, so they still show
		// which bucket was full.
		limit := g.policy.Limit
		if i := blockingBucket(buckets, usages, now); i >= 0 {
			limit = buckets[i].Limit
		}
		flags = append(flags, rateLimitFlag(limit))
	}

	verdict := &Verdict{Passed: len(flags) == 0, Flags: flags}
	if len(usages) > 0 {
		verdict.Usage = usages[0]
	}
	if !verdict.Passed {
		g.logger.Warn("submission flagged", map[string]interface{}{
			"clientKey": buckets[0].Key,
			"origin":    sub.Origin,
			"stage":     string(sub.Stage),
			"flags":     verdict.Codes(),
			"committed": commit,
		})
	}
	return verdict, nil
}

// buckets lists the counters a submission is charged against: the client
// key first, then the origin when one is known and limited.
func (g *Guard) buckets(sub Submission) []Bucket {
	out := []Bucket{{Key: clientKey(sub.ClientKey), Limit: g.policy.Limit}}
	origin := strings.TrimSpace(sub.Origin)
	if origin != "" && g.policy.OriginLimit.Max > 0 {
		out = append(out, Bucket{Key: "origin:" + origin, Limit: g.policy.OriginLimit})
	}
	return out
}

func (g *Guard) peek(ctx context.Context, buckets []Bucket) ([]Usage, error) {
	usages := make([]Usage, len(buckets))
	for i, b := range buckets {
		u, err := g.store.Peek(ctx, b.Key)
		if err != nil {
			return nil, err
		}
		usages[i] = u
	}
	return usages, nil
}

// blockingBucket returns the index of the first exhausted bucket, or -1.
func blockingBucket(buckets []Bucket, usages []Usage, now time.Time) int {
	if len(usages) != len(buckets) {
		return -1
	}
	for i, b := range buckets {
		if usages[i].Blocks(now, b.Limit) {
			return i
		}
	}
	return -1
}

// contentFlags runs every check except the rate limit.
func (g *Guard) contentFlags(sub Submission, now time.Time) []Flag {
	flags := []Flag{}
	a := sub.Answers

	if sub.StartTime <= 0 || now.UnixMilli()-sub.StartTime < g.policy.MinDwell.Milliseconds() {
		flags = append(flags, Flag{Code: CodeDwellTime, Message: msgDwellTime})
	}

	if g.policy.HoneypotField != "" && a.IsCompleted(g.policy.HoneypotField) {
		flags = append(flags, Flag{Code: CodeHoneypot, Message: msgHoneypot})
	}

	ltv, hasLTV := a.Number(fieldLTV)
	cac, hasCAC := a.Number(fieldCAC)
	if hasLTV && hasCAC && ltv <= cac {
		flags = append(flags, Flag{Code: CodeLTVCAC, Message: msgLTVCAC})
	}

	if growth, ok := a.Number(fieldGrowthRate); ok && growth > maxGrowthRate {
		flags = append(flags, Flag{Code: CodeGrowthRate, Message: msgGrowthRate})
	}

	if churn, ok := a.Number(fieldChurnRate); ok && churn > maxChurnRate {
		flags = append(flags, Flag{Code: CodeChurnRate, Message: msgChurnRate})
	}

	if g.marketSizeContradiction(a) {
		flags = append(flags, Flag{Code: CodeMarketSize, Message: msgMarketSize})
	}

	if g.policy.ContentChecks {
		var choices, texts []string
		for _, section := range g.catalog.SectionsFor(sub.Stage) {
			for _, f := range section.Fields {
				switch f.Type {
				case catalog.FieldSelect, catalog.FieldRadio:
					if v, ok := a.String(f.ID); ok {
						choices = append(choices, v)
					}
				case catalog.FieldTextarea:
					text, ok := a.String(f.ID)
					if !ok {
						continue
					}
					texts = append(texts, normalizeText(text))
					if suspiciousText(text) {
						flags = append(flags, suspiciousContentFlag(f.Label))
					}
				}
			}
		}
		if mostlyIdentical(choices) || hasDuplicate(texts) {
			flags = append(flags, Flag{Code: CodeRepeatedValues, Message: msgRepeated})
		}
	}

	return flags
}

// mostlyIdentical is true when fewer than 30% of the values are distinct.
func mostlyIdentical(values []string) bool {
	if len(values) == 0 {
		return false
	}
	distinct := make(map[string]struct{}, len(values))
	for _, v := range values {
		distinct[v] = struct{}{}
	}
	return float64(len(distinct))/float64(len(values)) < 0.3
}

func hasDuplicate(values []string) bool {
	seen := make(map[string]struct{}, len(values))
	for _, v := range values {
		if v == "" {
			continue
		}
		if _, ok := seen[v]; ok {
			return true
		}
		seen[v] = struct{}{}
	}
	return false
}

func normalizeText(s string) string {
	return strings.ToLower(strings.Join(strings.Fields(s), " "))
}

// marketSizeContradiction: TAM in its smallest bucket while SOM claims its largest.
func (g *Guard) marketSizeContradiction(a catalog.Answers) bool {
	tamField, ok1 := g.catalog.Field(fieldTAM)
	somField, ok2 := g.catalog.Field(fieldSOM)
	if !ok1 || !ok2 || len(tamField.Options) == 0 || len(somField.Options) == 0 {
		return false
	}
	tam, _ := a.String(fieldTAM)
	som, _ := a.String(fieldSOM)
	return tam == tamField.Options[0].Value &&
		som == somField.Options[len(somField.Options)-1].Value
}

var suspiciousPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)test\s*test\s*test`),
	regexp.MustCompile(`(?i)lorem\s*ipsum`),
	regexp.MustCompile(`(?i)asdf+`),
}

func suspiciousText(text string) bool {
	for _, p := range suspiciousPatterns {
		if p.MatchString(text) {
			return true
		}
	}
	if leadingRun(text) > 10 {
		return true
	}
	return len(strings.Fields(text)) < 3
}

// leadingRun counts how often the first rune repeats at the start of s.
func leadingRun(s string) int {
	runes := []rune(s)
	if len(runes) == 0 {
		return 0
	}
	n := 1
	for n < len(runes) && runes[n] == runes[0] {
		n++
	}
	return n
}

func clientKey(key string) string {
	key = strings.TrimSpace(key)
	if key == "" {
		return anonymousKey
	}
	return key
}
