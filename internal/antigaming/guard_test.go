package antigaming

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"vc-readiness/internal/catalog"
	apperrors "vc-readiness/internal/common/errors"
	"vc-readiness/internal/common/logger"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redismock/v9"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var baseTime = time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

func createTestGuard(t *testing.T, store Store, now *time.Time) *Guard {
	t.Helper()
	cat, err := catalog.Default()
	require.NoError(t, err)
	if store == nil {
		store, err = NewMemoryStore(128)
		require.NoError(t, err)
	}
	return NewGuard(cat, store, DefaultPolicy(), logger.NewTestLogger(t)).
		WithClock(func() time.Time { return *now })
}

// createTestSubmission starts the session exactly five minutes before now.
func createTestSubmission(now time.Time, answers catalog.Answers) Submission {
	if answers == nil {
		answers = catalog.Answers{"team-size": "2-3"}
	}
	return Submission{
		ClientKey: "user-1",
		Stage:     catalog.StageLaunched,
		Answers:   answers,
		StartTime: now.Add(-5 * time.Minute).UnixMilli(),
	}
}

// ==========================
// Individual checks
// ==========================

func TestGuard_Checks(t *testing.T) {
	tests := []struct {
		name           string
		mutate         func(s *Submission)
		validateOutput func(t *testing.T, v *Verdict)
	}{
		{
			name:   "clean submission passes",
			mutate: func(s *Submission) {},
			validateOutput: func(t *testing.T, v *Verdict) {
				assert.True(t, v.Passed)
				assert.Empty(t, v.Flags)
				assert.Equal(t, 1, v.Usage.Count)
			},
		},
		{
			name: "dwell 179999ms rejected",
			mutate: func(s *Submission) {
				s.StartTime = baseTime.UnixMilli() - 179_999
			},
			validateOutput: func(t *testing.T, v *Verdict) {
				assert.False(t, v.Passed)
				assert.Equal(t, []Code{CodeDwellTime}, v.Codes())
				assert.Equal(t, msgDwellTime, v.Flags[0].Message)
			},
		},
		{
			name: "dwell 180000ms accepted",
			mutate: func(s *Submission) {
				s.StartTime = baseTime.UnixMilli() - 180_000
			},
			validateOutput: func(t *testing.T, v *Verdict) {
				assert.True(t, v.Passed)
			},
		},
		{
			name:   "missing start time flagged",
			mutate: func(s *Submission) { s.StartTime = 0 },
			validateOutput: func(t *testing.T, v *Verdict) {
				assert.Equal(t, []Code{CodeDwellTime}, v.Codes())
			},
		},
		{
			name:   "start time in the future flagged",
			mutate: func(s *Submission) { s.StartTime = baseTime.Add(time.Hour).UnixMilli() },
			validateOutput: func(t *testing.T, v *Verdict) {
				assert.Equal(t, []Code{CodeDwellTime}, v.Codes())
			},
		},
		{
			name:   "honeypot filled",
			mutate: func(s *Submission) { s.Answers["_bot_field"] = "http://spam" },
			validateOutput: func(t *testing.T, v *Verdict) {
				assert.Equal(t, []Code{CodeHoneypot}, v.Codes())
				assert.Equal(t, "Bot detection triggered.", v.Flags[0].Message)
			},
		},
		{
			name:   "honeypot empty string ignored",
			mutate: func(s *Submission) { s.Answers["_bot_field"] = "" },
			validateOutput: func(t *testing.T, v *Verdict) {
				assert.True(t, v.Passed)
			},
		},
		{
			name: "ltv 400 cac 500 flagged",
			mutate: func(s *Submission) {
				s.Answers["ltv"] = 400.0
				s.Answers["cac"] = 500.0
			},
			validateOutput: func(t *testing.T, v *Verdict) {
				assert.Equal(t, []Code{CodeLTVCAC}, v.Codes())
				assert.Equal(t, msgLTVCAC, v.Flags[0].Message)
			},
		},
		{
			name: "ltv equal to cac flagged as numeric strings",
			mutate: func(s *Submission) {
				s.Answers["ltv"] = "300"
				s.Answers["cac"] = "300"
			},
			validateOutput: func(t *testing.T, v *Verdict) {
				assert.Equal(t, []Code{CodeLTVCAC}, v.Codes())
			},
		},
		{
			name:   "ltv alone not flagged",
			mutate: func(s *Submission) { s.Answers["ltv"] = 10.0 },
			validateOutput: func(t *testing.T, v *Verdict) {
				assert.True(t, v.Passed)
			},
		},
		{
			name:   "growth above 150",
			mutate: func(s *Submission) { s.Answers["growth-rate"] = 150.5 },
			validateOutput: func(t *testing.T, v *Verdict) {
				assert.Equal(t, []Code{CodeGrowthRate}, v.Codes())
			},
		},
		{
			name:   "growth at 150 allowed",
			mutate: func(s *Submission) { s.Answers["growth-rate"] = 150.0 },
			validateOutput: func(t *testing.T, v *Verdict) {
				assert.True(t, v.Passed)
			},
		},
		{
			name:   "churn above 100",
			mutate: func(s *Submission) { s.Answers["churn-rate"] = 101.0 },
			validateOutput: func(t *testing.T, v *Verdict) {
				assert.Equal(t, []Code{CodeChurnRate}, v.Codes())
				assert.Equal(t, "Churn rate cannot exceed 100%.", v.Flags[0].Message)
			},
		},
		{
			name: "smallest TAM with largest SOM",
			mutate: func(s *Submission) {
				s.Answers["market-size-tam"] = "under-100m"
				s.Answers["market-size-som"] = "over-500m"
			},
			validateOutput: func(t *testing.T, v *Verdict) {
				assert.Equal(t, []Code{CodeMarketSize}, v.Codes())
			},
		},
		{
			name: "smallest TAM with mid SOM allowed",
			mutate: func(s *Submission) {
				s.Answers["market-size-tam"] = "under-100m"
				s.Answers["market-size-som"] = "100m-500m"
			},
			validateOutput: func(t *testing.T, v *Verdict) {
				assert.True(t, v.Passed)
			},
		},
		{
			name: "all content flags reported together in order",
			mutate: func(s *Submission) {
				s.StartTime = 0
				s.Answers["_bot_field"] = "x"
				s.Answers["ltv"] = 1.0
				s.Answers["cac"] = 2.0
				s.Answers["growth-rate"] = 500.0
				s.Answers["churn-rate"] = 200.0
				s.Answers["market-size-tam"] = "under-100m"
				s.Answers["market-size-som"] = "over-500m"
			},
			validateOutput: func(t *testing.T, v *Verdict) {
				assert.Equal(t, []Code{
					CodeDwellTime, CodeHoneypot, CodeLTVCAC, CodeGrowthRate, CodeChurnRate, CodeMarketSize,
				}, v.Codes())
				assert.Len(t, v.Messages(), 6)
				assert.Equal(t, 0, v.Usage.Count)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			now := baseTime
			guard := createTestGuard(t, nil, &now)
			sub := createTestSubmission(now, nil)
			tt.mutate(&sub)

			verdict, err := guard.Check(context.Background(), sub)
			require.NoError(t, err)
			tt.validateOutput(t, verdict)
		})
	}
}

func TestGuard_ContentChecks(t *testing.T) {
	now := baseTime
	guard := createTestGuard(t, nil, &now)
	guard.policy.ContentChecks = true

	sub := createTestSubmission(now, catalog.Answers{
		"customer-segment":  "lorem ipsum dolor sit amet",
		"value-proposition": "Saves finance teams two days every month on close",
		"pricing-strategy":  "cheap",
	})
	verdict, err := guard.Check(context.Background(), sub)
	require.NoError(t, err)

	assert.Equal(t, []Code{CodeSuspiciousContent, CodeSuspiciousContent}, verdict.Codes())
	assert.Equal(t, "Suspicious content detected in 'Target Customer Segment'.", verdict.Flags[0].Message)
	assert.Equal(t, "Suspicious content detected in 'Pricing Strategy'.", verdict.Flags[1].Message)
}

func TestGuard_RepeatedValues(t *testing.T) {
	tests := []struct {
		name      string
		answers   catalog.Answers
		wantCodes []Code
	}{
		{
			name: "same text pasted into several fields",
			answers: catalog.Answers{
				"customer-segment":  "Regional hospitals with more than fifty beds",
				"value-proposition": "regional hospitals with  more than fifty beds ",
			},
			wantCodes: []Code{CodeRepeatedValues},
		},
		{
			name: "distinct texts pass",
			answers: catalog.Answers{
				"customer-segment":  "Regional hospitals with more than fifty beds",
				"value-proposition": "Cuts nurse scheduling time in half every week",
			},
			wantCodes: []Code{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			now := baseTime
			guard := createTestGuard(t, nil, &now)
			guard.policy.ContentChecks = true

			verdict, err := guard.Inspect(context.Background(), createTestSubmission(now, tt.answers))
			require.NoError(t, err)
			assert.Equal(t, tt.wantCodes, verdict.Codes())
		})
	}

	t.Run("ignored when content checks are off", func(t *testing.T) {
		now := baseTime
		guard := createTestGuard(t, nil, &now)
		verdict, err := guard.Inspect(context.Background(), createTestSubmission(now, catalog.Answers{
			"customer-segment":  "same words in every box",
			"value-proposition": "same words in every box",
		}))
		require.NoError(t, err)
		assert.True(t, verdict.Passed)
	})
}

func TestMostlyIdentical(t *testing.T) {
	assert.True(t, mostlyIdentical([]string{"a", "a", "a", "a"}))
	assert.True(t, mostlyIdentical([]string{"a", "a", "a", "a", "a", "a", "a", "b"}))
	assert.False(t, mostlyIdentical([]string{"a", "a", "b"}))
	assert.False(t, mostlyIdentical([]string{"solo"}))
	assert.False(t, mostlyIdentical(nil))
}

func TestSuspiciousText(t *testing.T) {
	assert.True(t, suspiciousText("aaaaaaaaaaaa and more words"))
	assert.True(t, suspiciousText("test test test again"))
	assert.True(t, suspiciousText("ASDF keyboard mash here"))
	assert.True(t, suspiciousText("two words"))
	assert.False(t, suspiciousText("We sell to regional hospitals"))
}

// ==========================
// Rate limiting
// ==========================

func TestGuard_RateLimit(t *testing.T) {
	now := baseTime
	guard := createTestGuard(t, nil, &now)
	ctx := context.Background()

	for i := 1; i <= 2; i++ {
		v, err := guard.Check(ctx, createTestSubmission(now, nil))
		require.NoError(t, err)
		require.True(t, v.Passed, "submission %d", i)
		assert.Equal(t, i, v.Usage.Count)
		now = now.Add(time.Hour)
	}

	v, err := guard.Check(ctx, createTestSubmission(now, nil))
	require.NoError(t, err)
	assert.False(t, v.Passed)
	assert.Equal(t, []Code{CodeRateLimit}, v.Codes())
	assert.Equal(t, "Maximum 2 submissions per 24 hours allowed.", v.Flags[0].Message)

	// a different client is unaffected
	other := createTestSubmission(now, nil)
	other.ClientKey = "user-2"
	v, err = guard.Check(ctx, other)
	require.NoError(t, err)
	assert.True(t, v.Passed)

	// window measured from the last accepted submission
	now = baseTime.Add(time.Hour + 24*time.Hour)
	v, err = guard.Check(ctx, createTestSubmission(now, nil))
	require.NoError(t, err)
	assert.True(t, v.Passed)
	assert.Equal(t, 1, v.Usage.Count)
}

func TestGuard_RotatedClientKeysThrottledPerOrigin(t *testing.T) {
	now := baseTime
	guard := createTestGuard(t, nil, &now)
	ctx := context.Background()
	originLimit := DefaultPolicy().OriginLimit

	for i := 0; i < originLimit.Max; i++ {
		sub := createTestSubmission(now, nil)
		sub.ClientKey = fmt.Sprintf("user:rotated-%d", i)
		sub.Origin = "203.0.113.7"
		v, err := guard.Check(ctx, sub)
		require.NoError(t, err)
		require.True(t, v.Passed, "submission %d", i)
	}

	sub := createTestSubmission(now, nil)
	sub.ClientKey = "user:rotated-fresh"
	sub.Origin = "203.0.113.7"
	v, err := guard.Check(ctx, sub)
	require.NoError(t, err)
	assert.False(t, v.Passed)
	assert.Equal(t, []Code{CodeRateLimit}, v.Codes())
	assert.Equal(t, "Maximum 10 submissions per 24 hours allowed.", v.Flags[0].Message)

	// Inspect reports the same block without charging anything.
	v, err = guard.Inspect(ctx, sub)
	require.NoError(t, err)
	assert.Equal(t, []Code{CodeRateLimit}, v.Codes())

	// A different origin is unaffected.
	sub.Origin = "198.51.100.20"
	v, err = guard.Check(ctx, sub)
	require.NoError(t, err)
	assert.True(t, v.Passed)
}

func TestGuard_ClientLimitReportedBeforeOriginLimit(t *testing.T) {
	now := baseTime
	guard := createTestGuard(t, nil, &now)
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		sub := createTestSubmission(now, nil)
		sub.Origin = "203.0.113.7"
		_, err := guard.Check(ctx, sub)
		require.NoError(t, err)
	}

	sub := createTestSubmission(now, nil)
	sub.Origin = "203.0.113.7"
	v, err := guard.Check(ctx, sub)
	require.NoError(t, err)
	assert.Equal(t, "Maximum 2 submissions per 24 hours allowed.", v.Flags[0].Message)

	usage, err := guard.store.Peek(ctx, "origin:203.0.113.7")
	require.NoError(t, err)
	assert.Equal(t, 2, usage.Count)
}

func TestGuard_RejectedSubmissionIsNotCounted(t *testing.T) {
	now := baseTime
	guard := createTestGuard(t, nil, &now)
	ctx := context.Background()

	rushed := createTestSubmission(now, nil)
	rushed.StartTime = now.UnixMilli()
	for i := 0; i < 5; i++ {
		v, err := guard.Check(ctx, rushed)
		require.NoError(t, err)
		assert.Equal(t, []Code{CodeDwellTime}, v.Codes())
	}

	for i := 0; i < 2; i++ {
		v, err := guard.Check(ctx, createTestSubmission(now, nil))
		require.NoError(t, err)
		assert.True(t, v.Passed)
	}
}

func TestGuard_RateLimitReportedWithOtherFlags(t *testing.T) {
	now := baseTime
	guard := createTestGuard(t, nil, &now)
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		_, err := guard.Check(ctx, createTestSubmission(now, nil))
		require.NoError(t, err)
	}

	sub := createTestSubmission(now, catalog.Answers{"churn-rate": 300.0})
	v, err := guard.Check(ctx, sub)
	require.NoError(t, err)
	assert.Equal(t, []Code{CodeChurnRate, CodeRateLimit}, v.Codes())
}

func TestGuard_InspectDoesNotCount(t *testing.T) {
	now := baseTime
	guard := createTestGuard(t, nil, &now)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		v, err := guard.Inspect(ctx, createTestSubmission(now, nil))
		require.NoError(t, err)
		assert.True(t, v.Passed)
	}
	usage, err := guard.store.Peek(ctx, "user-1")
	require.NoError(t, err)
	assert.Equal(t, 0, usage.Count)
}

func TestGuard_EmptyClientKeyIsAnonymous(t *testing.T) {
	now := baseTime
	guard := createTestGuard(t, nil, &now)

	sub := createTestSubmission(now, nil)
	sub.ClientKey = "  "
	_, err := guard.Check(context.Background(), sub)
	require.NoError(t, err)

	usage, err := guard.store.Peek(context.Background(), anonymousKey)
	require.NoError(t, err)
	assert.Equal(t, 1, usage.Count)
}

func TestGuard_ConcurrentReservationsNeverExceedLimit(t *testing.T) {
	now := baseTime
	guard := createTestGuard(t, nil, &now)
	ctx := context.Background()

	var (
		wg     sync.WaitGroup
		mu     sync.Mutex
		passed int
	)
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			v, err := guard.Check(ctx, createTestSubmission(now, nil))
			if err == nil && v.Passed {
				mu.Lock()
				passed++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, 2, passed)
}

// ==========================
// Stores
// ==========================

func TestRedisStore_WithMiniredis(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer client.Close()

	store := NewRedisStore(client, "vc-test:")
	ctx := context.Background()
	bucket := Bucket{Key: "user-1", Limit: Limit{Max: 2, Window: 24 * time.Hour}}

	usage, err := store.Peek(ctx, "user-1")
	require.NoError(t, err)
	assert.Equal(t, Usage{}, usage)

	u, ok, err := store.Reserve(ctx, baseTime, bucket)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, 1, u[0].Count)

	u, ok, err = store.Reserve(ctx, baseTime.Add(time.Minute), bucket)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, 2, u[0].Count)

	u, ok, err = store.Reserve(ctx, baseTime.Add(2*time.Minute), bucket)
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Equal(t, 2, u[0].Count)
	assert.Equal(t, baseTime.Add(time.Minute).UnixMilli(), u[0].Last.UnixMilli())

	usage, err = store.Peek(ctx, "user-1")
	require.NoError(t, err)
	assert.Equal(t, 2, usage.Count)
	assert.True(t, usage.Blocks(baseTime.Add(time.Hour), bucket.Limit))

	assert.True(t, mr.Exists("vc-test:ratelimit:user-1"))
	assert.Equal(t, 24*time.Hour, mr.TTL("vc-test:ratelimit:user-1"))

	u, ok, err = store.Reserve(ctx, baseTime.Add(25*time.Hour), bucket)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, 1, u[0].Count)
}

func TestStores_ReserveIsAllOrNothing(t *testing.T) {
	tests := []struct {
		name     string
		newStore func(t *testing.T) Store
	}{
		{
			name: "memory",
			newStore: func(t *testing.T) Store {
				store, err := NewMemoryStore(16)
				require.NoError(t, err)
				return store
			},
		},
		{
			name: "redis",
			newStore: func(t *testing.T) Store {
				mr := miniredis.RunT(t)
				client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
				t.Cleanup(func() { _ = client.Close() })
				return NewRedisStore(client, "vc-test:")
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := tt.newStore(t)
			ctx := context.Background()
			day := 24 * time.Hour
			origin := Bucket{Key: "origin:203.0.113.7", Limit: Limit{Max: 1, Window: day}}

			u, ok, err := store.Reserve(ctx, baseTime,
				Bucket{Key: "user:a", Limit: Limit{Max: 2, Window: day}}, origin)
			require.NoError(t, err)
			require.True(t, ok)
			require.Len(t, u, 2)
			assert.Equal(t, 1, u[0].Count)
			assert.Equal(t, 1, u[1].Count)

			// The origin is full, so the fresh client key must not be charged.
			u, ok, err = store.Reserve(ctx, baseTime.Add(time.Minute),
				Bucket{Key: "user:b", Limit: Limit{Max: 2, Window: day}}, origin)
			require.NoError(t, err)
			assert.False(t, ok)
			assert.Equal(t, 0, u[0].Count)
			assert.Equal(t, 1, u[1].Count)

			usage, err := store.Peek(ctx, "user:b")
			require.NoError(t, err)
			assert.Equal(t, 0, usage.Count)
		})
	}
}

func TestGuard_WithRedisStore(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer client.Close()

	now := baseTime
	guard := createTestGuard(t, NewRedisStore(client, "vc-test:"), &now)
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		v, err := guard.Check(ctx, createTestSubmission(now, nil))
		require.NoError(t, err)
		assert.True(t, v.Passed)
	}
	v, err := guard.Check(ctx, createTestSubmission(now, nil))
	require.NoError(t, err)
	assert.Equal(t, []Code{CodeRateLimit}, v.Codes())
}

func TestGuard_StoreFailure(t *testing.T) {
	client, mock := redismock.NewClientMock()
	now := baseTime
	guard := createTestGuard(t, NewRedisStore(client, "vc-test:"), &now)

	sub := createTestSubmission(now, nil)
	sub.StartTime = 0 // flagged, so the guard only peeks
	mock.ExpectHMGet("vc-test:ratelimit:user-1", "count", "last").SetErr(assert.AnError)

	v, err := guard.Check(context.Background(), sub)
	assert.Nil(t, v)
	require.Error(t, err)
	assert.True(t, apperrors.HasCode(err, apperrors.ErrCodeRateLimitStoreFailed))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMemoryStore_EvictsLeastRecentlyUsed(t *testing.T) {
	store, err := NewMemoryStore(2)
	require.NoError(t, err)
	ctx := context.Background()
	limit := DefaultPolicy().Limit

	for _, key := range []string{"a", "b", "c"} {
		_, ok, err := store.Reserve(ctx, baseTime, Bucket{Key: key, Limit: limit})
		require.NoError(t, err)
		assert.True(t, ok)
	}

	usage, err := store.Peek(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, 0, usage.Count)

	usage, err = store.Peek(ctx, "c")
	require.NoError(t, err)
	assert.Equal(t, 1, usage.Count)
}

func TestNewMemoryStore_InvalidCapacity(t *testing.T) {
	_, err := NewMemoryStore(0)
	assert.Error(t, err)
}
