package pipeline_test

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync/atomic"
	"testing"
	"time"

	"github.com/couchcryptid/hydro-priority-service/internal/domain"
	"github.com/couchcryptid/hydro-priority-service/internal/observability"
	"github.com/couchcryptid/hydro-priority-service/internal/pipeline"
	"github.com/google/go-cmp/cmp"
	"github.com/jonboulle/clockwork"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// --- mocks ---

type mockExtractor struct {
	events   []domain.RawEvent
	err      error
	consumed atomic.Bool
}

func (m *mockExtractor) ExtractBatch(ctx context.Context, batchSize int) ([]domain.RawEvent, error) {
	if m.err != nil {
		return nil, m.err
	}
	if len(m.events) == 0 || m.consumed.Swap(true) {
		// block until cancelled to simulate an idle topic
		<-ctx.Done()
		return nil, ctx.Err()
	}
	if batchSize < len(m.events) {
		return m.events[:batchSize], nil
	}
	return m.events, nil
}

type mockTransformer struct {
	err error
}

func (m *mockTransformer) Transform(_ context.Context, raw domain.RawEvent) (domain.WaterObject, error) {
	if m.err != nil {
		return domain.WaterObject{}, m.err
	}
	return domain.WaterObject{ID: string(raw.Key), RawPayload: raw.Value}, nil
}

type mockLoader struct {
	loaded []domain.WaterObject
	err    error
}

func (m *mockLoader) LoadBatch(_ context.Context, objs []domain.WaterObject) error {
	if m.err != nil {
		return m.err
	}
	m.loaded = append(m.loaded, objs...)
	return nil
}

type regionGeocoder struct {
	region string
}

func (g regionGeocoder) ForwardGeocode(context.Context, string, string) (domain.GeocodingResult, error) {
	return domain.GeocodingResult{}, nil
}

func (g regionGeocoder) ReverseGeocode(context.Context, float64, float64) (domain.GeocodingResult, error) {
	return domain.GeocodingResult{Region: g.region, FormattedAddress: g.region + ", Kazakhstan", Confidence: 1}, nil
}

func newTestMetrics() *observability.Metrics {
	return observability.NewMetricsForTesting()
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func runFor(t *testing.T, p *pipeline.Pipeline, d time.Duration) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), d)
	defer cancel()
	require.NoError(t, p.Run(ctx))
}

// --- pipeline tests ---

func TestPipeline_Run_HappyPath(t *testing.T) {
	raw := makeRawEvent(t, "obj-1", 3)

	ext := &mockExtractor{events: []domain.RawEvent{raw}}
	ldr := &mockLoader{}
	metrics := newTestMetrics()

	p := pipeline.New(ext, &mockTransformer{}, ldr, discardLogger(), metrics, 10)
	require.Error(t, p.CheckReadiness(context.Background()))

	runFor(t, p, 300*time.Millisecond)

	require.Len(t, ldr.loaded, 1)
	assert.Equal(t, "obj-1", ldr.loaded[0].ID)
	assert.NoError(t, p.CheckReadiness(context.Background()))
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.RecordsConsumed))
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.RecordsProduced))
	assert.Equal(t, 0.0, testutil.ToFloat64(metrics.PipelineRunning))
}

func TestPipeline_Run_ContextCancellation(t *testing.T) {
	ldr := &mockLoader{}
	p := pipeline.New(&mockExtractor{}, &mockTransformer{}, ldr, discardLogger(), newTestMetrics(), 10)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	require.NoError(t, p.Run(ctx))
	assert.Empty(t, ldr.loaded)
}

func TestPipeline_Run_RejectedRecordIsCommitted(t *testing.T) {
	var committed atomic.Bool
	raw := makeRawEvent(t, "obj-2", 3)
	raw.Commit = func(context.Context) error {
		committed.Store(true)
		return nil
	}

	ext := &mockExtractor{events: []domain.RawEvent{raw}}
	tfm := &mockTransformer{err: &domain.ValidationError{Field: "technical_condition", Value: 9, Err: domain.ErrConditionOutOfRange}}
	ldr := &mockLoader{}
	metrics := newTestMetrics()

	p := pipeline.New(ext, tfm, ldr, discardLogger(), metrics, 10)
	runFor(t, p, 300*time.Millisecond)

	assert.Empty(t, ldr.loaded)
	assert.True(t, committed.Load(), "rejected records must not be redelivered")
	assert.Error(t, p.CheckReadiness(context.Background()))
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.ValidationErrors.WithLabelValues("out_of_range")))
}

func TestPipeline_Run_CommitsAfterLoad(t *testing.T) {
	var commits atomic.Int32
	events := make([]domain.RawEvent, 3)
	for i := range events {
		events[i] = makeRawEvent(t, fmt.Sprintf("obj-%d", i), 2)
		events[i].Topic = "inspection-records"
		events[i].Offset = int64(i)
		events[i].Commit = func(context.Context) error {
			commits.Add(1)
			return nil
		}
	}

	ldr := &mockLoader{}
	p := pipeline.New(&mockExtractor{events: events}, &mockTransformer{}, ldr, discardLogger(), newTestMetrics(), 10)
	runFor(t, p, 300*time.Millisecond)

	assert.Len(t, ldr.loaded, 3)
	assert.Equal(t, int32(3), commits.Load())
}

func TestPipeline_Run_LoadFailureSkipsCommit(t *testing.T) {
	var committed atomic.Bool
	raw := makeRawEvent(t, "obj-3", 4)
	raw.Commit = func(context.Context) error {
		committed.Store(true)
		return nil
	}

	ldr := &mockLoader{err: errors.New("broker unavailable")}
	p := pipeline.New(&mockExtractor{events: []domain.RawEvent{raw}}, &mockTransformer{}, ldr, discardLogger(), newTestMetrics(), 10)
	runFor(t, p, 500*time.Millisecond)

	assert.False(t, committed.Load())
	assert.Error(t, p.CheckReadiness(context.Background()))
}

func TestPipeline_Run_ExtractErrorBacksOff(t *testing.T) {
	ext := &mockExtractor{err: errors.New("connection refused")}
	ldr := &mockLoader{}
	p := pipeline.New(ext, &mockTransformer{}, ldr, discardLogger(), newTestMetrics(), 10)

	runFor(t, p, 300*time.Millisecond)
	assert.Empty(t, ldr.loaded)
}

func TestPipeline_Run_AssessmentMetrics(t *testing.T) {
	freezeClock(t)
	events := []domain.RawEvent{
		makeRawEvent(t, "medium-lock", 3),
		makeRawEvent(t, "critical-lock", 5),
		makeRawEvent(t, "broken", 9),
	}

	ldr := &mockLoader{}
	metrics := newTestMetrics()
	tfm := pipeline.NewTransformer(nil, discardLogger())
	p := pipeline.New(&mockExtractor{events: events}, tfm, ldr, discardLogger(), metrics, 10)
	runFor(t, p, 300*time.Millisecond)

	require.Len(t, ldr.loaded, 2)
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.AssessmentsByLevel.WithLabelValues("medium")))
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.AssessmentsByLevel.WithLabelValues("high")))
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.CriticalRecords))
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.ValidationErrors.WithLabelValues("out_of_range")))
	assert.Equal(t, 1, testutil.CollectAndCount(metrics.MonthsToCritical))
}

// --- transformer tests ---

func TestAssessmentTransformer_Transform(t *testing.T) {
	freezeClock(t)
	raw := makeRawEvent(t, "obj-4", 3)

	tfm := pipeline.NewTransformer(nil, discardLogger())
	obj, err := tfm.Transform(context.Background(), raw)
	require.NoError(t, err)

	type summary struct {
		ID        string
		Type      domain.ResourceType
		Level     domain.PriorityLevel
		Months    int
		GeoSource string
	}
	want := summary{ID: "obj-4", Type: domain.Lock, Level: domain.PriorityMedium, Months: 25, GeoSource: "original"}
	got := summary{ID: obj.ID, Type: obj.ResourceType, Level: obj.Priority.Level, Months: obj.Prediction.MonthsRemaining, GeoSource: obj.GeoSource}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("assessment mismatch (-want +got):\n%s", diff)
	}
	assert.Equal(t, testNow, obj.AssessedAt)
}

func TestAssessmentTransformer_ReverseGeocodedRegionPassesValidation(t *testing.T) {
	freezeClock(t)
	data := []byte(`{"name":"Shardara","resource_type":"reservoir","water_type":"fresh","technical_condition":2,"passport_date":"2020-01-10","latitude":41.25,"longitude":67.97}`)
	raw := domain.RawEvent{Key: []byte("shardara"), Value: data}

	_, err := pipeline.NewTransformer(nil, discardLogger()).Transform(context.Background(), raw)
	require.ErrorIs(t, err, domain.ErrMissingField)

	obj, err := pipeline.NewTransformer(regionGeocoder{region: "Turkistan Region"}, discardLogger()).Transform(context.Background(), raw)
	require.NoError(t, err)
	assert.Equal(t, "Turkistan Region", obj.Region)
	assert.Equal(t, "reverse", obj.GeoSource)
}

func TestAssessmentTransformer_DefaultPosition(t *testing.T) {
	freezeClock(t)
	data := []byte(`{"id":"aral","name":"Small Aral","region":"Kyzylorda Region","resource_type":"lake","water_type":"saline","fauna":true,"technical_condition":4}`)

	obj, err := pipeline.NewTransformer(nil, discardLogger()).Transform(context.Background(), domain.RawEvent{Value: data})
	require.NoError(t, err)
	assert.Equal(t, domain.DefaultLatitude, obj.Latitude)
	assert.Equal(t, domain.DefaultLongitude, obj.Longitude)
	assert.Equal(t, "default", obj.GeoSource)
	assert.True(t, obj.Prediction.Critical)
}

func TestAssessmentTransformer_Malformed(t *testing.T) {
	_, err := pipeline.NewTransformer(nil, discardLogger()).Transform(context.Background(), domain.RawEvent{Value: []byte("not json")})
	require.ErrorIs(t, err, domain.ErrMalformedRecord)
	assert.Equal(t, "malformed", pipeline.RejectReason(err))
}

func TestRejectReason(t *testing.T) {
	tests := []struct {
		err  error
		want string
	}{
		{fmt.Errorf("%w: eof", domain.ErrMalformedRecord), "malformed"},
		{&domain.ValidationError{Field: "name", Err: domain.ErrMissingField}, "missing_field"},
		{&domain.ValidationError{Field: "latitude", Value: 91.0, Err: domain.ErrCoordinatesOutOfBand}, "out_of_range"},
		{&domain.ValidationError{Field: "resource_type", Value: "pond", Err: domain.ErrUnknownResourceType}, "unknown_type"},
		{&domain.ValidationError{Field: "water_type", Value: "brackish", Err: domain.ErrUnknownWaterType}, "unknown_type"},
		{&domain.ValidationError{Field: "passport_date", Value: "31.02", Err: domain.ErrInvalidPassportDate}, "invalid_date"},
		{errors.New("boom"), "other"},
	}
	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			assert.Equal(t, tt.want, pipeline.RejectReason(tt.err))
		})
	}
}

// --- helpers ---

var testNow = time.Date(2025, time.March, 14, 10, 30, 0, 0, time.UTC)

func freezeClock(t *testing.T) {
	t.Helper()
	domain.SetClock(clockwork.NewFakeClockAt(testNow))
	t.Cleanup(func() { domain.SetClock(nil) })
}

// makeRawEvent builds an importer record for a dry navigation lock with a
// passport issued on 2022-05-01.
func makeRawEvent(t *testing.T, id string, condition int) domain.RawEvent {
	t.Helper()
	data, err := json.Marshal(map[string]any{
		"id":                  id,
		"name":                "Lock " + id,
		"region":              "East Kazakhstan Region",
		"resource_type":       "lock",
		"water_type":          "none",
		"fauna":               false,
		"passport_date":       "2022-05-01",
		"technical_condition": condition,
		"latitude":            49.15,
		"longitude":           84.05,
	})
	require.NoError(t, err)
	return domain.RawEvent{
		Key:   []byte(id),
		Value: data,
	}
}
