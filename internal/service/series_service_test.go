package service

import (
	"context"
	"errors"
	"fmt"
	"net"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/status"
	"google.golang.org/grpc/test/bufconn"
	"google.golang.org/protobuf/types/known/structpb"

	seriesv1 "github.com/Leganyst/event-series/internal/api/series/v1"
	"github.com/Leganyst/event-series/internal/repository"
	"github.com/Leganyst/event-series/internal/series"
)

func newClient(t *testing.T) seriesv1.SeriesServiceClient {
	t.Helper()

	svc := series.NewService(repository.NewMemorySeriesStore(), zerolog.Nop(),
		series.WithClock(func() time.Time { return time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC) }))

	lis := bufconn.Listen(1 << 20)
	srv := grpc.NewServer(grpc.UnaryInterceptor(LoggingInterceptor(zerolog.Nop())))
	seriesv1.RegisterSeriesServiceServer(srv, NewSeriesService(svc, zerolog.Nop()))
	go func() { _ = srv.Serve(lis) }()
	t.Cleanup(srv.Stop)

	conn, err := grpc.NewClient("passthrough:///bufnet",
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) {
			return lis.DialContext(ctx)
		}),
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })

	return seriesv1.NewSeriesServiceClient(conn)
}

func req(t *testing.T, m map[string]any) *structpb.Struct {
	t.Helper()
	s, err := structpb.NewStruct(m)
	require.NoError(t, err)
	return s
}

func requireCode(t *testing.T, want codes.Code, err error) {
	t.Helper()
	require.Error(t, err)
	assert.Equal(t, want, status.Code(err), err.Error())
}

func createDaily(t *testing.T, c seriesv1.SeriesServiceClient, count int) string {
	t.Helper()
	resp, err := c.CreateSeries(context.Background(), req(t, map[string]any{
		"title":     "standup",
		"starts_at": "2024-03-01T09:00:00Z",
		"ends_at":   "2024-03-01T10:00:00Z",
		"activate":  true,
		"rule": map[string]any{
			"frequency":        "daily",
			"occurrence_count": count,
		},
	}))
	require.NoError(t, err)

	tpl := resp.GetFields()["series"].GetStructValue().GetFields()
	assert.Equal(t, "active", tpl["series_status"].GetStringValue())
	assert.Equal(t, "series", tpl["kind"].GetStringValue())
	return tpl["id"].GetStringValue()
}

func TestSeriesService_Lifecycle(t *testing.T) {
	c := newClient(t)
	ctx := context.Background()
	id := createDaily(t, c, 5)

	march := map[string]any{"start": "2024-03-01T00:00:00Z", "end": "2024-03-31T23:59:59Z"}

	gen, err := c.GenerateRecurringInstances(ctx, req(t, map[string]any{
		"series_id": id, "start": march["start"], "end": march["end"],
	}))
	require.NoError(t, err)
	instances := gen.GetFields()["instances"].GetListValue().GetValues()
	require.Len(t, instances, 5)
	assert.Empty(t, gen.GetFields()["failed_dates"].GetListValue().GetValues())
	first := instances[0].GetStructValue().GetFields()
	assert.Equal(t, "2024-03-01", first["original_start_date"].GetStringValue())
	assert.Equal(t, id, first["parent_event_id"].GetStringValue())

	edit, err := c.EditOccurrence(ctx, req(t, map[string]any{
		"series_id": id, "date": "2024-03-02", "title": "moved", "starts_at": "2024-03-02T11:00:00Z", "ends_at": "2024-03-02T12:00:00Z",
	}))
	require.NoError(t, err)
	inst := edit.GetFields()["instance"].GetStructValue().GetFields()
	assert.Equal(t, "moved", inst["title"].GetStringValue())
	assert.True(t, inst["is_modified"].GetBoolValue())
	assert.Equal(t, "2024-03-02T11:00:00Z", inst["starts_at"].GetStringValue())

	page, err := c.FindInDateRange(ctx, req(t, map[string]any{
		"start": march["start"], "end": march["end"], "page_size": 2,
	}))
	require.NoError(t, err)
	assert.Equal(t, float64(5), page.GetFields()["total"].GetNumberValue())
	assert.True(t, page.GetFields()["has_next"].GetBoolValue())
	assert.Len(t, page.GetFields()["events"].GetListValue().GetValues(), 2)

	_, err = c.CancelOccurrence(ctx, req(t, map[string]any{"series_id": id, "date": "2024-03-03"}))
	require.NoError(t, err)

	page, err = c.FindInDateRange(ctx, req(t, march))
	require.NoError(t, err)
	assert.Equal(t, float64(4), page.GetFields()["total"].GetNumberValue())

	doc, err := c.ExportICS(ctx, req(t, map[string]any{"series_id": id}))
	require.NoError(t, err)
	ics := doc.GetFields()["ics"].GetStringValue()
	assert.Contains(t, ics, "BEGIN:VCALENDAR")
	assert.Contains(t, ics, "RRULE:")
	assert.Contains(t, ics, "EXDATE")

	cancelled, err := c.CancelSeries(ctx, req(t, map[string]any{"series_id": id}))
	require.NoError(t, err)
	// 3/1, 3/4 and 3/5; 3/2 is modified and 3/3 already gone
	assert.Equal(t, float64(3), cancelled.GetFields()["removed"].GetNumberValue())

	_, err = c.EditOccurrence(ctx, req(t, map[string]any{"series_id": id, "date": "2024-03-04", "title": "late"}))
	requireCode(t, codes.FailedPrecondition, err)
}

func TestSeriesService_DeleteInstance(t *testing.T) {
	c := newClient(t)
	ctx := context.Background()
	id := createDaily(t, c, 3)

	gen, err := c.GenerateRecurringInstances(ctx, req(t, map[string]any{
		"series_id": id, "start": "2024-03-01T00:00:00Z", "end": "2024-03-10T00:00:00Z",
	}))
	require.NoError(t, err)
	instances := gen.GetFields()["instances"].GetListValue().GetValues()
	require.Len(t, instances, 3)
	instanceID := instances[1].GetStructValue().GetFields()["id"].GetStringValue()

	_, err = c.DeleteInstance(ctx, req(t, map[string]any{"instance_id": instanceID}))
	require.NoError(t, err)

	gen, err = c.GenerateRecurringInstances(ctx, req(t, map[string]any{
		"series_id": id, "start": "2024-03-01T00:00:00Z", "end": "2024-03-10T00:00:00Z",
	}))
	require.NoError(t, err)
	assert.Len(t, gen.GetFields()["instances"].GetListValue().GetValues(), 2)

	_, err = c.DeleteInstance(ctx, req(t, map[string]any{"instance_id": id}))
	requireCode(t, codes.FailedPrecondition, err)
}

func TestSeriesService_ReversedWindowIsEmpty(t *testing.T) {
	c := newClient(t)
	id := createDaily(t, c, 3)

	gen, err := c.GenerateRecurringInstances(context.Background(), req(t, map[string]any{
		"series_id": id, "start": "2024-03-10T00:00:00Z", "end": "2024-03-01T00:00:00Z",
	}))
	require.NoError(t, err)
	assert.Empty(t, gen.GetFields()["instances"].GetListValue().GetValues())
}

func TestSeriesService_ErrorCodes(t *testing.T) {
	c := newClient(t)
	ctx := context.Background()
	id := createDaily(t, c, 3)

	_, err := c.ActivateSeries(ctx, req(t, map[string]any{"series_id": "nope"}))
	requireCode(t, codes.InvalidArgument, err)

	_, err = c.ActivateSeries(ctx, req(t, map[string]any{"series_id": "0b8f6d1e-3c1a-4f8e-9d7b-2a6c5e4f3b21"}))
	requireCode(t, codes.NotFound, err)

	_, err = c.CreateSeries(ctx, req(t, map[string]any{
		"title": "bad", "starts_at": "2024-03-01T09:00:00Z", "ends_at": "2024-03-01T10:00:00Z",
		"rule": map[string]any{"frequency": "hourly"},
	}))
	requireCode(t, codes.InvalidArgument, err)

	_, err = c.CreateSeries(ctx, req(t, map[string]any{
		"title": "bad", "starts_at": "2024-03-01T09:00:00Z", "ends_at": "2024-03-01T10:00:00Z",
		"rule": map[string]any{"frequency": "daily", "interval": 1.5},
	}))
	requireCode(t, codes.InvalidArgument, err)

	_, err = c.EditOccurrence(ctx, req(t, map[string]any{"series_id": id, "date": "2024-04-01", "title": "x"}))
	requireCode(t, codes.InvalidArgument, err)

	_, err = c.FindInDateRange(ctx, req(t, map[string]any{"start": "yesterday", "end": "2024-03-01T00:00:00Z"}))
	requireCode(t, codes.InvalidArgument, err)

	_, err = c.CancelOccurrence(ctx, req(t, map[string]any{"series_id": id}))
	requireCode(t, codes.InvalidArgument, err)
}

func TestToStatus(t *testing.T) {
	cases := []struct {
		err  error
		want codes.Code
	}{
		{fmt.Errorf("get series: %w", repository.ErrNotFound), codes.NotFound},
		{series.ErrSeriesDraft, codes.FailedPrecondition},
		{fmt.Errorf("%w: x", series.ErrInvalidRule), codes.InvalidArgument},
		{series.ErrIDConflict, codes.AlreadyExists},
		{context.DeadlineExceeded, codes.DeadlineExceeded},
		{status.Error(codes.Unavailable, "down"), codes.Unavailable},
		{errors.New("boom"), codes.Internal},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, status.Code(toStatus(tc.err)), tc.err.Error())
	}
}
