//go:build integration

// Package integration_tests exercises the full stack: service orchestration
// over Postgres stores with Redis leases, as deployed.
package integration_tests

import (
	"context"
	"strconv"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"

	"census/internal/citizens/models"
	"census/internal/citizens/service"
	"census/internal/citizens/store"
	"census/internal/citizens/store/dataset"
	"census/internal/citizens/store/report"
	"census/internal/platform/lock"
	dErrors "census/pkg/domain-errors"
	"census/pkg/testutil/containers"
)

type stack struct {
	datasets *dataset.PostgresStore
	reports  *report.PostgresStore
	redis    *containers.RedisContainer
}

// newStack starts Postgres and Redis and returns the shared stores. Each
// newService call on top of it stands in for one worker process.
func newStack(t *testing.T) *stack {
	t.Helper()

	pg := containers.NewPostgresContainer(t)
	pg.Exec(t, store.Schema)

	return &stack{
		datasets: dataset.NewPostgres(pg.Pool),
		reports:  report.NewPostgres(pg.Pool),
		redis:    containers.NewRedisContainer(t),
	}
}

func (s *stack) newService(t *testing.T, holder string, opts ...service.Option) *service.Service {
	t.Helper()
	locker := lock.NewRedis(s.redis.Client, lock.WithHolder(holder))
	svc, err := service.New(s.datasets, s.reports, locker, opts...)
	require.NoError(t, err)
	return svc
}

func registryCitizens() []models.Citizen {
	return []models.Citizen{
		{
			CitizenID: 1, Town: "Moscow", Street: "Lva Tolstogo", Building: "16k7",
			Apartment: 7, Name: "Ivanov Ivan Ivanovich",
			BirthDate: models.NewDate(1986, time.December, 26),
			Gender:    "male", Relatives: []int64{2, 3},
		},
		{
			CitizenID: 2, Town: "Moscow", Street: "Lva Tolstogo", Building: "16k7",
			Apartment: 7, Name: "Ivanova Maria Leonidovna",
			BirthDate: models.NewDate(1986, time.November, 19),
			Gender:    "female", Relatives: []int64{1},
		},
		{
			CitizenID: 3, Town: "Kerch", Street: "Iosifa Brodskogo", Building: "2",
			Apartment: 11, Name: "Romanova Maria Leonidovna",
			BirthDate: models.NewDate(1988, time.April, 23),
			Gender:    "female", Relatives: []int64{1},
		},
	}
}

func TestRegistry_FullFlow(t *testing.T) {
	ctx := context.Background()
	svc := newStack(t).newService(t, "worker-1")

	importID, err := svc.CreateImport(ctx, registryCitizens())
	require.NoError(t, err)

	citizens, err := svc.ListCitizens(ctx, importID)
	require.NoError(t, err)
	require.Len(t, citizens, 3)

	report, err := svc.GetBirthdays(ctx, importID)
	require.NoError(t, err)
	require.Len(t, report, 12)
	assert.ElementsMatch(t, []models.GiftCount{{CitizenID: 2, Presents: 1}, {CitizenID: 3, Presents: 1}}, report["12"])
	assert.ElementsMatch(t, []models.GiftCount{{CitizenID: 1, Presents: 1}}, report["11"])
	assert.ElementsMatch(t, []models.GiftCount{{CitizenID: 1, Presents: 1}}, report["4"])

	// The report is frozen at first computation.
	moved := models.NewDate(1986, time.July, 1)
	_, err = svc.PatchCitizen(ctx, importID, 2, models.CitizenPatch{BirthDate: &moved})
	require.NoError(t, err)

	again, err := svc.GetBirthdays(ctx, importID)
	require.NoError(t, err)
	assert.Equal(t, report, again)
}

func TestRegistry_TwoWorkersComputeReportOnce(t *testing.T) {
	ctx := context.Background()
	st := newStack(t)

	var computed atomic.Int64
	recorder := &countingReports{PostgresStore: st.reports, puts: &computed}

	worker1, err := service.New(st.datasets, recorder,
		lock.NewRedis(st.redis.Client, lock.WithHolder("worker-1")))
	require.NoError(t, err)
	worker2, err := service.New(st.datasets, recorder,
		lock.NewRedis(st.redis.Client, lock.WithHolder("worker-2")))
	require.NoError(t, err)

	importID, err := worker1.CreateImport(ctx, registryCitizens())
	require.NoError(t, err)

	var g errgroup.Group
	results := make([]models.GiftReport, 8)
	for i := 0; i < 8; i++ {
		worker := worker1
		if i%2 == 1 {
			worker = worker2
		}
		g.Go(func() error {
			got, err := worker.GetBirthdays(ctx, importID)
			if err != nil {
				return err
			}
			results[i] = got
			return nil
		})
	}
	require.NoError(t, g.Wait())

	assert.Equal(t, int64(1), computed.Load(), "one worker computes, everyone else reads the cache")
	for i := 1; i < len(results); i++ {
		assert.Equal(t, results[0], results[i])
	}
}

func TestRegistry_ContendedImportTimesOut(t *testing.T) {
	ctx := context.Background()
	st := newStack(t)

	svc := st.newService(t, "worker-1", service.WithLockParams(time.Minute, 300*time.Millisecond))

	importID, err := svc.CreateImport(ctx, registryCitizens())
	require.NoError(t, err)

	blocker := lock.NewRedis(st.redis.Client, lock.WithHolder("stuck-worker"))
	lease, err := blocker.Acquire(ctx, strconv.FormatInt(importID, 10), time.Minute, time.Second)
	require.NoError(t, err)
	defer blocker.Release(ctx, lease)

	_, err = svc.ListCitizens(ctx, importID)
	require.Error(t, err)
	assert.Equal(t, dErrors.CodeTimeout, dErrors.CodeOf(err))
}

// countingReports wraps the Postgres report store to count cache fills.
type countingReports struct {
	*report.PostgresStore
	puts *atomic.Int64
}

func (c *countingReports) Put(ctx context.Context, importID int64, r models.GiftReport) error {
	c.puts.Add(1)
	return c.PostgresStore.Put(ctx, importID, r)
}
