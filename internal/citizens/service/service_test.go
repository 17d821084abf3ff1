package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"census/internal/citizens/models"
	"census/internal/citizens/service/mocks"
	"census/internal/citizens/store/dataset"
	"census/internal/citizens/store/report"
	"census/internal/platform/lock"
	dErrors "census/pkg/domain-errors"
	"census/pkg/platform/audit"
)

func validCitizens() []models.Citizen {
	return []models.Citizen{
		{
			CitizenID: 1, Town: "Moscow", Street: "Lva Tolstogo", Building: "16k7",
			Apartment: 7, Name: "Ivanov Ivan Ivanovich",
			BirthDate: models.NewDate(1986, time.December, 26),
			Gender:    "male", Relatives: []int64{2},
		},
		{
			CitizenID: 2, Town: "Moscow", Street: "Lva Tolstogo", Building: "16k7",
			Apartment: 7, Name: "Ivanova Maria Leonidovna",
			BirthDate: models.NewDate(1986, time.November, 19),
			Gender:    "female", Relatives: []int64{1},
		},
	}
}

func newTestService(t *testing.T, opts ...Option) *Service {
	t.Helper()
	svc, err := New(dataset.NewMemory(), report.NewMemory(), lock.NewMemory(), opts...)
	require.NoError(t, err)
	return svc
}

func TestNew_RequiresDependencies(t *testing.T) {
	_, err := New(nil, report.NewMemory(), lock.NewMemory())
	assert.Error(t, err)
	_, err = New(dataset.NewMemory(), nil, lock.NewMemory())
	assert.Error(t, err)
	_, err = New(dataset.NewMemory(), report.NewMemory(), nil)
	assert.Error(t, err)
}

func TestCreateImport_AssignsSequentialIDs(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(t)

	first, err := svc.CreateImport(ctx, validCitizens())
	require.NoError(t, err)
	second, err := svc.CreateImport(ctx, validCitizens())
	require.NoError(t, err)

	assert.Equal(t, int64(1), first)
	assert.Equal(t, int64(2), second)
}

func TestCreateImport_Validation(t *testing.T) {
	ctx := context.Background()

	cases := []struct {
		name    string
		mutate  func([]models.Citizen) []models.Citizen
		wantErr bool
	}{
		{"valid", func(c []models.Citizen) []models.Citizen { return c }, false},
		{"empty list", func([]models.Citizen) []models.Citizen { return nil }, true},
		{"duplicate citizen_id", func(c []models.Citizen) []models.Citizen {
			c[1].CitizenID = c[0].CitizenID
			c[0].Relatives = []int64{}
			c[1].Relatives = []int64{}
			return c
		}, true},
		{"unknown relative", func(c []models.Citizen) []models.Citizen {
			c[0].Relatives = []int64{99}
			return c
		}, true},
		{"non-mutual relation", func(c []models.Citizen) []models.Citizen {
			c[1].Relatives = []int64{}
			return c
		}, true},
		{"bad gender", func(c []models.Citizen) []models.Citizen {
			c[0].Gender = "other"
			return c
		}, true},
		{"missing town", func(c []models.Citizen) []models.Citizen {
			c[0].Town = ""
			return c
		}, true},
		{"future birth date", func(c []models.Citizen) []models.Citizen {
			c[0].BirthDate = models.NewDate(2100, time.January, 1)
			return c
		}, true},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			svc := newTestService(t)
			_, err := svc.CreateImport(ctx, tc.mutate(validCitizens()))
			if tc.wantErr {
				require.Error(t, err)
				assert.Equal(t, dErrors.CodeBadRequest, dErrors.CodeOf(err))
			} else {
				require.NoError(t, err)
			}
		})
	}
}

func TestCreateImport_StoreFailureIsUnavailable(t *testing.T) {
	ctx := context.Background()
	ctrl := gomock.NewController(t)

	datasets := mocks.NewMockDatasetStore(ctrl)
	datasets.EXPECT().
		CreateImport(gomock.Any(), gomock.Any()).
		Return(int64(0), errors.New("connection refused"))

	svc, err := New(datasets, report.NewMemory(), lock.NewMemory())
	require.NoError(t, err)

	_, err = svc.CreateImport(ctx, validCitizens())
	require.Error(t, err)
	assert.Equal(t, dErrors.CodeUnavailable, dErrors.CodeOf(err))
}

func TestListCitizens(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(t)

	importID, err := svc.CreateImport(ctx, validCitizens())
	require.NoError(t, err)

	citizens, err := svc.ListCitizens(ctx, importID)
	require.NoError(t, err)
	assert.Len(t, citizens, 2)

	_, err = svc.ListCitizens(ctx, importID+100)
	require.Error(t, err)
	assert.Equal(t, dErrors.CodeNotFound, dErrors.CodeOf(err))
}

func TestListCitizens_TimesOutWhenImportIsLocked(t *testing.T) {
	ctx := context.Background()
	locker := lock.NewMemory()
	svc, err := New(dataset.NewMemory(), report.NewMemory(), locker,
		WithLockParams(time.Minute, 30*time.Millisecond))
	require.NoError(t, err)

	importID, err := svc.CreateImport(ctx, validCitizens())
	require.NoError(t, err)

	other := locker.Sibling("other-worker")
	lease, err := other.Acquire(ctx, importResource(importID), time.Minute, time.Second)
	require.NoError(t, err)
	defer other.Release(ctx, lease)

	_, err = svc.ListCitizens(ctx, importID)
	require.Error(t, err)
	assert.Equal(t, dErrors.CodeTimeout, dErrors.CodeOf(err))
}

func TestPatchCitizen(t *testing.T) {
	ctx := context.Background()
	recorder := &audit.Recorder{}
	svc := newTestService(t, WithAuditPublisher(recorder))

	importID, err := svc.CreateImport(ctx, validCitizens())
	require.NoError(t, err)

	town := "Saint Petersburg"
	updated, err := svc.PatchCitizen(ctx, importID, 1, models.CitizenPatch{Town: &town})
	require.NoError(t, err)
	assert.Equal(t, "Saint Petersburg", updated.Town)
	assert.Equal(t, "Lva Tolstogo", updated.Street, "unpatched fields keep their values")

	events := recorder.Events()
	require.Len(t, events, 2)
	assert.Equal(t, audit.ActionCitizenPatched, events[1].Action)
	assert.Equal(t, int64(1), events[1].CitizenID)
}

func TestPatchCitizen_Validation(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(t)

	importID, err := svc.CreateImport(ctx, validCitizens())
	require.NoError(t, err)

	gender := "unknown"
	empty := ""
	future := models.NewDate(2100, time.January, 1)

	cases := []struct {
		name  string
		patch models.CitizenPatch
	}{
		{"empty patch", models.CitizenPatch{}},
		{"bad gender", models.CitizenPatch{Gender: &gender}},
		{"empty town", models.CitizenPatch{Town: &empty}},
		{"future birth date", models.CitizenPatch{BirthDate: &future}},
		{"unknown relative", models.CitizenPatch{Relatives: &[]int64{777}}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.PatchCitizen(ctx, importID, 1, tc.patch)
			require.Error(t, err)
			assert.Equal(t, dErrors.CodeBadRequest, dErrors.CodeOf(err))
		})
	}
}

func TestPatchCitizen_NotFound(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(t)

	importID, err := svc.CreateImport(ctx, validCitizens())
	require.NoError(t, err)

	name := "Nobody"
	_, err = svc.PatchCitizen(ctx, importID, 42, models.CitizenPatch{Name: &name})
	require.Error(t, err)
	assert.Equal(t, dErrors.CodeNotFound, dErrors.CodeOf(err))
}

func TestPatchCitizen_KeepsRelativesSymmetric(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(t)

	citizens := append(validCitizens(), models.Citizen{
		CitizenID: 3, Town: "Kerch", Street: "Iosifa Brodskogo", Building: "2",
		Apartment: 11, Name: "Romanova Maria Leonidovna",
		BirthDate: models.NewDate(1988, time.April, 23),
		Gender:    "female", Relatives: []int64{},
	})
	importID, err := svc.CreateImport(ctx, citizens)
	require.NoError(t, err)

	// Citizen 1 drops 2 and adds 3; both sides must be mirrored.
	_, err = svc.PatchCitizen(ctx, importID, 1, models.CitizenPatch{Relatives: &[]int64{3}})
	require.NoError(t, err)

	got, err := svc.ListCitizens(ctx, importID)
	require.NoError(t, err)

	byID := make(map[int64]models.Citizen, len(got))
	for _, c := range got {
		byID[c.CitizenID] = c
	}
	assert.Equal(t, []int64{3}, byID[1].Relatives)
	assert.Empty(t, byID[2].Relatives)
	assert.Equal(t, []int64{1}, byID[3].Relatives)
}
