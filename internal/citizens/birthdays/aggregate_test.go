package birthdays

import (
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"census/internal/citizens/models"
)

func citizen(id int64, birth models.Date, relatives ...int64) models.Citizen {
	return models.Citizen{CitizenID: id, BirthDate: birth, Relatives: relatives}
}

func TestAggregate_CountsPresentsPerMonth(t *testing.T) {
	report := Aggregate([]models.Citizen{
		citizen(1, models.NewDate(2000, time.March, 5), 2, 3),
		citizen(4, models.NewDate(2001, time.March, 20), 2),
	})

	march := report["3"]
	require.Len(t, march, 2)
	assert.ElementsMatch(t, []models.GiftCount{
		{CitizenID: 2, Presents: 2},
		{CitizenID: 3, Presents: 1},
	}, march)

	for month := range report {
		if month == "3" {
			continue
		}
		assert.Empty(t, report[month], "month %s should have no presents", month)
	}
}

func TestAggregate_AllTwelveMonthsAlwaysPresent(t *testing.T) {
	for name, citizens := range map[string][]models.Citizen{
		"empty input": nil,
		"single citizen no relatives": {
			citizen(1, models.NewDate(1990, time.July, 1)),
		},
	} {
		t.Run(name, func(t *testing.T) {
			report := Aggregate(citizens)
			require.Len(t, report, 12)
			for month := 1; month <= 12; month++ {
				entries, ok := report[monthKey(month)]
				require.True(t, ok, "missing month %d", month)
				assert.NotNil(t, entries)
				assert.Empty(t, entries)
			}
		})
	}
}

func TestAggregate_DuplicateRelativeEdgesCountSeparately(t *testing.T) {
	report := Aggregate([]models.Citizen{
		citizen(1, models.NewDate(1985, time.December, 31), 7, 7, 7),
	})

	require.Len(t, report["12"], 1)
	assert.Equal(t, models.GiftCount{CitizenID: 7, Presents: 3}, report["12"][0])
}

func TestAggregate_OrderInsensitive(t *testing.T) {
	citizens := []models.Citizen{
		citizen(1, models.NewDate(2000, time.January, 1), 2, 3),
		citizen(2, models.NewDate(2000, time.February, 2), 1),
		citizen(3, models.NewDate(2000, time.January, 3), 1, 2, 2),
		citizen(4, models.NewDate(2000, time.November, 4)),
	}
	want := Aggregate(citizens)

	rng := rand.New(rand.NewSource(1))
	for i := 0; i < 10; i++ {
		shuffled := make([]models.Citizen, len(citizens))
		copy(shuffled, citizens)
		rng.Shuffle(len(shuffled), func(a, b int) {
			shuffled[a], shuffled[b] = shuffled[b], shuffled[a]
		})

		got := Aggregate(shuffled)
		require.Len(t, got, 12)
		for month, entries := range want {
			assert.ElementsMatch(t, entries, got[month], "month %s differs after shuffle", month)
		}
	}
}

func monthKey(month int) string {
	return models.NewDate(2000, time.Month(month), 1).MonthKey()
}
