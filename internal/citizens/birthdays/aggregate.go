// Package birthdays computes the month-bucketed gift report for an import.
package birthdays

import (
	"strconv"

	"census/internal/citizens/models"
)

// Aggregate folds citizens into a gift report: for every relatives entry of
// every citizen, the relative owes one more present in the citizen's birth
// month. Duplicate relatives entries count as separate edges. The result is
// normalized to the full twelve-month shape before it is returned, so the
// cache only ever sees complete reports.
//
// Pure and deterministic: no I/O, no shared state, and input order does not
// affect the counts.
func Aggregate(citizens []models.Citizen) models.GiftReport {
	counts := make(map[int]map[int64]int)
	for _, citizen := range citizens {
		month := int(citizen.BirthDate.Month())
		for _, relativeID := range citizen.Relatives {
			if counts[month] == nil {
				counts[month] = make(map[int64]int)
			}
			counts[month][relativeID]++
		}
	}
	return normalize(counts)
}

// normalize expands raw counts into the presentation shape: all twelve
// months present, empty months as empty lists.
func normalize(counts map[int]map[int64]int) models.GiftReport {
	report := make(models.GiftReport, 12)
	for month := 1; month <= 12; month++ {
		entries := make([]models.GiftCount, 0, len(counts[month]))
		for citizenID, presents := range counts[month] {
			entries = append(entries, models.GiftCount{CitizenID: citizenID, Presents: presents})
		}
		report[strconv.Itoa(month)] = entries
	}
	return report
}
