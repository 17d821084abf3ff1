package dataset

import (
	"context"
	"fmt"
	"sync"

	"census/internal/citizens/models"
	"census/pkg/platform/sentinel"
)

// MemoryStore keeps imports in process memory. Used by unit tests and
// store-less development runs; semantics match the Postgres store.
type MemoryStore struct {
	mu      sync.RWMutex
	nextID  int64
	imports map[int64]map[int64]models.Citizen
}

// NewMemory constructs an empty in-memory dataset store.
func NewMemory() *MemoryStore {
	return &MemoryStore{imports: make(map[int64]map[int64]models.Citizen)}
}

func (s *MemoryStore) CreateImport(_ context.Context, citizens []models.Citizen) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.nextID++
	batch := make(map[int64]models.Citizen, len(citizens))
	for _, c := range citizens {
		batch[c.CitizenID] = cloneCitizen(c)
	}
	s.imports[s.nextID] = batch
	return s.nextID, nil
}

func (s *MemoryStore) GetCitizens(_ context.Context, importID int64, fields ...models.Field) ([]models.Citizen, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	batch, ok := s.imports[importID]
	if !ok {
		return nil, fmt.Errorf("import %d: %w", importID, sentinel.ErrNotFound)
	}

	citizens := make([]models.Citizen, 0, len(batch))
	for _, c := range batch {
		citizens = append(citizens, project(c, fields))
	}
	return citizens, nil
}

func (s *MemoryStore) UpdateCitizen(_ context.Context, importID, citizenID int64, patch models.CitizenPatch) (*models.Citizen, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	batch, ok := s.imports[importID]
	if !ok {
		return nil, fmt.Errorf("import %d: %w", importID, sentinel.ErrNotFound)
	}
	citizen, ok := batch[citizenID]
	if !ok {
		return nil, fmt.Errorf("citizen %d in import %d: %w", citizenID, importID, sentinel.ErrNotFound)
	}

	if patch.Town != nil {
		citizen.Town = *patch.Town
	}
	if patch.Street != nil {
		citizen.Street = *patch.Street
	}
	if patch.Building != nil {
		citizen.Building = *patch.Building
	}
	if patch.Apartment != nil {
		citizen.Apartment = *patch.Apartment
	}
	if patch.Name != nil {
		citizen.Name = *patch.Name
	}
	if patch.BirthDate != nil {
		citizen.BirthDate = *patch.BirthDate
	}
	if patch.Gender != nil {
		citizen.Gender = *patch.Gender
	}
	if patch.Relatives != nil {
		added, removed := relativeDiff(citizen.Relatives, *patch.Relatives)
		citizen.Relatives = append([]int64(nil), *patch.Relatives...)

		// Keep the relation symmetric on the other side of every edge.
		// A self-edge needs no repair: the patch itself already covers it.
		for _, id := range removed {
			if id == citizenID {
				continue
			}
			other := batch[id]
			other.Relatives = removeAll(other.Relatives, citizenID)
			batch[id] = other
		}
		for _, id := range added {
			if id == citizenID {
				continue
			}
			other := batch[id]
			if !contains(other.Relatives, citizenID) {
				other.Relatives = append(other.Relatives, citizenID)
			}
			batch[id] = other
		}
	}

	batch[citizenID] = citizen
	result := cloneCitizen(citizen)
	return &result, nil
}

// project zeroes out fields that were not requested. An empty field list
// means the full record.
func project(c models.Citizen, fields []models.Field) models.Citizen {
	full := cloneCitizen(c)
	if len(fields) == 0 {
		return full
	}
	out := models.Citizen{CitizenID: full.CitizenID}
	for _, f := range fields {
		switch f {
		case models.FieldBirthDate:
			out.BirthDate = full.BirthDate
		case models.FieldRelatives:
			out.Relatives = full.Relatives
		}
	}
	return out
}

func cloneCitizen(c models.Citizen) models.Citizen {
	c.Relatives = append([]int64(nil), c.Relatives...)
	return c
}

// relativeDiff returns ids present only in next (added) and only in prev
// (removed), comparing as sets so duplicate edges do not double the repair.
func relativeDiff(prev, next []int64) (added, removed []int64) {
	prevSet := make(map[int64]bool, len(prev))
	for _, id := range prev {
		prevSet[id] = true
	}
	nextSet := make(map[int64]bool, len(next))
	for _, id := range next {
		nextSet[id] = true
	}
	for id := range nextSet {
		if !prevSet[id] {
			added = append(added, id)
		}
	}
	for id := range prevSet {
		if !nextSet[id] {
			removed = append(removed, id)
		}
	}
	return added, removed
}

func removeAll(ids []int64, target int64) []int64 {
	out := ids[:0]
	for _, id := range ids {
		if id != target {
			out = append(out, id)
		}
	}
	return out
}

func contains(ids []int64, target int64) bool {
	for _, id := range ids {
		if id == target {
			return true
		}
	}
	return false
}
