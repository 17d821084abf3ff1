package dataset

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"census/internal/citizens/models"
	"census/pkg/platform/sentinel"
)

// PostgresStore persists imports and citizens in PostgreSQL.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgres constructs a PostgreSQL-backed dataset store.
func NewPostgres(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

var citizenColumns = []string{
	"import_id", "citizen_id", "town", "street", "building",
	"apartment", "name", "birth_date", "gender", "relatives",
}

func (s *PostgresStore) CreateImport(ctx context.Context, citizens []models.Citizen) (int64, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return 0, fmt.Errorf("begin import tx: %w", err)
	}
	defer tx.Rollback(ctx)

	var importID int64
	if err := tx.QueryRow(ctx, `INSERT INTO imports DEFAULT VALUES RETURNING import_id`).Scan(&importID); err != nil {
		return 0, fmt.Errorf("allocate import id: %w", err)
	}

	_, err = tx.CopyFrom(ctx, pgx.Identifier{"citizens"}, citizenColumns,
		pgx.CopyFromSlice(len(citizens), func(i int) ([]any, error) {
			c := citizens[i]
			return []any{
				importID, c.CitizenID, c.Town, c.Street, c.Building,
				c.Apartment, c.Name, c.BirthDate.Time, c.Gender, c.Relatives,
			}, nil
		}),
	)
	if err != nil {
		return 0, fmt.Errorf("copy citizens for import %d: %w", importID, err)
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, fmt.Errorf("commit import tx: %w", err)
	}
	return importID, nil
}

func (s *PostgresStore) GetCitizens(ctx context.Context, importID int64, fields ...models.Field) ([]models.Citizen, error) {
	var exists bool
	err := s.pool.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM imports WHERE import_id = $1)`, importID).Scan(&exists)
	if err != nil {
		return nil, fmt.Errorf("check import %d: %w", importID, err)
	}
	if !exists {
		return nil, fmt.Errorf("import %d: %w", importID, sentinel.ErrNotFound)
	}

	if len(fields) > 0 {
		return s.getProjected(ctx, importID, fields)
	}

	rows, err := s.pool.Query(ctx, `
		SELECT citizen_id, town, street, building, apartment, name, birth_date, gender, relatives
		FROM citizens WHERE import_id = $1`, importID)
	if err != nil {
		return nil, fmt.Errorf("query citizens of import %d: %w", importID, err)
	}
	defer rows.Close()

	var citizens []models.Citizen
	for rows.Next() {
		var (
			c     models.Citizen
			birth time.Time
		)
		if err := rows.Scan(&c.CitizenID, &c.Town, &c.Street, &c.Building,
			&c.Apartment, &c.Name, &birth, &c.Gender, &c.Relatives); err != nil {
			return nil, fmt.Errorf("scan citizen: %w", err)
		}
		c.BirthDate = models.Date{Time: birth}
		citizens = append(citizens, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate citizens of import %d: %w", importID, err)
	}
	return citizens, nil
}

// getProjected selects only the requested columns, keeping transfer small on
// the report path where only birth_date and relatives matter.
func (s *PostgresStore) getProjected(ctx context.Context, importID int64, fields []models.Field) ([]models.Citizen, error) {
	columns := []string{"citizen_id"}
	for _, f := range fields {
		switch f {
		case models.FieldBirthDate:
			columns = append(columns, "birth_date")
		case models.FieldRelatives:
			columns = append(columns, "relatives")
		default:
			return nil, fmt.Errorf("unknown projection field %q", f)
		}
	}

	query := fmt.Sprintf(`SELECT %s FROM citizens WHERE import_id = $1`, strings.Join(columns, ", "))
	rows, err := s.pool.Query(ctx, query, importID)
	if err != nil {
		return nil, fmt.Errorf("query projected citizens of import %d: %w", importID, err)
	}
	defer rows.Close()

	var citizens []models.Citizen
	for rows.Next() {
		var (
			c     models.Citizen
			birth time.Time
		)
		dests := []any{&c.CitizenID}
		for _, f := range fields {
			switch f {
			case models.FieldBirthDate:
				dests = append(dests, &birth)
			case models.FieldRelatives:
				dests = append(dests, &c.Relatives)
			}
		}
		if err := rows.Scan(dests...); err != nil {
			return nil, fmt.Errorf("scan projected citizen: %w", err)
		}
		c.BirthDate = models.Date{Time: birth}
		citizens = append(citizens, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate projected citizens of import %d: %w", importID, err)
	}
	return citizens, nil
}

func (s *PostgresStore) UpdateCitizen(ctx context.Context, importID, citizenID int64, patch models.CitizenPatch) (*models.Citizen, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin patch tx: %w", err)
	}
	defer tx.Rollback(ctx)

	var (
		current models.Citizen
		birth   time.Time
	)
	err = tx.QueryRow(ctx, `
		SELECT citizen_id, town, street, building, apartment, name, birth_date, gender, relatives
		FROM citizens WHERE import_id = $1 AND citizen_id = $2
		FOR UPDATE`, importID, citizenID).
		Scan(&current.CitizenID, &current.Town, &current.Street, &current.Building,
			&current.Apartment, &current.Name, &birth, &current.Gender, &current.Relatives)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("citizen %d in import %d: %w", citizenID, importID, sentinel.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("load citizen %d for patch: %w", citizenID, err)
	}
	current.BirthDate = models.Date{Time: birth}

	updated := applyPatch(current, patch)
	_, err = tx.Exec(ctx, `
		UPDATE citizens
		SET town = $3, street = $4, building = $5, apartment = $6,
		    name = $7, birth_date = $8, gender = $9, relatives = $10
		WHERE import_id = $1 AND citizen_id = $2`,
		importID, citizenID,
		updated.Town, updated.Street, updated.Building, updated.Apartment,
		updated.Name, updated.BirthDate.Time, updated.Gender, updated.Relatives)
	if err != nil {
		return nil, fmt.Errorf("update citizen %d: %w", citizenID, err)
	}

	if patch.Relatives != nil {
		added, removed := relativeDiff(current.Relatives, *patch.Relatives)
		if err := repairSymmetry(ctx, tx, importID, citizenID, added, removed); err != nil {
			return nil, err
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit patch tx: %w", err)
	}
	return &updated, nil
}

// repairSymmetry mirrors a relatives change on the other side of every edge.
func repairSymmetry(ctx context.Context, tx pgx.Tx, importID, citizenID int64, added, removed []int64) error {
	removed = withoutSelf(removed, citizenID)
	if len(removed) > 0 {
		_, err := tx.Exec(ctx, `
			UPDATE citizens SET relatives = array_remove(relatives, $2)
			WHERE import_id = $1 AND citizen_id = ANY($3)`,
			importID, citizenID, removed)
		if err != nil {
			return fmt.Errorf("remove mirrored relatives of citizen %d: %w", citizenID, err)
		}
	}

	added = withoutSelf(added, citizenID)
	if len(added) > 0 {
		_, err := tx.Exec(ctx, `
			UPDATE citizens SET relatives = array_append(relatives, $2)
			WHERE import_id = $1 AND citizen_id = ANY($3)
			  AND NOT relatives @> ARRAY[$2]::BIGINT[]`,
			importID, citizenID, added)
		if err != nil {
			return fmt.Errorf("add mirrored relatives of citizen %d: %w", citizenID, err)
		}
	}
	return nil
}

func applyPatch(c models.Citizen, patch models.CitizenPatch) models.Citizen {
	if patch.Town != nil {
		c.Town = *patch.Town
	}
	if patch.Street != nil {
		c.Street = *patch.Street
	}
	if patch.Building != nil {
		c.Building = *patch.Building
	}
	if patch.Apartment != nil {
		c.Apartment = *patch.Apartment
	}
	if patch.Name != nil {
		c.Name = *patch.Name
	}
	if patch.BirthDate != nil {
		c.BirthDate = *patch.BirthDate
	}
	if patch.Gender != nil {
		c.Gender = *patch.Gender
	}
	if patch.Relatives != nil {
		c.Relatives = append([]int64(nil), (*patch.Relatives)...)
	}
	return c
}

func withoutSelf(ids []int64, self int64) []int64 {
	out := ids[:0]
	for _, id := range ids {
		if id != self {
			out = append(out, id)
		}
	}
	return out
}
