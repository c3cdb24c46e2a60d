package postgres

import (
	"database/sql"
	stderrors "errors"
	"fmt"

	"github.com/julianstephens/carrot/internal/errors"
	"github.com/julianstephens/carrot/internal/models"
)

func scanCount(row scanner) (models.Count, error) {
	var c models.Count
	if err := row.Scan(&c.ID, &c.Date, &c.TrackableID, &c.Count); err != nil {
		return models.Count{}, err
	}
	if !models.ValidDate(c.Date) {
		return models.Count{}, errors.InvalidData(
			fmt.Sprintf("scan count %d", c.ID),
			fmt.Errorf("malformed date %q", c.Date),
		)
	}
	return c, nil
}

func (s *Store) GetCount(trackableID int64, date string) (*models.Count, error) {
	op := fmt.Sprintf("get count for trackable %d on %s", trackableID, date)
	db, err := s.conn(op)
	if err != nil {
		return nil, err
	}

	c, err := scanCount(db.QueryRow(`
		SELECT id, date, trackable_id, count
		FROM counts WHERE trackable_id = $1 AND date = $2`,
		trackableID, date))
	if err != nil {
		if stderrors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, wrap(op, err)
	}
	return &c, nil
}

func (s *Store) GetAllCounts(trackableID int64) ([]models.Count, error) {
	op := fmt.Sprintf("get counts for trackable %d", trackableID)
	db, err := s.conn(op)
	if err != nil {
		return nil, err
	}

	rows, err := db.Query(`
		SELECT id, date, trackable_id, count
		FROM counts WHERE trackable_id = $1
		ORDER BY date DESC`,
		trackableID)
	if err != nil {
		return nil, errors.StorageIO(op, err)
	}
	defer rows.Close()

	counts := []models.Count{}
	for rows.Next() {
		c, err := scanCount(rows)
		if err != nil {
			return nil, wrap(op, err)
		}
		counts = append(counts, c)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.StorageIO(op, err)
	}
	return counts, nil
}

func (s *Store) IncrementCount(trackableID int64, date string) (models.Count, error) {
	return s.upsertCount("increment count", trackableID, date, `
		INSERT INTO counts (date, trackable_id, count)
		SELECT $1::text, id, 1 FROM trackables WHERE id = $2
		ON CONFLICT (date, trackable_id) DO UPDATE SET count = counts.count + 1
		RETURNING id, date, trackable_id, count`,
		date, trackableID)
}

func (s *Store) DecrementCount(trackableID int64, date string) (models.Count, error) {
	return s.upsertCount("decrement count", trackableID, date, `
		INSERT INTO counts (date, trackable_id, count)
		SELECT $1::text, id, 0 FROM trackables WHERE id = $2
		ON CONFLICT (date, trackable_id) DO UPDATE SET count = GREATEST(counts.count - 1, 0)
		RETURNING id, date, trackable_id, count`,
		date, trackableID)
}

func (s *Store) SetCount(trackableID int64, date string, count int) (models.Count, error) {
	return s.upsertCount("set count", trackableID, date, `
		INSERT INTO counts (date, trackable_id, count)
		SELECT $1::text, id, $2::integer FROM trackables WHERE id = $3
		ON CONFLICT (date, trackable_id) DO UPDATE SET count = EXCLUDED.count
		RETURNING id, date, trackable_id, count`,
		date, count, trackableID)
}

func (s *Store) upsertCount(op string, trackableID int64, date, query string, args ...any) (models.Count, error) {
	op = fmt.Sprintf("%s for trackable %d on %s", op, trackableID, date)
	db, err := s.conn(op)
	if err != nil {
		return models.Count{}, err
	}

	c, err := scanCount(db.QueryRow(query, args...))
	if err != nil {
		if stderrors.Is(err, sql.ErrNoRows) {
			return models.Count{}, errors.NotFound(op)
		}
		return models.Count{}, wrap(op, err)
	}
	return c, nil
}
