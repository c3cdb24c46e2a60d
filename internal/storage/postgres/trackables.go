package postgres

import (
	"database/sql"
	"fmt"

	"github.com/julianstephens/carrot/internal/errors"
	"github.com/julianstephens/carrot/internal/models"
)

type scanner interface {
	Scan(dest ...any) error
}

func scanTrackable(row scanner) (models.Trackable, error) {
	var t models.Trackable
	if err := row.Scan(&t.ID, &t.Name, &t.Color, &t.Order); err != nil {
		return models.Trackable{}, err
	}
	if !models.ValidColor(t.Color) {
		return models.Trackable{}, errors.InvalidData(
			fmt.Sprintf("scan trackable %d", t.ID),
			fmt.Errorf("malformed color %q", t.Color),
		)
	}
	return t, nil
}

// wrap keeps typed storage errors and reports anything else as I/O
func wrap(op string, err error) error {
	if errors.KindOf(err) != nil {
		return err
	}
	return errors.StorageIO(op, err)
}

func (s *Store) GetAllTrackables() ([]models.Trackable, error) {
	const op = "get trackables"
	db, err := s.conn(op)
	if err != nil {
		return nil, err
	}

	rows, err := db.Query(`
		SELECT id, name, color, sort_order
		FROM trackables
		ORDER BY sort_order, id`)
	if err != nil {
		return nil, errors.StorageIO(op, err)
	}
	defer rows.Close()

	trackables := []models.Trackable{}
	for rows.Next() {
		t, err := scanTrackable(rows)
		if err != nil {
			return nil, wrap(op, err)
		}
		trackables = append(trackables, t)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.StorageIO(op, err)
	}
	return trackables, nil
}

func (s *Store) CreateTrackable(name, color string, order int) (models.Trackable, error) {
	const op = "create trackable"
	db, err := s.conn(op)
	if err != nil {
		return models.Trackable{}, err
	}

	t, err := scanTrackable(db.QueryRow(`
		INSERT INTO trackables (name, color, sort_order)
		VALUES ($1, $2, $3)
		RETURNING id, name, color, sort_order`,
		name, color, order))
	if err != nil {
		return models.Trackable{}, wrap(op, err)
	}
	return t, nil
}

func (s *Store) UpdateTrackable(t models.Trackable) error {
	op := fmt.Sprintf("update trackable %d", t.ID)
	db, err := s.conn(op)
	if err != nil {
		return err
	}

	res, err := db.Exec(`
		UPDATE trackables SET name = $1, color = $2, sort_order = $3
		WHERE id = $4`,
		t.Name, t.Color, t.Order, t.ID)
	if err != nil {
		return errors.StorageIO(op, err)
	}
	return requireAffected(op, res)
}

func (s *Store) UpdateTrackableOrders(updates []models.OrderUpdate) error {
	const op = "reorder trackables"
	db, err := s.conn(op)
	if err != nil {
		return err
	}

	tx, err := db.Begin()
	if err != nil {
		return errors.StorageIO(op, err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	for _, u := range updates {
		res, err := tx.Exec("UPDATE trackables SET sort_order = $1 WHERE id = $2", u.Order, u.ID)
		if err != nil {
			return errors.StorageIO(op, err)
		}
		if err := requireAffected(fmt.Sprintf("reorder trackable %d", u.ID), res); err != nil {
			return err
		}
	}

	if err := tx.Commit(); err != nil {
		return errors.StorageIO(op, err)
	}
	return nil
}

func (s *Store) DeleteTrackable(id int64) error {
	op := fmt.Sprintf("delete trackable %d", id)
	db, err := s.conn(op)
	if err != nil {
		return err
	}

	tx, err := db.Begin()
	if err != nil {
		return errors.StorageIO(op, err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	if _, err := tx.Exec("DELETE FROM counts WHERE trackable_id = $1", id); err != nil {
		return errors.StorageIO(op, err)
	}

	res, err := tx.Exec("DELETE FROM trackables WHERE id = $1", id)
	if err != nil {
		return errors.StorageIO(op, err)
	}
	if err := requireAffected(op, res); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return errors.StorageIO(op, err)
	}
	return nil
}

func requireAffected(op string, res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return errors.StorageIO(op, err)
	}
	if n == 0 {
		return errors.NotFound(op)
	}
	return nil
}
