package repository

import "database/sql"

// requireAffected turns a zero-row write into sql.ErrNoRows so services can
// translate it to a not-found result.
func requireAffected(result sql.Result) error {
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}
