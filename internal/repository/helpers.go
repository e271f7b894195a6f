package repository

import "database/sql"

// requireAffected превращает UPDATE без задетых строк в доменную ошибку.
func requireAffected(res sql.Result, notFound error) error {
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return notFound
	}
	return nil
}
