package db

import (
	"database/sql"
)

func SetSelectionCLI(dbPath, group, option string) error {
	dbConn, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return err
	}
	defer dbConn.Close()

	if err := ApplySchema(dbConn); err != nil {
		return err
	}
	tx, err := StartTransaction(dbConn)
	if err != nil {
		return err
	}
	if err := SetSelectionWithTx(tx, group, option); err != nil {
		RollbackTransaction(tx)
		return err
	}
	return CommitTransaction(tx)
}

func DumpSessionCLI(dbPath string) (map[string]string, map[string]bool, error) {
	dbConn, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, nil, err
	}
	defer dbConn.Close()

	if err := ApplySchema(dbConn); err != nil {
		return nil, nil, err
	}
	selections, err := GetAllSelections(dbConn)
	if err != nil {
		return nil, nil, err
	}

	rows, err := dbConn.Query(`SELECT name, value FROM flags`)
	if err != nil {
		return nil, nil, err
	}
	defer rows.Close()

	flags := make(map[string]bool)
	for rows.Next() {
		var name string
		var value bool
		if err := rows.Scan(&name, &value); err != nil {
			return nil, nil, err
		}
		flags[name] = value
	}
	return selections, flags, rows.Err()
}
