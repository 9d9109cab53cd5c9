package db

import (
	"database/sql"
	"errors"
	"fmt"
)

// GetSelection returns the chosen option of a radio group, or "" when
// nothing has been chosen yet.
func GetSelection(db *sql.DB, group string) (string, error) {
	var option string
	err := db.QueryRow(`SELECT option FROM selections WHERE group_name = ?`, group).Scan(&option)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to get selection %s: %w", group, err)
	}
	return option, nil
}

// GetAllSelections retrieves every group that has a choice.
func GetAllSelections(db *sql.DB) (map[string]string, error) {
	rows, err := db.Query(`SELECT group_name, option FROM selections`)
	if err != nil {
		return nil, fmt.Errorf("failed to query selections: %w", err)
	}
	defer rows.Close()

	out := make(map[string]string)
	for rows.Next() {
		var group, option string
		if err := rows.Scan(&group, &option); err != nil {
			return nil, fmt.Errorf("failed to scan selection: %w", err)
		}
		out[group] = option
	}
	return out, rows.Err()
}

// GetFlag reports a session flag; unset flags read as false.
func GetFlag(db *sql.DB, name string) (bool, error) {
	var value bool
	err := db.QueryRow(`SELECT value FROM flags WHERE name = ?`, name).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to get flag %s: %w", name, err)
	}
	return value, nil
}
