package db

import (
	"database/sql"
	"fmt"
	"time"
)

// StartTransaction starts a new database transaction.
func StartTransaction(db *sql.DB) (*sql.Tx, error) {
	tx, err := db.Begin()
	if err != nil {
		return nil, fmt.Errorf("failed to start transaction: %w", err)
	}
	return tx, nil
}

// CommitTransaction commits the given transaction.
func CommitTransaction(tx *sql.Tx) error {
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// RollbackTransaction rolls back the given transaction.
func RollbackTransaction(tx *sql.Tx) {
	tx.Rollback()
}

// SetSelection makes option the only choice in its group.
func SetSelection(db *sql.DB, group, option string) error {
	tx, err := StartTransaction(db)
	if err != nil {
		return err
	}
	if err := SetSelectionWithTx(tx, group, option); err != nil {
		RollbackTransaction(tx)
		return err
	}
	return CommitTransaction(tx)
}

func SetSelectionWithTx(tx *sql.Tx, group, option string) error {
	_, err := tx.Exec(`DELETE FROM selections WHERE group_name = ?`, group)
	if err != nil {
		return fmt.Errorf("clear selection %s: %w", group, err)
	}
	_, err = tx.Exec(`INSERT INTO selections (group_name, option, updated_at) VALUES (?, ?, ?)`,
		group, option, time.Now().Format(time.RFC3339))
	if err != nil {
		return fmt.Errorf("set selection %s: %w", group, err)
	}
	return nil
}

func SetFlag(db *sql.DB, name string, value bool) error {
	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("start transaction: %w", err)
	}
	_, err = tx.Exec(`INSERT INTO flags (name, value, updated_at) VALUES (?, ?, ?)
		ON CONFLICT(name) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`,
		name, value, time.Now().Format(time.RFC3339))
	if err != nil {
		tx.Rollback()
		return fmt.Errorf("set flag %s: %w", name, err)
	}
	return tx.Commit()
}

// ClearFlags drops every session flag; selections survive.
func ClearFlags(db *sql.DB) error {
	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("start transaction: %w", err)
	}
	if _, err = tx.Exec(`DELETE FROM flags`); err != nil {
		tx.Rollback()
		return fmt.Errorf("clear flags: %w", err)
	}
	return tx.Commit()
}
