package db

import "database/sql"

// Session binds the query helpers to one connection so callers can hold it
// behind an interface.
type Session struct {
	DB *sql.DB
}

func NewSession(db *sql.DB) *Session {
	return &Session{DB: db}
}

func (s *Session) Selection(group string) (string, error) {
	return GetSelection(s.DB, group)
}

func (s *Session) Select(group, option string) error {
	return SetSelection(s.DB, group, option)
}

func (s *Session) Flag(name string) (bool, error) {
	return GetFlag(s.DB, name)
}

func (s *Session) SetFlag(name string, value bool) error {
	return SetFlag(s.DB, name, value)
}

func (s *Session) ClearFlags() error {
	return ClearFlags(s.DB)
}
