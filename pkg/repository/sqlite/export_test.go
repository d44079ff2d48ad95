package sqlite

import "database/sql"

var (
	EncodeVector = encodeVector
	DecodeVector = decodeVector
	BuildQuery   = buildQuery
)

func (s *SQLite) DB() *sql.DB {
	return s.db
}
