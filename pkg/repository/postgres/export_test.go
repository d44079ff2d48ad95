package postgres

var (
	BuildQuery = buildQuery
	PgVector   = pgVector
)
