package database

import (
	"strings"
)

// QueryBuilder converts SQL queries with ? placeholders to dialect-specific format.
type QueryBuilder struct {
	dialect Dialect
}

// NewQueryBuilder creates a new QueryBuilder for the given dialect.
func NewQueryBuilder(dialect Dialect) *QueryBuilder {
	return &QueryBuilder{dialect: dialect}
}

// Build converts a query with ? placeholders to dialect-specific placeholders.
//
// Example:
//
//	input:    "SELECT * FROM runs WHERE id = ? AND state = ?"
//	SQLite:   "SELECT * FROM runs WHERE id = ? AND state = ?"
//	Postgres: "SELECT * FROM runs WHERE id = $1 AND state = $2"
func (qb *QueryBuilder) Build(query string) string {
	if _, ok := qb.dialect.(*SQLiteDialect); ok {
		return query
	}

	var result strings.Builder
	result.Grow(len(query) + 8)
	position := 1

	for i := 0; i < len(query); i++ {
		if query[i] == '?' {
			result.WriteString(qb.dialect.Placeholder(position))
			position++
		} else {
			result.WriteByte(query[i])
		}
	}

	return result.String()
}

// Schema expands the {bigint} and {timestamp} markers of a DDL statement.
func (qb *QueryBuilder) Schema(ddl string) string {
	return strings.NewReplacer(
		"{bigint}", qb.dialect.BigIntType(),
		"{timestamp}", qb.dialect.TimestampType(),
	).Replace(ddl)
}
