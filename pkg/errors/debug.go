package errors

import (
	stdErrors "errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lib/pq"
)

// LogFields flattens err into structured log fields: the message, the
// first typed code in the chain, every wrapped layer, and the Postgres
// diagnostics when a driver error sits underneath.
func LogFields(err error) map[string]any {
	if err == nil {
		return map[string]any{}
	}
	fields := map[string]any{
		"error":       err.Error(),
		"error_chain": Chain(err),
	}
	if typed := As(err); typed != nil {
		fields["error_code"] = typed.Code()
	}
	for k, v := range postgresFields(err) {
		fields[k] = v
	}
	return fields
}

// Chain lists each wrapped layer as "<type>: <message>", outermost first.
func Chain(err error) []string {
	var chain []string
	for ; err != nil; err = stdErrors.Unwrap(err) {
		chain = append(chain, fmt.Sprintf("%T: %v", err, err))
	}
	return chain
}

func postgresFields(err error) map[string]any {
	var pgxErr *pgconn.PgError
	if stdErrors.As(err, &pgxErr) {
		return pgFields(pgxErr.Code, pgxErr.TableName, pgxErr.ConstraintName, pgxErr.Message, pgxErr.Detail)
	}
	var pqErr *pq.Error
	if stdErrors.As(err, &pqErr) {
		return pgFields(string(pqErr.Code), pqErr.Table, pqErr.Constraint, pqErr.Message, pqErr.Detail)
	}
	return nil
}

func pgFields(code, table, constraint, message, detail string) map[string]any {
	out := map[string]any{"pg_code": code, "pg_message": message}
	if table != "" {
		out["pg_table"] = table
	}
	if constraint != "" {
		out["pg_constraint"] = constraint
	}
	if detail != "" {
		out["pg_detail"] = detail
	}
	return out
}
