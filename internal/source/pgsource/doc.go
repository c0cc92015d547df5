// Package pgsource connects the query session to PostgreSQL through pgx.
//
// [Opener] dials a fresh connection per session from a connection descriptor;
// [PoolOpener] borrows one from a pgxpool.Pool instead and gives it back when
// the session releases it. Either way the query runs inside a READ ONLY
// transaction that is rolled back when the cursor closes, and rows are read
// strictly forward with [pgx.Rows.Values].
package pgsource
