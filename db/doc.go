// Package db is the SQLite journal of the orchestrator. It records batches,
// the fetches they issued with their raw request and response dumps, and
// log entries such as raised alerts.
//
// Tables are created and upgraded by goose migrations embedded from
// migrations/. Database rows are read into package local structs using
// sql.Null* types and converted to the domain types at the edge.
package db
