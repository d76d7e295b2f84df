// Package database keeps the synchronization journal in SQLite.
//
// The journal records one row per synchronization run (timing, event
// counts, outcome and errors) plus a small key/value metadata table. It
// lives next to the catalog but is not part of the backed-up tables, so
// losing it never affects catalog contents.
//
// The database uses WAL mode and initializes its schema on open.
package database
