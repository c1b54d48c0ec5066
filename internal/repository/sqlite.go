package repository

import (
	_ "github.com/mattn/go-sqlite3"
)

// SQLite allows a single writer, so the pool is pinned to one connection.
var sqliteDialect = dialect{
	name:   "SQLite",
	driver: "sqlite3",
	createTable: `
	CREATE TABLE IF NOT EXISTS %s (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		node_name TEXT,
		cpu_usage REAL,
		memory_usage REAL,
		created_at DATETIME NOT NULL
	);`,
	maxOpenConns: 1,
}

func NewSQLiteStore(path string, opts ...Option) *SQLStore {
	return newSQLStore(sqliteDialect, path, opts...)
}
