// Package dialect holds the gorm dialectors the catalog opens.
package dialect

import (
	"database/sql"
	"strings"

	"github.com/mattn/go-sqlite3"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// SQLiteDriverName is the database/sql driver registered by this package.
const SQLiteDriverName = "sqlite3_catalog"

func init() {
	sql.Register(SQLiteDriverName, &sqlite3.SQLiteDriver{
		ConnectHook: func(conn *sqlite3.SQLiteConn) error {
			// The built-in lower() folds ASCII only; text search needs
			// the same folding as postgres.
			return conn.RegisterFunc("lower", strings.ToLower, true)
		},
	})
}

// SQLite returns a gorm dialector for dsn using the catalog driver.
func SQLite(dsn string) gorm.Dialector {
	return sqlite.New(sqlite.Config{
		DriverName: SQLiteDriverName,
		DSN:        dsn,
	})
}
