package database

import (
	"database/sql"
	"fmt"
	"strings"
	"sync"

	"github.com/mattn/go-sqlite3"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

const sqliteDriverName = "sqlite3_usof"

var registerSQLite sync.Once

// SQLiteDialector opens path through a go-sqlite3 driver whose lower() folds
// Unicode. The built-in one only folds ASCII, so "Über" would never match a
// lowered search pattern.
func SQLiteDialector(path string) gorm.Dialector {
	registerSQLite.Do(func() {
		sql.Register(sqliteDriverName, &sqlite3.SQLiteDriver{
			ConnectHook: func(conn *sqlite3.SQLiteConn) error {
				return conn.RegisterFunc("lower", unicodeLower, true)
			},
		})
	})
	return sqlite.New(sqlite.Config{DriverName: sqliteDriverName, DSN: SQLiteDSN(path)})
}

// unicodeLower keeps NULL and non-text values as they are.
func unicodeLower(v any) any {
	switch s := v.(type) {
	case string:
		return strings.ToLower(s)
	case []byte:
		return strings.ToLower(string(s))
	}
	return v
}

// SQLiteDSN turns a file path into a DSN with foreign keys enforced, which
// the comment and like cascades depend on.
func SQLiteDSN(path string) string {
	return fmt.Sprintf("file:%s?_foreign_keys=on&_busy_timeout=5000", path)
}
