package store

// NoSQLiteDatabase is returned by SQLiteCommand when there is no database
// file to open.
const NoSQLiteDatabase = "No SQLite database found."

// SQLiteCommand returns `sqlite3 "<path>"` for a context whose container is
// backed by a database file, and NoSQLiteDatabase otherwise. The path is
// written as-is, without shell or percent encoding. Nothing is executed.
func SQLiteCommand(c *Context) string {
	if c == nil || c.container == nil {
		return NoSQLiteDatabase
	}
	path, ok := c.container.config.URL()
	if !ok {
		return NoSQLiteDatabase
	}
	return `sqlite3 "` + path + `"`
}
