package store

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSQLiteCommand_Durable(t *testing.T) {
	path := filepath.Join(t.TempDir(), "testDatabase.sqlite")
	c, err := OpenContainer(testSchema(), WithPath(path))
	require.NoError(t, err)
	defer c.Close()

	assert.Equal(t, `sqlite3 "`+path+`"`, c.NewContext().SQLiteCommand())
}

func TestSQLiteCommand_PathIsNotEscaped(t *testing.T) {
	path := filepath.Join(t.TempDir(), "with space", "ünïcode.sqlite")
	cfg := Configuration{Path: path, Driver: DriverSQLite3}
	mc := (&Container{config: cfg}).NewContext()

	assert.Equal(t, `sqlite3 "`+path+`"`, SQLiteCommand(mc))
}

func TestSQLiteCommand_InMemory(t *testing.T) {
	c := createMemoryContainer(t)

	assert.Equal(t, "No SQLite database found.", c.NewContext().SQLiteCommand())
}

func TestSQLiteCommand_NilContext(t *testing.T) {
	assert.Equal(t, NoSQLiteDatabase, SQLiteCommand(nil))
}
