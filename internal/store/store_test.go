package store

import (
	"context"
	"database/sql"
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpenContainer_CreatesNewDatabase(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.db")

	c, err := OpenContainer(testSchema(), WithPath(path))
	if err != nil {
		t.Fatalf("OpenContainer() failed: %v", err)
	}
	defer c.Close()

	if _, err := os.Stat(path); os.IsNotExist(err) {
		t.Error("database file was not created")
	}
}

func TestOpenContainer_OpensExistingDatabase(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.db")
	ctx := context.Background()

	c1, err := OpenContainer(testSchema(), WithPath(path))
	require.NoError(t, err)
	ctx1 := c1.NewContext()
	ctx1.Insert(&note{ID: "n1", Name: "kept"})
	require.NoError(t, ctx1.Commit(ctx))
	require.NoError(t, c1.Close())

	c2, err := OpenContainer(testSchema(), WithPath(path))
	require.NoError(t, err)
	defer c2.Close()

	notes, err := FetchAll[note](ctx, c2.NewContext())
	require.NoError(t, err)
	require.Len(t, notes, 1)
	assert.Equal(t, "kept", notes[0].Name)
}

func TestOpenContainer_Idempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.db")

	for i := 0; i < 3; i++ {
		c, err := OpenContainer(testSchema(), WithPath(path))
		if err != nil {
			t.Fatalf("OpenContainer() iteration %d failed: %v", i, err)
		}
		c.Close()
	}

	c, err := OpenContainer(testSchema(), WithPath(path))
	require.NoError(t, err)
	defer c.Close()

	var name string
	err = c.db.QueryRow(
		"SELECT name FROM sqlite_master WHERE type='index' AND name=?",
		"idx_records_kind_seq",
	).Scan(&name)
	assert.NoError(t, err, "index should survive repeated opens")
}

func TestOpenContainer_ResumesSeqAfterReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.db")
	ctx := context.Background()

	c1, err := OpenContainer(testSchema(), WithPath(path))
	require.NoError(t, err)
	InsertAll(ctx, c1.NewContext(), []*note{{ID: "a"}, {ID: "b"}})
	lastSeq := seqOf(t, c1, "Note", "b")
	require.NoError(t, c1.Close())

	c2, err := OpenContainer(testSchema(), WithPath(path))
	require.NoError(t, err)
	defer c2.Close()
	InsertAll(ctx, c2.NewContext(), []*note{{ID: "c"}})

	assert.Greater(t, seqOf(t, c2, "Note", "c"), lastSeq)
}

func TestOpenContainer_InvalidPath(t *testing.T) {
	_, err := OpenContainer(testSchema(), WithPath("/nonexistent/dir/test.db"))
	require.Error(t, err)

	var initErr *ContainerInitError
	require.ErrorAs(t, err, &initErr)
	assert.Equal(t, "/nonexistent/dir/test.db", initErr.Config.Path)
	assert.Contains(t, err.Error(), "failed to initialize model container")
}

func TestOpenContainer_NewerSchemaVersion(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.db")

	c, err := OpenContainer(testSchema(), WithPath(path))
	require.NoError(t, err)
	require.NoError(t, c.Close())

	raw, err := sql.Open(DriverSQLite3, path)
	require.NoError(t, err)
	_, err = raw.Exec("PRAGMA user_version = 99")
	require.NoError(t, err)
	require.NoError(t, raw.Close())

	_, err = OpenContainer(testSchema(), WithPath(path))
	require.Error(t, err)

	var initErr *ContainerInitError
	require.ErrorAs(t, err, &initErr)
	var versionErr *SchemaVersionError
	require.ErrorAs(t, err, &versionErr)
	assert.Equal(t, 99, versionErr.Found)
	assert.Equal(t, currentSchemaVersion, versionErr.Supported)
}

func TestOpenContainer_UnsupportedDriver(t *testing.T) {
	_, err := OpenContainer(testSchema(), WithInMemory(true), WithDriver("postgres"))

	var initErr *ContainerInitError
	require.ErrorAs(t, err, &initErr)
	assert.Contains(t, err.Error(), `unsupported driver "postgres"`)
}

func TestOpenContainer_RelativePathIsMadeAbsolute(t *testing.T) {
	t.Chdir(t.TempDir())

	c, err := OpenContainer(testSchema(), WithPath("relative.sqlite"))
	require.NoError(t, err)
	defer c.Close()

	path, ok := c.Configuration().URL()
	require.True(t, ok)
	assert.True(t, filepath.IsAbs(path))
	assert.Equal(t, "relative.sqlite", filepath.Base(path))
}

func TestOpenContainer_DefaultLocation(t *testing.T) {
	if runtime.GOOS == "windows" || runtime.GOOS == "plan9" {
		t.Skip("user config dir is not env-driven on this platform")
	}
	dir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", dir)
	t.Setenv("HOME", dir)

	c, err := OpenContainer(testSchema())
	require.NoError(t, err)
	defer c.Close()

	path, ok := c.Configuration().URL()
	require.True(t, ok)
	assert.Equal(t, DefaultStoreFile, filepath.Base(path))
	assert.Equal(t, "persistkit", filepath.Base(filepath.Dir(path)))
	rel, err := filepath.Rel(dir, path)
	require.NoError(t, err)
	assert.False(t, filepath.IsAbs(rel))
	assert.NotContains(t, rel, "..")

	_, err = os.Stat(path)
	assert.NoError(t, err, "durable container leaves a file at a discoverable path")
}

func TestOpenContainer_InMemoryLeavesNoArtifact(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	ctx := context.Background()

	c, err := OpenContainer(testSchema(), WithInMemory(true))
	require.NoError(t, err)

	mc := c.NewContext()
	InsertAll(ctx, mc, []*note{{ID: "n1", Name: "gone"}})
	n, err := mc.Count(ctx, "Note")
	require.NoError(t, err)
	require.Equal(t, 1, n)
	require.NoError(t, c.Close())

	_, ok := c.Configuration().URL()
	assert.False(t, ok)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries, "in-memory container must not write files")
}

func TestOpenContainer_InMemoryContainersAreIsolated(t *testing.T) {
	ctx := context.Background()
	a := createMemoryContainer(t)
	b := createMemoryContainer(t)

	InsertAll(ctx, a.NewContext(), []*note{{ID: "n1"}})

	n, err := b.NewContext().Count(ctx, "Note")
	require.NoError(t, err)
	assert.Equal(t, 0, n)
}

func TestOpenContainer_PureGoDriver(t *testing.T) {
	ctx := context.Background()
	for _, inMemory := range []bool{true, false} {
		opts := []Option{WithDriver(DriverSQLite), WithInMemory(inMemory)}
		if !inMemory {
			opts = append(opts, WithPath(filepath.Join(t.TempDir(), "modernc.db")))
		}

		c, err := OpenContainer(testSchema(), opts...)
		require.NoError(t, err)

		mc := c.NewContext()
		mc.Insert(&note{ID: "n1", Name: "pure go"})
		require.NoError(t, mc.Commit(ctx))

		got, err := FetchOne[note](ctx, mc, "Note", "n1")
		require.NoError(t, err)
		assert.Equal(t, "pure go", got.Name)
		assert.Equal(t, DriverSQLite, c.Configuration().Driver)
		require.NoError(t, c.Close())
	}
}

func TestMustContainer_ReturnsContainer(t *testing.T) {
	c := MustContainer(testSchema(), WithInMemory(true))
	require.NotNil(t, c)
	defer c.Close()
	assert.True(t, c.Configuration().InMemory)
}

func TestMustContainer_FatalOnInitError(t *testing.T) {
	var got error
	orig := Fatal
	Fatal = func(err error) { got = err }
	t.Cleanup(func() { Fatal = orig })

	c := MustContainer(testSchema(), WithPath("/nonexistent/dir/test.db"))

	assert.Nil(t, c)
	var initErr *ContainerInitError
	require.True(t, errors.As(got, &initErr), "Fatal should receive a *ContainerInitError, got %v", got)
}

func TestContainer_CloseMultipleCalls(t *testing.T) {
	c, err := OpenContainer(testSchema(), WithInMemory(true))
	require.NoError(t, err)

	assert.NoError(t, c.Close())
	assert.NoError(t, c.Close())
}

func TestContainer_Accessors(t *testing.T) {
	logger, _ := bufferLogger()
	c := createMemoryContainer(t, WithLogger(logger))

	assert.Equal(t, []string{"Note", "Tag", "Broken"}, c.Schema().Entities())
	assert.Same(t, logger, c.Logger())
	require.NotNil(t, c.DB())
	assert.NoError(t, c.DB().Ping())
}

// Pragma tests

func TestPragma_JournalMode(t *testing.T) {
	c := createTestContainer(t)
	if err := verifyPragma(c.db, "journal_mode", "wal"); err != nil {
		t.Error(err)
	}
}

func TestPragma_Synchronous(t *testing.T) {
	c := createTestContainer(t)
	// NORMAL = 1
	if err := verifyPragma(c.db, "synchronous", "1"); err != nil {
		t.Error(err)
	}
}

func TestPragma_BusyTimeout(t *testing.T) {
	c := createTestContainer(t)
	if err := verifyPragma(c.db, "busy_timeout", "5000"); err != nil {
		t.Error(err)
	}
}

func TestPragma_ForeignKeys(t *testing.T) {
	c := createTestContainer(t)
	// ON = 1
	if err := verifyPragma(c.db, "foreign_keys", "1"); err != nil {
		t.Error(err)
	}
}

func TestPragma_UserVersion(t *testing.T) {
	c := createTestContainer(t)
	if err := verifyPragma(c.db, "user_version", "1"); err != nil {
		t.Error(err)
	}
}
