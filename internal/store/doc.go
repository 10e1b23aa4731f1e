// Package store provides SQLite-backed containers for records.
//
// A Container is an open database plus the schema (set of record kinds) it
// accepts. A Context is a pending change set bound to one container;
// Commit applies it in one transaction.
//
//	c := store.MustContainer(store.NewSchema(&Note{}), store.WithInMemory(true))
//	defer c.Close()
//
//	_ = c.Main(ctx, func(mc *store.Context) error {
//	    store.InsertAll(ctx, mc, []*Note{{ID: "n1", Name: "First"}})
//	    return nil
//	})
//
// # Failure policy
//
//   - OpenContainer returns *ContainerInitError. MustContainer treats it as
//     fatal and ends the process through Fatal.
//   - Context.Commit returns *CommitError. SafeCommit, InsertAll and
//     PreloadedContainer log it and carry on; the swallow is visible at
//     those call sites, not inside Commit.
//
// # Ordering
//
// Every written row gets a seq from a per-container logical clock. Fetches
// use ORDER BY seq ASC, id ASC COLLATE BINARY and never wall-clock time.
// Saving a record whose encoded data is unchanged leaves the row and its
// seq untouched.
//
// # Database Configuration
//
//   - WAL mode: Concurrent reads during writes (durable files)
//   - synchronous=NORMAL: Balance durability/performance
//   - busy_timeout=5000: Wait for locks up to 5 seconds
//   - foreign_keys=ON: Enforce referential integrity
//
// Two drivers are supported: github.com/mattn/go-sqlite3 (DriverSQLite3,
// default) and modernc.org/sqlite (DriverSQLite) for cgo-free builds.
package store
