package burrowdb

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func openTestDB(t *testing.T) *DB {
	t.Helper()
	path := filepath.Join(t.TempDir(), "burrow.db")
	db, err := Open(path)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func TestImplicitPutThenGet(t *testing.T) {
	db := openTestDB(t)

	require.NoError(t, db.Put("hello", "world"))

	val, found, err := db.Get("hello")
	require.NoError(t, err)
	require.True(t, found)
	require.Equal(t, "world", val)
}

func TestGetMissingKeyIsNotAnError(t *testing.T) {
	db := openTestDB(t)

	_, found, err := db.Get("nope")
	require.NoError(t, err)
	require.False(t, found)
}

func TestEmptyKeyIsRejected(t *testing.T) {
	db := openTestDB(t)

	require.Error(t, db.Put("", "v"))
	require.Error(t, db.Del(""))
	_, _, err := db.Get("")
	require.Error(t, err)
}

func TestPersistsAcrossReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "burrow.db")

	db1, err := Open(path)
	require.NoError(t, err)
	require.NoError(t, db1.Put("k", "v1"))
	require.NoError(t, db1.Close())

	db2, err := Open(path)
	require.NoError(t, err)
	defer db2.Close()

	val, found, err := db2.Get("k")
	require.NoError(t, err)
	require.True(t, found)
	require.Equal(t, "v1", val)
}

func TestExplicitTransactionSeesOwnUncommittedWrites(t *testing.T) {
	db := openTestDB(t)

	require.NoError(t, db.Begin())
	require.NoError(t, db.Put("k", "v"))

	val, found, err := db.Get("k")
	require.NoError(t, err)
	require.True(t, found)
	require.Equal(t, "v", val)

	require.NoError(t, db.Commit())

	val, found, err = db.Get("k")
	require.NoError(t, err)
	require.True(t, found)
	require.Equal(t, "v", val)
}

func TestUncommittedWritesAreInvisibleToANewHandle(t *testing.T) {
	path := filepath.Join(t.TempDir(), "burrow.db")

	writer, err := Open(path)
	require.NoError(t, err)
	defer writer.Close()

	require.NoError(t, writer.Begin())
	require.NoError(t, writer.Put("k", "v"))

	reader, err := Open(path)
	require.NoError(t, err)
	defer reader.Close()

	_, found, err := reader.Get("k")
	require.NoError(t, err)
	require.False(t, found, "reader must not observe writes from an uncommitted transaction")

	require.NoError(t, writer.Commit())

	_, found, err = reader.Get("k")
	require.NoError(t, err)
	require.True(t, found)
}

func TestDeleteThenReinsert(t *testing.T) {
	db := openTestDB(t)

	require.NoError(t, db.Put("k", "v1"))
	require.NoError(t, db.Del("k"))

	_, found, err := db.Get("k")
	require.NoError(t, err)
	require.False(t, found)

	require.NoError(t, db.Put("k", "v2"))

	val, found, err := db.Get("k")
	require.NoError(t, err)
	require.True(t, found)
	require.Equal(t, "v2", val)
}

func TestDeleteOfAbsentKeyIsNotAnError(t *testing.T) {
	db := openTestDB(t)
	require.NoError(t, db.Del("does-not-exist"))
}

func TestIdempotentRePutOfSameValue(t *testing.T) {
	db := openTestDB(t)

	require.NoError(t, db.Put("k", "v"))
	require.NoError(t, db.Put("k", "v"))

	val, found, err := db.Get("k")
	require.NoError(t, err)
	require.True(t, found)
	require.Equal(t, "v", val)
}

func TestOpenDoesNotBlockBehindAConcurrentWriteLock(t *testing.T) {
	path := filepath.Join(t.TempDir(), "burrow.db")

	writer, err := Open(path)
	require.NoError(t, err)
	defer writer.Close()

	require.NoError(t, writer.Begin())
	require.NoError(t, writer.Put("k", "v"))

	done := make(chan error, 1)
	go func() {
		reader, err := Open(path)
		if err != nil {
			done <- err
			return
		}
		defer reader.Close()
		done <- nil
	}()

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("Open blocked behind a concurrent writer's in-progress transaction")
	}

	require.NoError(t, writer.Commit())
}

func TestBeginBlocksUntilHolderCommits(t *testing.T) {
	path := filepath.Join(t.TempDir(), "burrow.db")

	a, err := Open(path)
	require.NoError(t, err)
	defer a.Close()

	require.NoError(t, a.Begin())
	require.NoError(t, a.Put("k", "v"))

	const sleep = 1 * time.Second
	elapsed := make(chan time.Duration, 1)
	go func() {
		b, err := Open(path)
		if err != nil {
			elapsed <- -1
			return
		}
		defer b.Close()

		start := time.Now()
		if err := b.Begin(); err != nil {
			elapsed <- -1
			return
		}
		elapsed <- time.Since(start)
		_ = b.Commit()
	}()

	time.Sleep(sleep)
	require.NoError(t, a.Commit())

	got := <-elapsed
	require.GreaterOrEqual(t, got, sleep, "B.Begin() must block until A.Commit() releases the write lock")
}

func TestCollectorsExposesMetrics(t *testing.T) {
	db := openTestDB(t)
	require.NotEmpty(t, db.Collectors())
}
