package burrowdb

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
)

type txnState int

const (
	stateIdle txnState = iota
	stateInTxn
)

// DB is the transaction façade over one append-only file. A single DB
// value is meant to be driven by one goroutine at a time; nothing here
// coordinates concurrent callers beyond the cross-process advisory file
// lock taken for the duration of a transaction.
type DB struct {
	mu sync.Mutex

	storage *storage
	pool    *nodePool
	logger  logger
	metrics *metrics

	state     txnState
	lockGuard *lockGuard
	root      *nodeAgent
	txnID     string

	lockWaitLogThreshold time.Duration
}

// Open opens (creating if absent) the database file at path.
func Open(path string, opts ...Option) (*DB, error) {
	o := newOptions(opts...)

	if o.pendingProfilePath != "" {
		p, err := loadTuningProfile(o.pendingProfilePath)
		if err != nil {
			return nil, err
		}
		o.TuningProfile = p
	}

	log := newLogger(o.LogWriter, defaultLogger().zl.GetLevel())

	s, err := openStorage(path, log.withComponent("storage"))
	if err != nil {
		return nil, err
	}

	txnLogger := log.withComponent("txn")
	txnLogger.info("opened")

	return &DB{
		storage:              s,
		pool:                 newNodePool(o.TuningProfile.NodePoolSize),
		logger:               txnLogger,
		metrics:              newMetrics(),
		state:                stateIdle,
		lockWaitLogThreshold: time.Duration(o.TuningProfile.LockWaitLogThresholdMs) * time.Millisecond,
	}, nil
}

// Collectors exposes this instance's metrics for a caller to wire into
// their own Prometheus registry. burrowdb never registers against the
// global DefaultRegisterer and never exposes its own HTTP handler.
func (db *DB) Collectors() []prometheus.Collector {
	return db.metrics.Collectors()
}

// Begin starts an explicit transaction, taking the cross-process
// advisory lock and pinning the current root as this transaction's
// snapshot. It is a no-op if a transaction is already open.
func (db *DB) Begin() error {
	db.mu.Lock()
	defer db.mu.Unlock()
	return db.begin()
}

func (db *DB) begin() error {
	if db.state == stateInTxn {
		return nil
	}

	waitStart := time.Now()
	guard, err := db.storage.lock()
	if err != nil {
		return err
	}
	waited := time.Since(waitStart)
	db.metrics.lockWait.Observe(waited.Seconds())
	if waited >= db.lockWaitLogThreshold {
		db.logger.debugDur("acquired write lock", waited.Milliseconds())
	}

	addr, err := db.storage.readRootAddr()
	if err != nil {
		guard.release()
		return err
	}

	db.lockGuard = guard
	db.txnID = uuid.New().String()
	db.state = stateInTxn

	if addr == 0 {
		db.root = nil
	} else {
		db.root = newNodeAgentFromAddr(addr)
	}

	db.logger.withTxn(db.txnID).debug("begin")
	return nil
}

// Commit stores the in-memory path-copied nodes touched since Begin,
// rewrites the superblock to point at the new root, and releases the
// write lock. It is a no-op if no transaction is open.
func (db *DB) Commit() error {
	db.mu.Lock()
	defer db.mu.Unlock()
	return db.commit()
}

func (db *DB) commit() error {
	if db.state != stateInTxn {
		return nil
	}

	t := newTimer()

	addr, err := treeCommit(db.root, db.storage, db.pool)
	if err != nil {
		db.abort()
		db.metrics.observeTxn("error")
		return err
	}

	if err := db.storage.commitRootAddr(addr); err != nil {
		db.abort()
		db.metrics.observeTxn("error")
		return err
	}

	t.observe(db.metrics.commitDuration)
	db.metrics.observeTxn("committed")
	db.metrics.treeSize.Set(float64(db.rootSizeOrZero()))
	db.logger.withTxn(db.txnID).debug("commit")

	db.releaseLocked()
	return nil
}

func (db *DB) rootSizeOrZero() uint64 {
	if db.root == nil {
		return 0
	}
	n, err := db.root.get(db.storage)
	if err != nil {
		return 0
	}
	return n.Size
}

// abort drops the in-progress transaction's state and releases the
// write lock without touching the superblock.
func (db *DB) abort() {
	db.logger.withTxn(db.txnID).warn("abort")
	db.metrics.observeTxn("aborted")
	db.releaseLocked()
}

func (db *DB) releaseLocked() {
	if db.lockGuard != nil {
		if err := db.lockGuard.release(); err != nil {
			db.logger.errorErr("release write lock", err)
		}
	}
	db.lockGuard = nil
	db.root = nil
	db.txnID = ""
	db.state = stateIdle
}

// Get looks up key. Outside an explicit transaction it reads the
// current committed root directly, without taking the write lock:
// a plain read never blocks on, or is blocked by, a concurrent writer
// in another process, since readers only read the superblock and never
// take the lock.
func (db *DB) Get(key string) (string, bool, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	if key == "" {
		return "", false, invariantErr("get", ErrKeyEmpty)
	}

	if db.state == stateInTxn {
		return treeFind(db.root, db.storage, key)
	}

	addr, err := db.storage.readRootAddr()
	if err != nil {
		return "", false, err
	}
	if addr == 0 {
		return "", false, nil
	}

	return treeFind(newNodeAgentFromAddr(addr), db.storage, key)
}

// Put inserts or replaces key's value. Outside an explicit transaction
// it is auto-wrapped in its own Begin/Commit.
func (db *DB) Put(key, value string) error {
	db.mu.Lock()
	defer db.mu.Unlock()

	if key == "" {
		return invariantErr("put", ErrKeyEmpty)
	}

	implicit := db.state == stateIdle
	if implicit {
		if err := db.begin(); err != nil {
			return err
		}
	}

	newRoot, _, err := treeInsert(db.root, db.storage, db.pool, key, value)
	if err != nil {
		if implicit {
			db.abort()
		}
		return err
	}
	db.root = newRoot

	if implicit {
		return db.commit()
	}
	return nil
}

// Del removes key if present. Outside an explicit transaction it is
// auto-wrapped in its own Begin/Commit. Deleting an absent key is not
// an error.
func (db *DB) Del(key string) error {
	db.mu.Lock()
	defer db.mu.Unlock()

	if key == "" {
		return invariantErr("del", ErrKeyEmpty)
	}

	implicit := db.state == stateIdle
	if implicit {
		if err := db.begin(); err != nil {
			return err
		}
	}

	newRoot, err := treeDelete(db.root, db.storage, db.pool, key)
	if err != nil {
		if implicit {
			db.abort()
		}
		return err
	}
	db.root = newRoot

	if implicit {
		return db.commit()
	}
	return nil
}

// Close releases any in-progress transaction and closes the backing
// file.
func (db *DB) Close() error {
	db.mu.Lock()
	defer db.mu.Unlock()

	if db.state == stateInTxn {
		db.abort()
	}

	return db.storage.close()
}
