package burrowdb

import (
	"fmt"
	"io"
	"os"
	"sync"

	"golang.org/x/sys/unix"
)

// SuperblockSize is the fixed-length prefix of the backing file
// reserved for the superblock. Only commitRootAddr and the initial
// zero-fill in openStorage ever touch this region; everything at or
// past this offset is append-only.
const SuperblockSize = 512

// storage owns the backing file handle and enforces the append-only +
// superblock discipline described by the on-disk format. It also
// exposes the advisory cross-process exclusive lock the transaction
// façade uses to serialize writers.
type storage struct {
	path string
	file *os.File

	// writeMu serializes the seek-to-end-then-append sequence in write()
	// so two concurrent appends within one process can never interleave
	// and land at the same offset.
	writeMu sync.Mutex

	logger logger
}

// lockGuard holds an advisory exclusive file lock until release is
// called (or the file is closed).
type lockGuard struct {
	file *os.File
}

// openStorage opens (creating if absent) the backing file and ensures
// it carries a valid superblock.
func openStorage(path string, log logger) (*storage, error) {
	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE, 0o600)
	if err != nil {
		return nil, ioErr("open", err)
	}

	s := &storage{path: path, file: f, logger: log}

	if err := s.ensureSuperblock(); err != nil {
		f.Close()
		return nil, err
	}

	return s, nil
}

// ensureSuperblock zero-fills and initializes the superblock region if
// the file is new or was truncated below SuperblockSize. The common case
// of opening an already-initialized file never touches the write lock,
// since Open must not block a reader behind a concurrent writer; the
// lock is only taken on the slow path, with the size re-checked once
// held in case another opener initialized the file in the meantime.
func (s *storage) ensureSuperblock() error {
	info, err := s.file.Stat()
	if err != nil {
		return ioErr("stat", err)
	}
	if info.Size() >= SuperblockSize {
		return nil
	}

	guard, err := s.lock()
	if err != nil {
		return err
	}
	defer guard.release()

	info, err = s.file.Stat()
	if err != nil {
		return ioErr("stat", err)
	}
	if info.Size() >= SuperblockSize {
		return nil
	}

	pad := make([]byte, SuperblockSize)
	copy(pad, binaryCodec.encodeRootAddr(0))

	if _, err := s.file.WriteAt(pad, 0); err != nil {
		return ioErr("init superblock", err)
	}
	if err := s.file.Sync(); err != nil {
		return ioErr("sync superblock init", err)
	}

	s.logger.debug("initialized superblock")
	return nil
}

// lock blocks until an OS-level advisory exclusive lock is acquired on
// the file descriptor and returns a guard whose release method gives
// it up.
func (s *storage) lock() (*lockGuard, error) {
	if err := unix.Flock(int(s.file.Fd()), unix.LOCK_EX); err != nil {
		return nil, concurrencyErr("lock", err)
	}
	return &lockGuard{file: s.file}, nil
}

func (g *lockGuard) release() error {
	if g == nil || g.file == nil {
		return nil
	}
	err := unix.Flock(int(g.file.Fd()), unix.LOCK_UN)
	g.file = nil
	if err != nil {
		return concurrencyErr("unlock", err)
	}
	return nil
}

// write appends data strictly after all previously written bytes and
// returns the offset it was written at. write() itself resolves the
// write address under writeMu, so callers that need a child's address
// to cross-reference from a parent record (NodeAgent.store) simply call
// write() for the child first and use the offset it returns.
func (s *storage) write(data []byte) (uint64, error) {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	off, err := s.file.Seek(0, io.SeekEnd)
	if err != nil {
		return 0, ioErr("write seek", err)
	}
	if _, err := s.file.Write(data); err != nil {
		return 0, ioErr("write", err)
	}

	return uint64(off), nil
}

// read returns exactly n bytes starting at offset.
func (s *storage) read(offset uint64, n int) ([]byte, error) {
	buf := make([]byte, n)
	if _, err := s.file.ReadAt(buf, int64(offset)); err != nil {
		return nil, ioErr("read", err)
	}
	return buf, nil
}

// readRootAddr decodes the current root offset from the superblock.
// The sentinel 0 means the tree is empty.
func (s *storage) readRootAddr() (uint64, error) {
	buf, err := s.read(0, binarySuperblockSize)
	if err != nil {
		return 0, err
	}

	addr, err := binaryCodec.decodeRootAddr(buf)
	if err != nil {
		return 0, codecErr("decode superblock", err)
	}

	return addr, nil
}

// commitRootAddr is the transaction's linearization point: it rewrites
// the superblock with the new root offset. It first syncs the file so
// the data appended during the commit is durable, then writes the
// superblock and syncs again before returning.
func (s *storage) commitRootAddr(addr uint64) error {
	if err := s.file.Sync(); err != nil {
		return ioErr("sync data region", err)
	}

	buf := binaryCodec.encodeRootAddr(addr)
	if _, err := s.file.WriteAt(buf, 0); err != nil {
		return ioErr("commit_root_addr", err)
	}
	if err := s.file.Sync(); err != nil {
		return ioErr("sync superblock", err)
	}

	return nil
}

func (s *storage) close() error {
	if err := s.file.Close(); err != nil {
		return ioErr("close", err)
	}
	return nil
}

func (s *storage) String() string {
	return fmt.Sprintf("storage(%s)", s.path)
}
