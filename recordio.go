package burrowdb

import (
	"bytes"
	"fmt"
)

// writeRecord encodes v with the text codec and appends it to storage,
// returning the offset it was written at. The offset write() reports is
// used as the record's permanent address -- nothing else appends to
// the same storage between encoding and this call.
func writeRecord[T any](s *storage, v T) (uint64, error) {
	var buf bytes.Buffer
	if err := textCodec.encodeTo(&buf, v); err != nil {
		return 0, codecErr("encode record", err)
	}

	addr, err := s.write(buf.Bytes())
	if err != nil {
		return 0, err
	}

	return addr, nil
}

// readRecordAt decodes a T starting at offset. It first peeks the
// 4-byte length prefix to know how many additional bytes make up the
// record, then decodes the whole thing in one pass.
func readRecordAt[T any](s *storage, offset uint64) (T, error) {
	var zero T

	prefix, err := s.read(offset, 4)
	if err != nil {
		return zero, err
	}

	rec, err := decodeLengthPrefixed[T](s, offset, prefix)
	if err != nil {
		return zero, err
	}

	return rec, nil
}

func decodeLengthPrefixed[T any](s *storage, offset uint64, prefix []byte) (T, error) {
	var zero T

	n := lengthFromPrefix(prefix)
	whole, err := s.read(offset, 4+n)
	if err != nil {
		return zero, err
	}

	var v T
	if err := textCodec.decodeFrom(bytes.NewReader(whole), &v); err != nil {
		return zero, codecErr(fmt.Sprintf("decode record at %d", offset), err)
	}

	return v, nil
}

func lengthFromPrefix(prefix []byte) int {
	return int(prefix[0]) | int(prefix[1])<<8 | int(prefix[2])<<16 | int(prefix[3])<<24
}

// decodeNodeRecordAt decodes a nodeRecord at offset and converts it
// into an unloaded-children inMemoryNode: the value and any children
// become addressed-only agents, faulted in lazily on their own first
// access.
func decodeNodeRecordAt(s *storage, offset uint64, prefix []byte) (*inMemoryNode, error) {
	rec, err := decodeLengthPrefixed[nodeRecord](s, offset, prefix)
	if err != nil {
		return nil, err
	}

	n := &inMemoryNode{
		Key:   rec.Key,
		Size:  rec.Size,
		Value: newValueAgentFromAddr(rec.ValueAddr),
	}

	if rec.LeftAddr != nil {
		n.Left = newNodeAgentFromAddr(*rec.LeftAddr)
	}
	if rec.RightAddr != nil {
		n.Right = newNodeAgentFromAddr(*rec.RightAddr)
	}

	return n, nil
}
