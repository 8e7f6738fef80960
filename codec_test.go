package burrowdb

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTextCodecRoundTrip(t *testing.T) {
	in := nodeRecord{Key: "hello", ValueAddr: 512, Size: 3}

	var buf bytes.Buffer
	require.NoError(t, textCodec.encodeTo(&buf, in))

	var out nodeRecord
	require.NoError(t, textCodec.decodeFrom(&buf, &out))

	assert.Equal(t, in, out)
}

func TestTextCodecLengthPrefixMatchesPayload(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, textCodec.encodeTo(&buf, valueRecord{Value: "world"}))

	whole := buf.Bytes()
	require.GreaterOrEqual(t, len(whole), 4)

	n := lengthFromPrefix(whole[:4])
	assert.Equal(t, len(whole)-4, n)
}

func TestBinaryCodecRootAddrRoundTrip(t *testing.T) {
	for _, addr := range []uint64{0, 1, 512, 1 << 40} {
		buf := binaryCodec.encodeRootAddr(addr)
		require.Len(t, buf, binarySuperblockSize)

		got, err := binaryCodec.decodeRootAddr(buf)
		require.NoError(t, err)
		assert.Equal(t, addr, got)
	}
}

func TestBinaryCodecDecodeRejectsShortBuffer(t *testing.T) {
	_, err := binaryCodec.decodeRootAddr([]byte{1, 2, 3})
	assert.Error(t, err)
}
