package batchgcd

import (
	"fmt"

	"github.com/ncw/gmp"
)

// Persisted integers are framed as an 8-byte big-endian magnitude length
// followed by the big-endian magnitude itself. The magnitude is minimal
// (no leading zero byte), so every value has exactly one encoding. Zero
// is a bare zero-length frame.

const lengthSize = 8

func encodeLength(buf []byte, length int) {
	buf[0] = byte(length >> 56)
	buf[1] = byte(length >> 48)
	buf[2] = byte(length >> 40)
	buf[3] = byte(length >> 32)
	buf[4] = byte(length >> 24)
	buf[5] = byte(length >> 16)
	buf[6] = byte(length >> 8)
	buf[7] = byte(length)
}

func decodeLength(buf []byte) int {
	var ret int

	ret |= int(buf[0]) << 56
	ret |= int(buf[1]) << 48
	ret |= int(buf[2]) << 40
	ret |= int(buf[3]) << 32
	ret |= int(buf[4]) << 24
	ret |= int(buf[5]) << 16
	ret |= int(buf[6]) << 8
	ret |= int(buf[7])

	return ret
}

// EncodeInt returns the canonical encoding of x, which must be
// non-negative.
func EncodeInt(x *gmp.Int) []byte {
	mag := x.Bytes()
	buf := make([]byte, lengthSize+len(mag))
	encodeLength(buf, len(mag))
	copy(buf[lengthSize:], mag)
	return buf
}

// DecodeInt reverses EncodeInt, rejecting truncated or non-canonical
// input.
func DecodeInt(b []byte) (*gmp.Int, error) {
	if len(b) < lengthSize {
		return nil, fmt.Errorf("%w: %d bytes, need %d-byte length prefix", ErrDecode, len(b), lengthSize)
	}
	l := decodeLength(b)
	if l < 0 {
		return nil, fmt.Errorf("%w: negative magnitude length", ErrDecode)
	}
	mag := b[lengthSize:]
	if len(mag) != l {
		return nil, fmt.Errorf("%w: length prefix says %d magnitude bytes, have %d", ErrDecode, l, len(mag))
	}
	if l > 0 && mag[0] == 0 {
		return nil, fmt.Errorf("%w: magnitude has a leading zero byte", ErrDecode)
	}
	return new(gmp.Int).SetBytes(mag), nil
}
