package evcache

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math"
)

// PayloadSize is the size of a stored expected value: one big-endian
// IEEE-754 double.
const PayloadSize = 8

var ErrBadPayload = errors.New("cached payload is not an 8-byte double")

func EncodeEV(ev float64) []byte {
	var b [PayloadSize]byte
	binary.BigEndian.PutUint64(b[:], math.Float64bits(ev))
	return b[:]
}

func DecodeEV(b []byte) (float64, error) {
	if len(b) != PayloadSize {
		return 0, fmt.Errorf("%w: got %d bytes", ErrBadPayload, len(b))
	}
	return math.Float64frombits(binary.BigEndian.Uint64(b)), nil
}
