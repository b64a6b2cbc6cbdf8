package evcache

import (
	"errors"
	"math"
	"testing"

	"github.com/matryer/is"
)

func TestEncodeEV(t *testing.T) {
	is := is.New(t)
	is.Equal(EncodeEV(1.5), []byte{0x3f, 0xf8, 0, 0, 0, 0, 0, 0})
	is.Equal(EncodeEV(-1.0), []byte{0xbf, 0xf0, 0, 0, 0, 0, 0, 0})
	is.Equal(len(EncodeEV(0.123)), PayloadSize)
}

func TestDecodeEVBitExact(t *testing.T) {
	is := is.New(t)
	for _, ev := range []float64{-1.0, 1.5, 0.0, -0.0, 0.1, -0.04328197, math.SmallestNonzeroFloat64} {
		got, err := DecodeEV(EncodeEV(ev))
		is.NoErr(err)
		is.Equal(math.Float64bits(got), math.Float64bits(ev))
	}
}

func TestDecodeEVBadLength(t *testing.T) {
	is := is.New(t)
	for _, b := range [][]byte{nil, {1, 2, 3}, make([]byte, 9)} {
		_, err := DecodeEV(b)
		is.True(errors.Is(err, ErrBadPayload))
	}
}
