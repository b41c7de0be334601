// Package polyline implements the encoded polyline algorithm used by routing
// providers for compact route geometry (precision 1e5, latitude first).
package polyline

import (
	"math"
	"strings"

	"github.com/nandanugg/courier-tracking/module/tracking/domain"
)

const (
	precision = 1e5
	charBias  = 63
	chunkMask = 0x1f
	moreBit   = 0x20
	// 7 chunks already hold 35 bits, more than any valid coordinate delta needs.
	maxShift = 35
)

// Decode turns an encoded polyline into coordinates. An empty string yields an
// empty slice. Truncated or malformed input fails with *domain.DecodeError.
func Decode(encoded string) ([]domain.Coordinate, error) {
	points := make([]domain.Coordinate, 0, len(encoded)/4)
	index, lat, lng := 0, 0, 0

	for index < len(encoded) {
		dLat, next, err := decodeValue(encoded, index)
		if err != nil {
			return nil, err
		}
		if next >= len(encoded) {
			return nil, &domain.DecodeError{Offset: next, Reason: "latitude without longitude"}
		}
		dLng, next, err := decodeValue(encoded, next)
		if err != nil {
			return nil, err
		}
		index = next

		lat += dLat
		lng += dLng
		points = append(points, domain.Coordinate{
			Lat: float64(lat) / precision,
			Lon: float64(lng) / precision,
		})
	}
	return points, nil
}

func decodeValue(encoded string, index int) (int, int, error) {
	result, shift := 0, 0
	for {
		if index >= len(encoded) {
			return 0, index, &domain.DecodeError{Offset: index, Reason: "unexpected end of input"}
		}
		b := int(encoded[index]) - charBias
		if b < 0 || b > 63 {
			return 0, index, &domain.DecodeError{Offset: index, Reason: "invalid character"}
		}
		index++
		result |= (b & chunkMask) << shift
		shift += 5
		if b < moreBit {
			break
		}
		if shift >= maxShift {
			return 0, index, &domain.DecodeError{Offset: index, Reason: "value too long"}
		}
	}

	if result&1 != 0 {
		return ^(result >> 1), index, nil
	}
	return result >> 1, index, nil
}

// Encode is the inverse of Decode. Coordinates are rounded to 5 decimals.
func Encode(coords []domain.Coordinate) string {
	var b strings.Builder
	prevLat, prevLng := 0, 0
	for _, c := range coords {
		lat := int(math.Round(c.Lat * precision))
		lng := int(math.Round(c.Lon * precision))
		encodeValue(&b, lat-prevLat)
		encodeValue(&b, lng-prevLng)
		prevLat, prevLng = lat, lng
	}
	return b.String()
}

func encodeValue(b *strings.Builder, v int) {
	u := v << 1
	if v < 0 {
		u = ^u
	}
	for u >= moreBit {
		b.WriteByte(byte((moreBit | (u & chunkMask)) + charBias))
		u >>= 5
	}
	b.WriteByte(byte(u + charBias))
}
