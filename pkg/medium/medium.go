// Package medium implements the ARINC 665 MediumNumber primitive: a
// saturating 1..255 ordinal identifying one medium within a media set.
package medium

import "fmt"

// Number is a medium ordinal in the closed range [1, 255]. The zero value
// is not valid on its own; use New, First or Last to obtain a Number.
type Number uint8

// New returns a Number for n, clamping 0 up to 1. Values above 255 cannot
// be represented by the underlying uint8 and are rejected by the caller
// before reaching here.
func New(n uint8) Number {
	if n == 0 {
		return Number(1)
	}
	return Number(n)
}

// First is the lowest valid Number, 1.
const First Number = 1

// Last is the highest valid Number, 255.
const Last Number = 255

// Add returns the Number incremented by delta, saturating at 255.
func (n Number) Add(delta uint8) Number {
	if uint16(n)+uint16(delta) > 255 {
		return Last
	}
	return New(uint8(n) + delta)
}

// Sub returns the Number decremented by delta, saturating at 1.
func (n Number) Sub(delta uint8) Number {
	if uint16(delta) >= uint16(n) {
		return First
	}
	return New(uint8(n) - delta)
}

// Inc returns n+1, saturating at 255.
func (n Number) Inc() Number { return n.Add(1) }

// Dec returns n-1, saturating at 1.
func (n Number) Dec() Number { return n.Sub(1) }

// Uint8 returns the raw ordinal.
func (n Number) Uint8() uint8 { return uint8(n) }

// String renders the Number as a zero-padded three-digit string, e.g.
// "001". This is also the form used for MEDIUM_NNN directory names.
func (n Number) String() string {
	return fmt.Sprintf("%03d", uint8(n))
}

// InRange reports whether n is within [1, total], inclusive.
func (n Number) InRange(total Number) bool {
	return n >= First && n <= total
}
