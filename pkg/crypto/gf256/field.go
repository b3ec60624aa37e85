// Package gf256 implements arithmetic in GF(2^8) for a selectable irreducible
// modulus polynomial, using precomputed exponent and logarithm tables.
package gf256

import (
	"fmt"
	"math/bits"
)

// DefaultPolynomial is the Rijndael polynomial x^8 + x^4 + x^3 + x + 1.
const DefaultPolynomial uint16 = 0x11B

// Polynomials lists every irreducible polynomial of degree 8 over GF(2).
// Only these may be used as a field modulus.
var Polynomials = [...]uint16{
	0x11B, 0x11D, 0x12B, 0x12D, 0x139, 0x13F, 0x14D, 0x15F, 0x163, 0x165,
	0x169, 0x171, 0x177, 0x17B, 0x187, 0x18B, 0x18D, 0x19F, 0x1A3, 0x1A9,
	0x1B1, 0x1BD, 0x1C3, 0x1CF, 0x1D7, 0x1DD, 0x1E7, 0x1F3, 0x1F5, 0x1F9,
}

// Field holds the tables for one modulus. It is immutable after New and
// safe for concurrent use.
type Field struct {
	poly      uint16
	generator byte
	// exp is doubled so that log[a]+log[b] (at most 508) indexes it directly.
	exp [512]byte
	log [256]byte
}

// Supported reports whether poly is in the allow-list.
func Supported(poly uint16) bool {
	for _, p := range Polynomials {
		if p == poly {
			return true
		}
	}
	return false
}

// New builds the exp/log tables for poly.
func New(poly uint16) (*Field, error) {
	if !Supported(poly) {
		return nil, fmt.Errorf("%w: 0x%X", ErrUnsupportedPolynomial, poly)
	}

	f := &Field{poly: poly, generator: primitiveElement(poly)}

	x := byte(1)
	for i := 0; i < 255; i++ {
		f.exp[i] = x
		f.log[x] = byte(i)
		x = MulSlow(x, f.generator, poly)
	}
	for i := 255; i < len(f.exp); i++ {
		f.exp[i] = f.exp[i-255]
	}

	return f, nil
}

// MustNew is like New but panics on an unsupported polynomial. Intended for
// package-level tables built from constants.
func MustNew(poly uint16) *Field {
	f, err := New(poly)
	if err != nil {
		panic(err)
	}
	return f
}

// Polynomial returns the modulus the field was built for.
func (f *Field) Polynomial() uint16 { return f.poly }

// Generator returns the primitive element the tables are built from.
func (f *Field) Generator() byte { return f.generator }

// Add returns a + b.
func (f *Field) Add(a, b byte) byte { return a ^ b }

// Sub returns a - b, which in characteristic 2 is the same as addition.
func (f *Field) Sub(a, b byte) byte { return a ^ b }

// Mul returns a * b.
func (f *Field) Mul(a, b byte) byte {
	if a == 0 || b == 0 {
		return 0
	}
	return f.exp[int(f.log[a])+int(f.log[b])]
}

// Div returns a / b.
func (f *Field) Div(a, b byte) (byte, error) {
	if b == 0 {
		return 0, ErrDivideByZero
	}
	if a == 0 {
		return 0, nil
	}
	return f.exp[(int(f.log[a])-int(f.log[b])+255)%255], nil
}

// Pow returns a raised to n. Pow(0, 0) is 1.
func (f *Field) Pow(a byte, n uint) byte {
	if n == 0 {
		return 1
	}
	if a == 0 {
		return 0
	}
	return f.exp[(uint(f.log[a])*(n%255))%255]
}

// Inverse returns the multiplicative inverse of a.
func (f *Field) Inverse(a byte) (byte, error) {
	if a == 0 {
		return 0, ErrDivideByZero
	}
	return f.exp[255-int(f.log[a])], nil
}

// MulSlow multiplies a and b modulo poly with the shift-and-add method. It
// does not need tables and is used to build them.
func MulSlow(a, b byte, poly uint16) byte {
	var result byte
	for b != 0 {
		if b&1 != 0 {
			result ^= a
		}
		carry := a & 0x80
		a <<= 1
		if carry != 0 {
			a ^= byte(poly)
		}
		b >>= 1
	}
	return result
}

// primitiveElement returns the smallest element whose powers cover all 255
// nonzero field elements. 2 is not primitive for every modulus (for 0x11B it
// only has order 51), so plain doubling cannot always generate the tables.
func primitiveElement(poly uint16) byte {
	for g := 2; g < 256; g++ {
		x, order := byte(g), 1
		for x != 1 {
			x = MulSlow(x, byte(g), poly)
			order++
		}
		if order == 255 {
			return byte(g)
		}
	}
	// Unreachable for irreducible moduli: every finite field has a primitive element.
	panic(fmt.Sprintf("gf256: no primitive element for 0x%X", poly))
}

// IsIrreducible reports whether poly is a degree-8 polynomial with no factor
// of degree 1 through 4.
func IsIrreducible(poly uint16) bool {
	if bits.Len16(poly) != 9 {
		return false
	}
	for d := uint16(2); d < 32; d++ {
		if polyMod(poly, d) == 0 {
			return false
		}
	}
	return true
}

func polyMod(a, b uint16) uint16 {
	db := bits.Len16(b)
	for bits.Len16(a) >= db {
		a ^= b << (bits.Len16(a) - db)
	}
	return a
}
