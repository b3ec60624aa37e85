package twofish

// Nibble permutation tables of the two q-permutations. Row 0 is applied to
// the mixed high nibble, row 1 to the mixed low nibble.
var (
	q0t = [2][16]byte{
		{0x8, 0x1, 0x7, 0xD, 0x6, 0xF, 0x3, 0x2, 0x0, 0xB, 0x5, 0x9, 0xE, 0xC, 0xA, 0x4},
		{0xE, 0xC, 0xB, 0x8, 0x1, 0x2, 0x3, 0x5, 0xF, 0x4, 0xA, 0x6, 0x7, 0x0, 0x9, 0xD},
	}
	q1t = [2][16]byte{
		{0x2, 0x8, 0xB, 0xD, 0xF, 0x7, 0x6, 0xE, 0x3, 0x1, 0x9, 0x4, 0x0, 0xA, 0xC, 0x5},
		{0x1, 0xE, 0x2, 0xB, 0x4, 0xC, 0x3, 0x7, 0x6, 0xD, 0xA, 0x5, 0xF, 0x9, 0x0, 0x8},
	}
)

// mds is the maximum distance separable matrix of the h-function.
var mds = [4][4]byte{
	{0x01, 0xEF, 0x5B, 0x5B},
	{0x5B, 0xEF, 0xEF, 0x01},
	{0xEF, 0x5B, 0x01, 0xEF},
	{0xEF, 0x01, 0xEF, 0x5B},
}

// q0 and q1 are the byte permutations expanded from q0t and q1t.
var q0, q1 [256]byte

func init() {
	for x := 0; x < 256; x++ {
		q0[x] = qPermute(&q0t, byte(x))
		q1[x] = qPermute(&q1t, byte(x))
	}
}

func qPermute(t *[2][16]byte, x byte) byte {
	a0, b0 := x>>4, x&0xF
	a1 := a0 ^ b0
	b1 := (a0 ^ (b0>>1 | b0<<3) ^ a0<<3) & 0xF
	return t[0][a1]<<4 | t[1][b1]
}
