package auth

// Legacy_Auth's specific_data is the traditional Unix crypt(3) DES hash of
// the password, salted with Firebird's fixed two-character salt. crypt(3)
// folds the salt into DES's E-bit-selection table rather than XOR-ing it
// into the key or plaintext, so it cannot be expressed in terms of
// crypto/des's block cipher; this file implements the classic algorithm
// directly: 25 successive salted-DES encryptions of a zero block.

// legacySalt is the fixed salt Firebird's legacy auth plugin always uses.
const legacySalt = "9z"

var saltChars = "./0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz"

func saltValue(c byte) uint32 {
	for i := 0; i < len(saltChars); i++ {
		if saltChars[i] == c {
			return uint32(i)
		}
	}
	return 0
}

// CryptPassword returns the crypt(3)-style hash Legacy_Auth sends as
// specific_data, including the leading 2-character salt the server expects
// to find there.
func CryptPassword(password string) string {
	key := make([]byte, 8)
	for i := 0; i < 8 && i < len(password); i++ {
		key[i] = password[i] << 1
	}

	ks := desSetKey(key)
	salt := saltValue(legacySalt[0]) | saltValue(legacySalt[1])<<6
	eTab := saltedExpansion(salt)

	var block uint64
	for i := 0; i < 25; i++ {
		block = desCryptBlock(block, ks, eTab)
	}

	return legacySalt + encodeCryptResult(block)
}

// saltedExpansion returns a copy of the E-bit-selection table with output
// positions i and i+24 exchanged for every set bit i of the 12-bit salt.
// This is crypt(3)'s salt mechanism: each of the two salt characters
// perturbs six pairs of expansion positions.
func saltedExpansion(salt uint32) []int {
	e := make([]int, len(eTable))
	copy(e, eTable)
	for i := 0; i < 12; i++ {
		if salt&(1<<i) != 0 {
			e[i], e[i+24] = e[i+24], e[i]
		}
	}
	return e
}

// desSetKey expands an 8-byte (56 useful bits) DES key into 16 48-bit
// round subkeys via PC-1/PC-2.
func desSetKey(key []byte) [16]uint64 {
	var k uint64
	for _, b := range key {
		k = (k << 8) | uint64(b)
	}

	c := uint32(permute(k, pc1C, 64))
	d := uint32(permute(k, pc1D, 64))

	var subkeys [16]uint64
	for i := 0; i < 16; i++ {
		c = rotl28(c, shifts[i])
		d = rotl28(d, shifts[i])
		cd := (uint64(c) << 28) | uint64(d)
		subkeys[i] = permute(cd, pc2, 56)
	}
	return subkeys
}

func rotl28(v uint32, n int) uint32 {
	v &= 0x0fffffff
	return ((v << n) | (v >> (28 - n))) & 0x0fffffff
}

// desCryptBlock runs one DES encryption of block under subkeys, expanding
// through the salt-perturbed E table (crypt(3)'s "salted DES").
func desCryptBlock(block uint64, subkeys [16]uint64, eTab []int) uint64 {
	permuted := permute(block, ipTable, 64)
	l := uint32(permuted >> 32)
	r := uint32(permuted)

	for i := 0; i < 16; i++ {
		newR := l ^ feistel(r, subkeys[i], eTab)
		l = r
		r = newR
	}

	combined := (uint64(r) << 32) | uint64(l)
	return permute(combined, fpTable, 64)
}

func feistel(r uint32, subkey uint64, eTab []int) uint32 {
	e := expand(r, eTab)
	e ^= subkey

	var sboxOut uint32
	for i := 0; i < 8; i++ {
		chunk := (e >> (42 - 6*i)) & 0x3f
		row := ((chunk & 0x20) >> 4) | (chunk & 0x01)
		col := (chunk >> 1) & 0x0f
		sboxOut = (sboxOut << 4) | uint32(sBoxes[i][row][col])
	}

	return permuteP(sboxOut)
}

// bit32 returns bit n (1 = MSB, 32 = LSB) of a 32-bit value.
func bit32(v uint32, n int) uint32 {
	return (v >> (32 - n)) & 1
}

func expand(r uint32, eTab []int) uint64 {
	var e uint64
	for _, bit := range eTab {
		e = (e << 1) | uint64(bit32(r, bit))
	}
	return e
}

func permuteP(v uint32) uint32 {
	var out uint32
	for i, bit := range pTable {
		b := (v >> (32 - bit)) & 1
		out |= b << (31 - i)
	}
	return out
}

// permute selects bits from v (treated as a width-bit value, MSB first)
// according to table (1-indexed bit positions), producing a len(table)-bit
// result packed into the low bits of the returned uint64.
func permute(v uint64, table []int, width int) uint64 {
	var out uint64
	for _, bit := range table {
		b := (v >> (width - bit)) & 1
		out = (out << 1) | b
	}
	return out
}

// encodeCryptResult packs the 64-bit DES output into crypt(3)'s 11-character
// radix-64 text form using the same saltChars alphabet.
func encodeCryptResult(block uint64) string {
	bytes6 := make([]byte, 9)
	for i := 0; i < 8; i++ {
		bytes6[i] = byte(block >> (56 - 8*i))
	}

	out := make([]byte, 0, 11)
	for i := 0; i < 11; i++ {
		bitOffset := i * 6
		byteIdx := bitOffset / 8
		bitInByte := bitOffset % 8

		var chunk int
		if byteIdx < len(bytes6) {
			b := int(bytes6[byteIdx]) << 8
			if byteIdx+1 < len(bytes6) {
				b |= int(bytes6[byteIdx+1])
			}
			chunk = (b >> (10 - bitInByte)) & 0x3f
		}
		out = append(out, saltChars[chunk])
	}
	return string(out)
}

var shifts = [16]int{1, 1, 2, 2, 2, 2, 2, 2, 1, 2, 2, 2, 2, 2, 2, 1}

var pc1C = []int{
	57, 49, 41, 33, 25, 17, 9,
	1, 58, 50, 42, 34, 26, 18,
	10, 2, 59, 51, 43, 35, 27,
	19, 11, 3, 60, 52, 44, 36,
}

var pc1D = []int{
	63, 55, 47, 39, 31, 23, 15,
	7, 62, 54, 46, 38, 30, 22,
	14, 6, 61, 53, 45, 37, 29,
	21, 13, 5, 28, 20, 12, 4,
}

var pc2 = []int{
	14, 17, 11, 24, 1, 5, 3, 28,
	15, 6, 21, 10, 23, 19, 12, 4,
	26, 8, 16, 7, 27, 20, 13, 2,
	41, 52, 31, 37, 47, 55, 30, 40,
	51, 45, 33, 48, 44, 49, 39, 56,
	34, 53, 46, 42, 50, 36, 29, 32,
}

var ipTable = []int{
	58, 50, 42, 34, 26, 18, 10, 2,
	60, 52, 44, 36, 28, 20, 12, 4,
	62, 54, 46, 38, 30, 22, 14, 6,
	64, 56, 48, 40, 32, 24, 16, 8,
	57, 49, 41, 33, 25, 17, 9, 1,
	59, 51, 43, 35, 27, 19, 11, 3,
	61, 53, 45, 37, 29, 21, 13, 5,
	63, 55, 47, 39, 31, 23, 15, 7,
}

var fpTable = []int{
	40, 8, 48, 16, 56, 24, 64, 32,
	39, 7, 47, 15, 55, 23, 63, 31,
	38, 6, 46, 14, 54, 22, 62, 30,
	37, 5, 45, 13, 53, 21, 61, 29,
	36, 4, 44, 12, 52, 20, 60, 28,
	35, 3, 43, 11, 51, 19, 59, 27,
	34, 2, 42, 10, 50, 18, 58, 26,
	33, 1, 41, 9, 49, 17, 57, 25,
}

var eTable = []int{
	32, 1, 2, 3, 4, 5,
	4, 5, 6, 7, 8, 9,
	8, 9, 10, 11, 12, 13,
	12, 13, 14, 15, 16, 17,
	16, 17, 18, 19, 20, 21,
	20, 21, 22, 23, 24, 25,
	24, 25, 26, 27, 28, 29,
	28, 29, 30, 31, 32, 1,
}

var pTable = []int{
	16, 7, 20, 21, 29, 12, 28, 17,
	1, 15, 23, 26, 5, 18, 31, 10,
	2, 8, 24, 14, 32, 27, 3, 9,
	19, 13, 30, 6, 22, 11, 4, 25,
}

var sBoxes = [8][4][16]byte{
	{
		{14, 4, 13, 1, 2, 15, 11, 8, 3, 10, 6, 12, 5, 9, 0, 7},
		{0, 15, 7, 4, 14, 2, 13, 1, 10, 6, 12, 11, 9, 5, 3, 8},
		{4, 1, 14, 8, 13, 6, 2, 11, 15, 12, 9, 7, 3, 10, 5, 0},
		{15, 12, 8, 2, 4, 9, 1, 7, 5, 11, 3, 14, 10, 0, 6, 13},
	},
	{
		{15, 1, 8, 14, 6, 11, 3, 4, 9, 7, 2, 13, 12, 0, 5, 10},
		{3, 13, 4, 7, 15, 2, 8, 14, 12, 0, 1, 10, 6, 9, 11, 5},
		{0, 14, 7, 11, 10, 4, 13, 1, 5, 8, 12, 6, 9, 3, 2, 15},
		{13, 8, 10, 1, 3, 15, 4, 2, 11, 6, 7, 12, 0, 5, 14, 9},
	},
	{
		{10, 0, 9, 14, 6, 3, 15, 5, 1, 13, 12, 7, 11, 4, 2, 8},
		{13, 7, 0, 9, 3, 4, 6, 10, 2, 8, 5, 14, 12, 11, 15, 1},
		{13, 6, 4, 9, 8, 15, 3, 0, 11, 1, 2, 12, 5, 10, 14, 7},
		{1, 10, 13, 0, 6, 9, 8, 7, 4, 15, 14, 3, 11, 5, 2, 12},
	},
	{
		{7, 13, 14, 3, 0, 6, 9, 10, 1, 2, 8, 5, 11, 12, 4, 15},
		{13, 8, 11, 5, 6, 15, 0, 3, 4, 7, 2, 12, 1, 10, 14, 9},
		{10, 6, 9, 0, 12, 11, 7, 13, 15, 1, 3, 14, 5, 2, 8, 4},
		{3, 15, 0, 6, 10, 1, 13, 8, 9, 4, 5, 11, 12, 7, 2, 14},
	},
	{
		{2, 12, 4, 1, 7, 10, 11, 6, 8, 5, 3, 15, 13, 0, 14, 9},
		{14, 11, 2, 12, 4, 7, 13, 1, 5, 0, 15, 10, 3, 9, 8, 6},
		{4, 2, 1, 11, 10, 13, 7, 8, 15, 9, 12, 5, 6, 3, 0, 14},
		{11, 8, 12, 7, 1, 14, 2, 13, 6, 15, 0, 9, 10, 4, 5, 3},
	},
	{
		{12, 1, 10, 15, 9, 2, 6, 8, 0, 13, 3, 4, 14, 7, 5, 11},
		{10, 15, 4, 2, 7, 12, 9, 5, 6, 1, 13, 14, 0, 11, 3, 8},
		{9, 14, 15, 5, 2, 8, 12, 3, 7, 0, 4, 10, 1, 13, 11, 6},
		{4, 3, 2, 12, 9, 5, 15, 10, 11, 14, 1, 7, 6, 0, 8, 13},
	},
	{
		{4, 11, 2, 14, 15, 0, 8, 13, 3, 12, 9, 7, 5, 10, 6, 1},
		{13, 0, 11, 7, 4, 9, 1, 10, 14, 3, 5, 12, 2, 15, 8, 6},
		{1, 4, 11, 13, 12, 3, 7, 14, 10, 15, 6, 8, 0, 5, 9, 2},
		{6, 11, 13, 8, 1, 4, 10, 7, 9, 5, 0, 15, 14, 2, 3, 12},
	},
	{
		{13, 2, 8, 4, 6, 15, 11, 1, 10, 9, 3, 14, 5, 0, 12, 7},
		{1, 15, 13, 8, 10, 3, 7, 4, 12, 5, 6, 11, 0, 14, 9, 2},
		{7, 11, 4, 1, 9, 12, 14, 2, 0, 6, 10, 13, 15, 3, 5, 8},
		{2, 1, 14, 7, 4, 10, 8, 13, 15, 12, 9, 0, 3, 5, 6, 11},
	},
}
