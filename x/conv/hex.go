package conv

const hexd = "0123456789ABCDEF"

// AppendHex8 appends b as two uppercase hex digits with a 0x prefix.
func AppendHex8(dst []byte, b uint8) []byte {
	return append(dst, '0', 'x', hexd[b>>4], hexd[b&0xF])
}

// AppendHex32 appends n as 8 zero-padded uppercase hex digits, no prefix.
func AppendHex32(dst []byte, n uint32) []byte {
	for shift := 28; shift >= 0; shift -= 4 {
		dst = append(dst, hexd[(n>>uint(shift))&0xF])
	}
	return dst
}
