package conv

// AppendInt appends the base-10 form of n to dst. Negative numbers supported.
func AppendInt(dst []byte, n int64) []byte {
	if n < 0 {
		dst = append(dst, '-')
		// Two's complement negation also covers math.MinInt64.
		return AppendUint(dst, uint64(^n)+1)
	}
	return AppendUint(dst, uint64(n))
}

// AppendFixed appends f rounded to the given number of decimals (0..6).
// Intended for log output of dBm and percentages where fmt is unavailable.
func AppendFixed(dst []byte, f float64, decimals int) []byte {
	if decimals < 0 {
		decimals = 0
	}
	if decimals > 6 {
		decimals = 6
	}
	if f < 0 {
		dst = append(dst, '-')
		f = -f
	}
	scale := uint64(1)
	for i := 0; i < decimals; i++ {
		scale *= 10
	}
	v := uint64(f*float64(scale) + 0.5)
	dst = AppendUint(dst, v/scale)
	if decimals == 0 {
		return dst
	}
	dst = append(dst, '.')
	frac := v % scale
	for div := scale / 10; div > 0; div /= 10 {
		dst = append(dst, byte('0'+(frac/div)%10))
	}
	return dst
}
