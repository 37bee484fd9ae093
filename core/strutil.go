package core

// itoa converts an integer to a string without using fmt package
// This is a lightweight alternative for embedded systems
func itoa(n int) string {
	if n < 0 {
		return "-" + utoa(uint32(-n))
	}
	return utoa(uint32(n))
}

// utoa converts an unsigned integer to a string
func utoa(n uint32) string {
	if n == 0 {
		return "0"
	}

	var buf [10]byte
	pos := len(buf)
	for n > 0 {
		pos--
		buf[pos] = byte('0' + n%10)
		n /= 10
	}
	return string(buf[pos:])
}

// Itoa is the exported form of itoa for packages built on the core
func Itoa(n int) string {
	return itoa(n)
}

// ParseDecimal parses up to len(s) ASCII digits. It reports false on an
// empty string, a non-digit, or a value that overflows uint32.
func ParseDecimal(s string) (uint32, bool) {
	if len(s) == 0 {
		return 0, false
	}
	var v uint32
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c < '0' || c > '9' {
			return 0, false
		}
		next := v*10 + uint32(c-'0')
		if next/10 != v {
			return 0, false
		}
		v = next
	}
	return v, true
}
