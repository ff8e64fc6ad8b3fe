package hexconv

// Halfbyte maps a hex digit into its value. Every other character is mapped into 0xFF,
// so that OR-ing two results and comparing against 0x0F detects invalid input at once.
var Halfbyte = func() (table [256]byte) {
	for i := range table {
		table[i] = 0xFF
	}

	for c := '0'; c <= '9'; c++ {
		table[c] = byte(c - '0')
	}

	for c := 'a'; c <= 'f'; c++ {
		table[c] = byte(c-'a') + 10
		table[c-0x20] = byte(c-'a') + 10
	}

	return table
}()
