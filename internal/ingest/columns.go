package ingest

// columns.go implements the bijective base-26 column numbering used by
// spreadsheet column references: 0→"A", 25→"Z", 26→"AA", and back.

// IndexToColumn converts a 0-based column index to its letter reference.
func IndexToColumn(index int) string {
	// Bijective base 26: there is no zero digit, so shift to 1-based and
	// peel off the low digit each round.
	n := index + 1
	var buf [8]byte
	i := len(buf)
	for n > 0 {
		n--
		i--
		buf[i] = byte('A' + n%26)
		n /= 26
	}
	return string(buf[i:])
}

// ColumnToIndex converts a letter reference to its 0-based column index.
// It is the inverse of IndexToColumn for all valid references.
func ColumnToIndex(column string) int {
	index := 0
	for i := 0; i < len(column); i++ {
		index = index*26 + int(column[i]-'A'+1)
	}
	return index - 1
}
