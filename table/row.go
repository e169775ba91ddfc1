package table

import (
	"encoding/binary"
	"fmt"
	"strings"
)

// Row is the fixed three-column user record the storage engine knows
// how to serialize: an integer id and two NUL-padded text fields.
type Row struct {
	ID       uint32
	Username string
	Email    string
}

// SerializeRow writes id, username, and email into dst, which must be
// exactly RowSize bytes. Text fields longer than their column size are
// truncated; shorter ones are zero-padded.
func SerializeRow(row Row, dst []byte) error {
	if len(dst) != RowSize {
		return fmt.Errorf("table: SerializeRow: dst length %d, expected %d", len(dst), RowSize)
	}
	for i := range dst {
		dst[i] = 0
	}
	binary.LittleEndian.PutUint32(dst[IDOffset:IDOffset+IDSize], row.ID)
	copyPadded(dst[UsernameOffset:UsernameOffset+UsernameSize], row.Username)
	copyPadded(dst[EmailOffset:EmailOffset+EmailSize], row.Email)
	return nil
}

// DeserializeRow is the inverse of SerializeRow.
func DeserializeRow(src []byte) (Row, error) {
	if len(src) != RowSize {
		return Row{}, fmt.Errorf("table: DeserializeRow: src length %d, expected %d", len(src), RowSize)
	}
	return Row{
		ID:       binary.LittleEndian.Uint32(src[IDOffset : IDOffset+IDSize]),
		Username: trimPadded(src[UsernameOffset : UsernameOffset+UsernameSize]),
		Email:    trimPadded(src[EmailOffset : EmailOffset+EmailSize]),
	}, nil
}

func copyPadded(dst []byte, s string) {
	b := []byte(s)
	if len(b) > len(dst) {
		b = b[:len(dst)]
	}
	copy(dst, b)
}

func trimPadded(b []byte) string {
	return strings.TrimRight(string(b), "\x00")
}
