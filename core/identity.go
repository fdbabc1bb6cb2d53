package core

import (
	"crypto/rand"
	"crypto/sha1"
	"fmt"
)

// NewCellID allocates a fresh random identity. If the system random source
// is unavailable, it falls back to hashing the address of a throwaway
// allocation so cell creation never fails outright.
func NewCellID() CellID {
	var id CellID
	if _, err := rand.Read(id[:]); err != nil {
		marker := new(byte)
		sum := sha1.Sum([]byte(fmt.Sprintf("%p", marker)))
		copy(id[:], sum[:])
	}
	return id
}
