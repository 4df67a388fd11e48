package loader

import (
	"bytes"
	"errors"
	"fmt"
)

// ErrBadElf: the extracted payload does not look like an ELF object.
var ErrBadElf = errors.New("ErrBadElf")

var elfMagic = []byte{0x7f, 'E', 'L', 'F'}

// elf64HeaderSize is the size of an ELF64 file header; anything shorter
// cannot be loadable.
const elf64HeaderSize = 64

// ValidateElf is a fast structural sanity check on an extracted payload.
// It exists to catch extraction at the wrong offset, not to guarantee that
// the program will load.
func ValidateElf(data []byte) error {
	if len(data) < elf64HeaderSize {
		return fmt.Errorf("%w: %d bytes is below the ELF64 header size (%d)", ErrBadElf, len(data), elf64HeaderSize)
	}
	if !bytes.HasPrefix(data, elfMagic) {
		return fmt.Errorf("%w: bad magic %x", ErrBadElf, data[:len(elfMagic)])
	}
	return nil
}
