package asm

import "io"

// FileReader abstracts the external collaborator that supplies the byte
// contents of a file named by .incbin. The core never touches the
// filesystem directly; a concrete implementation (backed by os.ReadFile)
// lives with the command-line driver.
type FileReader interface {
	ReadFile(path string) ([]byte, error)
}

// WriteBin writes code verbatim to w: a raw byte dump with no header.
func WriteBin(code []byte, w io.Writer) error {
	_, err := w.Write(code)
	return err
}
