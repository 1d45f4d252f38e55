package mxml

import "unsafe"

// unsafeString performs a zero-copy conversion from buf to a string,
// relying on the source buffer handed to New being immutable for the
// lifetime of the Document. See https://github.com/golang/go/issues/25484.
func unsafeString(buf []byte) string {
	return *(*string)(unsafe.Pointer(&buf))
}
