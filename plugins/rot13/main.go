//go:build wasip1

// Command rot13 is a reference plugin: it logs the ROT13 transform of
// the input. See plugins/reverse for the build instructions and ABI
// notes shared by every plugin in this directory.
package main

import "unsafe"

//go:wasmimport host log
func hostLog(ptr, length uint32)

func logString(s string) {
	if len(s) == 0 {
		hostLog(0, 0)
		return
	}
	b := []byte(s)
	hostLog(uint32(uintptr(unsafe.Pointer(&b[0]))), uint32(len(b)))
}

//go:wasmexport process
func process(inputPtr, inputLen, _, _ uint32) int32 {
	input := unsafe.Slice((*byte)(unsafe.Pointer(uintptr(inputPtr))), inputLen)
	logString(rot13(string(input)))
	return 0
}

func rot13(s string) string {
	b := []byte(s)
	for i, c := range b {
		switch {
		case c >= 'a' && c <= 'z':
			b[i] = 'a' + (c-'a'+13)%26
		case c >= 'A' && c <= 'Z':
			b[i] = 'A' + (c-'A'+13)%26
		}
	}
	return string(b)
}

func main() {}
