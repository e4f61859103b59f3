//go:build wasip1

// Command upper is a reference plugin: it logs the upper-cased input.
// See plugins/reverse for the build instructions and ABI notes shared by
// every plugin in this directory.
package main

import (
	"strings"
	"unsafe"
)

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
	logString(strings.ToUpper(string(input)))
	return 0
}

func main() {}
