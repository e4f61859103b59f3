//go:build wasip1

// Command reverse is a reference plugin satisfying the host ABI: it
// exports memory and process(i32,i32,i32,i32)->i32, imports host.log,
// and logs the rune-reversed input. It is documentation/fixture-grade
// source, excluded from the module's own build by the wasip1 constraint
// above. It is never compiled by `go build ./...` on the host, only by:
//
//	GOOS=wasip1 GOARCH=wasm go build -o reverse.wasm ./plugins/reverse
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
	logString(reverse(string(input)))
	return 0
}

func reverse(s string) string {
	r := []rune(s)
	for i, j := 0, len(r)-1; i < j; i, j = i+1, j-1 {
		r[i], r[j] = r[j], r[i]
	}
	return string(r)
}

func main() {}
