//go:build wasip1

// Command envecho is a reference plugin exercising the env-JSON
// contract: it parses the environment JSON handed to it at offset
// input_len and logs back the random_seed field, verbatim. See
// plugins/reverse for build instructions and ABI notes.
package main

import (
	"encoding/json"
	"strconv"
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

type env struct {
	Timestamp  int64 `json:"timestamp"`
	RandomSeed int64 `json:"random_seed"`
}

//go:wasmexport process
func process(_, _, envPtr, envLen uint32) int32 {
	raw := unsafe.Slice((*byte)(unsafe.Pointer(uintptr(envPtr))), envLen)
	var e env
	if err := json.Unmarshal(raw, &e); err != nil {
		logString("error: " + err.Error())
		return -1
	}
	logString(strconv.FormatInt(e.RandomSeed, 10))
	return 0
}

func main() {}
