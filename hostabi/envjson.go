package hostabi

import (
	"encoding/json"
	"math/rand"
	"time"
)

// env is the wire shape of the environment JSON handed to a guest on
// every call. Field order does not matter to the guest; the host
// generates it fresh per call.
type env struct {
	Timestamp  int64 `json:"timestamp"`
	RandomSeed int64 `json:"random_seed"`
}

// EnvJSON produces a fresh, compact environment JSON payload: the current
// wall-clock time in nanoseconds since the epoch, and a random seed.
func EnvJSON() ([]byte, error) {
	e := env{
		Timestamp:  time.Now().UnixNano(),
		RandomSeed: rand.Int63(),
	}
	return json.Marshal(e)
}
