package flight

import (
	"strings"
	"sync"

	"cogentcore.org/core/math32"
)

// Key is a set of held control keys.
type Key uint8

// Control keys.
const (
	KeyThrust Key = 1 << iota
	KeyBrake
	KeyBoost
	KeyRollLeft
	KeyRollRight
)

var keyNames = map[string]Key{
	"thrust":     KeyThrust,
	"w":          KeyThrust,
	"brake":      KeyBrake,
	"s":          KeyBrake,
	"boost":      KeyBoost,
	"shift":      KeyBoost,
	"roll_left":  KeyRollLeft,
	"q":          KeyRollLeft,
	"roll_right": KeyRollRight,
	"e":          KeyRollRight,
}

// ParseKey maps a control or keyboard name to a Key.
func ParseKey(name string) (Key, bool) {
	k, ok := keyNames[strings.ToLower(strings.TrimSpace(name))]
	return k, ok
}

// Controls is the input drained for one tick.
type Controls struct {
	PointerDX float32 `json:"pointer_dx"`
	PointerDY float32 `json:"pointer_dy"`
	Keys      Key     `json:"keys"`
}

// Held reports whether every key in k is held.
func (c Controls) Held(k Key) bool {
	return c.Keys&k == k
}

// Input accumulates pointer deltas and held keys between ticks. Producers
// call it from any goroutine; the tick drains it once.
type Input struct {
	mu   sync.Mutex
	dx   float32
	dy   float32
	keys Key
}

// AddPointer accumulates a pointer movement. Non-finite deltas are dropped.
func (in *Input) AddPointer(dx, dy float32) {
	if !finiteScalar(dx) || !finiteScalar(dy) {
		return
	}
	in.mu.Lock()
	in.dx += dx
	in.dy += dy
	in.mu.Unlock()
}

// Press marks keys as held.
func (in *Input) Press(k Key) {
	in.mu.Lock()
	in.keys |= k
	in.mu.Unlock()
}

// Release marks keys as no longer held.
func (in *Input) Release(k Key) {
	in.mu.Lock()
	in.keys &^= k
	in.mu.Unlock()
}

// ReleaseAll clears every held key, e.g. when pointer capture is lost.
func (in *Input) ReleaseAll() {
	in.mu.Lock()
	in.keys = 0
	in.mu.Unlock()
}

// Drain returns the accumulated deltas and the held keys and resets the
// deltas. Keys stay held until released.
func (in *Input) Drain() Controls {
	in.mu.Lock()
	defer in.mu.Unlock()
	c := Controls{PointerDX: in.dx, PointerDY: in.dy, Keys: in.keys}
	in.dx, in.dy = 0, 0
	return c
}

func finiteScalar(v float32) bool {
	return !math32.IsNaN(v) && !math32.IsInf(v, 0)
}
