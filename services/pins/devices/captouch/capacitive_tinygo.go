//go:build tinygo

package captouch

import (
	"machine"

	"tinygo.org/x/drivers/touch/capacitive"
)

// ArrayBackend measures charge time on plain GPIOs.
type ArrayBackend struct {
	arr *capacitive.Array
}

func NewArrayBackend() *ArrayBackend { return &ArrayBackend{} }

func (a *ArrayBackend) SetPins(numbers []int) {
	if len(numbers) == 0 {
		a.arr = nil
		return
	}
	pins := make([]machine.Pin, len(numbers))
	for i, n := range numbers {
		pins[i] = machine.Pin(n)
	}
	a.arr = capacitive.NewArray(pins)
}

func (a *ArrayBackend) Update() {
	if a.arr != nil {
		a.arr.Update()
	}
}

func (a *ArrayBackend) Value(i int) int {
	if a.arr == nil {
		return 0
	}
	return a.arr.SmoothedValue(i)
}
