package types

// ---- Pin events (published on {"pin", id, value}) ----

// PinEvent is the payload of every pin-sourced bus message.
// Value repeats the last topic token so subscribers on wildcards can switch on it.
type PinEvent struct {
	Source uint16 `yaml:"source"`
	Value  int    `yaml:"value"`
	TsUs   uint64 `yaml:"ts_us"`
	// DurationUs is set on pulse events only.
	DurationUs uint32 `yaml:"duration_us,omitempty"`
}

// Edge and pulse event values.
const (
	EvtRise    = 2
	EvtFall    = 3
	EvtPulseHi = 4 // emitted on the falling edge that ends a high pulse
	EvtPulseLo = 5 // emitted on the rising edge that ends a low pulse
)

// Button event values.
const (
	ButtonEvtDown      = 1
	ButtonEvtUp        = 2
	ButtonEvtClick     = 3
	ButtonEvtLongClick = 4
	ButtonEvtHold      = 5
)

// ---- System notifications (published on {"notify", value}) ----

// NotifySource is the event source id used for system-wide notifications.
const NotifySource uint16 = 1023

const NotifyCancelDeepSleep = 5

// ---- Pin role/state (retained on {"pin", id, "state"}) ----

type PinState struct {
	Role  string `yaml:"role"`
	Edge  string `yaml:"edge,omitempty"`
	Pull  string `yaml:"pull,omitempty"`
	Drive uint8  `yaml:"drive"`
}
