package config

// -----------------------------------------------------------------------------
// Embedded board descriptors
//
// Key: board name (same value placed in ctx under CtxBoardKey)
// Val: raw YAML for that board
// -----------------------------------------------------------------------------

const cfgMicrobitV2 = `
name: microbit-v2
options:
  pwm_period_us: 20000
  event_queue: 32
  bus_queue: 16
heartbeat:
  interval_ms: 5000
pins:
  - {id: 100, number: 2,  label: P0,   caps: [digital, analog, touch]}
  - {id: 101, number: 3,  label: P1,   caps: [digital, analog, touch]}
  - {id: 102, number: 4,  label: P2,   caps: [digital, analog, touch]}
  - {id: 103, number: 31, label: P3,   caps: [digital, analog]}
  - {id: 104, number: 28, label: P4,   caps: [digital, analog]}
  - {id: 105, number: 14, label: P5,   caps: [digital], pull: up, wake: true}
  - {id: 106, number: 37, label: P6,   caps: [digital]}
  - {id: 107, number: 11, label: P7,   caps: [digital]}
  - {id: 108, number: 10, label: P8,   caps: [digital]}
  - {id: 109, number: 9,  label: P9,   caps: [digital]}
  - {id: 110, number: 30, label: P10,  caps: [digital, analog]}
  - {id: 111, number: 23, label: P11,  caps: [digital], pull: up, wake: true}
  - {id: 112, number: 12, label: P12,  caps: [digital]}
  - {id: 113, number: 17, label: P13,  caps: [digital]}
  - {id: 114, number: 1,  label: P14,  caps: [digital]}
  - {id: 115, number: 13, label: P15,  caps: [digital]}
  - {id: 116, number: 34, label: P16,  caps: [digital]}
  - {id: 119, number: 26, label: P19,  caps: [digital], pull: up}
  - {id: 120, number: 32, label: P20,  caps: [digital], pull: up}
  - {id: 121, number: 36, label: LOGO, caps: [digital, touch]}
`

const cfgHostSim = `
name: host-sim
options:
  pwm_period_us: 20000
  event_queue: 16
heartbeat:
  interval_ms: 1000
pins:
  - {id: 1, number: 2,  label: A0, caps: [digital, analog, touch]}
  - {id: 2, number: 3,  label: A1, caps: [digital, analog]}
  - {id: 3, number: 13, label: D0, caps: [digital], pull: up, wake: true}
  - {id: 4, number: 40, label: D1, caps: [digital]}
`

var embeddedConfigs = map[string][]byte{
	"microbit-v2": []byte(cfgMicrobitV2),
	"host-sim":    []byte(cfgHostSim),
}
