package types

// BoardConfig is the decoded form of an embedded board descriptor.
type BoardConfig struct {
	Name      string          `yaml:"name"`
	Pins      []PinConfig     `yaml:"pins"`
	Options   BoardOptions    `yaml:"options"`
	Heartbeat HeartbeatConfig `yaml:"heartbeat,omitempty"`
}

// PinConfig declares one header pin.
type PinConfig struct {
	ID     uint16   `yaml:"id"`
	Number int      `yaml:"number"` // port*32 + bit
	Label  string   `yaml:"label,omitempty"`
	Caps   []string `yaml:"caps"` // "digital", "analog", "touch"
	Pull   string   `yaml:"pull,omitempty"`
	Wake   bool     `yaml:"wake,omitempty"`
}

type BoardOptions struct {
	PWMPeriodUs int `yaml:"pwm_period_us,omitempty"`
	EventQueue  int `yaml:"event_queue,omitempty"`
	BusQueue    int `yaml:"bus_queue,omitempty"`
}

// HeartbeatConfig is published on {"config", "heartbeat"}.
type HeartbeatConfig struct {
	IntervalMs int `yaml:"interval_ms,omitempty"`
}

// PinStats is the retained payload on {"pins", "stats"}.
type PinStats struct {
	Dispatched uint32 `yaml:"dispatched"`
	Delivered  uint32 `yaml:"delivered"`
	Dropped    uint32 `yaml:"dropped"`
	UptimeMs   int64  `yaml:"uptime_ms"`
}
