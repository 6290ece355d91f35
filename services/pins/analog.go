package pins

import (
	"time"

	"pinmux-go/errcode"
	"pinmux-go/services/pins/internal/adc"
	"pinmux-go/services/pins/internal/pwmalloc"
	"pinmux-go/x/mathx"

	"periph.io/x/conn/v3/physic"
)

const (
	MaxOutput = pwmalloc.MaxValue
	// sampleDivisor brings a 14-bit conversion down to MaxOutput's range.
	sampleDivisor = 16

	ServoPeriodUs      = 20000
	MaxServoValue      = 180
	DefaultServoRange  = 2000
	DefaultServoCenter = 1500
)

// SetAnalogValue outputs a PWM duty of v/(MaxOutput+1) for v in
// [0, MaxOutput]. A channel is taken from the shared pool if the pin has
// none.
func (p *Pin) SetAnalogValue(v int) error {
	if !p.has(CapAnalog) {
		return errcode.NotSupported
	}
	if v < 0 || v > MaxOutput {
		return errcode.InvalidParameter
	}
	err := p.enter(RoleAnalogOut)
	alloc := p.sys.pwm
	ch, aerr := alloc.Acquire(p.number)
	if aerr != nil {
		return aerr
	}
	if p.obj == nil {
		p.attach(alloc, false)
	}
	if serr := alloc.SetValue(ch, v); serr != nil {
		return serr
	}
	return err
}

// GetAnalogValue samples the pin's analog input, scaled to [0, MaxOutput].
func (p *Pin) GetAnalogValue() (int, error) {
	ch, err := p.analogChannel()
	if err != nil {
		return 0, err
	}
	s, err := ch.Sample()
	if err != nil {
		return 0, err
	}
	return int(s) / sampleDivisor, nil
}

// LastAnalogValue returns the sample the system tick last took on an
// analog input, scaled like GetAnalogValue. It never converts.
func (p *Pin) LastAnalogValue() (int, error) {
	if p.role != RoleAnalogIn {
		return 0, errcode.NotSupported
	}
	ch, err := p.sys.adcMux().Channel(p.number)
	if err != nil {
		return 0, err
	}
	return int(ch.Last()) / sampleDivisor, nil
}

// AnalogVoltage samples the pin's analog input as a voltage.
func (p *Pin) AnalogVoltage() (physic.ElectricPotential, error) {
	ch, err := p.analogChannel()
	if err != nil {
		return 0, err
	}
	s, err := ch.Sample()
	if err != nil {
		return 0, err
	}
	return adc.Voltage(s), nil
}

func (p *Pin) analogChannel() (*adc.Channel, error) {
	if !p.has(CapAnalog) {
		return nil, errcode.NotSupported
	}
	err := p.enter(RoleAnalogIn)
	mux := p.sys.adcMux()
	ch, cerr := mux.Channel(p.number)
	if cerr != nil {
		if p.obj == nil {
			p.role = RoleUnconfigured
			p.sys.publishState(p)
		}
		return nil, errcode.NotSupported
	}
	if p.obj == nil {
		p.attach(mux, false)
	}
	return ch, err
}

// SetServoValue positions a hobby servo: value in degrees [0, 180] maps
// linearly onto a pulse of center±rangeUs/2 microseconds.
func (p *Pin) SetServoValue(value, rangeUs, centerUs int) error {
	if !p.has(CapAnalog) {
		return errcode.NotSupported
	}
	if value < 0 || rangeUs < 1 || centerUs < 1 {
		return errcode.InvalidParameter
	}
	value = mathx.Min(value, MaxServoValue)
	lower := (centerUs - rangeUs/2) * 1000
	scaled := lower + rangeUs*(value*1000/MaxServoValue)
	return p.SetServoPulseUs(scaled / 1000)
}

// SetServoValueDefault uses a 500..2500us pulse range.
func (p *Pin) SetServoValueDefault(value int) error {
	return p.SetServoValue(value, DefaultServoRange, DefaultServoCenter)
}

// SetServoPulseUs switches the shared period to 20ms and outputs a pulse
// of us microseconds.
func (p *Pin) SetServoPulseUs(us int) error {
	if !p.has(CapAnalog) {
		return errcode.NotSupported
	}
	if us < 0 {
		return errcode.InvalidParameter
	}
	if err := p.sys.pwm.EnsurePeriodUs(ServoPeriodUs); err != nil {
		return err
	}
	return p.SetAnalogValue((MaxOutput + 1) * us / ServoPeriodUs)
}

// SetAnalogPeriodUs changes the period shared by every PWM output.
func (p *Pin) SetAnalogPeriodUs(us uint32) error {
	if p.role != RoleAnalogOut {
		return errcode.NotSupported
	}
	return p.sys.pwm.SetPeriodUs(us)
}

func (p *Pin) SetAnalogPeriod(ms int) error {
	if ms < 0 {
		return errcode.InvalidParameter
	}
	return p.SetAnalogPeriodUs(uint32(ms) * 1000)
}

// AnalogPeriodUs returns the shared PWM period.
func (p *Pin) AnalogPeriodUs() (uint32, error) {
	if p.role != RoleAnalogOut {
		return 0, errcode.NotSupported
	}
	return p.sys.pwm.PeriodUs()
}

func (p *Pin) AnalogPeriod() (int, error) {
	us, err := p.AnalogPeriodUs()
	return int(us / 1000), err
}

// AnalogFrequency is the shared PWM frequency, or 0 if the pin is not an
// analog output.
func (p *Pin) AnalogFrequency() physic.Frequency {
	us, err := p.AnalogPeriodUs()
	if err != nil || us == 0 {
		return 0
	}
	return physic.PeriodToFrequency(time.Duration(us) * time.Microsecond)
}
