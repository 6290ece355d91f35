package pins

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"pinmux-go/bus"
	"pinmux-go/errcode"
	"pinmux-go/services/pins/devices/captouch"
	"pinmux-go/services/pins/internal/adc"
	"pinmux-go/services/pins/internal/core"
	"pinmux-go/services/pins/internal/irq"
	"pinmux-go/services/pins/internal/pwmalloc"
	"pinmux-go/services/pins/internal/pwmgen"
	"pinmux-go/services/pins/internal/regs"
	"pinmux-go/types"
	"pinmux-go/x/timex"

	"periph.io/x/conn/v3/gpio"
	"tinygo.org/x/drivers"
)

const (
	DefaultEventQueue = 32
	DefaultBusQueue   = 16
	DefaultTickPeriod = 6 * time.Millisecond
)

// Options selects the backends a System runs on. Zero values fall back to
// the in-memory simulation.
type Options struct {
	Silicon      regs.Silicon
	Bus          *bus.Bus
	Clock        core.Clock
	EventQueue   int
	PWMPeriodUs  uint32
	PWMSink      pwmgen.Sink
	ADCBackend   adc.Backend
	TouchBackend captouch.Backend
	TickPeriod   time.Duration
}

// System owns the resources pins share: the port interrupt, the PWM
// channel pool, the ADC and the touch sensor, and the sampling tick.
type System struct {
	hw       regs.Silicon
	bus      *bus.Bus
	conn     *bus.Connection
	clock    core.Clock
	notifier *irq.Notifier
	disp     *irq.Dispatcher
	pwm      *pwmalloc.Allocator
	tick     time.Duration

	sleepPending atomic.Bool

	adcOnce  sync.Once
	adcBE    adc.Backend
	adc      *adc.Mux
	stateMu  sync.Mutex
	states   map[uint16]types.PinState
	touchMu  sync.Mutex
	touchBE  captouch.Backend
	touch    *captouch.Sensor
	pinsMu   sync.Mutex
	pins     map[int]*Pin
	sampleMu sync.Mutex
	samplers []*samplerEntry
}

type samplerEntry struct{ s core.Sampler }

// NewSystem builds a System. The port interrupt is live on return; events
// reach the bus once Start runs.
func NewSystem(o Options) *System {
	if o.Silicon == nil {
		o.Silicon = regs.NewSim()
	}
	if o.Bus == nil {
		o.Bus = bus.NewBus(DefaultBusQueue)
	}
	if o.Clock == nil {
		o.Clock = timex.SystemClock{}
	}
	if o.EventQueue <= 0 {
		o.EventQueue = DefaultEventQueue
	}
	if o.PWMPeriodUs == 0 {
		o.PWMPeriodUs = pwmgen.DefaultPeriodUs
	}
	if o.PWMSink == nil {
		o.PWMSink = pwmgen.NewSimSink()
	}
	if o.ADCBackend == nil {
		o.ADCBackend = &adc.SimBackend{}
	}
	if o.TouchBackend == nil {
		o.TouchBackend = captouch.NewSimBackend()
	}
	if o.TickPeriod <= 0 {
		o.TickPeriod = DefaultTickPeriod
	}

	s := &System{
		hw:      o.Silicon,
		bus:     o.Bus,
		conn:    o.Bus.NewConnection("pins"),
		clock:   o.Clock,
		tick:    o.TickPeriod,
		adcBE:   o.ADCBackend,
		touchBE: o.TouchBackend,
		pins:    map[int]*Pin{},
		states:  map[uint16]types.PinState{},
	}
	s.notifier = irq.NewNotifier(s.conn, o.EventQueue)
	s.disp = irq.NewDispatcher(s.hw, s.notifier, s.clock, s.sleepPending.Load)

	sink, period := o.PWMSink, o.PWMPeriodUs
	s.pwm = pwmalloc.New(
		func() (pwmalloc.Generator, error) { return pwmgen.New(sink, period) },
		func(g pwmalloc.Generator) (pwmalloc.Source, error) {
			return pwmgen.NewMemorySource(g.(*pwmgen.Generator)), nil
		},
	)
	s.disp.Enable()
	return s
}

// Start runs the event pump, the state query responder and the sampling
// tick until ctx is done.
func (s *System) Start(ctx context.Context) {
	s.notifier.Start(ctx)
	queries := s.conn.Subscribe(StateQueryTopic)
	go s.serveState(ctx, queries)
	go s.loop(ctx)
}

// serveState answers {"pin", id, "state", "get"} requests from the last
// published state. Unknown ids get errcode.UnknownPin.
func (s *System) serveState(ctx context.Context, sub *bus.Subscription) {
	defer s.conn.Unsubscribe(sub)
	for {
		select {
		case <-ctx.Done():
			return
		case m, ok := <-sub.Channel():
			if !ok {
				return
			}
			id, _ := m.Topic[1].(int)
			s.stateMu.Lock()
			st, found := s.states[uint16(id)]
			s.stateMu.Unlock()
			if !found {
				s.conn.Reply(m, errcode.UnknownPin, false)
				continue
			}
			s.conn.Reply(m, st, false)
		}
	}
}

func (s *System) loop(ctx context.Context) {
	t := time.NewTicker(s.tick)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			s.Poll()
		}
	}
}

// Poll runs every registered sampler once.
func (s *System) Poll() {
	s.sampleMu.Lock()
	list := make([]*samplerEntry, len(s.samplers))
	copy(list, s.samplers)
	s.sampleMu.Unlock()

	now := s.clock.NowUs()
	for _, e := range list {
		e.s.Tick(now)
	}
}

// Every registers a sampler with the tick.
func (s *System) Every(smp core.Sampler) (cancel func()) {
	e := &samplerEntry{s: smp}
	s.sampleMu.Lock()
	s.samplers = append(s.samplers, e)
	s.sampleMu.Unlock()
	return func() {
		s.sampleMu.Lock()
		defer s.sampleMu.Unlock()
		for i, x := range s.samplers {
			if x == e {
				s.samplers = append(s.samplers[:i], s.samplers[i+1:]...)
				return
			}
		}
	}
}

// HandleInterrupt services a pending port event. Hardware and the
// simulation call it on their own; it is exported for polled setups.
func (s *System) HandleInterrupt() { s.disp.Handle() }

// SetDeepSleepPending marks a deep sleep as scheduled. Activity on a
// wake-on-active pin while it is set publishes a cancel notification.
func (s *System) SetDeepSleepPending(v bool) { s.sleepPending.Store(v) }

// NewPin creates the pin at a physical index and binds it to the port
// interrupt. Indices beyond the port space panic.
func (s *System) NewPin(id uint16, number int, caps Capability, name string) *Pin {
	if number < 0 || number >= regs.MaxPins {
		panic("pins: physical pin index out of range")
	}
	port, bit := regs.Split(number)
	p := &Pin{
		sys:         s,
		id:          id,
		number:      number,
		name:        name,
		caps:        caps,
		port:        s.hw.Port(port),
		bit:         bit,
		mask:        regs.Mask(number),
		pull:        gpio.Float,
		defaultPull: gpio.Float,
	}
	s.pinsMu.Lock()
	s.pins[number] = p
	s.pinsMu.Unlock()
	s.disp.Register(number, p)
	s.publishState(p)
	return p
}

// adcMux creates the converter on first use and hands it to the tick, which
// refreshes every enabled channel.
func (s *System) adcMux() *adc.Mux {
	s.adcOnce.Do(func() {
		s.adc = adc.NewMux(s.adcBE)
		s.Every(adcPoller{s.adc})
	})
	return s.adc
}

type adcPoller struct{ m *adc.Mux }

func (a adcPoller) Tick(uint64) {
	if err := a.m.Update(drivers.Voltage); err != nil {
		println("Warn: adc:", err.Error())
	}
}

func (s *System) touchSensor() *captouch.Sensor {
	s.touchMu.Lock()
	defer s.touchMu.Unlock()
	if s.touch == nil {
		s.touch = captouch.NewSensor(s.touchBE, captouch.DefaultThreshold, s)
	}
	return s.touch
}

// StateTopic is where a pin's retained state is published.
func StateTopic(id uint16) bus.Topic { return bus.T(irq.TopicPin, int(id), "state") }

// StateQueryTopic is the filter System answers state requests on.
var StateQueryTopic = bus.T(irq.TopicPin, "+", "state", "get")

// QueryState asks a started System for a pin's current state.
func QueryState(ctx context.Context, conn *bus.Connection, id uint16) (types.PinState, error) {
	m, err := conn.RequestWait(ctx, conn.NewMessage(bus.T(irq.TopicPin, int(id), "state", "get"), nil, false))
	if err != nil {
		return types.PinState{}, errcode.MapDriverErr(err)
	}
	switch p := m.Payload.(type) {
	case types.PinState:
		return p, nil
	case error:
		return types.PinState{}, p
	}
	return types.PinState{}, errcode.InvalidPayload
}

func (s *System) publishState(p *Pin) {
	st := types.PinState{
		Role:  p.role.String(),
		Edge:  p.Edge().String(),
		Pull:  p.pull.String(),
		Drive: uint8(regs.DriveOf(p.port.PinCnf(p.bit))),
	}
	s.stateMu.Lock()
	s.states[p.id] = st
	s.stateMu.Unlock()
	s.conn.Publish(s.conn.NewMessage(StateTopic(p.id), st, true))
}

// Stats reports counters from the interrupt path.
type Stats struct {
	Dispatched uint32
	Delivered  uint32
	Dropped    uint32
}

func (s *System) Stats() Stats {
	return Stats{
		Dispatched: s.disp.Dispatched(),
		Delivered:  s.notifier.Delivered(),
		Dropped:    s.notifier.ISRDrops(),
	}
}

func (s *System) Bus() *bus.Bus               { return s.bus }
func (s *System) PWM() *pwmalloc.Allocator    { return s.pwm }
func (s *System) Silicon() regs.Silicon       { return s.hw }
func (s *System) Notifier() core.Emitter      { return s.notifier }
func (s *System) Connection() *bus.Connection { return s.conn }

// PinAt returns the pin created at a physical index, or nil.
func (s *System) PinAt(number int) *Pin {
	s.pinsMu.Lock()
	defer s.pinsMu.Unlock()
	return s.pins[number]
}

// Sim is the in-memory register block used when no silicon is given.
type Sim = regs.Sim

// NewSim returns simulated silicon whose lines can be driven externally.
func NewSim() *Sim { return regs.NewSim() }
