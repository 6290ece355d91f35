package pins

import (
	"context"
	"sort"
	"strconv"

	"pinmux-go/errcode"
	"pinmux-go/services/config"
	"pinmux-go/types"

	"github.com/pkg/errors"
	"go.uber.org/multierr"
	"periph.io/x/conn/v3/gpio"
)

// Board is a System populated from a board descriptor.
type Board struct {
	Name string
	Sys  *System

	byLabel map[string]*Pin
	byID    map[uint16]*Pin
	order   []*Pin
}

// OpenBoard loads the embedded descriptor for name and brings its pins up.
// Descriptor options fill in any Options left at zero.
func OpenBoard(name string, o Options) (*Board, error) {
	cfg, err := config.LoadBoard(name)
	if err != nil {
		return nil, err
	}
	if o.PWMPeriodUs == 0 && cfg.Options.PWMPeriodUs > 0 {
		o.PWMPeriodUs = uint32(cfg.Options.PWMPeriodUs)
	}
	if o.EventQueue == 0 {
		o.EventQueue = cfg.Options.EventQueue
	}
	return NewBoard(NewSystem(o), cfg)
}

// NewBoard creates one Pin per descriptor entry on sys.
func NewBoard(sys *System, cfg types.BoardConfig) (*Board, error) {
	if err := config.Validate(cfg); err != nil {
		return nil, err
	}
	b := &Board{
		Name:    cfg.Name,
		Sys:     sys,
		byLabel: map[string]*Pin{},
		byID:    map[uint16]*Pin{},
	}
	// nothing is registered with sys until every entry parses
	pulls := make([]gpio.Pull, len(cfg.Pins))
	for i, pc := range cfg.Pins {
		pull, err := parsePull(pc.Pull)
		if err != nil {
			return nil, errors.WithMessagef(err, "pin %d", pc.ID)
		}
		pulls[i] = pull
	}
	for i, pc := range cfg.Pins {
		pull := pulls[i]
		name := pc.Label
		if name == "" {
			name = "P" + strconv.Itoa(pc.Number)
		}
		p := sys.NewPin(pc.ID, pc.Number, parseCaps(pc.Caps), name)
		p.pull, p.defaultPull = pull, pull
		p.SetWakeOnActive(pc.Wake)
		b.byLabel[name] = p
		b.byID[pc.ID] = p
		b.order = append(b.order, p)
	}
	sort.Slice(b.order, func(i, j int) bool { return b.order[i].id < b.order[j].id })
	return b, nil
}

func parseCaps(names []string) Capability {
	var c Capability
	for _, n := range names {
		switch n {
		case "digital":
			c |= CapDigital
		case "analog":
			c |= CapAnalog
		case "touch":
			c |= CapTouch
		}
	}
	return c
}

func parsePull(s string) (gpio.Pull, error) {
	switch s {
	case "", "none":
		return gpio.Float, nil
	case "up":
		return gpio.PullUp, nil
	case "down":
		return gpio.PullDown, nil
	}
	return gpio.PullNoChange, errors.Wrapf(errcode.InvalidParameter, "unknown pull %q", s)
}

// Pin returns the pin with the given label.
func (b *Board) Pin(label string) (*Pin, error) {
	if p, ok := b.byLabel[label]; ok {
		return p, nil
	}
	return nil, errors.Wrapf(errcode.UnknownPin, "no pin labelled %q on %s", label, b.Name)
}

// PinByID returns the pin with the given event source id.
func (b *Board) PinByID(id uint16) (*Pin, error) {
	if p, ok := b.byID[id]; ok {
		return p, nil
	}
	return nil, errors.Wrapf(errcode.UnknownPin, "no pin with id %d on %s", id, b.Name)
}

// Pins returns every pin ordered by id.
func (b *Board) Pins() []*Pin {
	out := make([]*Pin, len(b.order))
	copy(out, b.order)
	return out
}

// Start runs the board's System.
func (b *Board) Start(ctx context.Context) { b.Sys.Start(ctx) }

// Halt disconnects every pin and returns all release errors combined.
func (b *Board) Halt() error {
	var err error
	for _, p := range b.order {
		err = multierr.Append(err, errors.WithMessage(p.Disconnect(), p.name))
	}
	return err
}
