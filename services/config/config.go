package config

import (
	"context"
	"fmt"

	"pinmux-go/bus"
	"pinmux-go/errcode"
	"pinmux-go/types"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v2"
)

// -----------------------------------------------------------------------------
// String constants (live in flash, not RAM)
// -----------------------------------------------------------------------------

const (
	serviceName  = "config"
	configPrefix = "config"
	CtxBoardKey  = "board" // context key used for board name
)

// EmbeddedConfigLookup allows overriding how descriptors are resolved.
var EmbeddedConfigLookup = func(board string) ([]byte, bool) {
	b, ok := embeddedConfigs[board]
	return b, ok
}

// LoadBoard resolves and decodes the descriptor for board.
func LoadBoard(board string) (types.BoardConfig, error) {
	var cfg types.BoardConfig
	raw, ok := EmbeddedConfigLookup(board)
	if !ok || len(raw) == 0 {
		return cfg, errors.Wrapf(errcode.InvalidParameter, "no embedded config for board %q", board)
	}
	if err := yaml.UnmarshalStrict(raw, &cfg); err != nil {
		return cfg, errors.Wrapf(&errcode.E{C: errcode.InvalidPayload, Err: err}, "decode board %q", board)
	}
	if err := Validate(cfg); err != nil {
		return cfg, errors.WithMessagef(err, "board %q", board)
	}
	return cfg, nil
}

// Validate checks pin numbers, ids and capability names.
func Validate(cfg types.BoardConfig) error {
	ids := map[uint16]bool{}
	nums := map[int]bool{}
	for _, p := range cfg.Pins {
		if p.Number < 0 || p.Number >= MaxPins {
			return errors.Wrapf(errcode.InvalidParameter, "pin %d: number %d out of range", p.ID, p.Number)
		}
		if ids[p.ID] {
			return errors.Wrapf(errcode.InvalidParameter, "duplicate pin id %d", p.ID)
		}
		if nums[p.Number] {
			return errors.Wrapf(errcode.PinInUse, "pin number %d declared twice", p.Number)
		}
		ids[p.ID], nums[p.Number] = true, true
		for _, c := range p.Caps {
			switch c {
			case "digital", "analog", "touch":
			default:
				return errors.Wrapf(errcode.InvalidParameter, "pin %d: unknown capability %q", p.ID, c)
			}
		}
		switch p.Pull {
		case "", "none", "up", "down":
		default:
			return errors.Wrapf(errcode.InvalidParameter, "pin %d: unknown pull %q", p.ID, p.Pull)
		}
	}
	return nil
}

// MaxPins is the size of the two-port pin space (32 + 16).
const MaxPins = 48

// -----------------------------------------------------------------------------
// Config Service
// -----------------------------------------------------------------------------

type ConfigService struct {
	Name string
}

func NewConfigService() *ConfigService {
	return &ConfigService{Name: serviceName}
}

// publishConfig publishes each top-level key of the board descriptor retained.
func (s *ConfigService) publishConfig(ctx context.Context, conn *bus.Connection) error {
	board, _ := ctx.Value(CtxBoardKey).(string)
	if board == "" {
		return errors.New("missing board name in context")
	}

	raw, ok := EmbeddedConfigLookup(board)
	if !ok || len(raw) == 0 {
		return errors.Errorf("no embedded config for board: %s", board)
	}

	var doc yaml.MapSlice
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return errors.Wrap(err, "embedded config is not a YAML mapping")
	}

	for _, item := range doc {
		key := fmt.Sprint(item.Key)
		conn.Publish(conn.NewMessage(bus.T(configPrefix, key), item.Value, true))
	}
	return nil
}

// Start launches the config publisher in a goroutine.
func (s *ConfigService) Start(ctx context.Context, conn *bus.Connection) {
	go func() {
		if err := s.publishConfig(ctx, conn); err != nil {
			println("Error: config:", err.Error())
		}
	}()
}
