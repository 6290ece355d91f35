// config/config_test.go
package config

import (
	"context"
	"testing"
	"time"

	"pinmux-go/bus"
	"pinmux-go/errcode"
)

func TestConfig_PublishEmbedded_RetainedPerKey(t *testing.T) {
	oldLookup := EmbeddedConfigLookup
	EmbeddedConfigLookup = func(board string) ([]byte, bool) {
		if board != "sim" {
			return nil, false
		}
		return []byte("name: sim\noptions:\n  pwm_period_us: 1000\npins:\n  - {id: 1, number: 2, caps: [digital]}\n"), true
	}
	t.Cleanup(func() { EmbeddedConfigLookup = oldLookup })

	b := bus.NewBus(16)
	conn := b.NewConnection("test-config")
	svc := NewConfigService()

	ctx := context.WithValue(context.Background(), CtxBoardKey, "sim")
	svc.Start(ctx, conn)

	sub := conn.Subscribe(bus.Topic{configPrefix, "#"})

	got := map[string]any{}
	deadline := time.Now().Add(600 * time.Millisecond)
	for len(got) < 3 && time.Now().Before(deadline) {
		select {
		case m := <-sub.Channel():
			key, ok := m.Topic[1].(string)
			if !ok {
				t.Fatalf("topic[1] type %T, want string", m.Topic[1])
			}
			got[key] = m.Payload
		case <-time.After(10 * time.Millisecond):
		}
	}
	if len(got) != 3 {
		t.Fatalf("expected 3 retained messages, got %d (%v)", len(got), got)
	}
	if s, ok := got["name"].(string); !ok || s != "sim" {
		t.Fatalf("name payload = %#v", got["name"])
	}
	if pins, ok := got["pins"].([]any); !ok || len(pins) != 1 {
		t.Fatalf("pins payload = %#v", got["pins"])
	}
}

func TestConfig_PublishConfig_MissingBoard(t *testing.T) {
	b := bus.NewBus(4)
	conn := b.NewConnection("test-missing-board")
	if err := NewConfigService().publishConfig(context.Background(), conn); err == nil {
		t.Fatal("expected error for missing board name, got nil")
	}
}

func TestLoadBoard_Embedded(t *testing.T) {
	cfg, err := LoadBoard("microbit-v2")
	if err != nil {
		t.Fatalf("LoadBoard: %v", err)
	}
	if cfg.Name != "microbit-v2" || len(cfg.Pins) != 20 {
		t.Fatalf("unexpected board: %s with %d pins", cfg.Name, len(cfg.Pins))
	}
	if cfg.Options.PWMPeriodUs != 20000 {
		t.Fatalf("pwm period = %d", cfg.Options.PWMPeriodUs)
	}
	p0 := cfg.Pins[0]
	if p0.ID != 100 || p0.Number != 2 || len(p0.Caps) != 3 {
		t.Fatalf("unexpected P0: %+v", p0)
	}
}

func TestLoadBoard_Errors(t *testing.T) {
	oldLookup := EmbeddedConfigLookup
	t.Cleanup(func() { EmbeddedConfigLookup = oldLookup })

	cases := []struct {
		name string
		doc  string
		want errcode.Code
	}{
		{"unknown field", "name: x\nbogus: 1\n", errcode.InvalidPayload},
		{"out of range", "pins:\n  - {id: 1, number: 48, caps: [digital]}\n", errcode.InvalidParameter},
		{"duplicate number", "pins:\n  - {id: 1, number: 3}\n  - {id: 2, number: 3}\n", errcode.PinInUse},
		{"bad cap", "pins:\n  - {id: 1, number: 3, caps: [laser]}\n", errcode.InvalidParameter},
		{"bad pull", "pins:\n  - {id: 1, number: 3, pull: sideways}\n", errcode.InvalidParameter},
	}
	for _, c := range cases {
		doc := c.doc
		EmbeddedConfigLookup = func(string) ([]byte, bool) { return []byte(doc), true }
		_, err := LoadBoard("b")
		if got := errcode.Of(err); got != c.want {
			t.Errorf("%s: code %q, want %q (err=%v)", c.name, got, c.want, err)
		}
	}

	EmbeddedConfigLookup = func(string) ([]byte, bool) { return nil, false }
	if _, err := LoadBoard("none"); errcode.Of(err) != errcode.InvalidParameter {
		t.Fatalf("missing board: %v", err)
	}
}
