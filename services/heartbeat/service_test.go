package heartbeat

import (
	"context"
	"testing"
	"time"

	"pinmux-go/bus"
	"pinmux-go/services/pins"
	"pinmux-go/types"

	"gopkg.in/yaml.v2"
)

type fixedStats struct{ st pins.Stats }

func (f fixedStats) Stats() pins.Stats { return f.st }

func TestHeartbeatPublishesStats(t *testing.T) {
	b := bus.NewBus(8)
	conn := b.NewConnection("test")
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	s := &Service{Src: fixedStats{pins.Stats{Dispatched: 3, Delivered: 2, Dropped: 1}}, Interval: time.Hour}
	_ = s.Start(ctx, conn)

	sub := conn.Subscribe(TopicStats)
	defer conn.Unsubscribe(sub)

	// shorten the interval through config
	cfg := yaml.MapSlice{{Key: "interval_ms", Value: 5}}
	conn.Publish(conn.NewMessage(bus.T("config", "heartbeat"), cfg, true))

	select {
	case m := <-sub.Channel():
		st, ok := m.Payload.(types.PinStats)
		if !ok || st.Dispatched != 3 || st.Dropped != 1 {
			t.Fatalf("payload=%#v", m.Payload)
		}
	case <-time.After(time.Second):
		t.Fatal("no stats published")
	}
}

func TestDecodeConfig(t *testing.T) {
	cfg, err := decodeConfig(map[any]any{"interval_ms": 250})
	if err != nil || cfg.IntervalMs != 250 {
		t.Fatalf("cfg=%+v err=%v", cfg, err)
	}
	if _, err := decodeConfig(map[any]any{"interval_ms": "soon"}); err == nil {
		t.Fatal("expected error")
	}
}
