package heartbeat

import (
	"context"
	"time"

	"pinmux-go/bus"
	"pinmux-go/services/pins"
	"pinmux-go/types"

	"gopkg.in/yaml.v2"
)

var (
	topicConfigHeartbeat = bus.T("config", "heartbeat")
	TopicStats           = bus.T("pins", "stats")
)

const DefaultInterval = time.Second

// StatsSource reports interrupt-path counters.
type StatsSource interface {
	Stats() pins.Stats
}

// Service periodically logs and publishes the pin system's counters.
type Service struct {
	Src      StatsSource
	Interval time.Duration

	start time.Time
}

func (s *Service) beat(conn *bus.Connection) {
	st := s.Src.Stats()
	msg := types.PinStats{
		Dispatched: st.Dispatched,
		Delivered:  st.Delivered,
		Dropped:    st.Dropped,
		UptimeMs:   time.Since(s.start).Milliseconds(),
	}
	conn.Publish(conn.NewMessage(TopicStats, msg, true))
	if st.Dropped > 0 {
		println("Warn: heartbeat: isr queue dropped", st.Dropped, "events")
	}
}

func decodeConfig(payload any) (types.HeartbeatConfig, error) {
	var cfg types.HeartbeatConfig
	raw, err := yaml.Marshal(payload)
	if err != nil {
		return cfg, err
	}
	err = yaml.Unmarshal(raw, &cfg)
	return cfg, err
}

func (s *Service) serviceLoop(ctx context.Context, conn *bus.Connection) {
	cfgSub := conn.Subscribe(topicConfigHeartbeat)
	defer conn.Unsubscribe(cfgSub)

	tick := time.NewTicker(s.Interval)
	defer tick.Stop()

	// loop until context is cancelled, respond to tick and config changes
	for {
		select {
		case <-ctx.Done():
			println("Info: heartbeat service stopping")
			return
		case <-tick.C:
			s.beat(conn)
		case msg := <-cfgSub.Channel():
			cfg, err := decodeConfig(msg.Payload)
			if err != nil {
				println("Error: heartbeat: bad config:", err.Error())
				continue
			}
			if cfg.IntervalMs > 0 {
				s.Interval = time.Duration(cfg.IntervalMs) * time.Millisecond
				tick.Reset(s.Interval)
				println("Info: heartbeat interval set to", cfg.IntervalMs, "ms")
			}
		}
	}
}

// Start the heartbeat service.
func (s *Service) Start(ctx context.Context, conn *bus.Connection) error {
	if s.Interval <= 0 {
		s.Interval = DefaultInterval
	}
	s.start = time.Now()
	go s.serviceLoop(ctx, conn)
	return nil
}
