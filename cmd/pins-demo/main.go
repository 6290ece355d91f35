// cmd/pins-demo: runs the host-sim board on simulated silicon and prints
// everything the pin layer publishes.
package main

import (
	"context"
	"runtime"
	"time"

	"pinmux-go/bus"
	"pinmux-go/services/config"
	"pinmux-go/services/heartbeat"
	"pinmux-go/services/pins"
	"pinmux-go/types"
)

const boardName = "host-sim"

func printTopicWith(prefix string, t bus.Topic) {
	print(prefix)
	print(" ")
	for i, tok := range t {
		if i > 0 {
			print("/")
		}
		switch v := tok.(type) {
		case string:
			print(v)
		case int:
			print(v)
		default:
			print("?")
		}
	}
}

func monitor(sub *bus.Subscription) {
	for m := range sub.Channel() {
		printTopicWith("[monitor] <-", m.Topic)
		switch p := m.Payload.(type) {
		case types.PinEvent:
			println(" ts:", p.TsUs, "dur:", p.DurationUs)
		case types.PinState:
			println(" role:", p.Role, "edge:", p.Edge, "pull:", p.Pull)
		case types.PinStats:
			println(" dispatched:", p.Dispatched, "dropped:", p.Dropped)
		default:
			println()
		}
	}
}

func must(what string, err error) {
	if err != nil {
		println("[main]", what, "error:", err.Error())
	}
}

func main() {
	ctx, cancel := context.WithCancel(context.WithValue(context.Background(), config.CtxBoardKey, boardName))
	defer cancel()

	sim := pins.NewSim()
	println("[main] opening board", boardName, "…")
	board, err := pins.OpenBoard(boardName, pins.Options{Silicon: sim})
	if err != nil {
		println("[main] board error:", err.Error())
		return
	}
	conn := board.Sys.Bus().NewConnection("demo")
	go monitor(conn.Subscribe(bus.T("pin", "+", "+")))
	go monitor(conn.Subscribe(bus.T("notify", "+")))
	go monitor(conn.Subscribe(heartbeat.TopicStats))

	config.NewConfigService().Start(ctx, conn)
	hb := &heartbeat.Service{Src: board.Sys}
	must("heartbeat", hb.Start(ctx, conn))
	board.Start(ctx)

	a0, _ := board.Pin("A0")
	a1, _ := board.Pin("A1")
	d0, _ := board.Pin("D0")
	d1, _ := board.Pin("D1")

	println("[main] servo on A1, edges on D0, pulses on A0 …")
	must("servo", a1.SetServoValueDefault(90))
	must("edge", d0.EventOn(pins.EventOnEdge))
	board.Sys.SetDeepSleepPending(true)
	a0.SetPolarity(pins.ActiveHigh)
	must("pulse", a0.EventOn(pins.EventOnPulse))

	go func() {
		for ctx.Err() == nil {
			sim.Drive(a0.Number(), true)
			time.Sleep(3 * time.Millisecond)
			sim.Drive(a0.Number(), false)
			time.Sleep(7 * time.Millisecond)
		}
	}()

	for i := 0; i < 5; i++ {
		must("blink", d1.SetDigitalValue(i&1))
		sim.Drive(d0.Number(), i&1 == 0)

		us, err := a0.GetPulseUs(ctx, 100*time.Millisecond)
		if err != nil {
			println("[main] pulse error:", err.Error())
		} else {
			println("[main] A0 high pulse", us, "us")
		}
		printMem()
		time.Sleep(250 * time.Millisecond)
	}
	if st, err := pins.QueryState(ctx, conn, d1.ID()); err != nil {
		println("[main] D1 state error:", err.Error())
	} else {
		println("[main] D1 is", st.Role, "drive", st.Drive)
	}
	must("halt", board.Halt())
	println("[main] done")
}

// printMem prints a compact snapshot of runtime memory stats.
func printMem() {
	var ms runtime.MemStats
	runtime.ReadMemStats(&ms)

	println(
		"[mem]",
		"alloc:", uint32(ms.Alloc),
		"heapInuse:", uint32(ms.HeapInuse),
		"mallocs:", uint32(ms.Mallocs),
		"frees:", uint32(ms.Frees),
	)
}
