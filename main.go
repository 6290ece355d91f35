package main

import (
	"context"
	"time"

	"pinmux-go/bus"
	"pinmux-go/services/config"
	"pinmux-go/services/heartbeat"
	"pinmux-go/services/pins"
	"pinmux-go/types"
)

const boardName = "microbit-v2"

func main() {
	// Allow USB CDC to enumerate before we print.
	time.Sleep(2 * time.Second)
	println("boot")

	ctx := context.WithValue(context.Background(), config.CtxBoardKey, boardName)
	board, err := pins.OpenBoard(boardName, pins.HardwareOptions())
	if err != nil {
		println("Error: board:", err.Error())
		return
	}
	conn := board.Sys.Bus().NewConnection("main")
	config.NewConfigService().Start(ctx, conn)
	_ = (&heartbeat.Service{Src: board.Sys}).Start(ctx, conn)
	board.Start(ctx)

	// The two front buttons are wake sources on the board descriptor.
	for _, label := range []string{"P5", "P11"} {
		p, err := board.Pin(label)
		if err != nil {
			println("Error:", err.Error())
			continue
		}
		if err := p.EventOn(pins.EventOnEdge); err != nil {
			println("Error:", label, err.Error())
		}
	}

	sub := conn.Subscribe(bus.T("pin", "+", "+"))
	for m := range sub.Channel() {
		if ev, ok := m.Payload.(types.PinEvent); ok {
			println("Info: pin", ev.Source, "event", ev.Value, "at", ev.TsUs)
		}
	}
}
