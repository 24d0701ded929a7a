package eventloop

import (
	"context"
	"time"
)

// ByteSource is fed one raw byte at a time, the way the Fona and LoRa
// FSMs consume a UART stream (spec §5's "byte-arrival completions").
type ByteSource interface {
	ReceiveByte(ctx context.Context, b byte)
}

// Processor is stepped once per loop pass: on every tick, and again
// immediately after any byte delivery, so a transport whose CmdBuf just
// went Complete doesn't wait for the next tick to advance its FSM.
type Processor interface {
	Process(ctx context.Context)
}

// TickFunc is a periodic callback, e.g. comm.Supervisor.Tick or
// sensor.Scheduler.Tick.
type TickFunc func(ctx context.Context)

type byteEvent struct {
	source ByteSource
	b      byte
}

// Loop is the event loop itself. A Loop must be built with New and is
// not safe to copy after Feed or Run have been called.
type Loop struct {
	bytes        chan byteEvent
	processors   []Processor
	onTick       []TickFunc
	tickInterval time.Duration

	droppedBytes int
}

// New builds a Loop with the given byte-queue depth (the single-
// producer queue capacity) and tick interval. Feed never blocks: with a
// queueDepth of 0 a byte is delivered only if Run is waiting to receive
// at that moment, and otherwise it is dropped and counted.
func New(queueDepth int, tickInterval time.Duration) *Loop {
	return &Loop{
		bytes:        make(chan byteEvent, queueDepth),
		tickInterval: tickInterval,
	}
}

// AddProcessor registers a component to be stepped on every loop pass.
func (l *Loop) AddProcessor(p Processor) {
	l.processors = append(l.processors, p)
}

// OnTick registers a callback to run on every tick interval.
func (l *Loop) OnTick(fn TickFunc) {
	l.onTick = append(l.onTick, fn)
}

// Feed enqueues one byte from source. It is the only method meant to be
// called from outside the Run goroutine (e.g. a serial port reader). If
// the queue is full the byte is dropped and counted rather than
// blocking the reader indefinitely; a full queue means the loop has
// fallen behind and a watchdog will eventually notice.
func (l *Loop) Feed(source ByteSource, b byte) {
	select {
	case l.bytes <- byteEvent{source: source, b: b}:
	default:
		l.droppedBytes++
	}
}

// DroppedBytes reports how many Feed calls were discarded because the
// queue was full.
func (l *Loop) DroppedBytes() int { return l.droppedBytes }

// Run drives the loop until ctx is cancelled. Every byte delivery is
// immediately followed by a processor pass; every tick runs the
// registered TickFuncs followed by a processor pass.
func (l *Loop) Run(ctx context.Context) {
	ticker := time.NewTicker(l.tickInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case ev := <-l.bytes:
			ev.source.ReceiveByte(ctx, ev.b)
			l.runProcessors(ctx)
		case <-ticker.C:
			for _, fn := range l.onTick {
				fn(ctx)
			}
			l.runProcessors(ctx)
		}
	}
}

func (l *Loop) runProcessors(ctx context.Context) {
	for _, p := range l.processors {
		p.Process(ctx)
	}
}
