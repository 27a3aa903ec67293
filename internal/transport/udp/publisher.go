// SPDX-License-Identifier: MIT
package udp

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"sync"
	"time"

	applog "leopold/internal/log"
)

// Sample is one metering observation: the session status code plus the
// live level and coarse spectrum bands for remote level meters.
type Sample struct {
	Status  uint8
	Elapsed float64
	Level   float64
	Bands   []float64
}

/*
Publisher samples the recording session at a fixed interval and ships
each observation as one binary packet. It pulls through the source
function, so a slow or absent receiver never backs up into the session
loop.

Packet layout (BigEndian):

	| Field      | Type      | Bytes |
	|------------|-----------|-------|
	| Sequence   | uint32    | 4     |
	| Timestamp  | int64     | 8     |
	| Status     | uint8     | 1     |
	| Elapsed    | float32   | 4     |
	| Level      | float32   | 4     |
	| Band count | uint16    | 2     |
	| Bands      | []float32 | N*4   |

Timestamp is nanoseconds since epoch; the sequence number lets
receivers spot drops and reorders.
*/
type Publisher struct {
	sender   *Sender
	source   func() Sample
	interval time.Duration

	ticker   *time.Ticker
	doneChan chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup
	mu       sync.Mutex

	sequenceNum uint32
	bandBuffer  []float32
	packet      *bytes.Buffer
}

// NewPublisher wires a publisher to its sender and sample source. A
// non-positive interval defaults to 33ms (~30Hz).
func NewPublisher(interval time.Duration, sender *Sender, source func() Sample) (*Publisher, error) {
	if sender == nil {
		return nil, fmt.Errorf("udp: publisher needs a sender")
	}
	if source == nil {
		return nil, fmt.Errorf("udp: publisher needs a sample source")
	}
	if interval <= 0 {
		interval = 33 * time.Millisecond
		applog.Warnf("udp: invalid publish interval, defaulting to %s", interval)
	}

	return &Publisher{
		sender:   sender,
		source:   source,
		interval: interval,
		packet:   new(bytes.Buffer),
	}, nil
}

// Start launches the publish loop. Calling Start on a running publisher
// is a no-op.
func (p *Publisher) Start() {
	p.mu.Lock()
	if p.ticker != nil {
		p.mu.Unlock()
		applog.Warnf("udp: publisher already running")
		return
	}

	p.ticker = time.NewTicker(p.interval)
	p.doneChan = make(chan struct{})
	p.stopOnce = sync.Once{}

	ticker := p.ticker
	doneChan := p.doneChan
	p.mu.Unlock()

	p.wg.Add(1)
	go func() {
		defer p.wg.Done()
		applog.Debugf("udp: publisher started (interval %s)", p.interval)
		for {
			select {
			case <-ticker.C:
				p.publishOnce()
			case <-doneChan:
				return
			}
		}
	}()
}

// Stop signals the publish loop to exit and waits for it. Safe to call
// more than once.
func (p *Publisher) Stop() error {
	p.mu.Lock()
	if p.ticker == nil {
		p.mu.Unlock()
		return nil
	}
	p.stopOnce.Do(func() {
		close(p.doneChan)
		p.ticker.Stop()
		p.ticker = nil
	})
	p.mu.Unlock()

	p.wg.Wait()
	applog.Debugf("udp: publisher stopped")
	return nil
}

// publishOnce pulls one sample, packs it and sends it. Runs on the
// publish goroutine only, so the scratch buffers need no locking.
func (p *Publisher) publishOnce() {
	sample := p.source()

	if cap(p.bandBuffer) < len(sample.Bands) {
		p.bandBuffer = make([]float32, len(sample.Bands))
	}
	p.bandBuffer = p.bandBuffer[:len(sample.Bands)]
	for i, v := range sample.Bands {
		p.bandBuffer[i] = float32(v)
	}

	p.sequenceNum++
	p.packet.Reset()

	err := binary.Write(p.packet, binary.BigEndian, p.sequenceNum)
	if err == nil {
		err = binary.Write(p.packet, binary.BigEndian, time.Now().UnixNano())
	}
	if err == nil {
		err = binary.Write(p.packet, binary.BigEndian, sample.Status)
	}
	if err == nil {
		err = binary.Write(p.packet, binary.BigEndian, float32(sample.Elapsed))
	}
	if err == nil {
		err = binary.Write(p.packet, binary.BigEndian, float32(sample.Level))
	}
	if err == nil {
		err = binary.Write(p.packet, binary.BigEndian, uint16(len(p.bandBuffer)))
	}
	if err == nil && len(p.bandBuffer) > 0 {
		err = binary.Write(p.packet, binary.BigEndian, p.bandBuffer)
	}
	if err != nil {
		applog.Errorf("udp: packing sample: %v", err)
		return
	}

	if err := p.sender.Send(p.packet.Bytes()); err != nil {
		applog.Debugf("udp: send failed: %v", err)
		return
	}
	applog.Debugf("udp: sent packet %d (%d bytes)", p.sequenceNum, p.packet.Len())
}

// Close stops the publish loop.
func (p *Publisher) Close() error {
	return p.Stop()
}

var _ io.Closer = (*Publisher)(nil)
