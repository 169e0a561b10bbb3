// SPDX-License-Identifier: MIT
package udp

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"sync"

	applog "notedetect/internal/log"
	"notedetect/internal/note"
)

// eventQueueSize bounds the number of pending events. Note events are rare
// compared to audio blocks, so a small queue absorbs any consumer stall.
const eventQueueSize = 64

// EventPublisher receives note events, packs each into a compact binary
// packet and sends it over UDP using a UDPSender. It runs in a separate
// goroutine managed by Start and Stop.
type EventPublisher struct {
	sender *UDPSender // The underlying UDP sender instance.

	events   chan note.Event
	doneChan chan struct{}  // Channel used to signal the publisher goroutine to stop.
	stopOnce sync.Once      // Ensures the stop logic runs only once per Start/Stop cycle.
	wg       sync.WaitGroup // Waits for the publisher goroutine to finish during Stop.
	mu       sync.Mutex     // Protects running state during Start/Stop.
	running  bool

	sequenceNum uint32 // Monotonically increasing sequence number for packets.

	// Reusable buffer for constructing the binary packet.
	packetBuffer *bytes.Buffer
}

// NewEventPublisher creates a publisher over the given sender.
func NewEventPublisher(sender *UDPSender) (*EventPublisher, error) {
	if sender == nil {
		return nil, fmt.Errorf("EventPublisher: UDP sender cannot be nil")
	}

	return &EventPublisher{
		sender:       sender,
		events:       make(chan note.Event, eventQueueSize),
		packetBuffer: new(bytes.Buffer),
	}, nil
}

// Start launches the publisher goroutine. It is safe to call Start
// multiple times; subsequent calls are no-ops while running.
func (p *EventPublisher) Start() {
	p.mu.Lock()
	if p.running {
		p.mu.Unlock()
		applog.Warnf("EventPublisher: Start called but already running.")
		return
	}
	p.running = true
	p.doneChan = make(chan struct{})
	p.stopOnce = sync.Once{} // Reset stopOnce for this run

	doneChan := p.doneChan
	p.mu.Unlock()

	p.wg.Add(1)
	go func() {
		defer p.wg.Done()
		applog.Infof("EventPublisher: Publisher goroutine started")
		for {
			select {
			case event := <-p.events:
				p.buildAndSendPacket(event)
			case <-doneChan:
				applog.Infof("EventPublisher: Publisher goroutine received stop signal.")
				return
			}
		}
	}()
}

// Stop gracefully signals the publisher goroutine to terminate and waits
// for it to exit. It is safe to call multiple times.
func (p *EventPublisher) Stop() error {
	p.mu.Lock()
	if !p.running {
		p.mu.Unlock()
		applog.Debugf("EventPublisher: Stop called but not running.")
		return nil
	}

	p.stopOnce.Do(func() {
		applog.Infof("EventPublisher: Initiating stop sequence...")
		close(p.doneChan)
		p.running = false
	})
	p.mu.Unlock()

	p.wg.Wait()
	applog.Debugf("EventPublisher: Publisher goroutine finished.")
	return nil
}

// Send queues an event for publishing. A full queue drops the event rather
// than blocking the detection path.
func (p *EventPublisher) Send(event note.Event) error {
	select {
	case p.events <- event:
	default:
		applog.Debugf("EventPublisher: Queue full, dropping event %d", event.Note)
	}
	return nil
}

/*
UDP Packet Structure (BigEndian)

+-----------------------------------------------------------------------------+
| Field             | Data Type      | Size (Bytes) | Description             |
|-------------------|----------------|--------------|-------------------------|
| Sequence Number   | uint32         | 4            | Monotonically increasing|
| Timestamp         | int64          | 8            | Nanoseconds since epoch |
| Event Type        | uint8          | 1            | 0 = off, 1 = on         |
| MIDI Note         | uint8          | 1            | 21..108                 |
| Frequency         | float32        | 4            | Reference pitch in Hz   |
+-----------------------------------------------------------------------------+
*/

// buildAndSendPacket packs one event and hands it to the sender.
func (p *EventPublisher) buildAndSendPacket(event note.Event) {
	p.sequenceNum++
	p.packetBuffer.Reset()

	err := binary.Write(p.packetBuffer, binary.BigEndian, p.sequenceNum)
	if err == nil {
		err = binary.Write(p.packetBuffer, binary.BigEndian, event.Timestamp)
	}
	if err == nil {
		err = binary.Write(p.packetBuffer, binary.BigEndian, uint8(event.Type))
	}
	if err == nil {
		err = binary.Write(p.packetBuffer, binary.BigEndian, uint8(event.Note))
	}
	if err == nil {
		err = binary.Write(p.packetBuffer, binary.BigEndian, float32(event.Frequency))
	}
	if err != nil {
		applog.Errorf("EventPublisher: Error packing event: %v", err)
		return
	}

	if err := p.sender.Send(p.packetBuffer.Bytes()); err == nil {
		applog.Debugf("EventPublisher: Sent packet %d (%d bytes)",
			p.sequenceNum, p.packetBuffer.Len())
	}
}

// Close implements the io.Closer interface. It stops the publisher and
// closes the underlying sender.
func (p *EventPublisher) Close() error {
	applog.Debugf("EventPublisher: Close called, stopping publisher...")
	if err := p.Stop(); err != nil {
		return err
	}
	return p.sender.Close()
}
