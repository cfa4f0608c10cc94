package deck

import (
	"context"
	"errors"
	"fmt"
	"image"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/muesli/streamdeck"

	. "github.com/elijahnyp/meetdeck/util"
)

// HIDPanel drives a Stream Deck attached over USB.
type HIDPanel struct {
	serial     string
	brightness uint8
	mu         sync.RWMutex
	dev        *streamdeck.Device
	keys       chan int
}

func NewHIDPanel(serial string, brightness uint8) *HIDPanel {
	return &HIDPanel{
		serial:     serial,
		brightness: brightness,
		keys:       make(chan int, 16),
	}
}

func (p *HIDPanel) Connected() bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.dev != nil
}

func (p *HIDPanel) KeySize() int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.dev == nil {
		return 0
	}
	return int(p.dev.Pixels)
}

func (p *HIDPanel) SetImage(index int, img image.Image) error {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.dev == nil {
		return ErrNotConnected
	}
	if index < 0 || index >= int(p.dev.Keys) {
		return fmt.Errorf("key %d out of range", index)
	}
	return p.dev.SetImage(uint8(index), img)
}

func (p *HIDPanel) Clear() error {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.dev == nil {
		return ErrNotConnected
	}
	return p.dev.Clear()
}

func (p *HIDPanel) Keys() <-chan int {
	return p.keys
}

func (p *HIDPanel) open() error {
	devs, err := streamdeck.Devices()
	if err != nil {
		return fmt.Errorf("enumerate panels: %w", err)
	}
	for i := range devs {
		d := devs[i]
		if p.serial != "" && d.Serial != p.serial {
			continue
		}
		if err := d.Open(); err != nil {
			return fmt.Errorf("open panel %s: %w", d.Serial, err)
		}
		if err := d.SetBrightness(p.brightness); err != nil {
			Logger.Warn().Msgf("unable to set panel brightness: %v", err)
		}
		p.mu.Lock()
		p.dev = &d
		p.mu.Unlock()
		Logger.Info().Msgf("panel %s opened (%d keys, %dpx)", d.Serial, d.Keys, d.Pixels)
		return nil
	}
	return errors.New("no panel found")
}

func (p *HIDPanel) close() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.dev == nil {
		return
	}
	if err := p.dev.Close(); err != nil {
		Logger.Debug().Msgf("error closing panel: %v", err)
	}
	p.dev = nil
}

// Run opens the panel, retrying with backoff, and forwards key presses until
// ctx is done. A lost panel is reopened.
func (p *HIDPanel) Run(ctx context.Context, onConnect func()) error {
	defer p.close()
	for {
		b := backoff.NewExponentialBackOff()
		b.InitialInterval = 500 * time.Millisecond
		b.MaxInterval = 10 * time.Second
		b.MaxElapsedTime = 0
		err := backoff.Retry(func() error {
			err := p.open()
			if err != nil {
				Logger.Debug().Msgf("panel not available: %v", err)
			}
			return err
		}, backoff.WithContext(b, ctx))
		if err != nil {
			return ctx.Err()
		}

		p.mu.RLock()
		dev := p.dev
		p.mu.RUnlock()
		events, err := dev.ReadKeys()
		if err != nil {
			Logger.Warn().Msgf("unable to read panel keys: %v", err)
			p.close()
			continue
		}
		if onConnect != nil {
			onConnect()
		}
		if !p.forward(ctx, events) {
			return ctx.Err()
		}
		Logger.Warn().Msg("panel disconnected")
		p.close()
	}
}

// forward returns false when ctx ended and true when the panel went away.
func (p *HIDPanel) forward(ctx context.Context, events chan streamdeck.Key) bool {
	for {
		select {
		case <-ctx.Done():
			return false
		case k, ok := <-events:
			if !ok {
				return true
			}
			if !k.Pressed {
				continue
			}
			select {
			case p.keys <- int(k.Index):
			default:
				Logger.Warn().Msgf("dropping key %d press, queue full", k.Index)
			}
		}
	}
}
