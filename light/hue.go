package light

import (
	"errors"
	"fmt"

	"github.com/amimof/huego"

	. "github.com/elijahnyp/meetdeck/util"
)

// Hue switches one light or one group on a Hue bridge.
type Hue struct {
	cfg    Settings
	bridge *huego.Bridge
}

func NewHue(cfg Settings) (*Hue, error) {
	if cfg.Hue.Host == "" || cfg.Hue.User == "" {
		return nil, errors.New("hue light needs host and user")
	}
	if cfg.Hue.Light <= 0 && cfg.Hue.Group <= 0 {
		return nil, errors.New("hue light needs a light or group id")
	}
	return &Hue{cfg: cfg, bridge: huego.New(cfg.Hue.Host, cfg.Hue.User)}, nil
}

func (h *Hue) Auto() bool         { return h.cfg.Auto }
func (h *Hue) Controllable() bool { return h.cfg.Control }

func (h *Hue) SetOn(on bool) error {
	Logger.Debug().Msgf("hue: switching %s", onOff(on))
	if h.cfg.Hue.Group > 0 {
		g, err := h.bridge.GetGroup(h.cfg.Hue.Group)
		if err != nil {
			return fmt.Errorf("hue group %d: %w", h.cfg.Hue.Group, err)
		}
		if on {
			return g.On()
		}
		return g.Off()
	}
	l, err := h.bridge.GetLight(h.cfg.Hue.Light)
	if err != nil {
		return fmt.Errorf("hue light %d: %w", h.cfg.Hue.Light, err)
	}
	if on {
		return l.On()
	}
	return l.Off()
}

func onOff(on bool) string {
	if on {
		return "on"
	}
	return "off"
}
