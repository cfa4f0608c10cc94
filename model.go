package main

import (
	"fmt"

	"github.com/elijahnyp/meetdeck/deck"
	"github.com/elijahnyp/meetdeck/dom"
	"github.com/elijahnyp/meetdeck/icons"
	"github.com/elijahnyp/meetdeck/light"
	. "github.com/elijahnyp/meetdeck/util"
)

type PanelConfig struct {
	Backend    string `mapstructure:"backend"`
	Serial     string `mapstructure:"serial"`
	Brightness uint8  `mapstructure:"brightness"`
	MQTTPrefix string `mapstructure:"mqtt_prefix"`
	KeySize    int    `mapstructure:"key_size"`
}

type IconConfig struct {
	Dir   string `mapstructure:"dir"`
	Cache int    `mapstructure:"cache"`
}

// Model is everything the daemon reads from configuration besides the
// connection settings util handles itself.
type Model struct {
	Selectors dom.Selectors  `mapstructure:"selectors"`
	Layouts   deck.Layouts   `mapstructure:"layouts"`
	Panel     PanelConfig    `mapstructure:"panel"`
	Icons     IconConfig     `mapstructure:"icons"`
	Light     light.Settings `mapstructure:"light"`
}

func (m *Model) BuildModel() error {
	var fresh Model
	if err := Config.Unmarshal(&fresh); err != nil {
		Logger.Error().Msgf("error unmarshaling model: %v", err)
		return fmt.Errorf("unmarshal model: %w", err)
	}
	fresh.Selectors = fresh.Selectors.Merge(dom.DefaultSelectors())
	if len(fresh.Layouts) == 0 {
		fresh.Layouts = deck.DefaultLayouts()
	}
	if fresh.Panel.KeySize <= 0 {
		fresh.Panel.KeySize = icons.DefaultSize
	}
	*m = fresh
	return nil
}
