package util

import (
	"crypto/rand"
	"fmt"
	"reflect"
	"strings"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const ENV_PREFIX = "MEETDECK"

var Config = viper.New()

var config_listeners []func()

func RegisterNewConfigListener(new_listener func()) {
	for _, listener := range config_listeners {
		if reflect.ValueOf(new_listener).Pointer() == reflect.ValueOf(listener).Pointer() {
			Logger.Warn().Msg("config listener already registered")
			return
		}
	}
	config_listeners = append(config_listeners, new_listener)
}

func OnNewConfig() {
	for _, listener := range config_listeners {
		listener()
	}
}

func GetRandString(n int) string {
	const letterBytes = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ"
	b := make([]byte, n)
	for i := range b {
		randBytes := make([]byte, 1)
		if _, err := rand.Read(randBytes); err != nil {
			b[i] = letterBytes[i%len(letterBytes)]
		} else {
			b[i] = letterBytes[int(randBytes[0])%len(letterBytes)]
		}
	}
	return string(b)
}

// ParseFlags binds the command line into Config. It must run before
// SetupConfig so --config can point at an explicit file.
func ParseFlags(args []string) error {
	flags := pflag.NewFlagSet("meetdeck", pflag.ContinueOnError)
	configFile := flags.String("config", "", "config file (default: meetdeck.{yaml,json,toml} on the search path)")
	flags.String("log-level", "info", "trace, debug, info, warn or error")
	flags.String("listen", ":8087", "monitor server address")
	if err := flags.Parse(args); err != nil {
		return fmt.Errorf("parsing flags: %w", err)
	}
	if err := Config.BindPFlag("log_level", flags.Lookup("log-level")); err != nil {
		return fmt.Errorf("binding log-level: %w", err)
	}
	if err := Config.BindPFlag("listen", flags.Lookup("listen")); err != nil {
		return fmt.Errorf("binding listen: %w", err)
	}
	if *configFile != "" {
		Config.SetConfigFile(*configFile)
	}
	return nil
}

func SetupConfig() {
	Config.SetEnvPrefix(ENV_PREFIX)
	Config.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// set defaults
	Config.SetDefault("Broker_URI", "")
	Config.SetDefault("Cleansess", false)
	Config.SetDefault("Id_base", "meetdeck")
	Config.SetDefault("Username", "")
	Config.SetDefault("Password", "")
	Config.SetDefault("State_prefix", "meetdeck")
	Config.SetDefault("Ha_discovery", true)
	Config.SetDefault("Log_level", "info")
	Config.SetDefault("Listen", ":8087")

	Config.SetDefault("panel.backend", "hid")
	Config.SetDefault("panel.serial", "")
	Config.SetDefault("panel.brightness", 60)
	Config.SetDefault("panel.mqtt_prefix", "meetdeck/deck")
	Config.SetDefault("panel.key_size", 72)

	Config.SetDefault("icons.dir", "./icons")
	Config.SetDefault("icons.cache", 64)

	Config.SetDefault("light.backend", "none")
	Config.SetDefault("light.auto", false)
	Config.SetDefault("light.control", true)

	// config file
	Config.SetConfigName("meetdeck")
	Config.AddConfigPath("/")
	Config.AddConfigPath("./")
	Config.AddConfigPath("./config")
	Config.AddConfigPath("/etc")
	Config.AddConfigPath("/meetdeck")
	Config.AddConfigPath("/meetdeck/config")

	err := Config.ReadInConfig()
	if err != nil {
		Logger.Error().Msgf("unable to read config file: %v", fmt.Errorf("%v", err))
	}

	// environment variables
	Config.AutomaticEnv()

	// watch for changes
	Config.WatchConfig()
	Config.OnConfigChange(func(e fsnotify.Event) {
		Logger.Info().Msgf("Config file changed: %v", e.Name)
		Logger.Debug().Msgf("Config Additional Info: %v", e.String())
		OnNewConfig()
	})
}
