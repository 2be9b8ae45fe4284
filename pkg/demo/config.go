package demo

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/loomtk/loom/pkg/event"
)

// action is what a key chord does to the demo.
type action string

const (
	actionUp    action = "up"
	actionDown  action = "down"
	actionReset action = "reset"
	actionQuit  action = "quit"
)

var actionByName = map[string]action{
	"up":    actionUp,
	"down":  actionDown,
	"reset": actionReset,
	"quit":  actionQuit,
}

// keymap maps key chords to actions. The chord event.K(event.Default), if
// present, applies to every chord without a binding of its own.
type keymap map[event.Key]action

func (m keymap) lookup(k event.Key) action {
	if a, ok := m[k]; ok {
		return a
	}
	return m[event.K(event.Default)]
}

// config is the demo's effective configuration.
type config struct {
	tick    time.Duration
	timeout time.Duration
	keys    keymap
}

// fileConfig is the schema of the -config file. Durations are Go duration
// strings like "500ms". Keys maps chords in the syntax of event.ParseKey,
// including the catch-all "default", to one of the actions up, down, reset
// and quit.
type fileConfig struct {
	TickInterval string            `yaml:"tick_interval"`
	PollTimeout  string            `yaml:"poll_timeout"`
	Keys         map[string]string `yaml:"keys"`
}

func defaultConfig() *config {
	return &config{
		tick:    time.Second,
		timeout: 50 * time.Millisecond,
		keys: keymap{
			event.K(event.Up):        actionUp,
			event.K('+'):             actionUp,
			event.K(event.Down):      actionDown,
			event.K('-'):             actionDown,
			event.K('r'):             actionReset,
			event.K('q'):             actionQuit,
			event.K('D', event.Ctrl): actionQuit,
		},
	}
}

// loadConfig returns the default configuration with the file at path, if
// given, merged in. Configured keys override defaults chord by chord.
func loadConfig(path string) (*config, error) {
	cfg := defaultConfig()
	if path == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var fc fileConfig
	if err := yaml.Unmarshal(data, &fc); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	if fc.TickInterval != "" {
		cfg.tick, err = time.ParseDuration(fc.TickInterval)
		if err != nil {
			return nil, fmt.Errorf("tick_interval: %w", err)
		}
	}
	if fc.PollTimeout != "" {
		cfg.timeout, err = time.ParseDuration(fc.PollTimeout)
		if err != nil {
			return nil, fmt.Errorf("poll_timeout: %w", err)
		}
	}
	for chord, name := range fc.Keys {
		k, err := event.ParseKey(chord)
		if err != nil {
			return nil, fmt.Errorf("keys: %w", err)
		}
		act, ok := actionByName[name]
		if !ok {
			return nil, fmt.Errorf("keys: unknown action %q for %s", name, chord)
		}
		cfg.keys[k] = act
	}
	return cfg, nil
}
