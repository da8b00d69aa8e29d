// Package config loads the engine's JSON configuration: global audio
// settings, the track/processor topology to build at startup, and MIDI
// routing rules. Loading is transactional: the file is fully parsed and
// validated into a Document before any of it is applied, so a malformed
// config never leaves the engine half-configured.
package config

import (
	"fmt"

	"github.com/spf13/viper"
)

// AudioConfig holds the engine's global audio settings.
type AudioConfig struct {
	SampleRate float64 `mapstructure:"sample_rate"`
	ChunkSize  int     `mapstructure:"chunk_size"`
	Backend    string  `mapstructure:"backend"` // "realtime" or "offline"
}

// ProcessorConfig describes one processor to instantiate on a track.
type ProcessorConfig struct {
	UID    string             `mapstructure:"uid"`
	Name   string             `mapstructure:"name"`
	Params map[string]float64 `mapstructure:"parameters"`
}

// LimiterConfig configures a track's optional master true-peak limiter. A
// nil *LimiterConfig on a TrackConfig means the track runs without one.
type LimiterConfig struct {
	Params map[string]float64 `mapstructure:"parameters"`
}

// TrackConfig describes one track, its processor chain, and its optional
// master limiter.
type TrackConfig struct {
	Name       string            `mapstructure:"name"`
	Channels   int               `mapstructure:"channels"`
	Processors []ProcessorConfig `mapstructure:"processors"`
	Limiter    *LimiterConfig    `mapstructure:"limiter"`
}

// MIDIPortConfig binds a MIDI port+channel to a destination track.
type MIDIPortConfig struct {
	Port    int    `mapstructure:"port"`
	Channel int    `mapstructure:"channel"`
	Track   string `mapstructure:"track"`
}

// Document is the fully parsed, validated configuration tree.
type Document struct {
	Audio  AudioConfig      `mapstructure:"audio"`
	Tracks []TrackConfig    `mapstructure:"tracks"`
	MIDI   []MIDIPortConfig `mapstructure:"midi"`
}

// Load reads and validates the configuration at path, returning an error
// without any partial state if either step fails.
func Load(path string) (*Document, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("json")

	v.SetDefault("audio.sample_rate", 48000.0)
	v.SetDefault("audio.chunk_size", 64)
	v.SetDefault("audio.backend", "realtime")

	if err := v.ReadInConfig(); err != nil {
		return nil, &LoadError{StatusInvalidFilePath, fmt.Errorf("reading %s: %w", path, err)}
	}

	var doc Document
	if err := v.Unmarshal(&doc); err != nil {
		return nil, &LoadError{StatusInvalidConfigurationFile, fmt.Errorf("parsing %s: %w", path, err)}
	}

	if err := doc.Validate(); err != nil {
		return nil, err
	}

	return &doc, nil
}

// Validate checks the document for internally consistent settings before
// the engine applies any of it, returning a *LoadError carrying the status
// code for whichever section failed first.
func (d *Document) Validate() error {
	if d.Audio.SampleRate <= 0 {
		return &LoadError{StatusFailedLoadHostConfig, fmt.Errorf("audio.sample_rate must be positive, got %v", d.Audio.SampleRate)}
	}
	if d.Audio.ChunkSize <= 0 {
		return &LoadError{StatusFailedLoadHostConfig, fmt.Errorf("audio.chunk_size must be positive, got %v", d.Audio.ChunkSize)}
	}
	if d.Audio.Backend != "realtime" && d.Audio.Backend != "offline" {
		return &LoadError{StatusFailedAudioFrontendMissing, fmt.Errorf("audio.backend must be \"realtime\" or \"offline\", got %q", d.Audio.Backend)}
	}

	seen := make(map[string]bool, len(d.Tracks))
	for _, tr := range d.Tracks {
		if tr.Name == "" {
			return &LoadError{StatusFailedLoadTracks, fmt.Errorf("track missing a name")}
		}
		if seen[tr.Name] {
			return &LoadError{StatusFailedLoadTracks, fmt.Errorf("duplicate track name %q", tr.Name)}
		}
		seen[tr.Name] = true
		if tr.Channels <= 0 {
			return &LoadError{StatusFailedLoadTracks, fmt.Errorf("track %q: channels must be positive, got %d", tr.Name, tr.Channels)}
		}
	}

	for _, m := range d.MIDI {
		if !seen[m.Track] {
			return &LoadError{StatusFailedLoadMIDIMapping, fmt.Errorf("midi route references unknown track %q", m.Track)}
		}
	}

	return nil
}
