package addon

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"sync"

	"github.com/hifiberry/audiocontrol3/audiocontroller"
	"github.com/hifiberry/audiocontrol3/key"
	"github.com/hifiberry/audiocontrol3/log"
	"github.com/hifiberry/audiocontrol3/metadata"
	"github.com/hifiberry/audiocontrol3/player"
	"github.com/hifiberry/audiocontrol3/util"
	"github.com/spf13/viper"
)

const (
	// ReplayGain track gain values are relative to this reference loudness.
	replayGainReference = -18.0

	// Volume points applied per decibel of loudness deviation.
	pointsPerDB = 2.5
)

// VolumeNorm levels out loudness differences between tracks. On every song
// change it derives the track loudness from ReplayGain or LUFS tags, falls
// back to a genre estimate, and nudges the engine volume toward the
// configured target level. The computation is deterministic for a given song
// and configuration.
type VolumeNorm struct {
	Base
	engine *audiocontroller.AudioController

	mu            sync.Mutex
	targetLevel   float64
	maxAdjustment int
	defaultLevel  float64
	baseVolume    int
}

func init() {
	RegisterFactory("volumenorm", func(engine *audiocontroller.AudioController) (Addon, error) {
		return NewVolumeNorm(engine), nil
	})
}

// NewVolumeNorm creates the addon in disabled state, configured from viper.
func NewVolumeNorm(engine *audiocontroller.AudioController) *VolumeNorm {
	v := &VolumeNorm{
		engine:        engine,
		targetLevel:   viper.GetFloat64(key.VolumeNormTargetLevel),
		maxAdjustment: viper.GetInt(key.VolumeNormMaxAdjustment),
		defaultLevel:  viper.GetFloat64(key.VolumeNormDefaultLevel),
		baseVolume:    50,
	}
	v.Base = NewBase(
		"volumenorm",
		"normalize perceived loudness across tracks",
		"1.0.0",
		v.enable,
		v.disable,
	)
	return v
}

func (v *VolumeNorm) enable() error {
	if volume, ok := v.engine.Volume().Get(); ok {
		v.mu.Lock()
		v.baseVolume = volume
		v.mu.Unlock()
	}
	v.engine.Subscribe(player.EventSongChange, v.onSongChange)
	return nil
}

func (v *VolumeNorm) disable() error {
	v.engine.Unsubscribe(player.EventSongChange, v.onSongChange)
	return nil
}

func (v *VolumeNorm) Config() map[string]any {
	v.mu.Lock()
	defer v.mu.Unlock()
	return map[string]any{
		"target_level":   v.targetLevel,
		"max_adjustment": v.maxAdjustment,
		"default_level":  v.defaultLevel,
	}
}

func (v *VolumeNorm) SetConfig(values map[string]any) error {
	v.mu.Lock()
	defer v.mu.Unlock()

	for name, value := range values {
		switch name {
		case "target_level":
			level, ok := toFloat(value)
			if !ok || level > 0 || level < -30 {
				return fmt.Errorf("target_level must be a loudness between -30 and 0, got %v", value)
			}
			v.targetLevel = level
		case "max_adjustment":
			points, ok := toFloat(value)
			if !ok || points < 0 || points > 100 {
				return fmt.Errorf("max_adjustment must be between 0 and 100 volume points, got %v", value)
			}
			v.maxAdjustment = int(points)
		case "default_level":
			level, ok := toFloat(value)
			if !ok || level > 0 || level < -30 {
				return fmt.Errorf("default_level must be a loudness between -30 and 0, got %v", value)
			}
			v.defaultLevel = level
		default:
			return fmt.Errorf("unknown volumenorm option %q", name)
		}
	}
	return nil
}

func (v *VolumeNorm) onSongChange(ev player.Event) {
	if ev.Song == nil {
		return
	}

	adjustment := v.AdjustmentFor(ev.Song)

	v.mu.Lock()
	volume := util.Clamp(v.baseVolume+adjustment, 0, 100)
	v.mu.Unlock()

	if err := v.engine.SetVolume(volume); err != nil {
		log.Warnf("volumenorm: setting volume failed: %v", err)
		return
	}
	log.Debugf("volumenorm: %s adjusted by %+d points", ev.Song, adjustment)
}

// AdjustmentFor computes the volume point delta for a song relative to the
// base volume. Positive values boost quiet tracks, negative values tame loud
// ones.
func (v *VolumeNorm) AdjustmentFor(song *metadata.Song) int {
	v.mu.Lock()
	target := v.targetLevel
	maxAdj := v.maxAdjustment
	fallback := v.defaultLevel
	v.mu.Unlock()

	loudness, ok := trackLoudness(song)
	if !ok {
		loudness = estimateLoudness(song, fallback)
	}

	points := int(math.Round((target - loudness) * pointsPerDB))

	// A peak above full scale clips once boosted; take the headroom back.
	if peak, ok := trackPeak(song); ok && peak > 1.0 {
		points -= int(math.Round(20 * math.Log10(peak) * pointsPerDB))
	}

	return util.Clamp(points, -maxAdj, maxAdj)
}

// trackLoudness extracts the measured loudness from song tags. ReplayGain
// gain values are offsets from the reference level; LUFS tags are absolute.
func trackLoudness(song *metadata.Song) (float64, bool) {
	if song.Metadata == nil {
		return 0, false
	}

	for _, tag := range []string{"lufs", "integrated_loudness"} {
		if level, ok := toFloat(song.Metadata[tag]); ok {
			return level, true
		}
	}

	if gain, ok := parseGain(song.Metadata["replaygain_track_gain"]); ok {
		return replayGainReference - gain, true
	}
	if gain, ok := parseGain(song.Metadata["replaygain_album_gain"]); ok {
		return replayGainReference - gain, true
	}

	return 0, false
}

// estimateLoudness guesses a loudness from the genre when no measurement is
// tagged. Classical recordings master quieter, rock and metal louder.
func estimateLoudness(song *metadata.Song, fallback float64) float64 {
	genre := strings.ToLower(song.Genre)
	switch {
	case strings.Contains(genre, "classical"):
		return fallback - 5
	case strings.Contains(genre, "metal"), strings.Contains(genre, "rock"):
		return fallback + 3
	default:
		return fallback
	}
}

func trackPeak(song *metadata.Song) (float64, bool) {
	if song.Metadata == nil {
		return 0, false
	}
	return toFloat(song.Metadata["replaygain_track_peak"])
}

// parseGain reads a ReplayGain tag like "-3.00 dB".
func parseGain(value any) (float64, bool) {
	s, ok := value.(string)
	if !ok {
		return toFloat(value)
	}
	s = strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(s), "dB"))
	gain, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}
	return gain, true
}

func toFloat(value any) (float64, bool) {
	switch v := value.(type) {
	case float64:
		return v, true
	case float32:
		return float64(v), true
	case int:
		return float64(v), true
	case int64:
		return float64(v), true
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		if err != nil {
			return 0, false
		}
		return f, true
	default:
		return 0, false
	}
}
