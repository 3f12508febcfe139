package addon

import (
	"github.com/hifiberry/audiocontrol3/audiocontroller"
	"github.com/hifiberry/audiocontrol3/log"
	"github.com/hifiberry/audiocontrol3/metadata"
	"github.com/hifiberry/audiocontrol3/player"
)

// AutoPause keeps a single player audible. While enabled, the engine pauses
// the other players whenever one becomes active, and a guard subscription
// pauses any stray backend still playing next to the active one.
type AutoPause struct {
	Base
	engine *audiocontroller.AudioController
}

func init() {
	RegisterFactory("autopause", func(engine *audiocontroller.AudioController) (Addon, error) {
		return NewAutoPause(engine), nil
	})
}

// NewAutoPause creates the addon in disabled state.
func NewAutoPause(engine *audiocontroller.AudioController) *AutoPause {
	a := &AutoPause{engine: engine}
	a.Base = NewBase(
		"autopause",
		"pause other players when one starts playing",
		"1.0.0",
		a.enable,
		a.disable,
	)
	return a
}

func (a *AutoPause) enable() error {
	a.engine.SetAutoPause(true)
	a.engine.Subscribe(player.EventPlayerStateChange, a.onStateChange)
	return nil
}

func (a *AutoPause) disable() error {
	a.engine.Unsubscribe(player.EventPlayerStateChange, a.onStateChange)
	a.engine.SetAutoPause(false)
	return nil
}

func (a *AutoPause) onStateChange(ev player.Event) {
	if ev.Player == nil || ev.Player.State != metadata.StatePlaying {
		return
	}

	for _, id := range a.engine.IDs() {
		if id == ev.PlayerID {
			continue
		}
		ctrl, err := a.engine.Get(id)
		if err != nil {
			continue
		}
		if ctrl.IsActive() {
			if err := ctrl.Pause(); err != nil {
				log.Warnf("autopause: pausing %s failed: %v", id, err)
			}
		}
	}
}
