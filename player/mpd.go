package player

import (
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/fhs/gompd/v2/mpd"
	"github.com/hifiberry/audiocontrol3/auth"
	"github.com/hifiberry/audiocontrol3/log"
	"github.com/hifiberry/audiocontrol3/metadata"
	"github.com/samber/mo"
)

// mpdStateMap translates MPD status states into the shared vocabulary.
var mpdStateMap = map[string]metadata.PlayerState{
	"play":  metadata.StatePlaying,
	"pause": metadata.StatePaused,
	"stop":  metadata.StateStopped,
}

// mpdBaseCapabilities are always advertised; next/previous are added
// dynamically from the current queue position.
var mpdBaseCapabilities = []metadata.Capability{
	metadata.CapPlay, metadata.CapPause, metadata.CapPlayPause,
	metadata.CapStop, metadata.CapSeek, metadata.CapPosition,
	metadata.CapLength, metadata.CapVolume, metadata.CapMute,
	metadata.CapShuffle, metadata.CapLoop, metadata.CapPlaylists,
	metadata.CapQueue, metadata.CapMetadata, metadata.CapSearch,
	metadata.CapBrowse,
}

// MPD controls a Music Player Daemon server via the gompd client.
// A dedicated watcher goroutine translates MPD idle notifications into
// controller events, preserving the order the server raised them.
type MPD struct {
	Base

	addr     string
	password string
	timeout  time.Duration

	mu               sync.Mutex // guards client and mute emulation state
	client           *mpd.Client
	muted            bool
	volumeBeforeMute int

	watcherMu sync.Mutex
	watcher   *mpd.Watcher
	stopCh    chan struct{}
	doneCh    chan struct{}

	// last observed values, used by the watcher to detect changes
	lastState  metadata.PlayerState
	lastSongID string
	lastVolume int
	lastCaps   string
}

func init() {
	RegisterFactory("mpd", func(configdata map[string]any) (Controller, error) {
		host := stringOr(configdata, "host", "localhost")
		port := intOr(configdata, "port", 6600)
		timeout := intOr(configdata, "timeout", 10)
		id := stringOr(configdata, "player_id", "mpd")
		name := stringOr(configdata, "name", "MPD Player")

		password := stringOr(configdata, "password", "")
		if password == "" {
			// The keyring is the preferred place for the MPD password.
			if secret, err := auth.GetSecret(id); err == nil {
				password = secret
			}
		}

		return NewMPD(id, name, fmt.Sprintf("%s:%d", host, port), password, time.Duration(timeout)*time.Second), nil
	})
}

// NewMPD creates an MPD controller and starts its event watcher. A server that
// is not reachable yet is not an error; the controller reconnects on demand.
func NewMPD(id, name, addr, password string, timeout time.Duration) *MPD {
	m := &MPD{
		Base:       NewBase(id, name),
		addr:       addr,
		password:   password,
		timeout:    timeout,
		stopCh:     make(chan struct{}),
		doneCh:     make(chan struct{}),
		lastState:  metadata.StateUnknown,
		lastVolume: -1,
	}

	if err := m.connect(); err != nil {
		log.Warnf("could not connect to MPD server %s: %v", addr, err)
	}
	go m.watchLoop()

	return m
}

func (m *MPD) connect() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.connectLocked()
}

func (m *MPD) connectLocked() error {
	if m.client != nil {
		_ = m.client.Close()
		m.client = nil
	}

	client, err := mpd.DialAuthenticated("tcp", m.addr, m.password)
	if err != nil {
		return fmt.Errorf("dial mpd %s: %w", m.addr, err)
	}
	m.client = client
	return nil
}

// command runs fn against the MPD connection, reconnecting once on failure to
// recover from stale sockets.
func (m *MPD) command(fn func(*mpd.Client) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.client == nil {
		if err := m.connectLocked(); err != nil {
			return err
		}
	}

	if err := fn(m.client); err != nil {
		if cerr := m.connectLocked(); cerr != nil {
			return err
		}
		return fn(m.client)
	}
	return nil
}

func (m *MPD) status() (mpd.Attrs, error) {
	var attrs mpd.Attrs
	err := m.command(func(c *mpd.Client) error {
		var err error
		attrs, err = c.Status()
		return err
	})
	return attrs, err
}

// watchLoop consumes MPD idle notifications and emits controller events.
func (m *MPD) watchLoop() {
	defer close(m.doneCh)

	for {
		select {
		case <-m.stopCh:
			return
		default:
		}

		m.watcherMu.Lock()
		watcher := m.watcher
		m.watcherMu.Unlock()

		if watcher == nil {
			created, err := mpd.NewWatcher("tcp", m.addr, m.password, "player", "mixer", "options", "playlist")
			if err != nil {
				select {
				case <-m.stopCh:
					return
				case <-time.After(3 * time.Second):
					continue
				}
			}
			m.watcherMu.Lock()
			m.watcher = created
			m.watcherMu.Unlock()
			watcher = created
			log.Infof("mpd watcher started on %s", m.addr)
			// Initial sync so the first diff has a baseline.
			m.refresh()
		}

		select {
		case <-m.stopCh:
			return
		case err, ok := <-watcher.Error:
			if !ok {
				return
			}
			log.Warnf("mpd watcher error: %v", err)
			_ = watcher.Close()
			m.watcherMu.Lock()
			m.watcher = nil
			m.watcherMu.Unlock()
		case _, ok := <-watcher.Event:
			if !ok {
				return
			}
			m.refresh()
		}
	}
}

// refresh queries the server and emits events for everything that changed
// since the last observation.
func (m *MPD) refresh() {
	attrs, err := m.status()
	if err != nil {
		log.Warnf("mpd status: %v", err)
		return
	}

	state := mpdState(attrs["state"])
	if state != m.lastState {
		m.lastState = state
		m.EmitState(m.snapshotFrom(attrs))
	}

	if songID := attrs["songid"]; songID != m.lastSongID {
		m.lastSongID = songID
		m.EmitSong(m.CurrentSong())
	}

	if volume, err := strconv.Atoi(attrs["volume"]); err == nil && volume != m.lastVolume {
		m.lastVolume = volume
		m.EmitVolume(volume)
	}

	if elapsed, err := strconv.ParseFloat(attrs["elapsed"], 64); err == nil {
		m.EmitPosition(mo.Some(elapsed))
	}

	caps := m.capabilitiesFrom(attrs)
	if joined := strings.Join(caps, ","); joined != m.lastCaps {
		m.lastCaps = joined
		m.EmitCapabilities(caps)
	}
}

// capabilitiesFrom derives the dynamic capability set: next/previous depend on
// the current queue position, so they appear and disappear at runtime.
func (m *MPD) capabilitiesFrom(attrs mpd.Attrs) []metadata.Capability {
	caps := append([]metadata.Capability(nil), mpdBaseCapabilities...)

	pos, posErr := strconv.Atoi(attrs["song"])
	length, lenErr := strconv.Atoi(attrs["playlistlength"])
	repeat := attrs["repeat"] == "1"

	if posErr == nil && lenErr == nil {
		if repeat || pos < length-1 {
			caps = append(caps, metadata.CapNext)
		}
		if repeat || pos > 0 {
			caps = append(caps, metadata.CapPrevious)
		}
	}
	return caps
}

func (m *MPD) snapshotFrom(attrs mpd.Attrs) *metadata.Player {
	snapshot := &metadata.Player{
		Name:         m.Name(),
		PlayerID:     m.ID(),
		Type:         "mpd",
		State:        mpdState(attrs["state"]),
		Capabilities: m.capabilitiesFrom(attrs),
	}

	if volume, err := strconv.Atoi(attrs["volume"]); err == nil {
		snapshot.Volume = metadata.Int(volume)
	}
	m.mu.Lock()
	snapshot.Muted = metadata.Bool(m.muted)
	m.mu.Unlock()

	if elapsed, err := strconv.ParseFloat(attrs["elapsed"], 64); err == nil {
		snapshot.Position = metadata.Float(elapsed)
	}

	return snapshot
}

func (m *MPD) PlayerInfo() *metadata.Player {
	attrs, err := m.status()
	if err != nil {
		return &metadata.Player{
			Name:     m.Name(),
			PlayerID: m.ID(),
			Type:     "mpd",
			State:    metadata.StateUnknown,
		}
	}
	return m.snapshotFrom(attrs)
}

func (m *MPD) CurrentSong() *metadata.Song {
	var attrs mpd.Attrs
	err := m.command(func(c *mpd.Client) error {
		var err error
		attrs, err = c.CurrentSong()
		return err
	})
	if err != nil || len(attrs) == 0 {
		return nil
	}

	song := &metadata.Song{
		Title:       attrs["Title"],
		Artist:      attrs["Artist"],
		Album:       attrs["Album"],
		AlbumArtist: attrs["AlbumArtist"],
		Genre:       attrs["Genre"],
		Source:      "mpd",
		Metadata:    make(map[string]any, len(attrs)),
	}

	// Track may be reported as "3" or "3/12".
	if track := attrs["Track"]; track != "" {
		parts := strings.SplitN(track, "/", 2)
		if n, err := strconv.Atoi(parts[0]); err == nil {
			song.TrackNumber = n
		}
		if len(parts) == 2 {
			if n, err := strconv.Atoi(parts[1]); err == nil {
				song.TotalTracks = n
			}
		}
	}

	if duration, err := strconv.ParseFloat(attrs["duration"], 64); err == nil {
		song.Duration = duration
	}
	if year, err := strconv.Atoi(attrs["Date"]); err == nil {
		song.Year = year
	}

	// Preserve every reported tag so addons can read loudness metadata.
	for k, v := range attrs {
		song.Metadata[strings.ToLower(k)] = v
	}

	return song
}

func (m *MPD) Play() error {
	return m.command(func(c *mpd.Client) error { return c.Play(-1) })
}

func (m *MPD) Pause() error {
	return m.command(func(c *mpd.Client) error { return c.Pause(true) })
}

func (m *MPD) Stop() error {
	return m.command(func(c *mpd.Client) error { return c.Stop() })
}

func (m *MPD) Next() error {
	return m.command(func(c *mpd.Client) error { return c.Next() })
}

func (m *MPD) Previous() error {
	return m.command(func(c *mpd.Client) error { return c.Previous() })
}

func (m *MPD) SetVolume(volume int) error {
	if volume < 0 || volume > 100 {
		return fmt.Errorf("volume %d out of range", volume)
	}
	return m.command(func(c *mpd.Client) error { return c.SetVolume(volume) })
}

func (m *MPD) Volume() mo.Option[int] {
	attrs, err := m.status()
	if err != nil {
		return mo.None[int]()
	}
	volume, err := strconv.Atoi(attrs["volume"])
	if err != nil || volume < 0 {
		return mo.None[int]()
	}
	return mo.Some(volume)
}

// Mute is emulated: MPD has no mute command, so the previous volume is saved
// and restored around a volume 0 swap.
func (m *MPD) Mute(mute bool) error {
	m.mu.Lock()
	alreadyMuted := m.muted
	restore := m.volumeBeforeMute
	m.mu.Unlock()

	if mute == alreadyMuted {
		return nil
	}

	if mute {
		current := m.Volume().OrElse(100)
		if err := m.SetVolume(0); err != nil {
			return err
		}
		m.mu.Lock()
		m.muted = true
		m.volumeBeforeMute = current
		m.mu.Unlock()
		return nil
	}

	if err := m.SetVolume(restore); err != nil {
		return err
	}
	m.mu.Lock()
	m.muted = false
	m.mu.Unlock()
	return nil
}

func (m *MPD) IsMuted() mo.Option[bool] {
	m.mu.Lock()
	defer m.mu.Unlock()
	return mo.Some(m.muted)
}

func (m *MPD) Seek(position float64) error {
	if position < 0 {
		return fmt.Errorf("position %f out of range", position)
	}
	return m.command(func(c *mpd.Client) error {
		return c.SeekCur(time.Duration(position*float64(time.Second)), false)
	})
}

func (m *MPD) Position() mo.Option[float64] {
	attrs, err := m.status()
	if err != nil {
		return mo.None[float64]()
	}
	elapsed, err := strconv.ParseFloat(attrs["elapsed"], 64)
	if err != nil {
		return mo.None[float64]()
	}
	return mo.Some(elapsed)
}

func (m *MPD) SetShuffle(enabled bool) error {
	return m.command(func(c *mpd.Client) error { return c.Random(enabled) })
}

func (m *MPD) Shuffle() mo.Option[bool] {
	attrs, err := m.status()
	if err != nil {
		return mo.None[bool]()
	}
	return mo.Some(attrs["random"] == "1")
}

func (m *MPD) SetLoopMode(mode metadata.LoopMode) error {
	return m.command(func(c *mpd.Client) error {
		switch mode {
		case metadata.LoopTrack:
			if err := c.Repeat(true); err != nil {
				return err
			}
			return c.Single(true)
		case metadata.LoopPlaylist:
			if err := c.Repeat(true); err != nil {
				return err
			}
			return c.Single(false)
		default:
			if err := c.Repeat(false); err != nil {
				return err
			}
			return c.Single(false)
		}
	})
}

func (m *MPD) LoopMode() mo.Option[metadata.LoopMode] {
	attrs, err := m.status()
	if err != nil {
		return mo.None[metadata.LoopMode]()
	}
	switch {
	case attrs["repeat"] == "1" && attrs["single"] == "1":
		return mo.Some(metadata.LoopTrack)
	case attrs["repeat"] == "1":
		return mo.Some(metadata.LoopPlaylist)
	default:
		return mo.Some(metadata.LoopNone)
	}
}

func (m *MPD) IsConnected() bool {
	return m.command(func(c *mpd.Client) error { return c.Ping() }) == nil
}

func (m *MPD) IsActive() bool {
	attrs, err := m.status()
	return err == nil && mpdState(attrs["state"]) == metadata.StatePlaying
}

func (m *MPD) Close() error {
	close(m.stopCh)
	m.watcherMu.Lock()
	if m.watcher != nil {
		_ = m.watcher.Close()
	}
	m.watcherMu.Unlock()

	select {
	case <-m.doneCh:
	case <-time.After(m.timeout):
		log.Warnf("mpd watcher for %s did not stop in time", m.ID())
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.client != nil {
		err := m.client.Close()
		m.client = nil
		return err
	}
	return nil
}

func mpdState(s string) metadata.PlayerState {
	if state, ok := mpdStateMap[s]; ok {
		return state
	}
	return metadata.StateUnknown
}

// Configuration map helpers shared by the backend factories.

func stringOr(configdata map[string]any, key, fallback string) string {
	if v, ok := configdata[key].(string); ok && v != "" {
		return v
	}
	return fallback
}

func intOr(configdata map[string]any, key string, fallback int) int {
	switch v := configdata[key].(type) {
	case int:
		return v
	case int64:
		return int(v)
	case float64:
		return int(v)
	case string:
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}
