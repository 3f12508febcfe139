package player

import (
	"encoding/json"
	"net"
	"strings"
	"sync"
	"time"

	"github.com/hifiberry/audiocontrol3/log"
	"github.com/hifiberry/audiocontrol3/metadata"
	"github.com/samber/mo"
)

var mpvCapabilities = []metadata.Capability{
	metadata.CapPlay, metadata.CapPause, metadata.CapPlayPause,
	metadata.CapStop, metadata.CapNext, metadata.CapPrevious,
	metadata.CapSeek, metadata.CapPosition, metadata.CapLength,
	metadata.CapVolume, metadata.CapMute, metadata.CapShuffle,
	metadata.CapLoop, metadata.CapMetadata,
}

// MPV controls an already-running mpv instance over its JSON-IPC socket
// (mpv must be started with --input-ipc-server). A persistent connection
// observes property changes and translates them into controller events.
type MPV struct {
	Base

	socketPath string
	mu         sync.Mutex // protects socket command writes

	listenMu  sync.Mutex
	listening bool
	conn      net.Conn
	stopCh    chan struct{}

	stateMu  sync.Mutex
	paused   bool
	idle     bool
	lastPath string
}

func init() {
	RegisterFactory("mpv", func(configdata map[string]any) (Controller, error) {
		socket := stringOr(configdata, "socket", "/tmp/mpvsocket")
		id := stringOr(configdata, "player_id", "mpv")
		name := stringOr(configdata, "name", "mpv")
		return NewMPV(id, name, socket), nil
	})
}

// NewMPV creates an mpv controller bound to the given IPC socket and starts
// its property observer. An unreachable socket is not an error; observation
// begins once mpv comes up.
func NewMPV(id, name, socketPath string) *MPV {
	m := &MPV{
		Base:       NewBase(id, name),
		socketPath: socketPath,
		stopCh:     make(chan struct{}),
		idle:       true,
	}

	if err := m.startListener(); err != nil {
		log.Warnf("mpv listener not started: %v", err)
	}

	return m
}

// startListener subscribes to property change events and starts the read loop.
func (m *MPV) startListener() error {
	m.listenMu.Lock()
	defer m.listenMu.Unlock()

	if m.listening {
		return nil
	}

	// observe_property makes mpv push change notifications for each property
	properties := []struct {
		id   int
		name string
	}{
		{1, "time-pos"},
		{2, "pause"},
		{3, "volume"},
		{4, "mute"},
		{5, "idle-active"},
		{6, "path"},
		{7, "metadata"},
	}

	for _, prop := range properties {
		if _, err := doSendCommand(m.socketPath, []interface{}{"observe_property", prop.id, prop.name}); err != nil {
			return err
		}
	}

	conn, err := net.Dial("unix", m.socketPath)
	if err != nil {
		return err
	}
	m.conn = conn
	m.listening = true

	go m.readLoop()

	log.Infof("mpv event listener started on %s", m.socketPath)
	return nil
}

// readLoop continuously reads newline-delimited JSON events from the
// persistent mpv connection.
func (m *MPV) readLoop() {
	defer func() {
		m.listenMu.Lock()
		m.listening = false
		m.listenMu.Unlock()
	}()

	buf := make([]byte, 4096)
	var remainder []byte

	for {
		select {
		case <-m.stopCh:
			return
		default:
		}

		if err := m.conn.SetReadDeadline(time.Now().Add(5 * time.Second)); err != nil {
			return
		}

		n, err := m.conn.Read(buf)
		if err != nil {
			if strings.Contains(err.Error(), "timeout") || strings.Contains(err.Error(), "deadline") {
				continue // timeout is normal, keep listening
			}
			log.Warnf("mpv event listener read error: %v", err)
			return
		}

		data := append(remainder, buf[:n]...)
		remainder = nil

		lines := strings.Split(string(data), "\n")
		for i, line := range lines {
			line = strings.TrimSpace(line)
			if line == "" {
				continue
			}

			// Last incomplete line goes to remainder for next read
			if i == len(lines)-1 && !strings.HasSuffix(string(data), "\n") {
				remainder = []byte(line)
				continue
			}

			m.processEvent(line)
		}
	}
}

// processEvent parses a single mpv event line and translates property changes
// into controller events.
func (m *MPV) processEvent(line string) {
	var event map[string]interface{}
	if err := json.Unmarshal([]byte(line), &event); err != nil {
		return // Skip unparseable lines
	}

	kind, _ := event["event"].(string)
	if kind != "property-change" {
		return
	}

	name, _ := event["name"].(string)
	data := event["data"]

	switch name {
	case "time-pos":
		if pos, ok := data.(float64); ok {
			m.EmitPosition(mo.Some(pos))
		}
	case "volume":
		if volume, ok := data.(float64); ok {
			m.EmitVolume(int(volume))
		}
	case "pause":
		if paused, ok := data.(bool); ok {
			m.stateMu.Lock()
			m.paused = paused
			m.stateMu.Unlock()
			m.EmitState(m.PlayerInfo())
		}
	case "idle-active":
		if idle, ok := data.(bool); ok {
			m.stateMu.Lock()
			m.idle = idle
			m.stateMu.Unlock()
			m.EmitState(m.PlayerInfo())
		}
	case "mute":
		m.EmitState(m.PlayerInfo())
	case "path":
		path, _ := data.(string)
		m.stateMu.Lock()
		changed := path != m.lastPath
		m.lastPath = path
		m.stateMu.Unlock()
		if changed {
			m.EmitSong(m.CurrentSong())
		}
	case "metadata":
		m.EmitSong(m.CurrentSong())
	}
}

func (m *MPV) getProperty(name string) (interface{}, error) {
	return m.sendCommand([]interface{}{"get_property", name})
}

func (m *MPV) setProperty(name string, value interface{}) error {
	_, err := m.sendCommand([]interface{}{"set_property", name, value})
	return err
}

func (m *MPV) PlayerInfo() *metadata.Player {
	snapshot := &metadata.Player{
		Name:         m.Name(),
		PlayerID:     m.ID(),
		Type:         "mpv",
		State:        metadata.StateUnknown,
		Capabilities: append([]metadata.Capability(nil), mpvCapabilities...),
	}

	paused, err := m.getProperty("pause")
	if err != nil {
		return snapshot
	}

	idle, _ := m.getProperty("idle-active")

	switch {
	case idle == true:
		snapshot.State = metadata.StateStopped
	case paused == true:
		snapshot.State = metadata.StatePaused
	default:
		snapshot.State = metadata.StatePlaying
	}

	if volume, err := m.getProperty("volume"); err == nil {
		if v, ok := volume.(float64); ok {
			snapshot.Volume = metadata.Int(int(v))
		}
	}
	if muted, err := m.getProperty("mute"); err == nil {
		if b, ok := muted.(bool); ok {
			snapshot.Muted = metadata.Bool(b)
		}
	}
	if pos, err := m.getProperty("time-pos"); err == nil {
		if p, ok := pos.(float64); ok {
			snapshot.Position = metadata.Float(p)
		}
	}

	return snapshot
}

func (m *MPV) CurrentSong() *metadata.Song {
	title, err := m.getProperty("media-title")
	if err != nil {
		return nil
	}

	song := &metadata.Song{Source: "mpv"}
	if t, ok := title.(string); ok {
		song.Title = t
	}

	if duration, err := m.getProperty("duration"); err == nil {
		if d, ok := duration.(float64); ok {
			song.Duration = d
		}
	}

	if raw, err := m.getProperty("metadata"); err == nil {
		if tags, ok := raw.(map[string]interface{}); ok {
			song.Metadata = make(map[string]any, len(tags))
			for k, v := range tags {
				song.Metadata[strings.ToLower(k)] = v
			}
			if artist, ok := song.Metadata["artist"].(string); ok {
				song.Artist = artist
			}
			if album, ok := song.Metadata["album"].(string); ok {
				song.Album = album
			}
			if genre, ok := song.Metadata["genre"].(string); ok {
				song.Genre = genre
			}
		}
	}

	if song.Title == "" && song.Metadata == nil {
		return nil
	}
	return song
}

func (m *MPV) Play() error {
	// Make sure the observer is attached once mpv becomes reachable.
	if err := m.startListener(); err != nil {
		log.Debugf("mpv listener restart: %v", err)
	}
	return m.setProperty("pause", false)
}

func (m *MPV) Pause() error {
	return m.setProperty("pause", true)
}

func (m *MPV) Stop() error {
	_, err := m.sendCommand([]interface{}{"stop"})
	return err
}

func (m *MPV) Next() error {
	_, err := m.sendCommand([]interface{}{"playlist-next"})
	return err
}

func (m *MPV) Previous() error {
	_, err := m.sendCommand([]interface{}{"playlist-prev"})
	return err
}

func (m *MPV) SetVolume(volume int) error {
	return m.setProperty("volume", volume)
}

func (m *MPV) Volume() mo.Option[int] {
	volume, err := m.getProperty("volume")
	if err != nil {
		return mo.None[int]()
	}
	if v, ok := volume.(float64); ok {
		return mo.Some(int(v))
	}
	return mo.None[int]()
}

func (m *MPV) Mute(mute bool) error {
	return m.setProperty("mute", mute)
}

func (m *MPV) IsMuted() mo.Option[bool] {
	muted, err := m.getProperty("mute")
	if err != nil {
		return mo.None[bool]()
	}
	if b, ok := muted.(bool); ok {
		return mo.Some(b)
	}
	return mo.None[bool]()
}

func (m *MPV) Seek(position float64) error {
	_, err := m.sendCommand([]interface{}{"seek", position, "absolute"})
	return err
}

func (m *MPV) Position() mo.Option[float64] {
	pos, err := m.getProperty("time-pos")
	if err != nil {
		return mo.None[float64]()
	}
	if p, ok := pos.(float64); ok {
		return mo.Some(p)
	}
	return mo.None[float64]()
}

func (m *MPV) SetShuffle(enabled bool) error {
	cmd := "playlist-shuffle"
	if !enabled {
		cmd = "playlist-unshuffle"
	}
	_, err := m.sendCommand([]interface{}{cmd})
	return err
}

func (m *MPV) SetLoopMode(mode metadata.LoopMode) error {
	switch mode {
	case metadata.LoopTrack:
		if err := m.setProperty("loop-file", "inf"); err != nil {
			return err
		}
		return m.setProperty("loop-playlist", "no")
	case metadata.LoopPlaylist:
		if err := m.setProperty("loop-file", "no"); err != nil {
			return err
		}
		return m.setProperty("loop-playlist", "inf")
	default:
		if err := m.setProperty("loop-file", "no"); err != nil {
			return err
		}
		return m.setProperty("loop-playlist", "no")
	}
}

func (m *MPV) LoopMode() mo.Option[metadata.LoopMode] {
	loopFile, err := m.getProperty("loop-file")
	if err != nil {
		return mo.None[metadata.LoopMode]()
	}
	if loopFile != false && loopFile != "no" && loopFile != nil {
		return mo.Some(metadata.LoopTrack)
	}

	loopPlaylist, err := m.getProperty("loop-playlist")
	if err != nil {
		return mo.None[metadata.LoopMode]()
	}
	if loopPlaylist != false && loopPlaylist != "no" && loopPlaylist != nil {
		return mo.Some(metadata.LoopPlaylist)
	}
	return mo.Some(metadata.LoopNone)
}

func (m *MPV) IsConnected() bool {
	_, err := m.getProperty("pid")
	return err == nil
}

func (m *MPV) IsActive() bool {
	m.stateMu.Lock()
	defer m.stateMu.Unlock()
	return m.listening && !m.paused && !m.idle
}

func (m *MPV) Close() error {
	m.listenMu.Lock()
	defer m.listenMu.Unlock()

	if !m.listening {
		return nil
	}

	close(m.stopCh)
	if m.conn != nil {
		_ = m.conn.Close()
	}
	m.listening = false
	return nil
}
