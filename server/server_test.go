package server

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/hifiberry/audiocontrol3/addon"
	"github.com/hifiberry/audiocontrol3/audiocontroller"
	"github.com/hifiberry/audiocontrol3/metadata"
	"github.com/hifiberry/audiocontrol3/player"
	. "github.com/smartystreets/goconvey/convey"
)

type stubPlayer struct {
	player.Base

	mu      sync.Mutex
	state   metadata.PlayerState
	volume  int
	song    *metadata.Song
	seekPos float64
}

func newStubPlayer(id string) *stubPlayer {
	return &stubPlayer{
		Base:  player.NewBase(id, id),
		state: metadata.StateStopped,
	}
}

func (p *stubPlayer) Play() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.state = metadata.StatePlaying
	return nil
}

func (p *stubPlayer) Pause() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.state = metadata.StatePaused
	return nil
}

func (p *stubPlayer) SetVolume(volume int) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.volume = volume
	return nil
}

func (p *stubPlayer) Seek(position float64) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.seekPos = position
	return nil
}

func (p *stubPlayer) IsConnected() bool { return true }

func (p *stubPlayer) IsActive() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.state == metadata.StatePlaying
}

func (p *stubPlayer) CurrentSong() *metadata.Song {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.song
}

func (p *stubPlayer) PlayerInfo() *metadata.Player {
	p.mu.Lock()
	defer p.mu.Unlock()
	return &metadata.Player{
		Name:     p.Name(),
		PlayerID: p.ID(),
		Type:     "stub",
		State:    p.state,
		Volume:   metadata.Int(p.volume),
	}
}

func request(handler http.Handler, method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var payload map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &payload); err != nil {
		t.Fatalf("invalid response body: %v", err)
	}
	return payload
}

func TestAPI(t *testing.T) {
	Convey("Given an API server over a live engine", t, func() {
		engine := audiocontroller.New()
		defer engine.Close()

		deck := newStubPlayer("deck")
		So(engine.Register(deck), ShouldBeNil)

		manager := addon.NewManager(engine)
		handler := New(engine, manager).Routes()

		Convey("System info reports identity and registered players", func() {
			rec := request(handler, http.MethodGet, "/api/system-info", "")

			So(rec.Code, ShouldEqual, http.StatusOK)
			payload := decode(t, rec)
			So(payload["name"], ShouldEqual, "audiocontrol3")
			So(payload["players"], ShouldResemble, []any{"deck"})
		})

		Convey("The player list flags the active player", func() {
			rec := request(handler, http.MethodGet, "/api/players", "")

			So(rec.Code, ShouldEqual, http.StatusOK)
			players := decode(t, rec)["players"].([]any)
			So(players, ShouldHaveLength, 1)
			So(players[0].(map[string]any)["active"], ShouldBeTrue)
		})

		Convey("Playback commands reach the backend", func() {
			rec := request(handler, http.MethodPost, "/api/player/play", "")

			So(rec.Code, ShouldEqual, http.StatusOK)
			So(deck.IsActive(), ShouldBeTrue)
		})

		Convey("Seek requires a position", func() {
			rec := request(handler, http.MethodPost, "/api/player/seek", "")
			So(rec.Code, ShouldEqual, http.StatusBadRequest)

			rec = request(handler, http.MethodPost, "/api/player/seek", `{"position": 42.5}`)
			So(rec.Code, ShouldEqual, http.StatusOK)
			deck.mu.Lock()
			So(deck.seekPos, ShouldEqual, 42.5)
			deck.mu.Unlock()
		})

		Convey("Unknown commands are rejected", func() {
			rec := request(handler, http.MethodPost, "/api/player/selfdestruct", "")

			So(rec.Code, ShouldEqual, http.StatusNotFound)
		})

		Convey("Volume set is clamped by the engine", func() {
			rec := request(handler, http.MethodPost, "/api/volume", `{"volume": 150}`)

			So(rec.Code, ShouldEqual, http.StatusOK)
			deck.mu.Lock()
			So(deck.volume, ShouldEqual, 100)
			deck.mu.Unlock()
		})

		Convey("Activating an unknown player reports not found", func() {
			rec := request(handler, http.MethodPost, "/api/players/active", `{"player_id": "ghost"}`)

			So(rec.Code, ShouldEqual, http.StatusNotFound)
		})

		Convey("Unsupported backend operations surface as server errors", func() {
			rec := request(handler, http.MethodPost, "/api/player/next", "")

			So(rec.Code, ShouldEqual, http.StatusInternalServerError)
		})

		Convey("Addon lifecycle is reachable over the API", func() {
			So(manager.LoadAll(), ShouldBeNil)

			rec := request(handler, http.MethodPost, "/api/addons/autopause/enable", "")
			So(rec.Code, ShouldEqual, http.StatusOK)

			rec = request(handler, http.MethodGet, "/api/addons", "")
			addons := decode(t, rec)["addons"].([]any)
			found := false
			for _, raw := range addons {
				info := raw.(map[string]any)
				if info["name"] == "autopause" {
					found = true
					So(info["enabled"], ShouldBeTrue)
				}
			}
			So(found, ShouldBeTrue)

			rec = request(handler, http.MethodPost, "/api/addons/autopause/disable", "")
			So(rec.Code, ShouldEqual, http.StatusOK)
		})
	})

	Convey("Given an API server with no players", t, func() {
		engine := audiocontroller.New()
		defer engine.Close()
		handler := New(engine, addon.NewManager(engine)).Routes()

		Convey("Commands conflict with the empty registry", func() {
			rec := request(handler, http.MethodPost, "/api/player/play", "")

			So(rec.Code, ShouldEqual, http.StatusConflict)
		})

		Convey("There is no active player to report", func() {
			rec := request(handler, http.MethodGet, "/api/players/active", "")

			So(rec.Code, ShouldEqual, http.StatusNotFound)
		})
	})
}
