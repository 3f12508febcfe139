package metadata

// Capability is an opaque tag describing a feature a backend currently supports.
// A backend's advertised capability set may change at runtime, e.g. "next"
// disappears at the end of a queue.
type Capability = string

const (
	CapPlay      Capability = "play"
	CapPause     Capability = "pause"
	CapPlayPause Capability = "playpause"
	CapStop      Capability = "stop"
	CapNext      Capability = "next"
	CapPrevious  Capability = "previous"
	CapSeek      Capability = "seek"
	CapPosition  Capability = "position"
	CapLength    Capability = "length"
	CapVolume    Capability = "volume"
	CapMute      Capability = "mute"
	CapShuffle   Capability = "shuffle"
	CapLoop      Capability = "loop"
	CapPlaylists Capability = "playlists"
	CapQueue     Capability = "queue"
	CapMetadata  Capability = "metadata"
	CapAlbumArt  Capability = "album_art"
	CapSearch    Capability = "search"
	CapBrowse    Capability = "browse"
)

// HasCapability reports whether the tag is present in the given set.
func HasCapability(capabilities []Capability, c Capability) bool {
	for _, have := range capabilities {
		if have == c {
			return true
		}
	}
	return false
}
