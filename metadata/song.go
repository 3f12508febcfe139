package metadata

import "encoding/json"

// Song is an immutable point-in-time snapshot of track metadata.
// A nil *Song signifies "nothing playing".
type Song struct {
	Title       string         `json:"title,omitempty"`
	Artist      string         `json:"artist,omitempty"`
	Album       string         `json:"album,omitempty"`
	AlbumArtist string         `json:"album_artist,omitempty"`
	TrackNumber int            `json:"track_number,omitempty"`
	TotalTracks int            `json:"total_tracks,omitempty"`
	Duration    float64        `json:"duration,omitempty"` // seconds
	Genre       string         `json:"genre,omitempty"`
	Year        int            `json:"year,omitempty"`
	CoverArtURL string         `json:"cover_art_url,omitempty"`
	StreamURL   string         `json:"stream_url,omitempty"`
	Source      string         `json:"source,omitempty"` // e.g. "mpd", "mpv", "spotify"
	Metadata    map[string]any `json:"metadata,omitempty"`
}

func (s *Song) String() string {
	if s == nil {
		return ""
	}
	if s.Artist == "" {
		return s.Title
	}
	return s.Artist + " - " + s.Title
}

// ToJSON serializes the song snapshot, omitting absent fields.
func (s *Song) ToJSON() (string, error) {
	data, err := json.Marshal(s)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// Clone returns a deep copy so snapshots handed to listeners stay immutable.
func (s *Song) Clone() *Song {
	if s == nil {
		return nil
	}
	copied := *s
	if s.Metadata != nil {
		copied.Metadata = make(map[string]any, len(s.Metadata))
		for k, v := range s.Metadata {
			copied.Metadata[k] = v
		}
	}
	return &copied
}
