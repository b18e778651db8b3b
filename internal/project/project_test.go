package project

import (
	"encoding/json"
	"testing"
)

func TestAudioTrackCanonicalizesLegacyEnvelopeField(t *testing.T) {
	var tr AudioTrack
	if err := json.Unmarshal([]byte(`{"name":"theme","envelope":3}`), &tr); err != nil {
		t.Fatalf("Unmarshal error: %v", err)
	}
	if tr.VolEnv == nil || *tr.VolEnv != 3 {
		t.Fatalf("VolEnv = %v, want pointer to 3", tr.VolEnv)
	}
}

func TestAudioTrackPrefersRichVolEnvOverLegacy(t *testing.T) {
	var tr AudioTrack
	if err := json.Unmarshal([]byte(`{"name":"theme","envelope":3,"volEnv":7}`), &tr); err != nil {
		t.Fatalf("Unmarshal error: %v", err)
	}
	if tr.VolEnv == nil || *tr.VolEnv != 7 {
		t.Fatalf("VolEnv = %v, want pointer to 7 (richer field wins)", tr.VolEnv)
	}
}

func TestBundleUnmarshalsFullSchema(t *testing.T) {
	raw := `{
		"palettes": [{"name": "bg", "colors": [15, 0, 16, 32]}],
		"audio_tracks": [{"name": "t", "channel": 0, "priority": 5, "notes": []}]
	}`
	var b Bundle
	if err := json.Unmarshal([]byte(raw), &b); err != nil {
		t.Fatalf("Unmarshal error: %v", err)
	}
	if len(b.Palettes) != 1 || b.Palettes[0].Name != "bg" {
		t.Fatalf("Palettes = %#v", b.Palettes)
	}
	if len(b.AudioTracks) != 1 || b.AudioTracks[0].Priority != 5 {
		t.Fatalf("AudioTracks = %#v", b.AudioTracks)
	}
}
