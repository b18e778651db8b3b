package project

import "encoding/json"

// UnmarshalJSON accepts both the legacy single-`envelope` AudioTrack shape
// and the richer vol/pitch/arpeggio-envelope shape, canonicalizing the
// legacy form onto VolEnv (spec §9's Open Question: "accept both names on
// input and canonicalise to the richer schema").
func (t *AudioTrack) UnmarshalJSON(b []byte) error {
	var w audioTrackWire
	if err := json.Unmarshal(b, &w); err != nil {
		return err
	}
	t.Name = w.Name
	t.Channel = w.Channel
	t.Instrument = w.Instrument
	t.Priority = w.Priority
	t.PitchEnv = w.PitchEnv
	t.ArpeggioEnv = w.ArpeggioEnv
	t.Notes = w.Notes
	t.VolEnv = w.VolEnv
	if t.VolEnv == nil {
		t.VolEnv = w.Envelope
	}
	return nil
}
