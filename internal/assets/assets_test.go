package assets

import (
	"testing"

	"github.com/kd7tck/swissarmyNES/internal/project"
)

func TestEncodePeriodTableSize(t *testing.T) {
	blob := EncodePeriodTable()
	if len(blob) != 192 {
		t.Fatalf("period table size = %d, want 192", len(blob))
	}
}

func TestEncodePeriodTableA4Near440Hz(t *testing.T) {
	// Index 57 is A4 = 440Hz; period = round(1789773/(16*440))-1 = 253.
	blob := EncodePeriodTable()
	got := uint16(blob[57*2]) | uint16(blob[57*2+1])<<8
	if got != 253 {
		t.Errorf("A4 period = %d, want 253", got)
	}
}

func TestEncodePalettesDefaultsToDollar0F(t *testing.T) {
	blob := EncodePalettes(nil)
	if len(blob) != 32 {
		t.Fatalf("palette blob size = %d, want 32", len(blob))
	}
	for i, b := range blob {
		if b != 0x0F {
			t.Fatalf("blob[%d] = $%02X, want $0F default", i, b)
		}
	}
}

func TestEncodeEnvelopesUserThenSFX(t *testing.T) {
	loop := 1
	userEnvs := []project.EnvelopeDef{
		{Name: "fade", Steps: [][2]int{{15, 4}, {0, 4}}, LoopIndex: &loop},
	}
	sfx := []project.SoundEffect{
		{Name: "jump", VolSequence: []int{15, 10, 5}, PitchSequence: []int{0}, DutySequence: []int{2}},
	}
	table, err := EncodeEnvelopes(userEnvs, sfx)
	if err != nil {
		t.Fatalf("EncodeEnvelopes error: %v", err)
	}
	if idx, ok := table.UserIndex["fade"]; !ok || idx != 0 {
		t.Errorf("fade index = %d,%v want 0,true", idx, ok)
	}
	if table.SFXVolIndex[0] != 1 || table.SFXPitchIndex[0] != 2 || table.SFXDutyIndex[0] != 3 {
		t.Errorf("SFX indices = %d,%d,%d want 1,2,3", table.SFXVolIndex[0], table.SFXPitchIndex[0], table.SFXDutyIndex[0])
	}
	if len(table.Blob) != 1536 {
		t.Fatalf("envelope blob size = %d, want 1536", len(table.Blob))
	}
	if table.Blob[0] != byte(loop) {
		t.Errorf("fade's loop-index byte = %d, want %d", table.Blob[0], loop)
	}
}

func TestEncodeDPCMAlignmentAndLengthPadding(t *testing.T) {
	samples := []project.Sample{
		{Name: "kick", Data: make([]byte, 17)},  // already 16n+1
		{Name: "snare", Data: make([]byte, 33)}, // 16*2+1
	}
	result, err := EncodeDPCM(samples)
	if err != nil {
		t.Fatalf("EncodeDPCM error: %v", err)
	}
	if result.SamplesAddr%64 != 0 {
		t.Errorf("samples start address $%04X is not 64-byte aligned", result.SamplesAddr)
	}
	// first sample table entry: A = (addr-0xC000)/64, L = (len-1)/16
	a0, l0 := result.TableBlob[0], result.TableBlob[1]
	wantA0 := byte((int(result.SamplesAddr) - 0xC000) / 64)
	if a0 != wantA0 {
		t.Errorf("sample 0 address byte = %d, want %d", a0, wantA0)
	}
	if l0 != 1 { // (17-1)/16 = 1
		t.Errorf("sample 0 length byte = %d, want 1", l0)
	}
}

func TestEncodeDPCMRejectsOverCapacity(t *testing.T) {
	samples := make([]project.Sample, 65)
	for i := range samples {
		samples[i] = project.Sample{Name: "s", Data: []byte{0}}
	}
	if _, err := EncodeDPCM(samples); err == nil {
		t.Fatalf("expected an error for exceeding the sample table capacity")
	}
}

func TestEncodeMusicTrackCountAndPointers(t *testing.T) {
	tracks := []project.AudioTrack{
		{Channel: 0, Priority: 0, Notes: []project.Note{{Col: 0, Pitch: 40, Duration: 4}}},
		{Channel: 1, Priority: 10, Notes: []project.Note{{Col: 0, Pitch: 52, Duration: 4}}},
	}
	blob, err := EncodeMusic(tracks)
	if err != nil {
		t.Fatalf("EncodeMusic error: %v", err)
	}
	if blob[0] != 2 {
		t.Fatalf("track count = %d, want 2", blob[0])
	}
	if len(blob) < 1+4 {
		t.Fatalf("blob too short for a 2-entry pointer table: %d bytes", len(blob))
	}
}

func TestEncodeNametableDefaultsToZeroed960Tiles(t *testing.T) {
	blob := EncodeNametable(nil)
	if len(blob) != 1024 {
		t.Fatalf("nametable blob size = %d, want 1024", len(blob))
	}
}
