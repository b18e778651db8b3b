package assets

// Fixed PRG-ROM injection addresses from spec §3's memory map. Exported so
// internal/compiler can build the assembler.Injection list without
// duplicating these literals.
const (
	PeriodTableAddr = 0xD000
	MusicAddr       = 0xD100
	SampleTableAddr = 0xD480
	NametableAddr   = 0xD500
	SFXTableAddr    = 0xD900
	EnvelopeAddr    = 0xDA00
	PaletteAddr     = 0xE000
	DPCMAddr        = 0xE040
)
