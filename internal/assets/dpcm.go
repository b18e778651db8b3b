package assets

import (
	"fmt"

	"github.com/kd7tck/swissarmyNES/internal/project"
)

const (
	dpcmBase        = DPCMAddr
	dpcmRegionEnd   = 0xFF00 // exclusive; $E040-$FEFF inclusive per spec §3
	dpcmAlign       = 64
	dpcmLenCap      = 4081
	sampleTableSize = 128
	sampleTableMax  = sampleTableSize / 2 // 2 bytes (A,L) per entry
)

// DPCMResult is the pair of injection-ready blobs EncodeDPCM produces: the
// sample data itself (destined for $E040) and the 128-byte address/length
// table (destined for $D480).
type DPCMResult struct {
	SamplesBlob []byte
	SamplesAddr uint16
	TableBlob   []byte
}

// EncodeDPCM packs each sample 64-byte aligned starting at $E040, padding
// every sample's length to 16n+1 bytes (capped at 4081), and builds the
// (A,L) sample table where A=(addr−$C000)÷64 and L=(len−1)÷16 (spec §4.7).
func EncodeDPCM(samples []project.Sample) (DPCMResult, error) {
	if len(samples) > sampleTableMax {
		return DPCMResult{}, fmt.Errorf("too many DPCM samples: %d exceeds table capacity %d", len(samples), sampleTableMax)
	}

	var data []byte
	table := make([]byte, 0, len(samples)*2)
	addr := uint16(dpcmBase)

	for _, s := range samples {
		padded := padDPCMLength(s.Data)
		if len(padded) > dpcmLenCap {
			return DPCMResult{}, fmt.Errorf("DPCM sample %q length %d exceeds %d-byte cap", s.Name, len(padded), dpcmLenCap)
		}
		if int(addr)+len(padded) > dpcmRegionEnd {
			return DPCMResult{}, fmt.Errorf("DPCM sample %q at $%04X overflows the $E040-$FEFF region", s.Name, addr)
		}
		if addr%dpcmAlign != 0 {
			return DPCMResult{}, fmt.Errorf("internal invariant violated: DPCM sample %q address $%04X is not 64-byte aligned", s.Name, addr)
		}

		a := byte((int(addr) - 0xC000) / dpcmAlign)
		l := byte((len(padded) - 1) / 16)
		table = append(table, a, l)

		data = append(data, padded...)
		next := int(addr) + len(padded)
		next = ((next + dpcmAlign - 1) / dpcmAlign) * dpcmAlign
		if pad := next - (int(addr) + len(padded)); pad > 0 {
			data = append(data, make([]byte, pad)...)
		}
		addr = uint16(next)
	}

	if len(table) > sampleTableSize {
		return DPCMResult{}, fmt.Errorf("DPCM sample table size %d exceeds %d-byte limit", len(table), sampleTableSize)
	}

	return DPCMResult{
		SamplesBlob: data,
		SamplesAddr: dpcmBase,
		TableBlob:   padTo(table, sampleTableSize),
	}, nil
}

// padDPCMLength pads b to 16n+1 bytes, the DMC sample-length encoding
// required so that (len-1) is evenly divisible by 16 (spec §4.7, §8's
// DPCM-alignment testable property).
func padDPCMLength(b []byte) []byte {
	if len(b) == 0 {
		return []byte{0}
	}
	rem := (len(b) - 1) % 16
	if rem == 0 {
		return b
	}
	padded := make([]byte, len(b)+(16-rem))
	copy(padded, b)
	return padded
}
