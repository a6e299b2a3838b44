package wire

import (
	"encoding/binary"
	"fmt"
	"hash/crc32"

	"github.com/KevinKickass/OpenRadarCore/radarapi"
)

// Burst header (24 bytes, packed, little endian):
//
//	0  sequence_number   uint32
//	4  max_sample_value  uint32
//	8  bits_per_sample   uint8
//	9  samples_per_chirp uint16
//	11 channels_count    uint8
//	12 chirps_per_burst  uint8
//	13 config_id         uint8
//	14 flags             uint16  (bit0 interleaved, bit1 big endian,
//	                              bits 2..15 reserved, written as 0)
//	16 burst_data_crc    uint32
//	20 timestamp_ms      uint32
//
// The payload that follows carries sample words of
// ceil(bits_per_sample/8) bytes each, word endianness per the big
// endian flag. With interleaved channels the words cycle through all
// channels for each sample position; otherwise channels are stored as
// contiguous blocks. The CRC covers the payload only.
const HeaderSize = 24

const (
	flagChannelsInterleaved = 1 << 0
	flagBigEndian           = 1 << 1
)

// SampleWordSize returns the payload bytes occupied by one sample.
func SampleWordSize(bitsPerSample uint8) int {
	return (int(bitsPerSample) + 7) / 8
}

// PayloadSize derives the payload length from the format fields.
func PayloadSize(f radarapi.BurstFormat) int {
	samples := int(f.SamplesPerChirp) * int(f.ChirpsPerBurst) * int(f.ChannelsCount)
	return samples * SampleWordSize(f.BitsPerSample)
}

// Checksum is the payload integrity CRC (CRC-32/IEEE).
func Checksum(payload []byte) uint32 {
	return crc32.ChecksumIEEE(payload)
}

// AppendHeader encodes f and appends it to dst.
func AppendHeader(dst []byte, f radarapi.BurstFormat) []byte {
	var h [HeaderSize]byte
	binary.LittleEndian.PutUint32(h[0:4], f.SequenceNumber)
	binary.LittleEndian.PutUint32(h[4:8], f.MaxSampleValue)
	h[8] = f.BitsPerSample
	binary.LittleEndian.PutUint16(h[9:11], f.SamplesPerChirp)
	h[11] = f.ChannelsCount
	h[12] = f.ChirpsPerBurst
	h[13] = f.ConfigID
	var flags uint16
	if f.IsChannelsInterleaved {
		flags |= flagChannelsInterleaved
	}
	if f.IsBigEndian {
		flags |= flagBigEndian
	}
	binary.LittleEndian.PutUint16(h[14:16], flags)
	binary.LittleEndian.PutUint32(h[16:20], f.BurstDataCRC)
	binary.LittleEndian.PutUint32(h[20:24], f.TimestampMs)
	return append(dst, h[:]...)
}

// DecodeHeader parses a burst header. Reserved flag bits are ignored.
func DecodeHeader(b []byte) (radarapi.BurstFormat, error) {
	var f radarapi.BurstFormat
	if len(b) < HeaderSize {
		return f, fmt.Errorf("wire: short burst header: %d bytes: %w", len(b), radarapi.RCBadInput)
	}
	f.SequenceNumber = binary.LittleEndian.Uint32(b[0:4])
	f.MaxSampleValue = binary.LittleEndian.Uint32(b[4:8])
	f.BitsPerSample = b[8]
	f.SamplesPerChirp = binary.LittleEndian.Uint16(b[9:11])
	f.ChannelsCount = b[11]
	f.ChirpsPerBurst = b[12]
	f.ConfigID = b[13]
	flags := binary.LittleEndian.Uint16(b[14:16])
	f.IsChannelsInterleaved = flags&flagChannelsInterleaved != 0
	f.IsBigEndian = flags&flagBigEndian != 0
	f.BurstDataCRC = binary.LittleEndian.Uint32(b[16:20])
	f.TimestampMs = binary.LittleEndian.Uint32(b[20:24])
	return f, nil
}

// PackSamples encodes sample values in the order the producer emitted
// them. Values are masked to the sample width.
func PackSamples(f radarapi.BurstFormat, samples []uint32) ([]byte, error) {
	want := int(f.SamplesPerChirp) * int(f.ChirpsPerBurst) * int(f.ChannelsCount)
	if len(samples) != want {
		return nil, fmt.Errorf("wire: %d samples for a %d sample burst: %w", len(samples), want, radarapi.RCBadInput)
	}
	word := SampleWordSize(f.BitsPerSample)
	if word == 0 || word > 4 {
		return nil, fmt.Errorf("wire: unsupported sample width %d: %w", f.BitsPerSample, radarapi.RCBadInput)
	}
	mask := uint32(1)<<f.BitsPerSample - 1
	if f.BitsPerSample == 32 {
		mask = ^uint32(0)
	}
	out := make([]byte, 0, want*word)
	var scratch [4]byte
	for _, s := range samples {
		s &= mask
		if f.IsBigEndian {
			binary.BigEndian.PutUint32(scratch[:], s)
			out = append(out, scratch[4-word:]...)
		} else {
			binary.LittleEndian.PutUint32(scratch[:], s)
			out = append(out, scratch[:word]...)
		}
	}
	return out, nil
}

// UnpackSamples is the inverse of PackSamples.
func UnpackSamples(f radarapi.BurstFormat, payload []byte) ([]uint32, error) {
	word := SampleWordSize(f.BitsPerSample)
	if word == 0 || word > 4 {
		return nil, fmt.Errorf("wire: unsupported sample width %d: %w", f.BitsPerSample, radarapi.RCBadInput)
	}
	if len(payload) != PayloadSize(f) {
		return nil, fmt.Errorf("wire: payload length %d does not match format: %w", len(payload), radarapi.RCBadInput)
	}
	out := make([]uint32, 0, len(payload)/word)
	var scratch [4]byte
	for i := 0; i < len(payload); i += word {
		scratch = [4]byte{}
		if f.IsBigEndian {
			copy(scratch[4-word:], payload[i:i+word])
			out = append(out, binary.BigEndian.Uint32(scratch[:]))
		} else {
			copy(scratch[:word], payload[i:i+word])
			out = append(out, binary.LittleEndian.Uint32(scratch[:]))
		}
	}
	return out, nil
}
