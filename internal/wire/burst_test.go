package wire

import (
	"bytes"
	"testing"

	"github.com/KevinKickass/OpenRadarCore/radarapi"
)

func testFormat() radarapi.BurstFormat {
	return radarapi.BurstFormat{
		SequenceNumber:        0x01020304,
		MaxSampleValue:        0x0fff,
		BitsPerSample:         12,
		SamplesPerChirp:       64,
		ChannelsCount:         3,
		ChirpsPerBurst:        16,
		ConfigID:              2,
		IsChannelsInterleaved: true,
		IsBigEndian:           false,
		BurstDataCRC:          0xdeadbeef,
		TimestampMs:           0x00a1b2c3,
	}
}

func TestHeaderKnownVector(t *testing.T) {
	got := AppendHeader(nil, testFormat())
	want := []byte{
		0x04, 0x03, 0x02, 0x01, // sequence
		0xff, 0x0f, 0x00, 0x00, // max sample value
		12,         // bits per sample
		0x40, 0x00, // samples per chirp
		3,          // channels
		16,         // chirps
		2,          // config id
		0x01, 0x00, // flags: interleaved only
		0xef, 0xbe, 0xad, 0xde, // crc
		0xc3, 0xb2, 0xa1, 0x00, // timestamp
	}
	if !bytes.Equal(got, want) {
		t.Fatalf("header\n got %x\nwant %x", got, want)
	}
	if len(got) != HeaderSize {
		t.Fatalf("header is %d bytes, want %d", len(got), HeaderSize)
	}
}

func TestHeaderRoundTrip(t *testing.T) {
	f := testFormat()
	f.IsBigEndian = true
	decoded, err := DecodeHeader(AppendHeader(nil, f))
	if err != nil {
		t.Fatalf("DecodeHeader: %v", err)
	}
	if decoded != f {
		t.Errorf("round trip changed format:\n got %+v\nwant %+v", decoded, f)
	}
}

func TestDecodeHeaderShortBuffer(t *testing.T) {
	_, err := DecodeHeader(make([]byte, HeaderSize-1))
	if got := radarapi.CodeOf(err); got != radarapi.RCBadInput {
		t.Fatalf("code %v, want RC_BAD_INPUT", got)
	}
}

func TestDecodeHeaderIgnoresReservedFlags(t *testing.T) {
	raw := AppendHeader(nil, testFormat())
	raw[15] = 0xff // reserved high flag bits
	f, err := DecodeHeader(raw)
	if err != nil {
		t.Fatalf("DecodeHeader: %v", err)
	}
	if !f.IsChannelsInterleaved || f.IsBigEndian {
		t.Errorf("flag bits misread: interleaved=%v bigEndian=%v", f.IsChannelsInterleaved, f.IsBigEndian)
	}
}

func TestSampleWordSize(t *testing.T) {
	cases := map[uint8]int{1: 1, 8: 1, 9: 2, 12: 2, 16: 2, 17: 3, 24: 3, 25: 4, 32: 4}
	for bits, want := range cases {
		if got := SampleWordSize(bits); got != want {
			t.Errorf("SampleWordSize(%d) = %d, want %d", bits, got, want)
		}
	}
}

func TestPayloadSize(t *testing.T) {
	f := testFormat() // 64 x 16 x 3 samples, 2 byte words
	if got := PayloadSize(f); got != 64*16*3*2 {
		t.Errorf("PayloadSize = %d, want %d", got, 64*16*3*2)
	}
}

func TestPackUnpackRoundTrip(t *testing.T) {
	for _, bigEndian := range []bool{false, true} {
		f := radarapi.BurstFormat{
			BitsPerSample:   12,
			SamplesPerChirp: 4,
			ChannelsCount:   2,
			ChirpsPerBurst:  2,
			IsBigEndian:     bigEndian,
		}
		in := make([]uint32, 16)
		for i := range in {
			in[i] = uint32(i * 257)
		}
		payload, err := PackSamples(f, in)
		if err != nil {
			t.Fatalf("PackSamples(bigEndian=%v): %v", bigEndian, err)
		}
		if len(payload) != PayloadSize(f) {
			t.Fatalf("payload %d bytes, want %d", len(payload), PayloadSize(f))
		}
		out, err := UnpackSamples(f, payload)
		if err != nil {
			t.Fatalf("UnpackSamples(bigEndian=%v): %v", bigEndian, err)
		}
		for i := range in {
			if out[i] != in[i]&0x0fff {
				t.Fatalf("sample %d = %d, want %d (bigEndian=%v)", i, out[i], in[i]&0x0fff, bigEndian)
			}
		}
	}
}

func TestPackSamplesMasksToWidth(t *testing.T) {
	f := radarapi.BurstFormat{
		BitsPerSample:   8,
		SamplesPerChirp: 1,
		ChannelsCount:   1,
		ChirpsPerBurst:  1,
	}
	payload, err := PackSamples(f, []uint32{0x1ff})
	if err != nil {
		t.Fatalf("PackSamples: %v", err)
	}
	if len(payload) != 1 || payload[0] != 0xff {
		t.Errorf("payload %x, want ff", payload)
	}
}

func TestPackSamplesCountMismatch(t *testing.T) {
	f := testFormat()
	_, err := PackSamples(f, make([]uint32, 3))
	if got := radarapi.CodeOf(err); got != radarapi.RCBadInput {
		t.Fatalf("code %v, want RC_BAD_INPUT", got)
	}
}

func TestChecksumMatchesHeaderField(t *testing.T) {
	payload := []byte{1, 2, 3, 4, 5}
	f := testFormat()
	f.BurstDataCRC = Checksum(payload)

	decoded, err := DecodeHeader(AppendHeader(nil, f))
	if err != nil {
		t.Fatalf("DecodeHeader: %v", err)
	}
	if decoded.BurstDataCRC != Checksum(payload) {
		t.Errorf("crc 0x%08x, want 0x%08x", decoded.BurstDataCRC, Checksum(payload))
	}
	if Checksum(payload) == Checksum(payload[:4]) {
		t.Error("checksum not sensitive to payload length")
	}
}
