package notification

import (
	"encoding/binary"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestToneSamples(t *testing.T) {
	samples := ToneSamples(ToneSampleRate)
	require.Len(t, samples, ToneSampleRate/2)

	limit := int16(math.Ceil(ToneStartGain*math.MaxInt16)) + 1
	var headPeak, tailPeak int16
	for i, s := range samples {
		if s < 0 {
			s = -s
		}
		assert.LessOrEqual(t, s, limit)
		if i < len(samples)/10 && s > headPeak {
			headPeak = s
		}
		if i >= len(samples)*9/10 && s > tailPeak {
			tailPeak = s
		}
	}
	assert.Greater(t, headPeak, tailPeak*5, "gain decays over the tone")
}

func TestToneWAV(t *testing.T) {
	wav := ToneWAV()
	require.Greater(t, len(wav), 44)

	assert.Equal(t, "RIFF", string(wav[0:4]))
	assert.Equal(t, "WAVE", string(wav[8:12]))
	assert.Equal(t, "fmt ", string(wav[12:16]))
	assert.Equal(t, uint16(1), binary.LittleEndian.Uint16(wav[22:24]), "mono")
	assert.Equal(t, uint32(ToneSampleRate), binary.LittleEndian.Uint32(wav[24:28]))
	assert.Equal(t, uint16(16), binary.LittleEndian.Uint16(wav[34:36]))
	assert.Equal(t, "data", string(wav[36:40]))

	dataLen := binary.LittleEndian.Uint32(wav[40:44])
	assert.Equal(t, uint32(ToneSampleRate), dataLen, "half a second of 16-bit samples")
	assert.Equal(t, int(44+dataLen), len(wav))
	assert.Equal(t, uint32(36+dataLen), binary.LittleEndian.Uint32(wav[4:8]))

	assert.Equal(t, &wav[0], &ToneWAV()[0], "rendered once")
}
