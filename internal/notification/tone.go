package notification

import (
	"bytes"
	"encoding/binary"
	"math"
	"sync"
	"time"
)

const (
	ToneFrequency  = 800.0
	ToneDuration   = 500 * time.Millisecond
	ToneStartGain  = 0.3
	ToneEndGain    = 0.01
	ToneSampleRate = 22050
)

// ToneSamples renders the alert cue: a sine at ToneFrequency whose gain
// ramps exponentially from ToneStartGain to ToneEndGain over ToneDuration.
func ToneSamples(sampleRate int) []int16 {
	n := int(float64(sampleRate) * ToneDuration.Seconds())
	samples := make([]int16, n)
	ratio := ToneEndGain / ToneStartGain
	for i := range samples {
		t := float64(i) / float64(sampleRate)
		progress := t / ToneDuration.Seconds()
		gain := ToneStartGain * math.Pow(ratio, progress)
		v := math.Sin(2*math.Pi*ToneFrequency*t) * gain
		samples[i] = int16(v * math.MaxInt16)
	}
	return samples
}

var toneWAV = sync.OnceValue(func() []byte {
	return encodeWAV(ToneSamples(ToneSampleRate), ToneSampleRate)
})

// ToneWAV returns the alert cue as a 16-bit mono PCM WAV file.
func ToneWAV() []byte {
	return toneWAV()
}

func encodeWAV(samples []int16, sampleRate int) []byte {
	const (
		channels      = 1
		bitsPerSample = 16
	)
	dataLen := uint32(len(samples) * 2)
	blockAlign := uint16(channels * bitsPerSample / 8)

	var buf bytes.Buffer
	buf.Grow(44 + int(dataLen))
	buf.WriteString("RIFF")
	_ = binary.Write(&buf, binary.LittleEndian, 36+dataLen)
	buf.WriteString("WAVE")
	buf.WriteString("fmt ")
	_ = binary.Write(&buf, binary.LittleEndian, uint32(16))
	_ = binary.Write(&buf, binary.LittleEndian, uint16(1)) // PCM
	_ = binary.Write(&buf, binary.LittleEndian, uint16(channels))
	_ = binary.Write(&buf, binary.LittleEndian, uint32(sampleRate))
	_ = binary.Write(&buf, binary.LittleEndian, uint32(sampleRate)*uint32(blockAlign))
	_ = binary.Write(&buf, binary.LittleEndian, blockAlign)
	_ = binary.Write(&buf, binary.LittleEndian, uint16(bitsPerSample))
	buf.WriteString("data")
	_ = binary.Write(&buf, binary.LittleEndian, dataLen)
	_ = binary.Write(&buf, binary.LittleEndian, samples)
	return buf.Bytes()
}
