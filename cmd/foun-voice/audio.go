package main

import (
	"bytes"
	"context"
	"encoding/binary"
	"fmt"
	"sync"
	"time"

	"github.com/ebitengine/oto/v3"
	"github.com/gen2brain/malgo"
)

const (
	sampleRate = 24000
	channels   = 1
)

// initAudio sets up microphone capture and speaker output. The returned
// cleanup releases both devices.
func initAudio() (*micReader, *clipPlayer, func(), error) {
	malgoConfig := malgo.ContextConfig{}
	malgoConfig.ThreadPriority = malgo.ThreadPriorityRealtime

	malgoCtx, err := malgo.InitContext(nil, malgoConfig, nil)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("init audio context: %w", err)
	}

	mic, err := newMicReader(malgoCtx.Context, sampleRate, channels)
	if err != nil {
		malgoCtx.Uninit()
		return nil, nil, nil, err
	}

	// At 24kHz mono 16-bit, 4800 bytes is roughly 100ms of audio.
	otoCtx, ready, err := oto.NewContext(&oto.NewContextOptions{
		SampleRate:   sampleRate,
		ChannelCount: channels,
		Format:       oto.FormatSignedInt16LE,
		BufferSize:   4800,
	})
	if err != nil {
		mic.Close()
		malgoCtx.Uninit()
		return nil, nil, nil, fmt.Errorf("init speaker: %w", err)
	}
	<-ready

	player := &clipPlayer{otoCtx: otoCtx}
	cleanup := func() {
		mic.Close()
		player.Stop()
		malgoCtx.Uninit()
	}
	return mic, player, cleanup, nil
}

// micReader accumulates raw PCM from the default capture device. The
// device runs for the whole session; Record drains between marks.
type micReader struct {
	device *malgo.Device
	mu     sync.Mutex
	buf    []byte
	active bool
}

func newMicReader(ctx malgo.Context, sampleRate, channels int) (*micReader, error) {
	m := &micReader{}

	deviceConfig := malgo.DefaultDeviceConfig(malgo.Capture)
	deviceConfig.Capture.Format = malgo.FormatS16
	deviceConfig.Capture.Channels = uint32(channels)
	deviceConfig.SampleRate = uint32(sampleRate)
	deviceConfig.PeriodSizeInMilliseconds = 20

	callbacks := malgo.DeviceCallbacks{
		Data: func(_, samples []byte, _ uint32) {
			m.mu.Lock()
			if m.active {
				m.buf = append(m.buf, samples...)
			}
			m.mu.Unlock()
		},
	}

	device, err := malgo.InitDevice(ctx, deviceConfig, callbacks)
	if err != nil {
		return nil, fmt.Errorf("init microphone: %w", err)
	}
	if err := device.Start(); err != nil {
		device.Uninit()
		return nil, fmt.Errorf("start microphone: %w", err)
	}
	m.device = device
	return m, nil
}

// Begin starts buffering samples.
func (m *micReader) Begin() {
	m.mu.Lock()
	m.buf = m.buf[:0]
	m.active = true
	m.mu.Unlock()
}

// End stops buffering and returns everything captured since Begin.
func (m *micReader) End() []byte {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.active = false
	out := make([]byte, len(m.buf))
	copy(out, m.buf)
	m.buf = m.buf[:0]
	return out
}

func (m *micReader) Close() {
	if m.device != nil {
		_ = m.device.Stop()
		m.device.Uninit()
	}
}

// clipPlayer plays one PCM clip at a time through the speaker. It backs
// the voice session, which already serializes playback.
type clipPlayer struct {
	otoCtx *oto.Context

	mu      sync.Mutex
	current *oto.Player
}

// Play blocks until the clip finishes, the context is cancelled, or
// Stop is called.
func (p *clipPlayer) Play(ctx context.Context, audio []byte) error {
	player := p.otoCtx.NewPlayer(bytes.NewReader(audio))

	p.mu.Lock()
	p.current = player
	p.mu.Unlock()
	player.Play()

	ticker := time.NewTicker(10 * time.Millisecond)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			p.Stop()
			return ctx.Err()
		case <-ticker.C:
		}

		p.mu.Lock()
		interrupted := p.current != player
		p.mu.Unlock()
		if interrupted {
			return nil
		}
		if !player.IsPlaying() {
			break
		}
	}

	p.mu.Lock()
	if p.current == player {
		p.current = nil
	}
	p.mu.Unlock()
	return player.Close()
}

// Stop cuts the current clip immediately. Safe when nothing plays.
func (p *clipPlayer) Stop() {
	p.mu.Lock()
	player := p.current
	p.current = nil
	p.mu.Unlock()

	if player != nil {
		player.Pause()
		_ = player.Close()
	}
}

// encodeWAV wraps raw 16-bit little-endian PCM in a minimal WAV header
// so the transcription API can identify the format.
func encodeWAV(pcm []byte, sampleRate, channels int) []byte {
	var buf bytes.Buffer
	byteRate := sampleRate * channels * 2

	buf.WriteString("RIFF")
	_ = binary.Write(&buf, binary.LittleEndian, uint32(36+len(pcm)))
	buf.WriteString("WAVE")
	buf.WriteString("fmt ")
	_ = binary.Write(&buf, binary.LittleEndian, uint32(16))
	_ = binary.Write(&buf, binary.LittleEndian, uint16(1)) // PCM
	_ = binary.Write(&buf, binary.LittleEndian, uint16(channels))
	_ = binary.Write(&buf, binary.LittleEndian, uint32(sampleRate))
	_ = binary.Write(&buf, binary.LittleEndian, uint32(byteRate))
	_ = binary.Write(&buf, binary.LittleEndian, uint16(channels*2))
	_ = binary.Write(&buf, binary.LittleEndian, uint16(16))
	buf.WriteString("data")
	_ = binary.Write(&buf, binary.LittleEndian, uint32(len(pcm)))
	buf.Write(pcm)
	return buf.Bytes()
}
