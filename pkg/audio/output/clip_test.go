// ABOUTME: Tests for looping clips
// ABOUTME: Uses a fake device to verify loading, looping, stopping and idempotence
package output

import (
	"bytes"
	"encoding/binary"
	"errors"
	"io"
	"io/fs"
	"sync"
	"testing"
	"testing/fstest"

	"github.com/Resonate-Protocol/tone-go/pkg/audio"
)

type fakePlayer struct {
	mu      sync.Mutex
	reader  io.Reader
	playing bool
	closed  bool
	volume  float64
}

func (p *fakePlayer) Play() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.playing = true
}

func (p *fakePlayer) Pause() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.playing = false
}

func (p *fakePlayer) IsPlaying() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.playing
}

func (p *fakePlayer) SetVolume(volume float64) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.volume = volume
}

func (p *fakePlayer) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.closed = true
	return nil
}

type fakeDevice struct {
	mu      sync.Mutex
	format  audio.Format
	players []*fakePlayer
}

func newFakeDevice() *fakeDevice {
	return &fakeDevice{format: audio.Format{Codec: "pcm", SampleRate: 8000, Channels: 2, BitDepth: 16}}
}

func (d *fakeDevice) NewPlayer(r io.Reader) Player {
	d.mu.Lock()
	defer d.mu.Unlock()
	p := &fakePlayer{reader: r, volume: 1}
	d.players = append(d.players, p)
	return p
}

func (d *fakeDevice) Format() audio.Format {
	return d.format
}

func (d *fakeDevice) playerCount() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.players)
}

func (d *fakeDevice) last() *fakePlayer {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.players[len(d.players)-1]
}

func makeWAV(sampleRate, channels int, samples []int16) []byte {
	var buf bytes.Buffer
	dataSize := len(samples) * 2

	buf.WriteString("RIFF")
	binary.Write(&buf, binary.LittleEndian, uint32(36+dataSize))
	buf.WriteString("WAVE")
	buf.WriteString("fmt ")
	binary.Write(&buf, binary.LittleEndian, uint32(16))
	binary.Write(&buf, binary.LittleEndian, uint16(1))
	binary.Write(&buf, binary.LittleEndian, uint16(channels))
	binary.Write(&buf, binary.LittleEndian, uint32(sampleRate))
	binary.Write(&buf, binary.LittleEndian, uint32(sampleRate*channels*2))
	binary.Write(&buf, binary.LittleEndian, uint16(channels*2))
	binary.Write(&buf, binary.LittleEndian, uint16(16))
	buf.WriteString("data")
	binary.Write(&buf, binary.LittleEndian, uint32(dataSize))
	for _, s := range samples {
		binary.Write(&buf, binary.LittleEndian, s)
	}
	return buf.Bytes()
}

func testFS() fs.FS {
	tone := make([]int16, 800)
	for i := range tone {
		tone[i] = int16(i)
	}
	return fstest.MapFS{
		"search.wav": &fstest.MapFile{Data: makeWAV(8000, 1, tone)},
		"lock.wav":   &fstest.MapFile{Data: makeWAV(16000, 2, make([]int16, 1600))},
		"broken.wav": &fstest.MapFile{Data: []byte("RIFF....nope")},
		"tone.ogg":   &fstest.MapFile{Data: []byte("OggS")},
	}
}

func loadTestClip(t *testing.T, device Device, name string) *Clip {
	t.Helper()
	clip, err := LoadClip(device, testFS(), name)
	if err != nil {
		t.Fatalf("failed to load %s: %v", name, err)
	}
	return clip
}

func TestLoadClipConvertsToDeviceFormat(t *testing.T) {
	device := newFakeDevice()
	clip := loadTestClip(t, device, "search.wav")

	// 800 mono frames at the device rate become 800 stereo frames, 2 bytes each
	if len(clip.pcm) != 800*2*2 {
		t.Errorf("expected %d pcm bytes, got %d", 800*2*2, len(clip.pcm))
	}
	if clip.Duration() <= 0 {
		t.Error("expected positive duration")
	}
	if clip.Name() != "search.wav" {
		t.Errorf("expected name search.wav, got %s", clip.Name())
	}
}

func TestLoadClipResamples(t *testing.T) {
	device := newFakeDevice()
	clip := loadTestClip(t, device, "lock.wav")

	// 800 frames at 16kHz resample to ~400 frames at 8kHz
	frames := len(clip.pcm) / 4
	if frames < 395 || frames > 400 {
		t.Errorf("expected ~400 frames, got %d", frames)
	}
}

func TestLoadClipErrors(t *testing.T) {
	tests := []struct {
		name   string
		device Device
		file   string
	}{
		{"missing file", newFakeDevice(), "missing.wav"},
		{"malformed file", newFakeDevice(), "broken.wav"},
		{"unsupported type", newFakeDevice(), "tone.ogg"},
		{"no device", nil, "search.wav"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clip, err := LoadClip(tt.device, testFS(), tt.file)
			if err == nil {
				t.Fatal("expected error, got nil")
			}
			if clip != nil {
				t.Error("expected nil clip on error")
			}

			var resErr *ResourceError
			if !errors.As(err, &resErr) {
				t.Fatalf("expected *ResourceError, got %T", err)
			}
			if resErr.Name != tt.file {
				t.Errorf("expected resource name %s, got %s", tt.file, resErr.Name)
			}
		})
	}
}

func TestLoadClipNoDeviceWrapsSentinel(t *testing.T) {
	_, err := LoadClip(nil, testFS(), "search.wav")
	if !errors.Is(err, ErrNoDevice) {
		t.Errorf("expected ErrNoDevice, got %v", err)
	}
}

func TestClipLoopIsIdempotent(t *testing.T) {
	device := newFakeDevice()
	clip := loadTestClip(t, device, "search.wav")

	if err := clip.Loop(); err != nil {
		t.Fatalf("loop failed: %v", err)
	}
	if err := clip.Loop(); err != nil {
		t.Fatalf("second loop failed: %v", err)
	}

	if device.playerCount() != 1 {
		t.Errorf("expected 1 player, got %d", device.playerCount())
	}
	if !device.last().IsPlaying() {
		t.Error("expected player to be playing")
	}
	if !clip.IsLooping() {
		t.Error("expected clip to be looping")
	}
}

func TestClipStopIsIdempotent(t *testing.T) {
	device := newFakeDevice()
	clip := loadTestClip(t, device, "search.wav")

	if err := clip.Stop(); err != nil {
		t.Fatalf("stop on idle clip failed: %v", err)
	}
	if device.playerCount() != 0 {
		t.Errorf("expected no players, got %d", device.playerCount())
	}

	clip.Loop()
	p := device.last()
	if err := clip.Stop(); err != nil {
		t.Fatalf("stop failed: %v", err)
	}
	if err := clip.Stop(); err != nil {
		t.Fatalf("second stop failed: %v", err)
	}

	if p.IsPlaying() {
		t.Error("expected player to be paused")
	}
	if !p.closed {
		t.Error("expected player to be closed")
	}
	if clip.IsLooping() {
		t.Error("expected clip not to be looping")
	}
}

func TestClipLoopRestartsFromBeginning(t *testing.T) {
	device := newFakeDevice()
	clip := loadTestClip(t, device, "search.wav")

	clip.Loop()
	clip.Stop()
	clip.Loop()

	if device.playerCount() != 2 {
		t.Fatalf("expected a fresh player after restart, got %d", device.playerCount())
	}

	head := make([]byte, 8)
	if _, err := io.ReadFull(device.last().reader, head); err != nil {
		t.Fatalf("read failed: %v", err)
	}
	if !bytes.Equal(head, clip.pcm[:8]) {
		t.Error("expected restarted player to read from the start of the clip")
	}
}

func TestClipSequenceTracksLastValue(t *testing.T) {
	device := newFakeDevice()
	clip := loadTestClip(t, device, "search.wav")

	values := []bool{true, true, false, true}
	for i, v := range values {
		if v {
			clip.Loop()
		} else {
			clip.Stop()
		}
		if clip.IsLooping() != v {
			t.Errorf("step %d: expected looping=%v", i, v)
		}
	}

	// loop, loop(no-op), stop, loop
	if device.playerCount() != 2 {
		t.Errorf("expected 2 players, got %d", device.playerCount())
	}
}

func TestNilClipIsNoop(t *testing.T) {
	var clip *Clip

	if err := clip.Loop(); err != nil {
		t.Errorf("expected nil error, got %v", err)
	}
	if err := clip.Stop(); err != nil {
		t.Errorf("expected nil error, got %v", err)
	}
	if clip.IsLooping() {
		t.Error("expected nil clip not to loop")
	}
	clip.SetVolume(50)

	unloaded := &Clip{}
	if err := unloaded.Loop(); err != nil {
		t.Errorf("expected nil error, got %v", err)
	}
	if unloaded.IsLooping() {
		t.Error("expected unloaded clip not to loop")
	}
}

func TestClipSetVolume(t *testing.T) {
	tests := []struct {
		name     string
		input    int
		expected float64
	}{
		{"full", 100, 1.0},
		{"half", 50, 0.5},
		{"clamped high", 150, 1.0},
		{"clamped low", -10, 0.0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			device := newFakeDevice()
			clip := loadTestClip(t, device, "search.wav")

			clip.Loop()
			clip.SetVolume(tt.input)
			if got := device.last().volume; got != tt.expected {
				t.Errorf("expected volume %v, got %v", tt.expected, got)
			}
		})
	}
}

func TestLoopReaderWraps(t *testing.T) {
	r := &loopReader{pcm: []byte{1, 2, 3}}

	buf := make([]byte, 7)
	n, err := r.Read(buf)
	if err != nil {
		t.Fatalf("read failed: %v", err)
	}
	if n != 7 {
		t.Fatalf("expected 7 bytes, got %d", n)
	}

	expected := []byte{1, 2, 3, 1, 2, 3, 1}
	if !bytes.Equal(buf, expected) {
		t.Errorf("expected %v, got %v", expected, buf)
	}

	empty := &loopReader{}
	if _, err := empty.Read(buf); err != io.EOF {
		t.Errorf("expected EOF from empty reader, got %v", err)
	}
}

func TestFakeDeviceImplementsDevice(t *testing.T) {
	var _ Device = (*fakeDevice)(nil)
	var _ Device = (*Oto)(nil)
}
