package render

import (
	"errors"
	"math"
	"testing"

	"github.com/gogpu/gpucontext"
	"github.com/gogpu/gputypes"

	"github.com/fossabot/huozi"
	"github.com/fossabot/huozi/atlas"
)

// mockDevice implements gpucontext.Device for testing.
type mockDevice struct{}

func (m *mockDevice) Poll(wait bool) {}
func (m *mockDevice) Destroy()       {}

// mockQueue implements gpucontext.Queue for testing.
type mockQueue struct{}

// mockAdapter implements gpucontext.Adapter for testing.
type mockAdapter struct{}

// mockProvider implements DeviceHandle without exposing HAL types, which
// forces the GPU renderer into software fallback.
type mockProvider struct{}

func (m *mockProvider) Device() gpucontext.Device   { return &mockDevice{} }
func (m *mockProvider) Queue() gpucontext.Queue     { return &mockQueue{} }
func (m *mockProvider) Adapter() gpucontext.Adapter { return &mockAdapter{} }
func (m *mockProvider) SurfaceFormat() gputypes.TextureFormat {
	return gputypes.TextureFormatBGRA8Unorm
}
func (m *mockProvider) AdapterInfo() gpucontext.AdapterInfo { return gpucontext.AdapterInfo{} }

// testScene builds a full-coverage batch over a constant interior field.
func testScene() (*huozi.Pixmap, *atlas.Texture, []Batch) {
	target := huozi.NewPixmap(8, 8)
	tex := atlas.NewTexture(16, 1)
	tex.FillPage(0, 1.0)

	batches := []Batch{{
		Quads: []huozi.Quad{{X0: -1, Y0: -1, X1: 1, Y1: 1, U0: 0, V0: 0, U1: 1, V1: 1}},
		Style: huozi.Style{Color: huozi.White, Buffer: 0.5, Gamma: 0.1},
	}}
	return target, tex, batches
}

func TestSoftwareRendererRender(t *testing.T) {
	target, tex, batches := testScene()

	r := NewSoftwareRenderer()
	if err := r.Render(target, tex, batches); err != nil {
		t.Fatalf("Render: %v", err)
	}
	if err := r.Flush(); err != nil {
		t.Fatalf("Flush: %v", err)
	}

	got := target.GetPixel(4, 4)
	if math.Abs(got.A-1.0) > 1.0/255 {
		t.Errorf("center pixel alpha = %f, want 1.0", got.A)
	}
}

func TestSoftwareRendererNilArgs(t *testing.T) {
	r := NewSoftwareRenderer()
	_, tex, batches := testScene()
	if err := r.Render(nil, tex, batches); !errors.Is(err, ErrNilTarget) {
		t.Errorf("Render(nil target) = %v, want ErrNilTarget", err)
	}
	target := huozi.NewPixmap(2, 2)
	if err := r.Render(target, nil, batches); !errors.Is(err, ErrNilAtlas) {
		t.Errorf("Render(nil atlas) = %v, want ErrNilAtlas", err)
	}
}

func TestSoftwareRendererCapabilities(t *testing.T) {
	caps := NewSoftwareRenderer().Capabilities()
	if caps.IsGPU {
		t.Error("software renderer reports IsGPU")
	}
}

func TestNewGPURendererNilHandle(t *testing.T) {
	if _, err := NewGPURenderer(nil); err == nil {
		t.Fatal("NewGPURenderer(nil) succeeded, want error")
	}
}

func TestGPURendererFallback(t *testing.T) {
	// A provider without HAL accessors yields a renderer in software
	// fallback mode that still renders correctly.
	r, err := NewGPURenderer(&mockProvider{})
	if err != nil {
		t.Fatalf("NewGPURenderer: %v", err)
	}
	defer r.Close()

	if r.IsGPUReady() {
		t.Fatal("IsGPUReady() = true for a provider without HAL types")
	}
	if caps := r.Capabilities(); caps.IsGPU {
		t.Error("fallback renderer reports IsGPU")
	}

	target, tex, batches := testScene()
	if err := r.Render(target, tex, batches); err != nil {
		t.Fatalf("Render: %v", err)
	}
	got := target.GetPixel(4, 4)
	if math.Abs(got.A-1.0) > 1.0/255 {
		t.Errorf("center pixel alpha = %f, want 1.0", got.A)
	}

	// SyncAtlas is a no-op without a device.
	if err := r.SyncAtlas(atlas.NewManagerDefault()); err != nil {
		t.Errorf("SyncAtlas: %v", err)
	}
}

func TestGPURendererRecordDrawsRequiresDevice(t *testing.T) {
	r, err := NewGPURenderer(&mockProvider{})
	if err != nil {
		t.Fatalf("NewGPURenderer failed: %v", err)
	}
	defer r.Close()

	_, tex, batches := testScene()
	if _, err := r.RecordDraws(nil, tex, batches); !errors.Is(err, ErrNoGPUDevice) {
		t.Errorf("expected ErrNoGPUDevice in fallback mode, got %v", err)
	}
}
