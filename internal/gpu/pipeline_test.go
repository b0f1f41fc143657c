package gpu

import (
	"testing"

	"github.com/fossabot/huozi"
)

// RecordDraws must be safe to call with nothing to draw: it returns before
// touching the encoder or the pipeline, so a nil encoder must not panic.
func TestRecordDrawsSkipsEmptyResources(t *testing.T) {
	p := NewSDFTextPipeline(nil, nil)

	p.RecordDraws(nil, nil)
	p.RecordDraws(nil, &glyphFrameResources{indexCount: 0})
}

func TestPassDrawReleaseNilSafe(t *testing.T) {
	var d *PassDraw
	d.Release()

	// Release is idempotent: the second call sees the cleared renderer
	// reference and returns.
	d = &PassDraw{}
	d.Release()
	d.Release()
}

func TestPrepareDrawWithoutDevice(t *testing.T) {
	r := &GlyphRenderer{}
	s := huozi.Style{Color: huozi.White, Buffer: 0.5}
	if _, err := r.PrepareDraw(nil, nil, s); err != ErrPipelineNotInitialized {
		t.Errorf("expected ErrPipelineNotInitialized, got %v", err)
	}
}
