// Package gpu renders SDF glyph quads through a wgpu/hal render pipeline.
// The shader mirrors the CPU reference in the raster package: a pass-through
// vertex stage and a smoothstep coverage resolve in the fragment stage.
package gpu

import (
	_ "embed"
	"fmt"

	"github.com/gogpu/naga"
)

// Embedded SDF text shader source.
//
//go:embed shaders/sdf_text.wgsl
var sdfTextShaderSource string

// GetSDFTextShaderSource returns the WGSL source for the SDF text shader.
func GetSDFTextShaderSource() string {
	return sdfTextShaderSource
}

// CompileShaderToSPIRV compiles WGSL source to a SPIR-V uint32 slice, for
// backends that reject WGSL module descriptors.
func CompileShaderToSPIRV(wgslSource string) ([]uint32, error) {
	spirvBytes, err := naga.Compile(wgslSource)
	if err != nil {
		return nil, fmt.Errorf("compile shader: %w", err)
	}

	// SPIR-V is little-endian 32-bit words.
	spirvCode := make([]uint32, len(spirvBytes)/4)
	for i := range spirvCode {
		spirvCode[i] = uint32(spirvBytes[i*4]) |
			uint32(spirvBytes[i*4+1])<<8 |
			uint32(spirvBytes[i*4+2])<<16 |
			uint32(spirvBytes[i*4+3])<<24
	}
	return spirvCode, nil
}
