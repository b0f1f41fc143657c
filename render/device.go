package render

import "github.com/gogpu/gpucontext"

// DeviceHandle provides GPU device access from the host application.
//
// The host application (e.g., a gogpu.App) implements DeviceHandle and
// passes it to the GPU renderer, which then shares the host's device rather
// than creating its own. DeviceHandle is an alias for
// gpucontext.DeviceProvider so any provider from that ecosystem plugs in
// directly.
type DeviceHandle = gpucontext.DeviceProvider
