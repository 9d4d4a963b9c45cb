package shaders

import (
	_ "embed"
)

//go:embed backface.wgsl
var BackfaceWGSL string

//go:embed raymarch.wgsl
var RaymarchWGSL string

//go:embed present.wgsl
var PresentWGSL string

//go:embed text.wgsl
var TextWGSL string
