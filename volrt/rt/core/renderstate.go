package core

import "github.com/go-gl/mathgl/mgl32"

type CullMode int

const (
	CullNone CullMode = iota
	CullFront
	CullBack
)

func (m CullMode) String() string {
	switch m {
	case CullFront:
		return "front"
	case CullBack:
		return "back"
	default:
		return "none"
	}
}

// PassState is the complete render state a pass runs with. Backends build
// their pipelines from it; nothing is inherited from a previous pass.
type PassState struct {
	Label     string
	Cull      CullMode
	Clear     mgl32.Vec4
	DepthTest bool
}

// Discards reports whether a triangle with the given facing is culled.
func (s PassState) Discards(frontFacing bool) bool {
	switch s.Cull {
	case CullFront:
		return frontFacing
	case CullBack:
		return !frontFacing
	default:
		return false
	}
}

// ExitClear is the clear value of the exit point target. Captured exit
// points always carry alpha 1, so alpha 0 marks pixels the proxy does not
// cover.
var ExitClear = mgl32.Vec4{0, 0, 0, 0}

var (
	BackfacePass = PassState{Label: "Backface", Cull: CullFront, Clear: ExitClear}
	RaymarchPass = PassState{Label: "Raymarch", Cull: CullBack}
	PresentPass  = PassState{Label: "Present", Cull: CullNone}
)

// Covered reports whether an exit point texel was written by the backface
// pass.
func Covered(exit mgl32.Vec4) bool {
	return exit.W() > 0.5
}
