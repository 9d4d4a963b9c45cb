package app

import (
	"github.com/go-gl/glfw/v3.3/glfw"

	"github.com/gekko3d/volray/volrt/rt/control"
)

// keyCode maps a GLFW key to the character code the controller binds.
// Letters map to lower case.
func keyCode(key glfw.Key) (int, bool) {
	switch {
	case key == glfw.KeyEscape:
		return control.KeyEscape, true
	case key == glfw.KeySpace:
		return control.KeySpace, true
	case key >= glfw.KeyA && key <= glfw.KeyZ:
		return control.Normalize(int(key)), true
	case key >= glfw.Key0 && key <= glfw.Key9:
		return int(key), true
	}
	return 0, false
}

// HandleKey feeds a GLFW key event to the controller. Repeats are ignored;
// held keys already act once per frame.
func (a *App) HandleKey(key glfw.Key, action glfw.Action) {
	code, ok := keyCode(key)
	if !ok {
		return
	}
	switch action {
	case glfw.Press:
		a.Controller.KeyDown(code)
	case glfw.Release:
		a.Controller.KeyUp(code)
	}
}
