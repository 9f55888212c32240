// Package backends links every display backend usable on the target
// platform. Import it for its side effects:
//
//	import _ "github.com/junsooki/glimshow/display/backends"
//
// Ebitengine and go-gl/glfw both embed the GLFW C library, so they cannot
// share a binary. The default build links the GLFW backend; build with
// -tags ebiten to link Ebitengine instead.
package backends

import (
	_ "github.com/junsooki/glimshow/display/headless"
	_ "github.com/junsooki/glimshow/display/sdl2"
)
