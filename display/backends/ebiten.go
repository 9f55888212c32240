//go:build ebiten

package backends

import _ "github.com/junsooki/glimshow/display/ebitengine"
