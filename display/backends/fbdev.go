//go:build linux

package backends

import _ "github.com/junsooki/glimshow/display/fbdev"
