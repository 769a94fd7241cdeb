package common

import "strings"

// Virtual key codes for cross-platform input handling.
// These values match GLFW key codes which use ASCII values for printable keys.
// Reference: https://pkg.go.dev/github.com/go-gl/glfw/v3.3/glfw#Key
const (
	KeyW     = 87 // W key (ASCII)
	KeyA     = 65 // A key (ASCII)
	KeyS     = 83 // S key (ASCII)
	KeyD     = 68 // D key (ASCII)
	KeyQ     = 81 // Q key (ASCII)
	KeyE     = 69 // E key (ASCII)
	KeyL     = 76 // L key (ASCII)
	KeySpace = 32 // Spacebar (ASCII)

	KeyEqual = 61 // = key (ASCII)
	KeyMinus = 45 // - key (ASCII)
)

// Additional non-printable keys
const (
	KeyEsc          = 256 // Escape key (GLFW)
	KeyTab          = 258 // Tab key (GLFW)
	KeyBackspace    = 259 // Backspace key (GLFW)
	KeyLeftShift    = 340 // Left Shift (GLFW)
	KeyLeftControl  = 341 // Left Control (GLFW)
	KeyRightShift   = 344 // Right Shift (GLFW)
	KeyRightControl = 345 // Right Control (GLFW)
)

// namedKeys maps configuration key names to key codes.
var namedKeys = map[string]uint32{
	"space":         KeySpace,
	"tab":           KeyTab,
	"escape":        KeyEsc,
	"backspace":     KeyBackspace,
	"left_shift":    KeyLeftShift,
	"right_shift":   KeyRightShift,
	"left_control":  KeyLeftControl,
	"right_control": KeyRightControl,
	"equal":         KeyEqual,
	"minus":         KeyMinus,
}

// KeyByName resolves a configuration key name to its key code.
// Single letters and digits resolve to their upper-case ASCII code; other names are looked up
// in a fixed table (e.g. "space", "left_shift"). Matching is case-insensitive.
//
// Parameters:
//   - name: the key name from configuration
//
// Returns:
//   - uint32: the key code
//   - bool: false if the name is not a known key
func KeyByName(name string) (uint32, bool) {
	n := strings.ToLower(strings.TrimSpace(name))
	if len(n) == 1 {
		c := n[0]
		switch {
		case c >= 'a' && c <= 'z':
			return uint32(c - 'a' + 'A'), true
		case c >= '0' && c <= '9':
			return uint32(c), true
		}
	}
	code, ok := namedKeys[n]
	return code, ok
}
