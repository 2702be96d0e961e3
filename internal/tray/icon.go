package tray

import _ "embed"

// icon.ico is a 32x32 gamepad glyph.
//
//go:embed icon.ico
var icon []byte
