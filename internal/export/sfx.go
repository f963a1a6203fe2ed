package export

import _ "embed"

// pageTurnWAV is the page-turn sound effect mixed into every segment,
// delayed so its onset lines up with the visual fade-out. It is a
// pipeline-wide constant, but engine scopes are private per export, so the
// pipeline re-stages it into each export's own scope.
//
//go:embed page_turn.wav
var pageTurnWAV []byte

// PageTurnEffect returns the shared page-turn sound effect buffer.
func PageTurnEffect() []byte {
	return pageTurnWAV
}
