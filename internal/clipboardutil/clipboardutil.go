// Package clipboardutil copies the match command's summary lines to the
// system clipboard, in the style of the driver CLI's copy-to-clipboard
// text selection feature.
package clipboardutil

import (
	"strings"

	"github.com/atotto/clipboard"

	"simalign/internal/logging"
)

// CopySummary joins lines with newlines and writes them to the system
// clipboard. When no clipboard is available (headless CI, missing
// xclip/xsel, etc.) it logs a WARN and returns without error: the
// -copy flag is a convenience, never load-bearing.
func CopySummary(lines []string, log *logging.Logger) {
	text := strings.Join(lines, "\n")
	if err := clipboard.WriteAll(text); err != nil {
		if log != nil {
			log.Warn("clipboardutil: clipboard unavailable, skipping copy: %v", err)
		}
		return
	}
	if log != nil {
		log.Info("clipboardutil: summary copied to clipboard")
	}
}
