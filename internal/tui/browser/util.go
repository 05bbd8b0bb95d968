package browser

import (
	"fmt"
	"strings"
	"time"

	"github.com/mattsolo1/grove-terminus/pkg/tree"
)

// formatClock renders a countdown as mm:ss.
func formatClock(d time.Duration) string {
	secs := int(d.Round(time.Second).Seconds())
	return fmt.Sprintf("%02d:%02d", secs/60, secs%60)
}

// formatSize renders a node's size: entries for containers, bytes for files.
func formatSize(n *tree.Node) string {
	if n.Kind.IsContainer() {
		return fmt.Sprintf("%d items", n.Size())
	}
	size := n.Size()
	switch {
	case size < 1024:
		return fmt.Sprintf("%d B", size)
	case size < 1024*1024:
		return fmt.Sprintf("%.1f KB", float64(size)/1024)
	}
	return fmt.Sprintf("%.1f MB", float64(size)/(1024*1024))
}

func formatModTime(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.Format("2006-01-02 15:04")
}

// glyph marks a listing entry by kind.
func glyph(n *tree.Node) string {
	switch n.Kind {
	case tree.KindDir:
		return "▸ "
	case tree.KindArchive:
		return "▣ "
	}
	return "  "
}

// truncate cuts s to width display cells, marking the cut.
func truncate(s string, width int) string {
	if width <= 0 {
		return ""
	}
	r := []rune(s)
	if len(r) <= width {
		return s
	}
	if width == 1 {
		return "…"
	}
	return string(r[:width-1]) + "…"
}

// window returns the slice bounds that keep cursor visible in height rows.
func window(total, cursor, height int) (int, int) {
	if height <= 0 || total <= height {
		return 0, total
	}
	start := 0
	if cursor >= height {
		start = cursor - height + 1
	}
	return start, min(total, start+height)
}

// lines splits content for the preview, starting at offset.
func lines(content string, offset, height int) []string {
	all := strings.Split(content, "\n")
	offset = min(offset, max(0, len(all)-1))
	all = all[offset:]
	if height > 0 && len(all) > height {
		all = all[:height]
	}
	return all
}
