package trainer

import (
	"io"

	"github.com/samber/lo"
)

// ParseImport reads an externally supplied word list. Malformed lines are dropped and a
// missing counter defaults to zero.
func ParseImport(r io.Reader) (Dictionary, error) {
	return ParseRecord(r, ParseOptions{AllowMissingCount: true})
}

// MergeWords appends incoming words whose lowercase text is not yet known, keeping import
// order. Repeats inside incoming collapse to their first occurrence. The returned slice
// may share its backing array with d.
func MergeWords(d Dictionary, incoming Dictionary) (Dictionary, int) {
	known := d.Keys()
	fresh := lo.UniqBy(incoming, func(w *Word) string { return w.Key() })
	fresh = lo.Filter(fresh, func(w *Word, _ int) bool {
		_, exists := known[w.Key()]
		return !exists
	})
	return append(d, fresh...), len(fresh)
}
