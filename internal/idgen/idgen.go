// Package idgen allocates entry identifiers.
//
// An ID is <date>-<slug>-<disambiguator>: the date component uses the
// repository's configured format at day granularity, the slug is derived
// from the title, and the disambiguator is a six character base36 counter
// seeded from the wall clock once per process. IDs allocated in one run
// sort in allocation order when date and slug agree; across runs the
// ordering is best-effort only. Everyone else treats IDs as opaque.
package idgen

import (
	"strconv"
	"strings"
	"sync/atomic"
	"time"

	"github.com/starford/ansuz/internal/models"
)

const (
	maxSlugLen  = 40
	disambigLen = 6
	// disambigSpace is 36^disambigLen; the counter wraps inside it.
	disambigSpace = 2176782336
)

// Allocator produces unique entry IDs for one process run.
type Allocator struct {
	dateFormat string
	counter    atomic.Uint64
}

// New returns an allocator using the given Go time layout for the date
// component. The counter is seeded from milliseconds since midnight so
// two runs in the same day are unlikely to collide.
func New(dateFormat string) *Allocator {
	a := &Allocator{dateFormat: dateFormat}
	now := time.Now()
	midnight := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	a.counter.Store(uint64(now.Sub(midnight).Milliseconds()))
	return a
}

// Allocate produces the next ID for the given kind and title. Distinct
// calls always yield distinct IDs within a run, identical title and day
// included.
func (a *Allocator) Allocate(kind models.Kind, title string, now time.Time) string {
	slug := Slugify(title)
	if slug == "" {
		slug = string(kind)
	}
	n := a.counter.Add(1) % disambigSpace
	return now.Format(a.dateFormat) + "-" + slug + "-" + encodeDisambig(n)
}

// Slugify lowercases the title, collapses every run of non-alphanumeric
// characters into a single hyphen and bounds the result.
func Slugify(title string) string {
	var b strings.Builder
	b.Grow(len(title))
	pendingSep := false
	for _, r := range strings.ToLower(title) {
		alnum := (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9')
		if !alnum {
			pendingSep = b.Len() > 0
			continue
		}
		if pendingSep {
			b.WriteByte('-')
			pendingSep = false
		}
		b.WriteRune(r)
	}
	slug := b.String()
	if len(slug) > maxSlugLen {
		slug = strings.TrimRight(slug[:maxSlugLen], "-")
	}
	return slug
}

func encodeDisambig(n uint64) string {
	s := strconv.FormatUint(n, 36)
	if len(s) < disambigLen {
		s = strings.Repeat("0", disambigLen-len(s)) + s
	}
	return s
}
