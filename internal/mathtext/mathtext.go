// Package mathtext adapts an optional formula-typesetting capability onto
// rendered question text. When no typesetter can be loaded, everything
// degrades to plain passthrough so rendering is never blocked.
package mathtext

import (
	"fmt"
	"regexp"
	"sync"

	"github.com/rs/zerolog"
)

// Typesetter turns a text container with `$...$` / `$$...$$` delimited
// spans into its typeset form.
type Typesetter interface {
	Typeset(container string) (string, error)
}

// Span is one delimited formula found in a container.
type Span struct {
	Body    string `json:"body"`
	Display bool   `json:"display"` // $$...$$ block vs $...$ inline
}

var (
	blockRe  = regexp.MustCompile(`\$\$([^$]+)\$\$`)
	inlineRe = regexp.MustCompile(`\$([^$\n]+)\$`)
)

// ScanDelimited extracts all formula spans from a container, block
// delimiters first so `$$` is never read as two inline markers.
func ScanDelimited(container string) []Span {
	var spans []Span
	rest := blockRe.ReplaceAllStringFunc(container, func(m string) string {
		spans = append(spans, Span{Body: m[2 : len(m)-2], Display: true})
		return ""
	})
	for _, m := range inlineRe.FindAllStringSubmatch(rest, -1) {
		spans = append(spans, Span{Body: m[1], Display: false})
	}
	return spans
}

// MarkupTypesetter wraps delimited spans in marked containers for
// client-side typesetting. This is the default capability the loader
// produces when nothing richer is injected.
type MarkupTypesetter struct{}

func (MarkupTypesetter) Typeset(container string) (string, error) {
	out := blockRe.ReplaceAllStringFunc(container, func(m string) string {
		return fmt.Sprintf(`<span class="math math-display">%s</span>`, m)
	})
	out = inlineRe.ReplaceAllStringFunc(out, func(m string) string {
		return fmt.Sprintf(`<span class="math math-inline">%s</span>`, m)
	})
	return out, nil
}

// noopTypesetter leaves containers untouched.
type noopTypesetter struct{}

func (noopTypesetter) Typeset(container string) (string, error) { return container, nil }

// Loader resolves a Typesetter lazily and at most once. A failing factory
// downgrades to the no-op typesetter with a single warning; callers never
// see the failure.
type Loader struct {
	factory func() (Typesetter, error)
	log     zerolog.Logger

	once sync.Once
	ts   Typesetter
}

// NewLoader creates a Loader around a typesetter factory. A nil factory
// yields the default markup typesetter.
func NewLoader(factory func() (Typesetter, error), log zerolog.Logger) *Loader {
	if factory == nil {
		factory = func() (Typesetter, error) { return MarkupTypesetter{}, nil }
	}
	return &Loader{
		factory: factory,
		log:     log.With().Str("component", "mathtext").Logger(),
	}
}

// Typesetter returns the loaded capability, loading it on first use.
func (l *Loader) Typesetter() Typesetter {
	l.once.Do(func() {
		ts, err := l.factory()
		if err != nil || ts == nil {
			l.log.Warn().Err(err).Msg("Typesetter unavailable, falling back to passthrough")
			l.ts = noopTypesetter{}
			return
		}
		l.ts = ts
	})
	return l.ts
}

// Apply typesets a container, falling back to the original text if the
// loaded capability errors on this particular input.
func (l *Loader) Apply(container string) string {
	out, err := l.Typesetter().Typeset(container)
	if err != nil {
		l.log.Debug().Err(err).Msg("Typeset failed, returning plain text")
		return container
	}
	return out
}
