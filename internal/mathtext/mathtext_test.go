package mathtext

import (
	"errors"
	"testing"

	"github.com/rs/zerolog"
)

func TestScanDelimited(t *testing.T) {
	spans := ScanDelimited(`solve $x+1$ where $$\int f$$ holds and $y$ too`)
	if len(spans) != 3 {
		t.Fatalf("expected 3 spans, got %d", len(spans))
	}
	if !spans[0].Display || spans[0].Body != `\int f` {
		t.Errorf("block span = %+v", spans[0])
	}
	if spans[1].Display || spans[1].Body != "x+1" {
		t.Errorf("first inline span = %+v", spans[1])
	}
	if spans[2].Body != "y" {
		t.Errorf("second inline span = %+v", spans[2])
	}
}

func TestScanDelimitedNoMath(t *testing.T) {
	if spans := ScanDelimited("price is $ hidden, nothing delimited properly here"); len(spans) != 0 {
		t.Errorf("expected no spans, got %v", spans)
	}
}

func TestMarkupTypesetter(t *testing.T) {
	out, err := MarkupTypesetter{}.Typeset(`see $a^2$ and $$b$$`)
	if err != nil {
		t.Fatal(err)
	}
	want := `see <span class="math math-inline">$a^2$</span> and <span class="math math-display">$$b$$</span>`
	if out != want {
		t.Errorf("got %q, want %q", out, want)
	}
}

func TestLoaderFallsBackOnFactoryError(t *testing.T) {
	loader := NewLoader(func() (Typesetter, error) {
		return nil, errors.New("engine missing")
	}, zerolog.Nop())

	if got := loader.Apply("plain $x$ text"); got != "plain $x$ text" {
		t.Errorf("fallback should pass through, got %q", got)
	}
}

func TestLoaderLoadsOnce(t *testing.T) {
	calls := 0
	loader := NewLoader(func() (Typesetter, error) {
		calls++
		return MarkupTypesetter{}, nil
	}, zerolog.Nop())

	loader.Apply("$a$")
	loader.Apply("$b$")
	if calls != 1 {
		t.Errorf("factory called %d times, want 1", calls)
	}
}
