package latex

import (
	"strings"
	"testing"
)

func TestRender_basic(t *testing.T) {
	e := NewEngine()
	tests := []struct {
		name     string
		fragment string
		want     string
	}{
		{"empty", "", ""},
		{"plain identifiers", "x + y = z", "x + y = z"},
		{"greek", `\alpha + \beta = \gamma`, "α + β = γ"},
		{"uppercase greek", `\Delta \Sigma \Omega`, "Δ Σ Ω"},
		{"relations", `a \le b \ne c`, "a ≤ b ≠ c"},
		{"arrows", `f: X \to Y`, "f: X → Y"},
		{"operators", `a \times b \pm c`, "a × b ± c"},
		{"named function", `\sin(x) + \cos(y)`, "sin(x) + cos(y)"},
		{"infinity", `\lim n \to \infty`, "lim n → ∞"},
		{"escaped chars", `100\% \& \$5`, "100% & $5"},
		{"spacing commands", `a\,b\;c`, "a b c"},
		{"collapsed spaces", "a    b", "a b"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := e.Render(tt.fragment)
			if err != nil {
				t.Fatalf("Render(%q) error: %v", tt.fragment, err)
			}
			if got != tt.want {
				t.Errorf("Render(%q) = %q, want %q", tt.fragment, got, tt.want)
			}
		})
	}
}

func TestRender_scripts(t *testing.T) {
	e := NewEngine()
	tests := []struct {
		name     string
		fragment string
		want     string
	}{
		{"squared", `E = mc^2`, "E = mc²"},
		{"braced run", `x^{10}`, "x¹⁰"},
		{"subscript index", `x_i`, "xᵢ"},
		{"subscript expression", `a_{n+1}`, "aₙ₊₁"},
		{"negative exponent", `x^{-1}`, "x⁻¹"},
		{"command argument", `x^\alpha`, "x^α"},
		{"unmappable multichar", `x_{foo}`, "x_(foo)"},
		{"transpose", `A^T`, "Aᵀ"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := e.Render(tt.fragment)
			if err != nil {
				t.Fatalf("Render(%q) error: %v", tt.fragment, err)
			}
			if got != tt.want {
				t.Errorf("Render(%q) = %q, want %q", tt.fragment, got, tt.want)
			}
		})
	}
}

func TestRender_structures(t *testing.T) {
	e := NewEngine()
	tests := []struct {
		name     string
		fragment string
		want     string
	}{
		{"vulgar fraction", `\frac{1}{2}`, "½"},
		{"plain fraction", `\frac{x}{y}`, "x/y"},
		{"grouped numerator", `\frac{a+b}{c}`, "(a+b)/c"},
		{"mixed number", `1\frac{1}{2}`, "1 ½"},
		{"square root", `\sqrt{2}`, "√2̅"},
		{"cube root", `\sqrt[3]{8}`, "∛8̅"},
		{"vector accent", `\vec{v}`, "v⃗"},
		{"bar accent", `\bar{x}`, "x̄"},
		{"blackboard", `\mathbb{R}^n`, "ℝⁿ"},
		{"bold style", `\mathbf{x}`, "𝐱"},
		{"roman passthrough", `\mathrm{d}x`, "dx"},
		{"text passthrough", `\text{speed} = 5`, "speed = 5"},
		{"sized parens", `\left( \frac{a}{b} \right)`, "( a/b )"},
		{"invisible delimiter", `\left. x \right|`, " x |"},
		{"binomial", `\binom{n}{k}`, "C(n,k)"},
		{"negated relation", `\not=`, "≠"},
		{"negated membership", `x \not\in S`, "x ∉ S"},
		{"modular", `7\pmod{3}`, "7 (mod 3)"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := e.Render(tt.fragment)
			if err != nil {
				t.Fatalf("Render(%q) error: %v", tt.fragment, err)
			}
			if got != tt.want {
				t.Errorf("Render(%q) = %q, want %q", tt.fragment, got, tt.want)
			}
		})
	}
}

func TestRender_environments(t *testing.T) {
	e := NewEngine()

	got, err := e.Render(`\begin{pmatrix} 1 & 2 \\ 3 & 4 \end{pmatrix}`)
	if err != nil {
		t.Fatalf("pmatrix error: %v", err)
	}
	if want := "(1  2\n3  4)"; got != want {
		t.Errorf("pmatrix = %q, want %q", got, want)
	}

	got, err = e.Render(`\begin{cases} x & x > 0 \\ 0 & \text{otherwise} \end{cases}`)
	if err != nil {
		t.Fatalf("cases error: %v", err)
	}
	if want := "⎧ x, x > 0\n⎩ 0, otherwise"; got != want {
		t.Errorf("cases = %q, want %q", got, want)
	}

	got, err = e.Render(`\begin{align} a &= b \\ c &= d \end{align}`)
	if err != nil {
		t.Fatalf("align error: %v", err)
	}
	if want := "a = b\nc = d"; got != want {
		t.Errorf("align = %q, want %q", got, want)
	}
}

func TestRender_unknownCommandFails(t *testing.T) {
	e := NewEngine()
	fragments := []string{
		`\unknowncmd{x}`,
		`\frac{\weird}{2}`,
		`x + \mysterious`,
		`\begin{tabular} a \end{tabular}`,
	}
	for _, f := range fragments {
		if _, err := e.Render(f); err == nil {
			t.Errorf("Render(%q) succeeded, want error", f)
		}
	}
}

func TestRender_errorNamesCommand(t *testing.T) {
	e := NewEngine()
	_, err := e.Render(`a \bogus b \alsobogus c`)
	if err == nil {
		t.Fatal("want error")
	}
	if !strings.Contains(err.Error(), `\bogus`) {
		t.Errorf("error %q does not name the first unknown command", err)
	}
}
