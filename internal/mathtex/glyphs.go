package mathtex

// glyphPair maps one LaTeX command to its replacement glyph.
type glyphPair struct {
	Cmd   string
	Glyph string
}

// greekGlyphs is applied before symbolGlyphs. Substitution is
// sequential in slice order, so a command that is a prefix of a later
// one is rewritten first (\le before \leftarrow); that matches the
// established behavior and is left alone.
var greekGlyphs = []glyphPair{
	{`\alpha`, "α"}, {`\Alpha`, "Α"},
	{`\beta`, "β"}, {`\Beta`, "Β"},
	{`\gamma`, "γ"}, {`\Gamma`, "Γ"},
	{`\delta`, "δ"}, {`\Delta`, "Δ"},
	{`\epsilon`, "ε"}, {`\varepsilon`, "ε"}, {`\Epsilon`, "Ε"},
	{`\zeta`, "ζ"}, {`\eta`, "η"}, {`\theta`, "θ"}, {`\vartheta`, "ϑ"},
	{`\iota`, "ι"}, {`\kappa`, "κ"}, {`\lambda`, "λ"}, {`\Lambda`, "Λ"},
	{`\mu`, "μ"}, {`\nu`, "ν"}, {`\xi`, "ξ"}, {`\Xi`, "Ξ"},
	{`\pi`, "π"}, {`\Pi`, "Π"}, {`\rho`, "ρ"}, {`\sigma`, "σ"},
	{`\tau`, "τ"}, {`\upsilon`, "υ"}, {`\Upsilon`, "Υ"},
	{`\phi`, "φ"}, {`\varphi`, "ϕ"}, {`\Phi`, "Φ"},
	{`\chi`, "χ"}, {`\psi`, "ψ"}, {`\Psi`, "Ψ"}, {`\omega`, "ω"}, {`\Omega`, "Ω"},
}

var symbolGlyphs = []glyphPair{
	{`\infty`, "∞"}, {`\pm`, "±"}, {`\mp`, "∓"},
	{`\sum`, "∑"}, {`\prod`, "∏"}, {`\int`, "∫"},
	{`\partial`, "∂"}, {`\nabla`, "∇"}, {`\sqrt`, "√"},
	{`\approx`, "≈"}, {`\neq`, "≠"}, {`\le`, "≤"}, {`\ge`, "≥"},
	{`\times`, "×"}, {`\div`, "÷"}, {`\to`, "→"}, {`\leftarrow`, "←"},
}
