package latex

// Symbol tables for the recursive-descent converter. Commands carry
// their leading backslash so table hits need no re-prefixing.

var symbols = map[string]string{
	// Greek
	`\alpha`: "α", `\beta`: "β", `\gamma`: "γ", `\delta`: "δ",
	`\epsilon`: "ε", `\varepsilon`: "ε", `\zeta`: "ζ", `\eta`: "η",
	`\theta`: "θ", `\vartheta`: "ϑ", `\iota`: "ι", `\kappa`: "κ",
	`\lambda`: "λ", `\mu`: "μ", `\nu`: "ν", `\xi`: "ξ",
	`\pi`: "π", `\varpi`: "ϖ", `\rho`: "ρ", `\varrho`: "ϱ",
	`\sigma`: "σ", `\varsigma`: "ς", `\tau`: "τ", `\upsilon`: "υ",
	`\phi`: "φ", `\varphi`: "ϕ", `\chi`: "χ", `\psi`: "ψ", `\omega`: "ω",
	`\Alpha`: "Α", `\Beta`: "Β", `\Gamma`: "Γ", `\Delta`: "Δ",
	`\Epsilon`: "Ε", `\Zeta`: "Ζ", `\Eta`: "Η", `\Theta`: "Θ",
	`\Iota`: "Ι", `\Kappa`: "Κ", `\Lambda`: "Λ", `\Mu`: "Μ",
	`\Nu`: "Ν", `\Xi`: "Ξ", `\Pi`: "Π", `\Rho`: "Ρ",
	`\Sigma`: "Σ", `\Tau`: "Τ", `\Upsilon`: "Υ", `\Phi`: "Φ",
	`\Chi`: "Χ", `\Psi`: "Ψ", `\Omega`: "Ω",

	// Binary operators
	`\pm`: "±", `\mp`: "∓", `\times`: "×", `\div`: "÷",
	`\cdot`: "⋅", `\ast`: "∗", `\star`: "⋆", `\circ`: "∘",
	`\bullet`: "•", `\oplus`: "⊕", `\ominus`: "⊖", `\otimes`: "⊗",
	`\oslash`: "⊘", `\odot`: "⊙", `\wedge`: "∧", `\vee`: "∨",
	`\land`: "∧", `\lor`: "∨", `\cap`: "∩", `\cup`: "∪",
	`\setminus`: "∖", `\sqcap`: "⊓", `\sqcup`: "⊔", `\amalg`: "⨿",
	`\dagger`: "†", `\ddagger`: "‡",

	// Relations
	`\le`: "≤", `\leq`: "≤", `\ge`: "≥", `\geq`: "≥",
	`\ne`: "≠", `\neq`: "≠", `\equiv`: "≡",
	`\approx`: "≈", `\cong`: "≅", `\sim`: "∼", `\simeq`: "≃",
	`\propto`: "∝", `\ll`: "≪", `\gg`: "≫", `\prec`: "≺",
	`\succ`: "≻", `\preceq`: "⪯", `\succeq`: "⪰", `\asymp`: "≍",
	`\doteq`: "≐", `\in`: "∈", `\notin`: "∉", `\ni`: "∋",
	`\subset`: "⊂", `\supset`: "⊃", `\subseteq`: "⊆", `\supseteq`: "⊇",
	`\sqsubseteq`: "⊑", `\sqsupseteq`: "⊒", `\vdash`: "⊢", `\dashv`: "⊣",
	`\models`: "⊨", `\perp`: "⊥", `\parallel`: "∥", `\mid`: "∣",
	`\smile`: "⌣", `\frown`: "⌢", `\bowtie`: "⋈",

	// Arrows
	`\to`: "→", `\gets`: "←", `\rightarrow`: "→", `\leftarrow`: "←",
	`\leftrightarrow`: "↔", `\Rightarrow`: "⇒", `\Leftarrow`: "⇐",
	`\Leftrightarrow`: "⇔", `\implies`: "⟹", `\impliedby`: "⟸",
	`\iff`: "⟺", `\mapsto`: "↦", `\longmapsto`: "⟼",
	`\longrightarrow`: "⟶", `\longleftarrow`: "⟵",
	`\uparrow`: "↑", `\downarrow`: "↓", `\updownarrow`: "↕",
	`\Uparrow`: "⇑", `\Downarrow`: "⇓", `\nearrow`: "↗",
	`\searrow`: "↘", `\swarrow`: "↙", `\nwarrow`: "↖",
	`\hookrightarrow`: "↪", `\hookleftarrow`: "↩",
	`\rightharpoonup`: "⇀", `\leftharpoonup`: "↼",
	`\rightleftharpoons`: "⇌",

	// Big operators
	`\sum`: "∑", `\prod`: "∏", `\coprod`: "∐", `\int`: "∫",
	`\iint`: "∬", `\iiint`: "∭", `\oint`: "∮",
	`\bigcup`: "⋃", `\bigcap`: "⋂", `\bigvee`: "⋁", `\bigwedge`: "⋀",
	`\bigoplus`: "⨁", `\bigotimes`: "⨂", `\bigodot`: "⨀",

	// Delimiters and punctuation
	`\langle`: "⟨", `\rangle`: "⟩", `\lceil`: "⌈", `\rceil`: "⌉",
	`\lfloor`: "⌊", `\rfloor`: "⌋", `\vert`: "|", `\Vert`: "‖",
	`\backslash`: `\`, `\|`: "‖",
	`\{`: "{", `\}`: "}", `\$`: "$", `\%`: "%", `\&`: "&",
	`\#`: "#", `\_`: "_",

	// Dots
	`\dots`: "…", `\ldots`: "…", `\cdots`: "⋯", `\vdots`: "⋮",
	`\ddots`: "⋱",

	// Miscellaneous
	`\infty`: "∞", `\partial`: "∂", `\nabla`: "∇", `\forall`: "∀",
	`\exists`: "∃", `\nexists`: "∄", `\neg`: "¬", `\lnot`: "¬",
	`\emptyset`: "∅", `\varnothing`: "∅", `\aleph`: "ℵ", `\hbar`: "ℏ",
	`\ell`: "ℓ", `\wp`: "℘", `\Re`: "ℜ", `\Im`: "ℑ",
	`\angle`: "∠", `\measuredangle`: "∡", `\triangle`: "△",
	`\square`: "□", `\diamond`: "⋄", `\Box`: "□",
	`\top`: "⊤", `\bot`: "⊥", `\prime`: "′", `\degree`: "°",
	`\therefore`: "∴", `\because`: "∵", `\checkmark`: "✓",
	`\surd`: "√", `\flat`: "♭", `\natural`: "♮", `\sharp`: "♯",
	`\clubsuit`: "♣", `\diamondsuit`: "♢", `\heartsuit`: "♡",
	`\spadesuit`: "♠",

	// Named functions render as plain text
	`\sin`: "sin", `\cos`: "cos", `\tan`: "tan", `\cot`: "cot",
	`\sec`: "sec", `\csc`: "csc", `\arcsin`: "arcsin",
	`\arccos`: "arccos", `\arctan`: "arctan", `\sinh`: "sinh",
	`\cosh`: "cosh", `\tanh`: "tanh", `\coth`: "coth",
	`\log`: "log", `\ln`: "ln", `\lg`: "lg", `\exp`: "exp",
	`\lim`: "lim", `\limsup`: "lim sup", `\liminf`: "lim inf",
	`\max`: "max", `\min`: "min", `\sup`: "sup", `\inf`: "inf",
	`\det`: "det", `\dim`: "dim", `\ker`: "ker", `\deg`: "deg",
	`\gcd`: "gcd", `\hom`: "hom", `\arg`: "arg", `\Pr`: "Pr",
	`\bmod`: "mod",

	// Spacing
	`\,`: " ", `\;`: " ", `\:`: " ", `\!`: "",
	`\quad`: "  ", `\qquad`: "    ", `\ `: " ", `\\`: "\n",
}

// Unicode script alphabets. A script run converts only when every rune
// has an entry; a partial run falls back to ^(...) or _(...) notation.

var superscripts = map[rune]rune{
	'0': '⁰', '1': '¹', '2': '²', '3': '³', '4': '⁴',
	'5': '⁵', '6': '⁶', '7': '⁷', '8': '⁸', '9': '⁹',
	'+': '⁺', '-': '⁻', '=': '⁼', '(': '⁽', ')': '⁾',
	'a': 'ᵃ', 'b': 'ᵇ', 'c': 'ᶜ', 'd': 'ᵈ', 'e': 'ᵉ',
	'f': 'ᶠ', 'g': 'ᵍ', 'h': 'ʰ', 'i': 'ⁱ', 'j': 'ʲ',
	'k': 'ᵏ', 'l': 'ˡ', 'm': 'ᵐ', 'n': 'ⁿ', 'o': 'ᵒ',
	'p': 'ᵖ', 'r': 'ʳ', 's': 'ˢ', 't': 'ᵗ', 'u': 'ᵘ',
	'v': 'ᵛ', 'w': 'ʷ', 'x': 'ˣ', 'y': 'ʸ', 'z': 'ᶻ',
	'T': 'ᵀ',
}

var subscripts = map[rune]rune{
	'0': '₀', '1': '₁', '2': '₂', '3': '₃', '4': '₄',
	'5': '₅', '6': '₆', '7': '₇', '8': '₈', '9': '₉',
	'+': '₊', '-': '₋', '=': '₌', '(': '₍', ')': '₎',
	'a': 'ₐ', 'e': 'ₑ', 'h': 'ₕ', 'i': 'ᵢ', 'j': 'ⱼ',
	'k': 'ₖ', 'l': 'ₗ', 'm': 'ₘ', 'n': 'ₙ', 'o': 'ₒ',
	'p': 'ₚ', 'r': 'ᵣ', 's': 'ₛ', 't': 'ₜ', 'u': 'ᵤ',
	'v': 'ᵥ', 'x': 'ₓ',
}

// Combining accents. firstChar places the mark on the leading
// non-space rune, allChars repeats it after every rune.

type combineMode int

const (
	firstChar combineMode = iota
	allChars
)

type accent struct {
	Mark rune
	Mode combineMode
}

var accents = map[string]accent{
	`\hat`:       {'̂', firstChar},
	`\check`:     {'̌', firstChar},
	`\breve`:     {'̆', firstChar},
	`\acute`:     {'́', firstChar},
	`\grave`:     {'̀', firstChar},
	`\tilde`:     {'̃', firstChar},
	`\bar`:       {'̄', firstChar},
	`\vec`:       {'⃗', firstChar},
	`\dot`:       {'̇', firstChar},
	`\ddot`:      {'̈', firstChar},
	`\mathring`:  {'̊', firstChar},
	`\overline`:  {'̅', allChars},
	`\underline`: {'̲', allChars},
}

// negations covers \not forms with dedicated codepoints; anything else
// gets a combining long solidus.
var negations = map[string]string{
	"=": "≠", "<": "≮", ">": "≯", "≤": "≰", "≥": "≱",
	"∈": "∉", "∋": "∌", "⊂": "⊄", "⊃": "⊅", "⊆": "⊈", "⊇": "⊉",
	"≡": "≢", "∼": "≁", "≃": "≄", "≈": "≉", "≅": "≇",
	"∣": "∤", "∥": "∦", "→": "↛", "←": "↚", "⇒": "⇏", "⇐": "⇍",
}

// Style alphabets. A nil map means the style has no distinct Unicode
// alphabet and the argument passes through unchanged.

var styles = map[string]map[rune]rune{
	`\mathbb`:     mathbb,
	`\mathbf`:     mathbf,
	`\boldsymbol`: mathbf,
	`\mathcal`:    mathcal,
	`\mathscr`:    mathcal,
	`\mathfrak`:   mathfrak,
	`\mathrm`:     nil,
	`\mathsf`:     nil,
	`\mathtt`:     nil,
	`\mathit`:     nil,
	`\mathnormal`: nil,
}

var mathbb = map[rune]rune{
	'A': '𝔸', 'B': '𝔹', 'C': 'ℂ', 'D': '𝔻', 'E': '𝔼', 'F': '𝔽',
	'G': '𝔾', 'H': 'ℍ', 'I': '𝕀', 'J': '𝕁', 'K': '𝕂', 'L': '𝕃',
	'M': '𝕄', 'N': 'ℕ', 'O': '𝕆', 'P': 'ℙ', 'Q': 'ℚ', 'R': 'ℝ',
	'S': '𝕊', 'T': '𝕋', 'U': '𝕌', 'V': '𝕍', 'W': '𝕎', 'X': '𝕏',
	'Y': '𝕐', 'Z': 'ℤ',
	'0': '𝟘', '1': '𝟙', '2': '𝟚', '3': '𝟛', '4': '𝟜',
	'5': '𝟝', '6': '𝟞', '7': '𝟟', '8': '𝟠', '9': '𝟡',
}

var mathbf = map[rune]rune{
	'A': '𝐀', 'B': '𝐁', 'C': '𝐂', 'D': '𝐃', 'E': '𝐄', 'F': '𝐅',
	'G': '𝐆', 'H': '𝐇', 'I': '𝐈', 'J': '𝐉', 'K': '𝐊', 'L': '𝐋',
	'M': '𝐌', 'N': '𝐍', 'O': '𝐎', 'P': '𝐏', 'Q': '𝐐', 'R': '𝐑',
	'S': '𝐒', 'T': '𝐓', 'U': '𝐔', 'V': '𝐕', 'W': '𝐖', 'X': '𝐗',
	'Y': '𝐘', 'Z': '𝐙',
	'a': '𝐚', 'b': '𝐛', 'c': '𝐜', 'd': '𝐝', 'e': '𝐞', 'f': '𝐟',
	'g': '𝐠', 'h': '𝐡', 'i': '𝐢', 'j': '𝐣', 'k': '𝐤', 'l': '𝐥',
	'm': '𝐦', 'n': '𝐧', 'o': '𝐨', 'p': '𝐩', 'q': '𝐪', 'r': '𝐫',
	's': '𝐬', 't': '𝐭', 'u': '𝐮', 'v': '𝐯', 'w': '𝐰', 'x': '𝐱',
	'y': '𝐲', 'z': '𝐳',
	'0': '𝟎', '1': '𝟏', '2': '𝟐', '3': '𝟑', '4': '𝟒',
	'5': '𝟓', '6': '𝟔', '7': '𝟕', '8': '𝟖', '9': '𝟗',
}

var mathcal = map[rune]rune{
	'A': '𝒜', 'B': 'ℬ', 'C': '𝒞', 'D': '𝒟', 'E': 'ℰ', 'F': 'ℱ',
	'G': '𝒢', 'H': 'ℋ', 'I': 'ℐ', 'J': '𝒥', 'K': '𝒦', 'L': 'ℒ',
	'M': 'ℳ', 'N': '𝒩', 'O': '𝒪', 'P': '𝒫', 'Q': '𝒬', 'R': 'ℛ',
	'S': '𝒮', 'T': '𝒯', 'U': '𝒰', 'V': '𝒱', 'W': '𝒲', 'X': '𝒳',
	'Y': '𝒴', 'Z': '𝒵',
}

var mathfrak = map[rune]rune{
	'A': '𝔄', 'B': '𝔅', 'C': 'ℭ', 'D': '𝔇', 'E': '𝔈', 'F': '𝔉',
	'G': '𝔊', 'H': 'ℌ', 'I': 'ℑ', 'J': '𝔍', 'K': '𝔎', 'L': '𝔏',
	'M': '𝔐', 'N': '𝔑', 'O': '𝔒', 'P': '𝔓', 'Q': '𝔔', 'R': 'ℜ',
	'S': '𝔖', 'T': '𝔗', 'U': '𝔘', 'V': '𝔙', 'W': '𝔚', 'X': '𝔛',
	'Y': '𝔜', 'Z': 'ℨ',
}

// vulgarFractions maps numerator/denominator pairs with precomposed
// glyphs; other fractions print as n/d.
var vulgarFractions = map[[2]string]string{
	{"1", "2"}: "½", {"1", "3"}: "⅓", {"2", "3"}: "⅔",
	{"1", "4"}: "¼", {"3", "4"}: "¾", {"1", "5"}: "⅕",
	{"2", "5"}: "⅖", {"3", "5"}: "⅗", {"4", "5"}: "⅘",
	{"1", "6"}: "⅙", {"5", "6"}: "⅚", {"1", "7"}: "⅐",
	{"1", "8"}: "⅛", {"3", "8"}: "⅜", {"5", "8"}: "⅝",
	{"7", "8"}: "⅞", {"1", "9"}: "⅑", {"1", "10"}: "⅒",
}
