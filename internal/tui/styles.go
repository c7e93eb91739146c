package tui

import "github.com/charmbracelet/lipgloss"

var (
	WelcomeStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("213"))
	UserIconStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("111"))
	AsstIconStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("205"))
	PromptStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("183"))
	ThinkingStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("205"))
	HintStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
	RetryStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("179"))

	SuccessStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("114"))
	ErrorLineStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("203"))
	BulletStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("180"))
	HeadingStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("222")).Bold(true)
	CodeGutterStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))

	BoldInlineStyle    = lipgloss.NewStyle().Bold(true)
	ItalicInlineStyle  = lipgloss.NewStyle().Italic(true)
	StrikethroughStyle = lipgloss.NewStyle().Strikethrough(true)
	LinkTextStyle      = lipgloss.NewStyle()
	LinkURLStyle       = lipgloss.NewStyle().Foreground(lipgloss.Color("111"))
	InlineCodeStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("81"))
	HrStyle            = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
	BlockquoteStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
	TableBorderStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
	TableHeaderStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("111"))

	PanelBorderStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
	PanelTitleStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("111")).Bold(true)

	DiffAddStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("114"))
	DiffDelStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("203"))
	DiffMetaStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
)
