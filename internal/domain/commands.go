package domain

// CommandDef describes a slash command available at the chat prompt.
type CommandDef struct {
	Name        string
	Args        string // argument placeholder shown in /help, e.g. "<file>"
	Description string
	Group       string // display group for /help
}

// CommandDefs is the single source of truth for all slash commands.
var CommandDefs = []CommandDef{
	// Chat
	{Name: "/clear", Description: "clear conversation history", Group: "chat"},
	{Name: "/model", Args: "[name|list]", Description: "show, switch, or list models", Group: "chat"},
	{Name: "/sessions", Description: "list recent sessions for this directory", Group: "chat"},
	// Files
	{Name: "/read", Args: "<file|url>", Description: "show a file or page and add it as context", Group: "files"},
	{Name: "/write", Args: "<file>", Description: "write the next message to a file", Group: "files"},
	// General
	{Name: "/copy", Description: "copy the last reply to the clipboard", Group: "general"},
	{Name: "/help", Description: "show this help", Group: "general"},
	{Name: "/exit", Description: "quit", Group: "general"},
	{Name: "/quit", Description: "quit", Group: "general"},
}

// CommandGroups defines the display order and labels for help groups.
var CommandGroups = []struct {
	Key   string
	Label string
}{
	{"chat", "Chat"},
	{"files", "Files"},
	{"general", "General"},
}

// FindCommand looks up a command definition by name.
func FindCommand(name string) (CommandDef, bool) {
	for _, c := range CommandDefs {
		if c.Name == name {
			return c, true
		}
	}
	return CommandDef{}, false
}

// CommandNames returns every command name, in definition order, for
// prompt completion.
func CommandNames() []string {
	names := make([]string, 0, len(CommandDefs))
	for _, c := range CommandDefs {
		names = append(names, c.Name)
	}
	return names
}
