// Package shell implements an interactive session for inspecting and
// editing a key-value store from a terminal.
package shell

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/picatz/typedstorage"
	"github.com/tidwall/gjson"
	"golang.org/x/term"
)

// CommandFunc defines the function signature for executing a command.
// args is the input following the command name, with surrounding space trimmed.
type CommandFunc func(ctx context.Context, session *Session, args string)

// Command is a named operation available in the session.
type Command struct {
	// Name of the command, matched against the first word of the input.
	Name string

	// Usage shows the arguments, e.g. "<key> <json>".
	Usage string

	// Description of the command.
	Description string

	// Run is the function that executes the command.
	Run CommandFunc
}

// rawKey addresses a stored value without committing to its shape.
func rawKey(name string) typedstorage.Key[json.RawMessage] {
	return typedstorage.NewKey[json.RawMessage](name)
}

// builtinCommands are the commands available in every session.
var builtinCommands = []Command{
	{
		Name:        "exit",
		Description: "Exit the session.",
		// Exiting is a special case, used for documentation.
	},
	{
		Name:        "help",
		Description: "Show help for commands.",
		Run: func(ctx context.Context, s *Session, args string) {
			s.ShowHelp()
		},
	},
	{
		Name:        "clear",
		Description: "Clear the terminal screen.",
		Run: func(ctx context.Context, s *Session, args string) {
			s.clearScreen()
		},
	},
	{
		Name:        "keys",
		Description: "List every key in the store.",
		Run: func(ctx context.Context, s *Session, args string) {
			keys, err := s.Storage.AllKeys(ctx)
			if err != nil {
				s.printf("Error listing keys: %s\n", err)
				return
			}
			if len(keys) == 0 {
				s.printf("No keys.\n")
				return
			}
			for _, key := range keys {
				s.printf("%s\n", key)
			}
		},
	},
	{
		Name:        "get",
		Usage:       "<key>",
		Description: "Show the value stored under a key.",
		Run: func(ctx context.Context, s *Session, args string) {
			if args == "" {
				s.printf("Usage: get <key>\n")
				return
			}

			text, ok, err := s.Storage.GetKey(ctx, args)
			switch {
			case err != nil:
				s.printf("Error reading %q: %s\n", args, err)
			case !ok:
				s.printf("Key %q not found.\n", args)
			case gjson.Valid(text):
				s.printf("%s", gjson.Get(text, "@pretty").Raw)
			default:
				s.printf("%s\n", text)
			}
		},
	},
	{
		Name:        "set",
		Usage:       "<key> <json>",
		Description: "Store a JSON value under a key.",
		Run: func(ctx context.Context, s *Session, args string) {
			key, value, ok := strings.Cut(args, " ")
			value = strings.TrimSpace(value)
			if !ok || value == "" {
				s.printf("Usage: set <key> <json>\n")
				return
			}
			if !gjson.Valid(value) {
				s.printf("Value for %q is not valid JSON.\n", key)
				return
			}

			if err := s.Storage.SetKey(ctx, key, value); err != nil {
				s.printf("Error writing %q: %s\n", key, err)
				return
			}
			s.printf("Stored %q.\n", key)
		},
	},
	{
		Name:        "merge",
		Usage:       "<key> <json object>",
		Description: "Deep merge a JSON object into the value under a key.",
		Run: func(ctx context.Context, s *Session, args string) {
			key, value, ok := strings.Cut(args, " ")
			if !ok {
				s.printf("Usage: merge <key> <json object>\n")
				return
			}

			patch, err := typedstorage.ParsePatch(value)
			if err != nil {
				s.printf("Patch for %q is not a JSON object: %s\n", key, err)
				return
			}

			if err := typedstorage.MergeItem(ctx, s.Storage, rawKey(key), patch); err != nil {
				s.printf("Error merging %q: %s\n", key, err)
				return
			}
			s.printf("Merged %q.\n", key)
		},
	},
	{
		Name:        "rm",
		Usage:       "<key>...",
		Description: "Remove one or more keys.",
		Run: func(ctx context.Context, s *Session, args string) {
			fields := strings.Fields(args)
			if len(fields) == 0 {
				s.printf("Usage: rm <key>...\n")
				return
			}

			keys := make([]typedstorage.AnyKey, 0, len(fields))
			for _, field := range fields {
				keys = append(keys, rawKey(field))
			}

			if err := s.Storage.MultiRemove(ctx, keys...); err != nil {
				s.printf("Error removing keys: %s\n", err)
				return
			}
			s.printf("Removed %d key(s).\n", len(keys))
		},
	},
	{
		Name:        "dump",
		Description: "Show every key and value as a table.",
		Run: func(ctx context.Context, s *Session, args string) {
			table, err := Dump(ctx, s.Storage)
			if err != nil {
				s.printf("Error dumping store: %s\n", err)
				return
			}

			rendered, err := RenderMarkdown(table, "dark", s.TermWidth)
			if err != nil {
				s.printf("%s\n", err)
				return
			}
			s.OutWriter.WriteString(rendered)
		},
	},
	{
		Name:        "wipe",
		Description: "Remove every key from the store.",
		Run: func(ctx context.Context, s *Session, args string) {
			// Prompt the user for confirmation before wiping the store.
			s.OutWriter.WriteString("\nAre you sure you want to remove every key? (y/n): ")
			s.OutWriter.Flush()

			confirmation, err := s.Terminal.ReadLine()
			if err != nil {
				s.printf("Error reading confirmation: %s\n", err)
				return
			}

			if strings.ToLower(strings.TrimSpace(confirmation)) != "y" {
				s.printf("\nStore not wiped.\n")
				return
			}

			if err := s.Storage.Clear(ctx); err != nil {
				s.printf("Error wiping store: %s\n", err)
				return
			}
			s.printf("\nStore wiped.\n")
		},
	},
}

// Session encapsulates the state and behavior of an interactive session.
// It manages terminal I/O and command processing.
type Session struct {
	Storage *typedstorage.Storage

	Terminal   *term.Terminal
	OutWriter  *bufio.Writer
	TermWidth  int
	TermHeight int
	Commands   []Command
}

// NewSession creates and initializes a new session.
//
// When w is a terminal it is put in raw mode, and the returned function
// restores it. Otherwise the returned function does nothing.
func NewSession(ctx context.Context, storage *typedstorage.Storage, r io.Reader, w io.Writer) (*Session, func(), error) {
	var (
		restoreFunc     = func() {} // Default no-op restore function.
		termWidth   int = 80        // Terminal width (default 80).
		termHeight  int = 24        // Terminal height (default 24).
	)

	// If we're running in a terminal, set it to "raw" mode.
	if stdout, ok := w.(*os.File); ok && term.IsTerminal(int(stdout.Fd())) {
		fd := int(stdout.Fd())

		oldState, err := term.MakeRaw(fd)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to set terminal to raw mode: %w", err)
		}

		restoreFunc = func() {
			if err := term.Restore(fd, oldState); err != nil {
				fmt.Fprintf(os.Stderr, "\nfailed to restore terminal: %s\n", err)
			}
		}

		termWidth, termHeight, err = term.GetSize(fd)
		if err != nil {
			restoreFunc()
			return nil, nil, fmt.Errorf("failed to get terminal size while creating new session: %w", err)
		}
	}

	// Combine the reader and writer into a single io.ReadWriter.
	termReadWriter := struct {
		io.Reader
		io.Writer
	}{r, w}

	t := term.NewTerminal(termReadWriter, "")
	t.SetSize(termWidth, termHeight)

	s := &Session{
		Storage:    storage,
		Terminal:   t,
		OutWriter:  bufio.NewWriter(t),
		TermWidth:  termWidth,
		TermHeight: termHeight,
		Commands:   builtinCommands,
	}

	// Set up tab-completion for command names.
	t.AutoCompleteCallback = s.autoComplete

	return s, restoreFunc, nil
}

func (s *Session) printf(format string, args ...any) {
	s.OutWriter.WriteString(fmt.Sprintf(format, args...))
}

// ShowHelp lists the available commands.
func (s *Session) ShowHelp() {
	s.OutWriter.WriteString(lipgloss.NewStyle().Bold(true).Render("Commands") + " " +
		lipgloss.NewStyle().Faint(true).Render("(tab complete)") + "\n\n")

	for _, cmd := range s.Commands {
		usage := cmd.Name
		if cmd.Usage != "" {
			usage += " " + cmd.Usage
		}
		s.OutWriter.WriteString("- " + lipgloss.NewStyle().Faint(true).Render(usage) + ": " + cmd.Description + "\n")
	}

	s.OutWriter.WriteString("\n")
	s.OutWriter.Flush()
}

// Run starts the main loop of the session, until exit or end of input.
func (s *Session) Run(ctx context.Context) {
	s.clearScreen()

	s.OutWriter.WriteString(lipgloss.NewStyle().Bold(true).Render("typedkv shell") + "\n\n")
	s.ShowHelp()

	for {
		done, err := s.RunOnce(ctx)
		if err != nil {
			s.printf("Error: %s\n", err)
			s.OutWriter.Flush()
		}

		if done {
			break
		}
	}
}

func doneWithoutError() (bool, error) {
	return true, nil
}

func nonFatalError(err error) (bool, error) {
	return false, err
}

func fatalError(err error) (bool, error) {
	return true, err
}

func ranSuccessfully() (bool, error) {
	return false, nil
}

// RunOnce reads and executes a single line of input. It reports whether
// the session is done.
func (s *Session) RunOnce(ctx context.Context) (bool, error) {
	s.OutWriter.WriteString("› ")
	s.OutWriter.Flush()

	input, err := s.Terminal.ReadLine()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return doneWithoutError()
		}
		return fatalError(fmt.Errorf("failed to read input: %w", err))
	}

	trimmed := strings.TrimSpace(input)
	switch trimmed {
	case "":
		return ranSuccessfully()
	case "exit":
		return doneWithoutError()
	}

	if !s.processInput(ctx, trimmed) {
		name, _, _ := strings.Cut(trimmed, " ")
		return nonFatalError(fmt.Errorf("unknown command %q, try 'help'", name))
	}
	return ranSuccessfully()
}

// processInput runs the command named by the first word of input. It
// returns false if no command matches.
func (s *Session) processInput(ctx context.Context, input string) bool {
	// Ensure the output writer is flushed after each command execution,
	// to avoid common boilerplate code that each command wants to do.
	defer s.OutWriter.Flush()

	name, args, _ := strings.Cut(input, " ")

	for _, cmd := range s.Commands {
		if cmd.Name == name && cmd.Run != nil {
			cmd.Run(ctx, s, strings.TrimSpace(args))
			return true
		}
	}
	return false
}

// clearScreen clears the terminal.
func (s *Session) clearScreen() {
	s.OutWriter.WriteString("\033[2J") // Clear the screen.
	s.OutWriter.WriteString("\033[H")  // Move cursor to the top-left corner (like 'clear' command).
	s.OutWriter.Flush()
}

func (s *Session) autoComplete(line string, pos int, key rune) (string, int, bool) {
	if key == '\t' {
		for _, cmd := range s.Commands {
			if strings.HasPrefix(cmd.Name, line) {
				return cmd.Name, len(cmd.Name), true
			}
		}
	}
	return line, pos, false
}
