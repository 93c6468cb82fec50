// Package console implements an operator REPL that parses lines of text
// into WorldCommands and submits them for execution, mirroring the
// teacher's stdin/go-prompt console almost exactly in shape but dispatching
// through a small domain-specific parser table instead of a generic
// reflection-based command registry.
package console

import (
	"bufio"
	"context"
	"io"
	"log/slog"
	"os"
	"sort"
	"strings"

	prompt "github.com/c-bata/go-prompt"

	"github.com/citysim/simcore/wcmd"
)

const (
	defaultPromptPrefix = "> "
	maxHistoryEntries   = 128
)

// Executor submits a parsed command for execution against the live world
// and reports back whether it was accepted.
type Executor interface {
	Execute(cmd wcmd.Command) error
}

// Parser turns the arguments following a command name into a concrete
// WorldCommand.
type Parser func(args []string) (wcmd.Command, error)

// Console reads operator input (from os.Stdin interactively, or any other
// io.Reader for scripted/test use) and dispatches recognized commands to
// an Executor.
type Console struct {
	exec    Executor
	log     *slog.Logger
	reader  io.Reader
	history []string
	parsers map[string]Parser
}

// New returns a Console bound to exec, reading from os.Stdin by default.
func New(exec Executor, log *slog.Logger) *Console {
	if log == nil {
		log = slog.Default()
	}
	c := &Console{
		exec:    exec,
		log:     log,
		reader:  os.Stdin,
		parsers: make(map[string]Parser),
	}
	registerBuiltins(c)
	return c
}

// WithReader sets a custom reader for the console input, for testing
// without os.Stdin.
func (c *Console) WithReader(r io.Reader) *Console {
	if r != nil {
		c.reader = r
	}
	return c
}

// Register adds or replaces the parser for a command name.
func (c *Console) Register(name string, p Parser) {
	c.parsers[strings.ToLower(name)] = p
}

// Run consumes input until ctx is cancelled or the reader hits EOF.
func (c *Console) Run(ctx context.Context) {
	if c.reader != os.Stdin {
		c.runScanner(ctx)
		return
	}
	c.runInteractive(ctx)
}

func (c *Console) runScanner(ctx context.Context) {
	scanner := bufio.NewScanner(c.reader)
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}
		if !scanner.Scan() {
			if err := scanner.Err(); err != nil {
				c.log.Error("console input error", "err", err)
			}
			return
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		c.execute(line)
	}
}

func (c *Console) runInteractive(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		line := prompt.Input(defaultPromptPrefix, c.complete,
			prompt.OptionTitle("citysim console"),
			prompt.OptionHistory(c.history),
			prompt.OptionPrefix(defaultPromptPrefix),
			prompt.OptionCompletionOnDown(),
			prompt.OptionMaxSuggestion(12),
		)

		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		c.execute(line)
	}
}

func (c *Console) execute(line string) {
	c.history = append(c.history, line)
	if len(c.history) > maxHistoryEntries {
		c.history = c.history[len(c.history)-maxHistoryEntries:]
	}

	fields := strings.Fields(line)
	if len(fields) == 0 {
		return
	}
	name := strings.ToLower(fields[0])
	parser, ok := c.parsers[name]
	if !ok {
		c.log.Warn("unknown console command", "name", name)
		return
	}
	cmd, err := parser(fields[1:])
	if err != nil {
		c.log.Error("console command rejected", "name", name, "err", err)
		return
	}
	if err := c.exec.Execute(cmd); err != nil {
		c.log.Error("console command failed", "name", name, "err", err)
	}
}

func (c *Console) complete(doc prompt.Document) []prompt.Suggest {
	word := doc.GetWordBeforeCursor()
	names := make([]string, 0, len(c.parsers))
	for name := range c.parsers {
		names = append(names, name)
	}
	sort.Strings(names)

	suggestions := make([]prompt.Suggest, 0, len(names))
	for _, name := range names {
		suggestions = append(suggestions, prompt.Suggest{Text: name})
	}
	return prompt.FilterHasPrefix(suggestions, word, true)
}
