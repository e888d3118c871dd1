package commands

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/chzyer/readline"
	"github.com/leapstack-labs/txt2sql/internal/engine"
	"github.com/spf13/cobra"
)

const replPrompt = "txt2sql> "

func runAskREPL(cmd *cobra.Command, cc *CommandContext, eng *engine.Engine) error {
	ctx := cmd.Context()

	// History file lives next to the run history database
	historyFile := filepath.Join(filepath.Dir(cc.Cfg.StatePath), "ask_history")

	completer := readline.NewPrefixCompleter(
		readline.PcItem(".help"),
		readline.PcItem(".schema"),
		readline.PcItem(".retries"),
		readline.PcItem(".quit"),
		readline.PcItem(".exit"),
	)

	rl, err := readline.NewEx(&readline.Config{
		Prompt:          replPrompt,
		HistoryFile:     historyFile,
		AutoComplete:    completer,
		InterruptPrompt: "^C",
		EOFPrompt:       ".quit",
	})
	if err != nil {
		return fmt.Errorf("failed to initialize REPL: %w", err)
	}
	defer func() { _ = rl.Close() }()

	r := cc.Renderer
	r.Printf("txt2sql (%s)\n", eng.Adapter().DescribeConnection())
	r.Println("Ask a question, or type .help for commands, .quit to exit")
	r.Println("")

	session := &replSession{cc: cc, eng: eng, maxAttempts: eng.MaxAttempts()}
	for {
		line, err := rl.Readline()
		if errors.Is(err, readline.ErrInterrupt) {
			continue
		}
		if errors.Is(err, io.EOF) {
			break
		}

		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		if strings.HasPrefix(line, ".") {
			if session.handleDotCommand(ctx, line) {
				break
			}
			continue
		}

		report := eng.Run(ctx, line, engine.WithMaxAttempts(session.maxAttempts))
		if err := renderReport(r, report); err != nil {
			r.Error(fmt.Sprintf("Error: %v", err))
		}
		if err := report.Err(); err != nil {
			r.Error(fmt.Sprintf("Error: %v", err))
		}
		r.Println("")
	}

	return nil
}

// replSession is the mutable state of one interactive session.
type replSession struct {
	cc          *CommandContext
	eng         *engine.Engine
	maxAttempts int
}

// handleDotCommand runs a dot-command and reports whether the session should end.
func (s *replSession) handleDotCommand(ctx context.Context, line string) bool {
	r := s.cc.Renderer
	parts := strings.Fields(line)
	command := strings.ToLower(parts[0])

	switch command {
	case ".quit", ".exit":
		return true

	case ".help":
		printREPLHelp(r.Writer())

	case ".schema":
		schema, err := s.eng.Adapter().DescribeSchema(ctx)
		if err != nil {
			r.Error(fmt.Sprintf("Error: %v", err))
			return false
		}
		r.Println(schema.String())

	case ".retries":
		if len(parts) == 1 {
			r.Printf("max retries: %d\n", s.maxAttempts)
			return false
		}
		var n int
		if _, err := fmt.Sscanf(parts[1], "%d", &n); err != nil || n < 0 {
			r.Error(fmt.Sprintf("Invalid retry count: %s", parts[1]))
			return false
		}
		s.maxAttempts = n
		r.Printf("max retries: %d\n", n)

	default:
		r.Error(fmt.Sprintf("Unknown command: %s (type .help for commands)", command))
	}
	return false
}

func printREPLHelp(w io.Writer) {
	help := `Commands:
  .help           Show this help
  .schema         Show the database schema
  .retries [N]    Show or set the correction attempt limit
  .quit           Exit the session

Anything else is asked as a question.`
	_, _ = fmt.Fprintln(w, help)
}
