package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/chzyer/readline"
	"github.com/mrdg/chordmaker/export"
)

func completer() *readline.PrefixCompleter {
	var items []readline.PrefixCompleterInterface
	for _, cmd := range commands {
		items = append(items, readline.PcItem(cmd.name))
	}
	return readline.NewPrefixCompleter(items...)
}

func repl(env *env, history string) error {
	rl, err := readline.NewEx(&readline.Config{
		Prompt:          "> ",
		HistoryFile:     history,
		AutoComplete:    completer(),
		InterruptPrompt: "^C",
		EOFPrompt:       "exit",
	})
	if err != nil {
		return err
	}
	defer rl.Close()

	done := make(chan struct{})
	defer close(done)
	go printNotices(rl.Stderr(), env.app.notices, env.color, done)

	fmt.Fprintln(rl.Stdout(), env.grid())
	for {
		line, err := rl.Readline()
		if err == io.EOF || err == readline.ErrInterrupt {
			return nil
		}
		if err != nil {
			fmt.Fprintln(rl.Stderr(), err)
			continue
		}
		line = strings.TrimSpace(line)
		if len(line) == 0 {
			continue
		}
		if line == "quit" || line == "exit" {
			return nil
		}
		result, err := env.eval(line)
		if err != nil {
			fmt.Fprintln(rl.Stderr(), err)
			continue
		}
		if result != "" {
			fmt.Fprintln(rl.Stdout(), result)
		}
	}
}

func printNotices(w io.Writer, notices <-chan export.Notice, color bool, done <-chan struct{}) {
	for {
		select {
		case n := <-notices:
			msg := n.Message
			if color {
				switch n.Level {
				case export.Success:
					msg = colorize(msg, colorGreen)
				case export.Error:
					msg = colorize(msg, colorRed)
				}
			}
			fmt.Fprintln(w, msg)
		case <-done:
			return
		}
	}
}
