package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/chzyer/readline"

	"github.com/vegasq/tablecat/output"
	"github.com/vegasq/tablecat/query"
)

// runREPL reads statements interactively until EOF or an exit command.
// Query errors print and the loop continues.
func runREPL(tables map[string]*query.Table, format string, lenient bool) error {
	formatter, err := output.New(format, os.Stdout)
	if err != nil {
		return err
	}

	rl, err := readline.NewEx(&readline.Config{
		Prompt:          "tablecat> ",
		HistoryFile:     historyPath(),
		InterruptPrompt: "^C",
		EOFPrompt:       "exit",
		AutoComplete:    replCompleter(tables),
	})
	if err != nil {
		return fmt.Errorf("failed to start prompt: %w", err)
	}
	defer rl.Close()

	fmt.Printf("Loaded %d table(s). Type help for commands.\n", len(tables))

	for {
		line, err := rl.Readline()
		if err == readline.ErrInterrupt {
			if len(line) == 0 {
				return nil
			}
			continue
		}
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return err
		}

		line = strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(line), ";"))
		if line == "" {
			continue
		}

		switch strings.ToLower(line) {
		case "tables":
			printTables(tables)
			continue
		case "help":
			printHelp()
			continue
		case "exit", "quit":
			return nil
		}

		result, _, err := runQuery(line, tables, lenient)
		if err != nil {
			fmt.Printf("Error: %v\n", err)
			continue
		}
		if err := formatter.Format(result); err != nil {
			fmt.Printf("Error formatting output: %v\n", err)
		}
	}
}

func historyPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(os.TempDir(), ".tablecat_history")
	}
	return filepath.Join(home, ".tablecat_history")
}

func replCompleter(tables map[string]*query.Table) *readline.PrefixCompleter {
	items := []readline.PrefixCompleterInterface{
		readline.PcItem("select"),
		readline.PcItem("tables"),
		readline.PcItem("help"),
		readline.PcItem("exit"),
		readline.PcItem("quit"),
	}
	for _, name := range sortedNames(tables) {
		items = append(items, readline.PcItem(name))
	}
	return readline.NewPrefixCompleter(items...)
}

func printTables(tables map[string]*query.Table) {
	for _, name := range sortedNames(tables) {
		t := tables[name]
		fmt.Printf("%s: %d rows, %d columns (%s)\n",
			name, t.NumRows(), t.NumColumns(), strings.Join(t.Columns(), ", "))
	}
}

func printHelp() {
	fmt.Println("Commands:")
	fmt.Println("  tables          list loaded tables with their columns")
	fmt.Println("  help            show this help")
	fmt.Println("  exit, quit      leave the prompt (Ctrl-D works too)")
	fmt.Println()
	fmt.Println("Anything else runs as SQL, for example:")
	fmt.Println("  select name, score from students where score > 80 order by score desc")
}

func sortedNames(tables map[string]*query.Table) []string {
	names := make([]string, 0, len(tables))
	for name := range tables {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
