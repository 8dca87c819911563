package cmd

import (
	"os"

	"github.com/mattn/go-isatty"
	"github.com/ttacon/chalk"
)

// colour is true when stdout is a terminal. Redirected output stays plain so
// that json, yaml and piped tables can be parsed
var colour = isatty.IsTerminal(os.Stdout.Fd()) || isatty.IsCygwinTerminal(os.Stdout.Fd())

func paint(c chalk.Color, s string) string {
	if !colour {
		return s
	}
	return c.Color(s)
}

func green(s string) string { return paint(chalk.Green, s) }
func red(s string) string { return paint(chalk.Red, s) }

func bold(s string) string {
	if !colour {
		return s
	}
	return chalk.Bold.TextStyle(s)
}
