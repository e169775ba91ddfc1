package repl

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"minidb/sqllang"
)

const prompt = "minidb> "

// Run drives the read-parse-execute loop over in, writing prompts,
// results, and error diagnostics to out. It returns when the user
// issues .exit or in reaches EOF.
func Run(c *Context, in io.Reader, out io.Writer) error {
	scanner := bufio.NewScanner(in)
loop:
	for {
		fmt.Fprint(out, prompt)
		if !scanner.Scan() {
			break
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		if strings.HasPrefix(line, ".") {
			switch c.DoMetaCommand(out, line) {
			case MetaExit:
				break loop
			case MetaUnrecognized:
				fmt.Fprintf(out, "Unrecognized command '%s'\n", line)
			}
			continue
		}

		stmt, err := sqllang.Parse(line)
		if err != nil {
			fmt.Fprintln(out, "Syntax error. Could not parse statement.")
			continue
		}

		result, err := c.Execute(out, stmt)
		if err != nil {
			fmt.Fprintf(out, "Error: %v\n", err)
			continue
		}
		printResult(out, result)
	}

	if err := c.Close(); err != nil {
		return err
	}
	return scanner.Err()
}

func printResult(out io.Writer, result Result) {
	switch result {
	case Success:
		fmt.Fprintln(out, "Executed.")
	case DuplicateKey:
		fmt.Fprintln(out, "Error: Duplicate key.")
	case TableFull:
		fmt.Fprintln(out, "Error: Table full.")
	case NotFound:
		fmt.Fprintln(out, "Error: Row not found.")
	}
}
