package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/pkg/errors"

	"github.com/trezcool/masomo-console/core/listview"
)

// readLine reads one answer from the input; EOF reads as an empty answer.
func (e *env) readLine() (string, error) {
	if e.lines == nil {
		e.lines = bufio.NewReader(e.in)
	}
	line, err := e.lines.ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", errors.Wrap(err, "reading input")
	}
	return strings.TrimSpace(line), nil
}

// confirmer asks y/N on the terminal before destructive mutations, unless --yes was given.
func (e *env) confirmer() listview.Confirmer {
	return listview.ConfirmFunc(func(ctx context.Context, p listview.Prompt) (bool, error) {
		if e.assumeYes {
			return true, nil
		}
		if err := ctx.Err(); err != nil {
			return false, err
		}

		_, _ = fmt.Fprintln(e.out, e.styles.title.Render(p.Title+"?"))
		if p.Diff != "" {
			_, _ = fmt.Fprint(e.out, e.styles.muted.Render(strings.TrimRight(p.Diff, "\n"))+"\n")
		}
		_, _ = fmt.Fprint(e.out, "Proceed? [y/N]: ")
		answer, err := e.readLine()
		if err != nil {
			return false, err
		}
		switch strings.ToLower(answer) {
		case "y", "yes":
			return true, nil
		}
		return false, nil
	})
}
