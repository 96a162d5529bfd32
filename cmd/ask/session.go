package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/SaiNageswarS/crag-boot/workflow"
)

type runner interface {
	Run(ctx context.Context, initial workflow.State, opts ...workflow.RunOption) (*workflow.State, error)
}

// session is the interactive question loop.
type session struct {
	runner            runner
	in                io.Reader
	out               io.Writer
	defaultMaxRetries int
	webSearch         bool
}

// loop reads questions until EOF or "exit". A non-negative fixedRetries skips the retry prompt.
func (s *session) loop(ctx context.Context, fixedRetries int) error {
	scanner := bufio.NewScanner(s.in)
	for {
		fmt.Fprint(s.out, "\nEnter your question (or 'exit' to quit): ")
		if !scanner.Scan() {
			return scanner.Err()
		}
		question := strings.TrimSpace(scanner.Text())
		if question == "" {
			continue
		}
		if strings.EqualFold(question, "exit") || strings.EqualFold(question, "quit") {
			return nil
		}

		maxRetries := fixedRetries
		if maxRetries < 0 {
			fmt.Fprintf(s.out, "Enter max retries (default %d): ", s.defaultMaxRetries)
			input := ""
			if scanner.Scan() {
				input = scanner.Text()
			}
			var notice string
			maxRetries, notice = parseMaxRetries(input, s.defaultMaxRetries)
			if notice != "" {
				fmt.Fprintln(s.out, notice)
			}
		}

		if err := s.ask(ctx, question, maxRetries); err != nil {
			fmt.Fprintf(s.out, "Error: %v\n", err)
			if ctx.Err() != nil {
				return ctx.Err()
			}
		}
	}
}

func (s *session) ask(ctx context.Context, question string, maxRetries int) error {
	var opts []workflow.RunOption
	if !s.webSearch {
		opts = append(opts, workflow.WithWebSearchDisabled())
	}

	st, err := s.runner.Run(ctx, workflow.NewState(question, maxRetries), opts...)
	if err != nil {
		return err
	}

	answer := st.Answer()
	if answer == "" {
		answer = "No answer generated."
	}

	fmt.Fprintf(s.out, "\nQuestion: %s\n", question)
	fmt.Fprintf(s.out, "Answer: %s\n", answer)
	fmt.Fprintf(s.out, "Based on %d documents\n", len(st.Documents))
	if st.Status == workflow.StatusExhausted {
		fmt.Fprintln(s.out, "Note: retries were exhausted before a useful answer was found.")
	}
	return nil
}

// parseMaxRetries falls back to def on blank or invalid input; the notice explains a fallback
// caused by invalid input.
func parseMaxRetries(input string, def int) (int, string) {
	input = strings.TrimSpace(input)
	if input == "" {
		return def, ""
	}
	n, err := strconv.Atoi(input)
	if err != nil || n < 0 {
		return def, fmt.Sprintf("Invalid input, using default value of %d", def)
	}
	return n, ""
}

// progressReporter prints one line per node and decision.
type progressReporter struct {
	out io.Writer
}

func (p *progressReporter) Send(event *workflow.Event) error {
	switch event.Type {
	case workflow.EventNodeStarted:
		_, err := fmt.Fprintf(p.out, "---%s---\n", strings.ToUpper(event.Node.String()))
		return err
	case workflow.EventDecision:
		_, err := fmt.Fprintf(p.out, "---DECISION: %s---\n", strings.ToUpper(string(event.Decision)))
		return err
	}
	return nil
}
