package main

import (
	"bufio"
	"context"
	"io"
	"strings"

	"github.com/rs/zerolog"
)

// watchConsole calls stop once an operator types "exit" on in. It returns
// when ctx is done, in is exhausted, or exit was typed.
func watchConsole(ctx context.Context, in io.Reader, stop func(), logger *zerolog.Logger) {
	lines := make(chan string)
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(in)
		for scanner.Scan() {
			select {
			case lines <- scanner.Text():
			case <-ctx.Done():
				return
			}
		}
	}()

	logger.Info().Msg("type 'exit' to close the server")
	for {
		select {
		case <-ctx.Done():
			return
		case line, ok := <-lines:
			if !ok {
				return
			}
			if strings.EqualFold(strings.TrimSpace(line), "exit") {
				logger.Info().Msg("exit requested from console")
				stop()
				return
			}
		}
	}
}
