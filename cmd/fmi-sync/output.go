package main

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"iter"
	"os"
	"strings"
)

func collectForCLI[T any](seq iter.Seq2[*T, error], marshal func(*T) ([]byte, error)) ([][]byte, error) {
	var results [][]byte
	for value, err := range seq {
		if err != nil {
			return nil, err
		}
		data, err := marshal(value)
		if err != nil {
			return nil, err
		}
		results = append(results, data)
	}
	return results, nil
}

func printJSONArray(w io.Writer, entries [][]byte) error {
	if _, err := fmt.Fprintln(w, "["); err != nil {
		return err
	}
	for i, entry := range entries {
		if i > 0 {
			if _, err := fmt.Fprintln(w, ","); err != nil {
				return err
			}
		}
		if _, err := fmt.Fprintln(w, string(entry)); err != nil {
			return err
		}
	}
	_, err := fmt.Fprintln(w, "]")
	return err
}

const interactivePageSize = 10

// printJSONArrayInteractive streams seq as a JSON array and pauses after
// every page until Enter is read from in; "q" stops early.
func printJSONArrayInteractive[T any](w io.Writer, in io.Reader, seq iter.Seq2[*T, error], marshal func(*T) ([]byte, error)) error {
	if _, err := fmt.Fprintln(w, "["); err != nil {
		return err
	}

	reader := bufio.NewReader(in)
	processed := 0
	var iterErr error

	for value, err := range seq {
		if err != nil {
			iterErr = err
			break
		}
		data, err := marshal(value)
		if err != nil {
			iterErr = err
			break
		}
		if processed > 0 {
			if _, err := fmt.Fprintln(w, ","); err != nil {
				iterErr = err
				break
			}
		}
		if _, err := fmt.Fprintln(w, string(data)); err != nil {
			iterErr = err
			break
		}
		processed++

		if processed%interactivePageSize == 0 {
			fmt.Fprint(os.Stderr, "Press Enter to continue, or type 'q' to quit: ")
			input, err := reader.ReadString('\n')
			if err != nil && !errors.Is(err, io.EOF) {
				iterErr = err
				break
			}
			if strings.EqualFold(strings.TrimSpace(input), "q") {
				break
			}
		}
	}

	if _, err := fmt.Fprintln(w, "]"); err != nil && iterErr == nil {
		iterErr = err
	}
	return iterErr
}
