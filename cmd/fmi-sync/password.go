package main

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"strings"

	"golang.org/x/term"
)

// resolvePassword returns pwd when set, else the first cell of the CSV file
// at path, else whatever prompt reads.
func resolvePassword(pwd, path string, prompt func() (string, error)) (string, error) {
	if pwd != "" {
		return pwd, nil
	}

	p, err := readPasswordFile(path)
	switch {
	case err == nil:
		return p, nil
	case !errors.Is(err, fs.ErrNotExist):
		return "", err
	}

	fmt.Fprintln(os.Stderr, "Password not given as an argument and no password file found")
	return prompt()
}

func readPasswordFile(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1
	record, err := r.Read()
	if errors.Is(err, io.EOF) {
		return "", fmt.Errorf("password file %s is empty", path)
	}
	if err != nil {
		return "", fmt.Errorf("reading password file %s: %w", path, err)
	}
	p := strings.TrimSpace(record[0])
	if p == "" {
		return "", fmt.Errorf("password file %s is empty", path)
	}
	return p, nil
}

func promptPassword() (string, error) {
	fmt.Fprint(os.Stderr, "Password: ")
	b, err := term.ReadPassword(int(os.Stdin.Fd()))
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return "", fmt.Errorf("reading password: %w", err)
	}
	return string(b), nil
}
