/*
Author: KleaSCM
Email: KleaSCM@gmail.com
File: wordlist.go
Description: Line-delimited token lists for fuzz vectors, keywords, guess paths, usernames and
passwords. One token per line, order preserved.
*/

package wordlist

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"
)

// Load reads the list at path. An empty path means the list is not configured
// and yields an empty list; a configured path that cannot be read is an error.
func Load(path string) ([]string, error) {
	if path == "" {
		return nil, nil
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open wordlist: %w", err)
	}
	defer f.Close()

	tokens, err := Read(f)
	if err != nil {
		return nil, fmt.Errorf("read wordlist %s: %w", path, err)
	}
	return tokens, nil
}

// Read splits r into tokens. Trailing carriage returns are stripped and blank
// lines skipped; other whitespace is part of the token, since fuzz vectors may
// depend on it.
func Read(r io.Reader) ([]string, error) {
	var tokens []string
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := strings.TrimRight(scanner.Text(), "\r")
		if strings.TrimSpace(line) == "" {
			continue
		}
		tokens = append(tokens, line)
	}
	return tokens, scanner.Err()
}
