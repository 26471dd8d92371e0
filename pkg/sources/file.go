package sources

import (
	"bufio"
	"bytes"
	"fmt"
	"os"
	"strings"

	"github.com/natefinch/atomic"
)

// ReadPostsFile loads a corpus file with one logical post per line. Lines
// produced by the archive converter keep their surrounding single quotes
// and trailing comma; both are stripped here so either format loads.
func ReadPostsFile(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("could not open corpus file: %w", err)
	}
	defer func(f *os.File) {
		_ = f.Close()
	}(f)

	var posts []string
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		line = strings.TrimSuffix(line, ",")
		line = strings.Trim(line, "'")
		line = strings.TrimSpace(line)
		if line != "" {
			posts = append(posts, line)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("could not read corpus file: %w", err)
	}
	return posts, nil
}

// WritePostsFile writes posts one per line, replacing the file atomically
// so a crash mid-write never leaves a truncated corpus.
func WritePostsFile(path string, posts []string) error {
	var buf bytes.Buffer
	for _, post := range posts {
		buf.WriteString(post)
		buf.WriteByte('\n')
	}
	if err := atomic.WriteFile(path, &buf); err != nil {
		return fmt.Errorf("could not write corpus file: %w", err)
	}
	return nil
}
