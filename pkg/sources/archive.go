package sources

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"
)

// ArchiveStats reports what an archive conversion processed.
type ArchiveStats struct {
	Posts    int // Rows whose text was kept.
	Retweets int // Rows recognized as retweets.
}

// ReadArchive parses a CSV post archive. The first row must be a header;
// post text is taken from the "full_text" column, falling back to "text".
// Rows whose text starts with "RT @" are retweets and are skipped when
// ignoreRetweets is set.
func ReadArchive(r io.Reader, ignoreRetweets bool) ([]string, ArchiveStats, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, ArchiveStats{}, nil
		}
		return nil, ArchiveStats{}, fmt.Errorf("could not read archive header: %w", err)
	}

	textCol := -1
	for i, name := range header {
		if name == "full_text" {
			textCol = i
			break
		}
		if name == "text" && textCol == -1 {
			textCol = i
		}
	}
	if textCol == -1 {
		return nil, ArchiveStats{}, errors.New("archive has no full_text or text column")
	}

	var posts []string
	var stats ArchiveStats
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, stats, fmt.Errorf("could not read archive row: %w", err)
		}
		if textCol >= len(record) {
			continue
		}
		text := strings.TrimSpace(record[textCol])
		if text == "" {
			continue
		}
		if strings.HasPrefix(text, "RT @") {
			stats.Retweets++
			if ignoreRetweets {
				continue
			}
		}
		posts = append(posts, text)
		stats.Posts++
	}
	return posts, stats, nil
}
