// Package sentences provides the reading-speed corpus.
package sentences

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/verte-zerg/macula/internal/model"
)

// ErrEmpty is returned for a corpus without sentences.
var ErrEmpty = errors.New("sentence list is empty")

// Default returns the built-in corpus. Word counts are declared rather than
// derived because compound words joined by a zero-width non-joiner count once.
func Default() []model.Sentence {
	return []model.Sentence{
		{Text: "این یک جمله نمونه برای تست سرعت خواندن است.", WordCount: 9},
		{Text: "لطفاً هر جمله را با سرعت خواندن معمول خود بخوانید.", WordCount: 9},
		{Text: "در این تست فقط زمان خواندن جمله‌ها اندازه‌گیری می‌شود.", WordCount: 9},
		{Text: "این جملات جنبه آموزشی دارند و محتوای پزشکی خاصی ندارند.", WordCount: 11},
	}
}

// Load reads a corpus file. See Parse for the format.
func Load(path string) ([]model.Sentence, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer func() {
		_ = file.Close()
	}()
	out, err := Parse(file)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return out, nil
}

// Parse reads one sentence per line. Blank lines and lines starting with '#'
// are skipped. A line may declare its word count as "count|text"; otherwise
// the count is the number of whitespace-separated words.
func Parse(r io.Reader) ([]model.Sentence, error) {
	var out []model.Sentence
	scanner := bufio.NewScanner(r)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		s, err := parseLine(line)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", lineNo, err)
		}
		out = append(out, s)
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	if len(out) == 0 {
		return nil, ErrEmpty
	}
	return out, nil
}

func parseLine(line string) (model.Sentence, error) {
	if prefix, text, ok := strings.Cut(line, "|"); ok {
		if n, err := strconv.Atoi(strings.TrimSpace(prefix)); err == nil {
			text = strings.TrimSpace(text)
			if n <= 0 {
				return model.Sentence{}, fmt.Errorf("word count %d must be positive", n)
			}
			if text == "" {
				return model.Sentence{}, errors.New("missing sentence text")
			}
			return model.Sentence{Text: text, WordCount: n}, nil
		}
	}
	return model.Sentence{Text: line, WordCount: CountWords(line)}, nil
}

// CountWords counts whitespace-separated words.
func CountWords(text string) int {
	return len(strings.Fields(text))
}
