package game

import (
	"embed"
	"errors"
	"io/fs"
	"math/rand"
	"os"
	"strings"
)

//go:embed words/*.txt
var wordsFS embed.FS

// DefaultWordRepeat is how many times the bank is repeated to form a
// session's word sequence.
const DefaultWordRepeat = 10

// LoadWords reads a word list, one word per line. Blank lines and lines
// starting with '#' are skipped. An empty path loads the embedded list.
func LoadWords(path string) ([]string, error) {
	var (
		b   []byte
		err error
	)
	if strings.TrimSpace(path) == "" {
		b, err = fs.ReadFile(wordsFS, "words/en.txt")
	} else {
		b, err = os.ReadFile(path)
	}
	if err != nil {
		return nil, err
	}
	words := parseWords(string(b))
	if len(words) == 0 {
		return nil, errors.New("word list is empty")
	}
	return words, nil
}

func parseWords(raw string) []string {
	var out []string
	for _, line := range strings.Split(raw, "\n") {
		w := strings.TrimSpace(line)
		if w == "" || strings.HasPrefix(w, "#") {
			continue
		}
		out = append(out, w)
	}
	return out
}

// BuildSequence repeats pool repeat times and shuffles the result.
func BuildSequence(pool []string, repeat int, rng *rand.Rand) []string {
	if repeat < 1 {
		repeat = 1
	}
	seq := make([]string, 0, len(pool)*repeat)
	for i := 0; i < repeat; i++ {
		seq = append(seq, pool...)
	}
	rng.Shuffle(len(seq), func(i, j int) {
		seq[i], seq[j] = seq[j], seq[i]
	})
	return seq
}
