// Package importer loads markdown study decks into the knowledge base.
// A deck file is an optional "# Title" heading followed by Q:/A: blocks,
// with "---" separating cards. Each file becomes one note; re-importing
// a file is idempotent, keyed by a content fingerprint per card.
package importer

import (
	"bufio"
	"io"
	"os"
	"strings"
)

const (
	questionPrefix = "Q:"
	answerPrefix   = "A:"
)

// DeckCard is a parsed question/answer pair, before it gains any
// scheduling state.
type DeckCard struct {
	Question string
	Answer   string
}

// Deck is the parsed content of one markdown file.
type Deck struct {
	Title string
	Cards []DeckCard
}

type parseState int

const (
	seeking parseState = iota
	readingQuestion
	readingAnswer
)

// ParseFile reads the deck at path.
func ParseFile(path string) (Deck, error) {
	file, err := os.Open(path)
	if err != nil {
		return Deck{}, err
	}
	defer file.Close()

	return Parse(file)
}

// Parse reads a deck from r. A line starting a new Q: block always
// finishes the current card, so the separator between cards is optional.
func Parse(r io.Reader) (Deck, error) {
	scanner := bufio.NewScanner(r)

	var deck Deck
	var current DeckCard
	var block []string
	state := seeking

	closeBlock := func() {
		if len(block) == 0 {
			return
		}
		content := strings.TrimSpace(strings.Join(block, "\n"))
		switch state {
		case readingQuestion:
			current.Question = content
		case readingAnswer:
			current.Answer = content
		}
		block = nil
	}

	finishCard := func() {
		closeBlock()
		if current.Question != "" && current.Answer != "" {
			deck.Cards = append(deck.Cards, current)
		}
		current = DeckCard{}
		state = seeking
	}

	for scanner.Scan() {
		line := scanner.Text()

		if deck.Title == "" && state == seeking && strings.HasPrefix(line, "# ") {
			deck.Title = strings.TrimSpace(strings.TrimPrefix(line, "# "))
			continue
		}

		if line == "---" {
			finishCard()
			continue
		}

		switch {
		case strings.HasPrefix(line, questionPrefix):
			if state != seeking {
				finishCard()
			}
			state = readingQuestion
			block = append(block, strings.TrimPrefix(line, questionPrefix))
		case strings.HasPrefix(line, answerPrefix):
			closeBlock()
			state = readingAnswer
			block = append(block, strings.TrimPrefix(line, answerPrefix))
		default:
			if state != seeking {
				block = append(block, line)
			}
		}
	}
	finishCard()

	if err := scanner.Err(); err != nil {
		return Deck{}, err
	}
	return deck, nil
}
