package clients

import (
	"fmt"
	"sync"

	"github.com/pkoukk/tiktoken-go"
)

// fallbackEncoding is used for models tiktoken does not know
const fallbackEncoding = "cl100k_base"

// TiktokenCounter counts tokens with the encoding of a completion model.
// The encoding is loaded on first use.
type TiktokenCounter struct {
	model string

	once sync.Once
	enc  *tiktoken.Tiktoken
	err  error
}

// NewTiktokenCounter creates a counter for model
func NewTiktokenCounter(model string) *TiktokenCounter {
	return &TiktokenCounter{model: model}
}

func (c *TiktokenCounter) load() {
	enc, err := tiktoken.EncodingForModel(c.model)
	if err != nil {
		enc, err = tiktoken.GetEncoding(fallbackEncoding)
	}
	if err != nil {
		c.err = fmt.Errorf("load tiktoken encoding for %s: %w", c.model, err)
		return
	}
	c.enc = enc
}

// CountTokens returns the number of tokens text encodes to
func (c *TiktokenCounter) CountTokens(text string) (int, error) {
	c.once.Do(c.load)
	if c.err != nil {
		return 0, c.err
	}
	return len(c.enc.Encode(text, nil, nil)), nil
}
