package analysis

import (
	"fmt"
	"sync"

	"github.com/pkoukk/tiktoken-go"
	tiktoken_loader "github.com/pkoukk/tiktoken-go-loader"
)

// TokenCounter estimates how many model tokens a text occupies.
type TokenCounter interface {
	CountTokens(text string) (int, error)
}

var offlineLoader sync.Once

// TiktokenCounter counts tokens with a tiktoken encoding. The encoding is
// loaded on first use from the BPE files embedded in the binary.
type TiktokenCounter struct {
	encoding string

	once sync.Once
	enc  *tiktoken.Tiktoken
	err  error
}

func NewTiktokenCounter(encoding string) *TiktokenCounter {
	offlineLoader.Do(func() {
		tiktoken.SetBpeLoader(tiktoken_loader.NewOfflineLoader())
	})
	return &TiktokenCounter{encoding: encoding}
}

func (c *TiktokenCounter) CountTokens(text string) (int, error) {
	c.once.Do(func() {
		c.enc, c.err = tiktoken.GetEncoding(c.encoding)
	})
	if c.err != nil {
		return 0, fmt.Errorf("failed to load encoding %s: %w", c.encoding, c.err)
	}
	return len(c.enc.Encode(text, nil, nil)), nil
}
