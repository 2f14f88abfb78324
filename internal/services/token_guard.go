package services

import "fmt"

// TooLargeError reports content that exceeds the token ceiling
type TooLargeError struct {
	Tokens  int
	Ceiling int
}

func (e *TooLargeError) Error() string {
	return fmt.Sprintf("content too large: %d tokens exceeds ceiling of %d", e.Tokens, e.Ceiling)
}

// TokenGuard rejects content above a fixed token ceiling
type TokenGuard struct {
	counter TokenCounter
	ceiling int
}

// NewTokenGuard creates a guard. A count equal to the ceiling is accepted.
func NewTokenGuard(counter TokenCounter, ceiling int) *TokenGuard {
	return &TokenGuard{counter: counter, ceiling: ceiling}
}

// Ceiling returns the configured limit
func (g *TokenGuard) Ceiling() int {
	return g.ceiling
}

// Check measures text and returns the token count. Content over the ceiling
// yields a *TooLargeError together with the measured count.
func (g *TokenGuard) Check(text string) (int, error) {
	count, err := g.counter.CountTokens(text)
	if err != nil {
		return 0, fmt.Errorf("count tokens: %w", err)
	}
	if count > g.ceiling {
		return count, &TooLargeError{Tokens: count, Ceiling: g.ceiling}
	}
	return count, nil
}
