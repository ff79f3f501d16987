// Package codes issues the short external identifiers handed to users at
// registration. A code is a role prefix plus a five-digit random suffix,
// retried until unused.
package codes

import (
	"context"
	"fmt"
	"math/rand"
	"strconv"
	"time"

	"github.com/aydin/tutorhub/internal/pkg/apperrors"
)

const (
	// SupervisorPrefix starts every personal supervisor code.
	SupervisorPrefix = "PS"
	// SeniorTutorPrefix starts every senior tutor code.
	SeniorTutorPrefix = "ST"

	suffixSpace = 100000
	maxAttempts = 1000
)

// ExistsFunc reports whether a candidate code is already allocated.
type ExistsFunc func(ctx context.Context, code string) (bool, error)

// StudentPrefix derives the student code prefix from the year group: a
// yearGroup-N student enrolled N-1 years before the current year, so the
// prefix is their enrollment year.
func StudentPrefix(yearGroup int, now time.Time) string {
	return strconv.Itoa(now.Year() - (yearGroup - 1))
}

// Generate draws uniform five-digit suffixes until one produces an unused
// code. The attempt bound turns a nearly-full code space into an error
// instead of a livelock.
func Generate(ctx context.Context, prefix string, exists ExistsFunc) (string, error) {
	for attempt := 0; attempt < maxAttempts; attempt++ {
		code := fmt.Sprintf("%s%05d", prefix, rand.Intn(suffixSpace))
		taken, err := exists(ctx, code)
		if err != nil {
			return "", fmt.Errorf("error checking code availability: %w", err)
		}
		if !taken {
			return code, nil
		}
	}
	return "", apperrors.NewCustomError(apperrors.ErrCodeSpaceExhausted,
		"could not find a free code with prefix "+prefix)
}
