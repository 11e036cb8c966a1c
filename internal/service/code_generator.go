package service

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	appErrors "github.com/noah-isme/academy-billing-api/pkg/errors"
)

// CodeLookup answers whether a candidate student code is already taken.
type CodeLookup interface {
	CodeExists(ctx context.Context, code string) (bool, error)
}

// CodeInput carries the attributes a student code is derived from.
type CodeInput struct {
	AdmissionName string
	AreaName      string
	FirstName     string
	LastName      string
}

// CodeGenerator derives unique student codes of the form
// {ADMISSION}-{AREA}-{INITIALS}-{NNN}.
type CodeGenerator struct {
	maxProbes int
}

var codeWhitespace = regexp.MustCompile(`\s+`)

// NewCodeGenerator constructs a generator probing up to 999 suffixes.
func NewCodeGenerator() *CodeGenerator {
	return &CodeGenerator{maxProbes: 999}
}

// Generate returns the first free code for the given input. The lookup is
// expected to observe uncommitted rows of the caller's transaction so that
// concurrent enrollments race on the database constraint, not here.
func (g *CodeGenerator) Generate(ctx context.Context, lookup CodeLookup, in CodeInput) (string, error) {
	base, err := g.base(in)
	if err != nil {
		return "", err
	}

	for i := 1; i <= g.maxProbes; i++ {
		candidate := fmt.Sprintf("%s-%03d", base, i)
		exists, err := lookup.CodeExists(ctx, candidate)
		if err != nil {
			return "", fmt.Errorf("probe student code %s: %w", candidate, err)
		}
		if !exists {
			return candidate, nil
		}
	}

	return "", appErrors.Clone(appErrors.ErrConflict, fmt.Sprintf("student code space exhausted for prefix %s", base))
}

func (g *CodeGenerator) base(in CodeInput) (string, error) {
	admission := strings.TrimSpace(in.AdmissionName)
	area := strings.TrimSpace(in.AreaName)
	first := strings.TrimSpace(in.FirstName)
	last := strings.TrimSpace(in.LastName)
	if admission == "" || area == "" || first == "" || last == "" {
		return "", appErrors.Clone(appErrors.ErrValidation, "admission, area and student names are required to derive a code")
	}

	initials := leadingLetters(first, 2) + leadingLetters(last, 2)
	base := fmt.Sprintf("%s-%s-%s", admission, area, initials)
	base = codeWhitespace.ReplaceAllString(base, "-")
	return strings.ToUpper(base), nil
}

func leadingLetters(s string, n int) string {
	runes := []rune(s)
	if len(runes) > n {
		runes = runes[:n]
	}
	return string(runes)
}
