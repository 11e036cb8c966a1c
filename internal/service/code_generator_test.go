package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	appErrors "github.com/noah-isme/academy-billing-api/pkg/errors"
)

type codeLookupFunc func(ctx context.Context, code string) (bool, error)

func (f codeLookupFunc) CodeExists(ctx context.Context, code string) (bool, error) {
	return f(ctx, code)
}

func TestGenerateBuildsCodeFromAttributes(t *testing.T) {
	g := NewCodeGenerator()
	lookup := codeLookupFunc(func(ctx context.Context, code string) (bool, error) {
		return false, nil
	})

	code, err := g.Generate(context.Background(), lookup, CodeInput{
		AdmissionName: "2026 I",
		AreaName:      "Science",
		FirstName:     "John",
		LastName:      "Doe",
	})
	require.NoError(t, err)
	assert.Equal(t, "2026-I-SCIENCE-JODO-001", code)
}

func TestGenerateSkipsTakenSuffixes(t *testing.T) {
	g := NewCodeGenerator()
	taken := map[string]bool{
		"A-B-JODO-001": true,
		"A-B-JODO-002": true,
	}
	lookup := codeLookupFunc(func(ctx context.Context, code string) (bool, error) {
		return taken[code], nil
	})

	code, err := g.Generate(context.Background(), lookup, CodeInput{
		AdmissionName: "a",
		AreaName:      "b",
		FirstName:     "John",
		LastName:      "Doe",
	})
	require.NoError(t, err)
	assert.Equal(t, "A-B-JODO-003", code)
}

func TestGenerateRejectsMissingAttributes(t *testing.T) {
	g := NewCodeGenerator()
	lookup := codeLookupFunc(func(ctx context.Context, code string) (bool, error) {
		return false, nil
	})

	_, err := g.Generate(context.Background(), lookup, CodeInput{
		AdmissionName: "2026",
		AreaName:      "  ",
		FirstName:     "John",
		LastName:      "Doe",
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestGenerateExhaustsSuffixSpace(t *testing.T) {
	g := NewCodeGenerator()
	g.maxProbes = 5
	lookup := codeLookupFunc(func(ctx context.Context, code string) (bool, error) {
		return true, nil
	})

	_, err := g.Generate(context.Background(), lookup, CodeInput{
		AdmissionName: "A",
		AreaName:      "B",
		FirstName:     "Jo",
		LastName:      "Do",
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrConflict.Code, appErrors.FromError(err).Code)
}

func TestGenerateShortNames(t *testing.T) {
	g := NewCodeGenerator()
	lookup := codeLookupFunc(func(ctx context.Context, code string) (bool, error) {
		return false, nil
	})

	code, err := g.Generate(context.Background(), lookup, CodeInput{
		AdmissionName: "A",
		AreaName:      "B",
		FirstName:     "X",
		LastName:      "Y",
	})
	require.NoError(t, err)
	assert.Equal(t, "A-B-XY-001", code)
}
