package search

import (
	"context"
	"errors"
	"strings"
	"testing"

	"go.uber.org/zap"

	"github.com/coraldata/fusiondex/internal/domain"
)

func newTestValidator(catalog *mockCatalog) *Validator {
	return NewValidator(catalog, zap.NewNop())
}

func TestValidate_AllPresent(t *testing.T) {
	catalog := &mockCatalog{
		collections: map[string]bool{"movies_embedded_ada": true},
		indexes:     map[string]bool{"vectorIndex": true, "searchIndex": true},
	}

	if err := newTestValidator(catalog).Validate(context.Background(), testSettings()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := []existsCall{
		{kind: "collection", name: "movies_embedded_ada"},
		{kind: "index", name: "vectorIndex"},
		{kind: "index", name: "searchIndex"},
	}
	if len(catalog.calls) != len(want) {
		t.Fatalf("calls = %v", catalog.calls)
	}
	for i, c := range want {
		if catalog.calls[i] != c {
			t.Errorf("call %d = %v, want %v", i, catalog.calls[i], c)
		}
	}
}

func TestValidate_MissingCollectionShortCircuits(t *testing.T) {
	catalog := &mockCatalog{
		indexes: map[string]bool{"vectorIndex": true, "searchIndex": true},
	}

	err := newTestValidator(catalog).Validate(context.Background(), testSettings())
	if !errors.Is(err, domain.ErrPreconditionFailed) {
		t.Fatalf("expected ErrPreconditionFailed, got %v", err)
	}
	if !strings.Contains(err.Error(), "movies_embedded_ada") {
		t.Errorf("error must name the collection: %q", err.Error())
	}
	if len(catalog.calls) != 1 {
		t.Errorf("index checks must not run after a missing collection: %v", catalog.calls)
	}
}

func TestValidate_MissingTextIndexNamed(t *testing.T) {
	catalog := &mockCatalog{
		collections: map[string]bool{"movies_embedded_ada": true},
		indexes:     map[string]bool{"vectorIndex": true},
	}

	err := newTestValidator(catalog).Validate(context.Background(), testSettings())

	var pre *domain.PreconditionError
	if !errors.As(err, &pre) {
		t.Fatalf("expected PreconditionError, got %v", err)
	}
	if pre.Check != domain.PreconditionTextIndex || pre.Name != "searchIndex" {
		t.Errorf("error = %v, want missing text index searchIndex", pre)
	}
}

func TestValidate_MissingVectorIndexCheckedFirst(t *testing.T) {
	// Both indexes missing: the error must name the vector index, the first
	// one checked.
	catalog := &mockCatalog{
		collections: map[string]bool{"movies_embedded_ada": true},
	}

	err := newTestValidator(catalog).Validate(context.Background(), testSettings())

	var pre *domain.PreconditionError
	if !errors.As(err, &pre) {
		t.Fatalf("expected PreconditionError, got %v", err)
	}
	if pre.Check != domain.PreconditionVectorIndex || pre.Name != "vectorIndex" {
		t.Errorf("error = %v, want missing vector index vectorIndex", pre)
	}
	if len(catalog.calls) != 2 {
		t.Errorf("text index must not be checked after the vector index fails: %v", catalog.calls)
	}
}
