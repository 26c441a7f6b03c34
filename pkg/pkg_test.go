package pkg

import (
	"errors"
	"io"
	"path/filepath"
	"testing"
)

func TestName(t *testing.T) {
	if Name != "tmplc" {
		t.Errorf("Expected Name to be %q, got %q", "tmplc", Name)
	}
}

func TestVersion(t *testing.T) {
	if Version == "" {
		t.Error("Expected embedded Version to be non-empty")
	}
}

func TestAuthorStruct(t *testing.T) {
	if len(Author) == 0 {
		t.Fatal("Expected Author to have at least one entry")
	}

	for i, author := range Author {
		if author.Name == "" && author.Email == "" {
			t.Errorf("Author[%d] must define at least Name or Email", i)
		}
	}
}

func TestRoot_FromEnvironment(t *testing.T) {
	dir := t.TempDir()
	t.Setenv(RootEnv, dir)

	if got := Root(); got != dir {
		t.Errorf("Expected Root() = %q, got %q", dir, got)
	}
}

func TestRoot_FallsBackToWorkingDirectory(t *testing.T) {
	t.Setenv(RootEnv, "")

	if got := Root(); !filepath.IsAbs(got) && got != "." {
		t.Errorf("Expected absolute working directory or \".\", got %q", got)
	}
}

func TestError_ChainAndIs(t *testing.T) {
	err := ErrReadInput.Wrap(io.ErrUnexpectedEOF)

	if got, want := err.Error(), "failed to read input: unexpected EOF"; got != want {
		t.Errorf("Expected %q, got %q", want, got)
	}

	if !errors.Is(err, ErrReadInput) {
		t.Error("Expected errors.Is to match the sentinel")
	}

	if !errors.Is(err, io.ErrUnexpectedEOF) {
		t.Error("Expected errors.Is to match the wrapped cause")
	}

	if errors.Is(err, ErrWriteOutput) {
		t.Error("Expected errors.Is not to match an unrelated sentinel")
	}

	// Wrapping a shared sentinel must not alias its backing array.
	a := ErrReadInput.Wrapf("a")
	b := ErrReadInput.Wrapf("b")

	if a.Error() == b.Error() {
		t.Errorf("Expected distinct chains, got %q twice", a.Error())
	}
}
