package constant

import (
	"errors"
	"fmt"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIs_SubCodeMatchesCategory(t *testing.T) {
	err := Errorf(CodeRuleInvalid, "priority must be >= 0")
	assert.True(t, errors.Is(err, ErrValidation))
	assert.False(t, errors.Is(err, ErrNotFound))

	nf := NewError(CodeLinkNotFound)
	assert.True(t, errors.Is(nf, ErrNotFound))
	assert.True(t, errors.Is(fmt.Errorf("unlink: %w", nf), ErrNotFound))

	assert.True(t, errors.Is(NewError(CodeUpstreamTimeout), ErrUpstream))
	assert.False(t, errors.Is(ErrValidation, NewError(CodeRuleInvalid)))
}

func TestWrap_KeepsCause(t *testing.T) {
	err := Wrap(CodeDatabaseError, io.EOF)
	assert.True(t, errors.Is(err, ErrDatabase))
	assert.True(t, errors.Is(err, io.EOF))
	assert.Contains(t, err.Error(), "EOF")
}

func TestWithData_DoesNotMutateSentinel(t *testing.T) {
	e := ErrAmbiguousMatch.WithData([]string{"a", "b"})
	assert.Equal(t, []string{"a", "b"}, e.Data())
	assert.Nil(t, ErrAmbiguousMatch.Data())
	assert.True(t, errors.Is(e, ErrAmbiguousMatch))
}

func TestCodeOf(t *testing.T) {
	assert.Equal(t, CodeSuccess, CodeOf(nil))
	assert.Equal(t, CodeSystemError, CodeOf(errors.New("x")))
	assert.Equal(t, CodeLinkConflict, CodeOf(fmt.Errorf("ctx: %w", ErrLinkConflict)))
	assert.Equal(t, CodeInvalidParams, Category(CodeMissingParams))
	assert.Equal(t, CodeLinkConflict, Category(CodeLinkConflict))
}
