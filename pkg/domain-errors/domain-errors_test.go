package domainerrors

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/suite"
)

// DomainErrorsSuite tests the domain error primitives.
//
// These are the error primitives used at every trust boundary; the tests pin
// invariants like "wrapped domain errors preserve the original code" and
// "errors.Is matches by code".
type DomainErrorsSuite struct {
	suite.Suite
}

func TestDomainErrorsSuite(t *testing.T) {
	suite.Run(t, new(DomainErrorsSuite))
}

func (s *DomainErrorsSuite) TestErrorInterface() {
	s.Run("returns message when present", func() {
		err := &Error{Code: CodeNotFound, Message: "credential not found"}
		s.Equal("credential not found", err.Error())
	})

	s.Run("returns code when message is empty", func() {
		err := &Error{Code: CodeNotFound}
		s.Equal("not_found", err.Error())
	})
}

func (s *DomainErrorsSuite) TestUnwrap() {
	s.Run("returns wrapped error", func() {
		inner := errors.New("database connection failed")
		err := &Error{Code: CodeInternal, Message: "store error", Err: inner}
		s.Equal(inner, err.Unwrap())
	})

	s.Run("works with errors.Unwrap", func() {
		inner := errors.New("root cause")
		err := &Error{Code: CodeInternal, Err: inner}
		s.Equal(inner, errors.Unwrap(err))
	})
}

func (s *DomainErrorsSuite) TestIsMatching() {
	s.Run("matches by code only", func() {
		err1 := &Error{Code: CodeNotFound, Message: "credential not found"}
		err2 := &Error{Code: CodeNotFound, Message: "issuer not found"}
		s.True(err1.Is(err2))
	})

	s.Run("does not match different codes", func() {
		err1 := &Error{Code: CodeNotFound}
		err2 := &Error{Code: CodeConflict}
		s.False(err1.Is(err2))
	})

	s.Run("does not match non-domain errors", func() {
		err1 := &Error{Code: CodeNotFound}
		err2 := errors.New("not found")
		s.False(err1.Is(err2))
	})

	s.Run("works with errors.Is through chain", func() {
		inner := &Error{Code: CodeNotFound, Message: "original"}
		wrapped := &Error{Code: CodeInternal, Message: "wrapped", Err: inner}
		target := &Error{Code: CodeNotFound}
		s.True(errors.Is(wrapped, target))
	})
}

func (s *DomainErrorsSuite) TestWrapPreservesCode() {
	inner := New(CodeUnauthorized, "caller is not whitelisted")
	wrapped := Wrap(inner, CodeInternal, "issuance failed")

	var domainErr *Error
	s.Require().True(errors.As(wrapped, &domainErr))
	s.Equal(CodeUnauthorized, domainErr.Code)
	s.Equal("issuance failed", domainErr.Message)
}

func (s *DomainErrorsSuite) TestHasCode() {
	err := New(CodeConflict, "credential already revoked")
	s.True(HasCode(err, CodeConflict))
	s.False(HasCode(err, CodeNotFound))
	s.False(HasCode(errors.New("plain"), CodeConflict))
}
