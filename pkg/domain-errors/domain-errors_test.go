package domainerrors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/suite"
)

type DomainErrorsSuite struct {
	suite.Suite
}

func TestDomainErrorsSuite(t *testing.T) {
	suite.Run(t, new(DomainErrorsSuite))
}

func (s *DomainErrorsSuite) TestMessageFallsBackToCode() {
	s.Equal("registration not found", New(CodeNotFound, "registration not found").Error())
	s.Equal("not_found", (&Error{Code: CodeNotFound}).Error())
	s.Equal("amount 100 does not match fee 1180", Newf(CodeValidation, "amount %d does not match fee %d", 100, 1180).Error())
}

func (s *DomainErrorsSuite) TestIsMatchesByCode() {
	target := &Error{Code: CodeNotFound}

	s.True(errors.Is(New(CodeNotFound, "competition not found"), target))
	s.False(errors.Is(New(CodeConflict, "already paid"), target))
	s.False((&Error{Code: CodeNotFound}).Is(errors.New("not found")))

	chained := &Error{Code: CodeInternal, Err: New(CodeNotFound, "registration not found")}
	s.True(errors.Is(chained, target))
}

func (s *DomainErrorsSuite) TestWrap() {
	s.Run("keeps a domain code from the chain", func() {
		err := Wrap(New(CodeNotFound, "registration not found"), CodeInternal, "failed to record order")
		s.Equal(CodeNotFound, CodeOf(err))
		s.Equal("failed to record order", err.Error())
	})

	s.Run("applies the code to plain errors", func() {
		root := errors.New("mongo: server selection timeout")
		err := Wrap(root, CodeGateway, "razorpay unavailable")
		s.Equal(CodeGateway, CodeOf(err))
		s.ErrorIs(err, root)
	})

	s.Run("an internal wrap can be upgraded", func() {
		inner := Wrap(errors.New("timeout"), CodeInternal, "store call failed")
		s.Equal(CodeGateway, CodeOf(Wrap(inner, CodeGateway, "capture failed")))
	})
}

func (s *DomainErrorsSuite) TestCodeOf() {
	s.Equal(Code(""), CodeOf(nil))
	s.Equal(CodeInternal, CodeOf(errors.New("boom")))
	s.Equal(CodeConflict, CodeOf(fmt.Errorf("create: %w", New(CodeConflict, "already paid"))))
}

func (s *DomainErrorsSuite) TestHasCodeAndRetryable() {
	s.True(HasCode(fmt.Errorf("verify: %w", New(CodeInvalidSignature, "signature mismatch")), CodeInvalidSignature))
	s.False(HasCode(errors.New("regular"), CodeNotFound))
	s.False(HasCode(nil, CodeNotFound))

	s.True(IsRetryable(Wrap(New(CodeGateway, "order create failed"), CodeInternal, "create order")))
	s.False(IsRetryable(New(CodeInvalidSignature, "signature mismatch")))
	s.False(IsRetryable(New(CodeConflict, "already registered")))
	s.False(IsRetryable(nil))
}
