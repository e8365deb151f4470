package asset

import (
	"context"
	"math"
	"testing"

	"github.com/stretchr/testify/suite"

	relieferrors "wrldrelief/pkg/relieferrors"
)

type LedgerSuite struct {
	suite.Suite
	ctx    context.Context
	ledger *Ledger
}

func TestLedgerSuite(t *testing.T) {
	suite.Run(t, new(LedgerSuite))
}

func (s *LedgerSuite) SetupTest() {
	s.ctx = context.Background()
	s.ledger = NewLedger("USDT")
}

// SetupSubTest gives every subtest a fresh ledger.
func (s *LedgerSuite) SetupSubTest() {
	s.ledger = NewLedger("USDT")
}

func (s *LedgerSuite) balance(addr string) int64 {
	b, err := s.ledger.BalanceOf(s.ctx, addr)
	s.Require().NoError(err)
	return b
}

func (s *LedgerSuite) TestMintAndTransfer() {
	s.Run("mint credits and transfer moves", func() {
		s.Require().NoError(s.ledger.Mint(s.ctx, "a", 100))
		s.Require().NoError(s.ledger.Transfer(s.ctx, "a", "b", 40))
		s.Equal(int64(60), s.balance("a"))
		s.Equal(int64(40), s.balance("b"))
	})

	s.Run("transfer never overdraws", func() {
		s.Require().NoError(s.ledger.Mint(s.ctx, "a", 10))
		err := s.ledger.Transfer(s.ctx, "a", "b", 11)
		s.Equal(relieferrors.CodePreconditionFailed, relieferrors.CodeOf(err))
		s.Equal(int64(10), s.balance("a"))
		s.Equal(int64(0), s.balance("b"))
	})

	s.Run("rejects non-positive amounts", func() {
		err := s.ledger.Mint(s.ctx, "a", 0)
		s.Equal(relieferrors.CodeInvalidInput, relieferrors.CodeOf(err))

		err = s.ledger.Transfer(s.ctx, "a", "b", -1)
		s.Equal(relieferrors.CodeInvalidInput, relieferrors.CodeOf(err))
	})

	s.Run("rejects empty endpoints", func() {
		s.Require().NoError(s.ledger.Mint(s.ctx, "a", 10))
		err := s.ledger.Transfer(s.ctx, "a", "", 5)
		s.Equal(relieferrors.CodeInvalidInput, relieferrors.CodeOf(err))
	})

	s.Run("mint never overflows a balance", func() {
		s.Require().NoError(s.ledger.Mint(s.ctx, "a", math.MaxInt64))
		err := s.ledger.Mint(s.ctx, "a", 1)
		s.Equal(relieferrors.CodePreconditionFailed, relieferrors.CodeOf(err))
		s.Equal(int64(math.MaxInt64), s.balance("a"))
	})

	s.Run("transfer never overflows the destination", func() {
		s.Require().NoError(s.ledger.Mint(s.ctx, "a", 100))
		s.Require().NoError(s.ledger.Mint(s.ctx, "b", math.MaxInt64))
		err := s.ledger.Transfer(s.ctx, "a", "b", 100)
		s.Equal(relieferrors.CodePreconditionFailed, relieferrors.CodeOf(err))
		s.Equal(int64(100), s.balance("a"))
		s.Equal(int64(math.MaxInt64), s.balance("b"))
	})
}

func (s *LedgerSuite) TestAllowances() {
	s.Run("transferFrom consumes the allowance", func() {
		s.Require().NoError(s.ledger.Mint(s.ctx, "donor", 100))
		s.Require().NoError(s.ledger.Approve(s.ctx, "donor", "campaign:1", 80))

		s.Require().NoError(s.ledger.TransferFrom(s.ctx, "donor", "campaign:1", 50))
		s.Equal(int64(50), s.balance("campaign:1"))

		remaining, err := s.ledger.Allowance(s.ctx, "donor", "campaign:1")
		s.Require().NoError(err)
		s.Equal(int64(30), remaining)
	})

	s.Run("transferFrom beyond the allowance fails", func() {
		s.Require().NoError(s.ledger.Mint(s.ctx, "donor", 100))
		s.Require().NoError(s.ledger.Approve(s.ctx, "donor", "campaign:1", 20))

		err := s.ledger.TransferFrom(s.ctx, "donor", "campaign:1", 21)
		s.Equal(relieferrors.CodePreconditionFailed, relieferrors.CodeOf(err))
		s.Equal(int64(100), s.balance("donor"))
	})

	s.Run("failed transfer leaves the allowance intact", func() {
		// Allowance above balance: the balance check fails after the
		// allowance check, and neither is consumed.
		s.Require().NoError(s.ledger.Mint(s.ctx, "donor", 10))
		s.Require().NoError(s.ledger.Approve(s.ctx, "donor", "campaign:1", 50))

		err := s.ledger.TransferFrom(s.ctx, "donor", "campaign:1", 20)
		s.Require().Error(err)

		remaining, err := s.ledger.Allowance(s.ctx, "donor", "campaign:1")
		s.Require().NoError(err)
		s.Equal(int64(50), remaining)
	})

	s.Run("negative approval is rejected", func() {
		err := s.ledger.Approve(s.ctx, "donor", "campaign:1", -1)
		s.Equal(relieferrors.CodeInvalidInput, relieferrors.CodeOf(err))
	})
}

func (s *LedgerSuite) TestReliefToken() {
	s.Run("mints one governance unit per net donation unit", func() {
		token := NewReliefToken()
		s.Require().NoError(token.MintForDonation(s.ctx, "donor", 970))
		s.Require().NoError(token.MintForDonation(s.ctx, "donor", 30))

		b, err := token.BalanceOf(s.ctx, "donor")
		s.Require().NoError(err)
		s.Equal(int64(1000), b)
	})
}
