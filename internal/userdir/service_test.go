package userdir

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	relieferrors "wrldrelief/pkg/relieferrors"
	"wrldrelief/pkg/requestcontext"
)

const adminAddr = "0xadmin"

type DirectoryServiceSuite struct {
	suite.Suite
	ctx context.Context
	svc *Service
}

func TestDirectoryServiceSuite(t *testing.T) {
	suite.Run(t, new(DirectoryServiceSuite))
}

func (s *DirectoryServiceSuite) SetupTest() {
	s.ctx = requestcontext.WithTime(context.Background(), time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC))
	s.svc = NewService(NewInMemoryStore(), slog.New(slog.NewTextHandler(io.Discard, nil)))
	s.Require().NoError(s.svc.Bootstrap(s.ctx, adminAddr, "admin"))
}

// SetupSubTest gives every subtest a fresh service.
func (s *DirectoryServiceSuite) SetupSubTest() {
	s.SetupTest()
}

func (s *DirectoryServiceSuite) TestRegister() {
	s.Run("creates an unverified entry with no roles", func() {
		u, err := s.svc.Register(s.ctx, "0xalice", "Alice")
		s.Require().NoError(err)
		s.False(u.Verified)
		s.Empty(u.Roles)
		s.Zero(u.TotalDonated)
	})

	s.Run("rejects duplicate address", func() {
		_, err := s.svc.Register(s.ctx, "0xbob", "Bob")
		s.Require().NoError(err)

		_, err = s.svc.Register(s.ctx, "0xbob", "Bob again")
		s.Equal(relieferrors.CodeAlreadyExists, relieferrors.CodeOf(err))
	})

	s.Run("rejects missing fields", func() {
		_, err := s.svc.Register(s.ctx, "", "Alice")
		s.Equal(relieferrors.CodeInvalidInput, relieferrors.CodeOf(err))

		_, err = s.svc.Register(s.ctx, "0xcarol", "")
		s.Equal(relieferrors.CodeInvalidInput, relieferrors.CodeOf(err))
	})
}

func (s *DirectoryServiceSuite) TestVerify() {
	s.Run("verifier or admin may verify", func() {
		_, err := s.svc.Register(s.ctx, "0xalice", "Alice")
		s.Require().NoError(err)

		s.Require().NoError(s.svc.Verify(s.ctx, adminAddr, "0xalice"))

		u, err := s.svc.GetUserInfo(s.ctx, "0xalice")
		s.Require().NoError(err)
		s.True(u.Verified)
	})

	s.Run("non-verifier is rejected", func() {
		_, err := s.svc.Register(s.ctx, "0xalice", "Alice")
		s.Require().NoError(err)
		_, err = s.svc.Register(s.ctx, "0xmallory", "Mallory")
		s.Require().NoError(err)

		err = s.svc.Verify(s.ctx, "0xmallory", "0xalice")
		s.Equal(relieferrors.CodeUnauthorized, relieferrors.CodeOf(err))
	})

	s.Run("unknown target", func() {
		err := s.svc.Verify(s.ctx, adminAddr, "0xghost")
		s.Equal(relieferrors.CodeNotFound, relieferrors.CodeOf(err))
	})
}

func (s *DirectoryServiceSuite) TestRoles() {
	s.Run("grant and revoke round trip", func() {
		_, err := s.svc.Register(s.ctx, "0xalice", "Alice")
		s.Require().NoError(err)

		s.Require().NoError(s.svc.GrantRole(s.ctx, adminAddr, "0xalice", RoleDonor))
		ok, err := s.svc.HasRole(s.ctx, "0xalice", RoleDonor)
		s.Require().NoError(err)
		s.True(ok)

		s.Require().NoError(s.svc.RevokeRole(s.ctx, adminAddr, "0xalice", RoleDonor))
		ok, err = s.svc.HasRole(s.ctx, "0xalice", RoleDonor)
		s.Require().NoError(err)
		s.False(ok)
	})

	s.Run("grant requires the admin role", func() {
		_, err := s.svc.Register(s.ctx, "0xalice", "Alice")
		s.Require().NoError(err)

		err = s.svc.GrantRole(s.ctx, "0xalice", "0xalice", RoleAdmin)
		s.Equal(relieferrors.CodeUnauthorized, relieferrors.CodeOf(err))
	})

	s.Run("unknown address holds no roles", func() {
		ok, err := s.svc.HasRole(s.ctx, "0xghost", RoleDonor)
		s.Require().NoError(err)
		s.False(ok)
	})

	s.Run("invalid role is rejected", func() {
		_, err := s.svc.Register(s.ctx, "0xalice", "Alice")
		s.Require().NoError(err)

		err = s.svc.GrantRole(s.ctx, adminAddr, "0xalice", Role("superuser"))
		s.Equal(relieferrors.CodeInvalidInput, relieferrors.CodeOf(err))
	})
}

func (s *DirectoryServiceSuite) TestAccounting() {
	s.Run("donation and received totals accumulate", func() {
		_, err := s.svc.Register(s.ctx, "0xalice", "Alice")
		s.Require().NoError(err)

		s.Require().NoError(s.svc.RecordDonation(s.ctx, "0xalice", 970))
		s.Require().NoError(s.svc.RecordDonation(s.ctx, "0xalice", 30))
		s.Require().NoError(s.svc.RecordReceived(s.ctx, "0xalice", 500))

		u, err := s.svc.GetUserInfo(s.ctx, "0xalice")
		s.Require().NoError(err)
		s.Equal(int64(1000), u.TotalDonated)
		s.Equal(int64(500), u.TotalReceived)
	})

	s.Run("rejects non-positive amounts", func() {
		err := s.svc.RecordDonation(s.ctx, "0xalice", 0)
		s.Equal(relieferrors.CodeInvalidInput, relieferrors.CodeOf(err))
	})

	s.Run("concurrent updates never lose an increment", func() {
		_, err := s.svc.Register(s.ctx, "0xbusy", "Busy")
		s.Require().NoError(err)

		const workers = 16
		var wg sync.WaitGroup
		wg.Add(workers)
		errs := make(chan error, workers)
		for i := 0; i < workers; i++ {
			go func() {
				defer wg.Done()
				errs <- s.svc.RecordDonation(s.ctx, "0xbusy", 10)
			}()
		}
		wg.Wait()
		close(errs)
		for err := range errs {
			s.Require().NoError(err)
		}

		u, err := s.svc.GetUserInfo(s.ctx, "0xbusy")
		s.Require().NoError(err)
		s.Equal(int64(workers*10), u.TotalDonated)
	})
}

func (s *DirectoryServiceSuite) TestBootstrap() {
	s.Run("seeds a verified admin and verifier", func() {
		u, err := s.svc.GetUserInfo(s.ctx, adminAddr)
		s.Require().NoError(err)
		s.True(u.Verified)
		s.True(u.HasRole(RoleAdmin))
		s.True(u.HasRole(RoleVerifier))
	})

	s.Run("idempotent and never demotes", func() {
		s.Require().NoError(s.svc.GrantRole(s.ctx, adminAddr, adminAddr, RoleDonor))
		s.Require().NoError(s.svc.Bootstrap(s.ctx, adminAddr, "admin"))

		u, err := s.svc.GetUserInfo(s.ctx, adminAddr)
		s.Require().NoError(err)
		s.True(u.HasRole(RoleAdmin))
		s.True(u.HasRole(RoleDonor))
	})

	s.Run("empty address is a no-op", func() {
		s.Require().NoError(s.svc.Bootstrap(s.ctx, "", "nobody"))
	})
}
