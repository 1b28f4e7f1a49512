package course

import (
	"context"
	"crypto/md5"
	"fmt"
	"math/big"
	"net/url"
	"strings"
	"time"

	"github.com/pkg/errors"

	"github.com/trezcool/darasa/core"
	"github.com/trezcool/darasa/core/user"
)

var (
	ErrModeNotFound       = errors.New("course mode not found")
	ErrEnrollmentNotFound = errors.New("enrollment not found")
)

type (
	ModeRepository interface {
		SaveMode(ctx context.Context, mode Mode, exec ...core.DBExecutor) (Mode, error)
		GetMode(ctx context.Context, courseID, slug string, exec ...core.DBExecutor) (Mode, error)
		QueryCourseModes(ctx context.Context, courseID string, exec ...core.DBExecutor) ([]Mode, error)
	}

	EnrollmentRepository interface {
		SaveEnrollment(ctx context.Context, enr Enrollment, exec ...core.DBExecutor) (Enrollment, error)
		GetEnrollment(ctx context.Context, userID, courseID string, exec ...core.DBExecutor) (Enrollment, error)
		QueryUserEnrollments(ctx context.Context, userID string, exec ...core.DBExecutor) ([]Enrollment, error)
	}

	Service struct {
		modeRepo ModeRepository
		enrRepo  EnrollmentRepository
	}
)

func NewService(modeRepo ModeRepository, enrRepo EnrollmentRepository) *Service {
	return &Service{modeRepo: modeRepo, enrRepo: enrRepo}
}

// Enrollment returns usr's enrollment in a course, nil when not enrolled.
func (s *Service) Enrollment(ctx context.Context, usr user.User, courseID string) (*Enrollment, error) {
	enr, err := s.enrRepo.GetEnrollment(ctx, usr.ID, courseID)
	if err != nil {
		if errors.Cause(err) == ErrEnrollmentNotFound {
			return nil, nil
		}
		return nil, err
	}
	return &enr, nil
}

// Modes lists the purchasable modes of a course.
func (s *Service) Modes(ctx context.Context, courseID string) ([]Mode, error) {
	return s.modeRepo.QueryCourseModes(ctx, courseID)
}

// VerifiedUpgradeDeadlineLink formats the ecommerce basket link that upgrades
// usr to the verified mode of a course.
func (s *Service) VerifiedUpgradeDeadlineLink(ctx context.Context, usr user.User, courseID string) (string, error) {
	mode, err := s.modeRepo.GetMode(ctx, courseID, ModeVerified)
	if err != nil {
		return "", err
	}
	return UpgradeURL(usr, mode), nil
}

// UpgradeURL is the ecommerce basket-add link for a purchasable mode.
func UpgradeURL(usr user.User, mode Mode) string {
	root := strings.TrimSuffix(core.Conf.Ecommerce.PublicURLRoot, "/")
	return fmt.Sprintf("%s/basket/add/?sku=%s", root, url.QueryEscape(mode.SKU))
}

// IsModeUpsellable reports whether the enrollment's mode can be upsold to
// verified. An unknown mode (nil enrollment or empty slug) counts as
// upsellable.
func IsModeUpsellable(usr user.User, enr *Enrollment) bool {
	var mode string
	if enr != nil {
		mode = enr.Mode
	}
	return mode == "" || isUpsellMode(mode)
}

// CanShowVerifiedUpgrade reports whether the upgrade-to-verified prompt may be
// shown for an enrollment. The deadline is compared at date granularity, so
// the prompt stays up through the deadline day itself.
func CanShowVerifiedUpgrade(usr user.User, enr *Enrollment) bool {
	if enr == nil {
		return false
	}
	if !IsModeUpsellable(usr, enr) {
		return false
	}
	if enr.UpgradeDeadline == nil {
		return false
	}
	if dateOf(time.Now().UTC()).After(dateOf(enr.UpgradeDeadline.UTC())) {
		return false
	}
	return enr.IsActive && isUpsellMode(enr.Mode)
}

func dateOf(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// CourseHashValue buckets a course key into [0, 100) for percentage-based
// rollout gates. A zero key hashes to 100, which no percentage admits.
func CourseHashValue(courseID string) int {
	if courseID == "" {
		return 100
	}
	sum := md5.Sum([]byte(courseID))
	var n big.Int
	n.SetBytes(sum[:])
	return int(n.Mod(&n, big.NewInt(100)).Int64())
}
