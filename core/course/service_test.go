package course

import (
	"context"
	"testing"
	"time"

	"github.com/trezcool/darasa/core"
	"github.com/trezcool/darasa/core/user"
)

type fakeModeRepository struct {
	table map[string]*Mode
}

var _ ModeRepository = (*fakeModeRepository)(nil)

func newFakeModeRepository() *fakeModeRepository {
	return &fakeModeRepository{table: make(map[string]*Mode)}
}

func (repo *fakeModeRepository) SaveMode(_ context.Context, mode Mode, _ ...core.DBExecutor) (Mode, error) {
	repo.table[mode.CourseID+"/"+mode.Slug] = &mode
	return mode, nil
}

func (repo *fakeModeRepository) GetMode(_ context.Context, courseID, slug string, _ ...core.DBExecutor) (Mode, error) {
	if mode, ok := repo.table[courseID+"/"+slug]; ok {
		return *mode, nil
	}
	return Mode{}, ErrModeNotFound
}

func (repo *fakeModeRepository) QueryCourseModes(_ context.Context, courseID string, _ ...core.DBExecutor) ([]Mode, error) {
	modes := make([]Mode, 0, len(repo.table))
	for _, mode := range repo.table {
		if mode.CourseID == courseID {
			modes = append(modes, *mode)
		}
	}
	return modes, nil
}

type fakeEnrollmentRepository struct {
	table map[string]*Enrollment
}

var _ EnrollmentRepository = (*fakeEnrollmentRepository)(nil)

func newFakeEnrollmentRepository() *fakeEnrollmentRepository {
	return &fakeEnrollmentRepository{table: make(map[string]*Enrollment)}
}

func (repo *fakeEnrollmentRepository) SaveEnrollment(_ context.Context, enr Enrollment, _ ...core.DBExecutor) (Enrollment, error) {
	repo.table[enr.UserID+"/"+enr.CourseID] = &enr
	return enr, nil
}

func (repo *fakeEnrollmentRepository) GetEnrollment(_ context.Context, userID, courseID string, _ ...core.DBExecutor) (Enrollment, error) {
	if enr, ok := repo.table[userID+"/"+courseID]; ok {
		return *enr, nil
	}
	return Enrollment{}, ErrEnrollmentNotFound
}

func (repo *fakeEnrollmentRepository) QueryUserEnrollments(_ context.Context, userID string, _ ...core.DBExecutor) ([]Enrollment, error) {
	enrs := make([]Enrollment, 0, len(repo.table))
	for _, enr := range repo.table {
		if enr.UserID == userID {
			enrs = append(enrs, *enr)
		}
	}
	return enrs, nil
}

func TestIsModeUpsellable(t *testing.T) {
	usr := user.User{ID: "u1"}
	tests := []struct {
		name string
		enr  *Enrollment
		want bool
	}{
		{name: "nil enrollment", enr: nil, want: true},
		{name: "unknown mode", enr: &Enrollment{}, want: true},
		{name: "honor", enr: &Enrollment{Mode: ModeHonor}, want: true},
		{name: "audit", enr: &Enrollment{Mode: ModeAudit}, want: true},
		{name: "verified", enr: &Enrollment{Mode: ModeVerified}, want: false},
		{name: "masters", enr: &Enrollment{Mode: ModeMasters}, want: false},
		{name: "professional", enr: &Enrollment{Mode: ModeProfessional}, want: false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsModeUpsellable(usr, tt.enr); got != tt.want {
				t.Errorf("IsModeUpsellable() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestCanShowVerifiedUpgrade(t *testing.T) {
	usr := user.User{ID: "u1"}
	yesterday := time.Now().UTC().Add(-24 * time.Hour)
	tomorrow := time.Now().UTC().Add(24 * time.Hour)
	today := time.Now().UTC()

	tests := []struct {
		name string
		enr  *Enrollment
		want bool
	}{
		{name: "nil enrollment", enr: nil, want: false},
		{name: "mode not upsellable", enr: &Enrollment{Mode: ModeVerified, IsActive: true, UpgradeDeadline: &tomorrow}, want: false},
		{name: "no deadline", enr: &Enrollment{Mode: ModeAudit, IsActive: true}, want: false},
		{name: "deadline passed", enr: &Enrollment{Mode: ModeAudit, IsActive: true, UpgradeDeadline: &yesterday}, want: false},
		{name: "deadline today still shows", enr: &Enrollment{Mode: ModeAudit, IsActive: true, UpgradeDeadline: &today}, want: true},
		{name: "inactive enrollment", enr: &Enrollment{Mode: ModeAudit, IsActive: false, UpgradeDeadline: &tomorrow}, want: false},
		{name: "active audit before deadline", enr: &Enrollment{Mode: ModeAudit, IsActive: true, UpgradeDeadline: &tomorrow}, want: true},
		{name: "active honor before deadline", enr: &Enrollment{Mode: ModeHonor, IsActive: true, UpgradeDeadline: &tomorrow}, want: true},
		{name: "unknown mode with deadline", enr: &Enrollment{IsActive: true, UpgradeDeadline: &tomorrow}, want: false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := CanShowVerifiedUpgrade(usr, tt.enr); got != tt.want {
				t.Errorf("CanShowVerifiedUpgrade() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestCourseHashValue(t *testing.T) {
	tests := []struct {
		name     string
		courseID string
		want     int
	}{
		{name: "zero key is out of bound", courseID: "", want: 100},
		{name: "demo course", courseID: "course-v1:edX+DemoX+Demo_Course", want: 27},
		{name: "mit course", courseID: "course-v1:MITx+6.00x+2012_Fall", want: 99},
		{name: "legacy slash key", courseID: "foo/bar/baz", want: 4},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := CourseHashValue(tt.courseID); got != tt.want {
				t.Errorf("CourseHashValue(%q) = %d, want %d", tt.courseID, got, tt.want)
			}
		})
	}
}

func TestUpgradeURL(t *testing.T) {
	origRoot := core.Conf.Ecommerce.PublicURLRoot
	core.Conf.Ecommerce.PublicURLRoot = "https://ecommerce.darasa.io/"
	defer func() { core.Conf.Ecommerce.PublicURLRoot = origRoot }()

	usr := user.User{ID: "u1"}
	got := UpgradeURL(usr, Mode{SKU: "8CF08E5"})
	if want := "https://ecommerce.darasa.io/basket/add/?sku=8CF08E5"; got != want {
		t.Errorf("UpgradeURL() = %q, want %q", got, want)
	}

	got = UpgradeURL(usr, Mode{SKU: "A B+C"})
	if want := "https://ecommerce.darasa.io/basket/add/?sku=A+B%2BC"; got != want {
		t.Errorf("UpgradeURL() = %q, want %q", got, want)
	}
}

func TestService(t *testing.T) {
	origRoot := core.Conf.Ecommerce.PublicURLRoot
	core.Conf.Ecommerce.PublicURLRoot = "https://ecommerce.darasa.io"
	defer func() { core.Conf.Ecommerce.PublicURLRoot = origRoot }()

	ctx := context.Background()
	modeRepo := newFakeModeRepository()
	enrRepo := newFakeEnrollmentRepository()
	svc := NewService(modeRepo, enrRepo)
	usr := user.User{ID: "u1"}

	const courseID = "course-v1:edX+DemoX+Demo_Course"
	if _, err := modeRepo.SaveMode(ctx, Mode{CourseID: courseID, Slug: ModeAudit, DisplayName: "Audit"}); err != nil {
		t.Fatal(err)
	}
	if _, err := modeRepo.SaveMode(ctx, Mode{CourseID: courseID, Slug: ModeVerified, DisplayName: "Verified", MinPrice: 49, Currency: "usd", SKU: "8CF08E5"}); err != nil {
		t.Fatal(err)
	}

	// not enrolled -> nil, no error
	enr, err := svc.Enrollment(ctx, usr, courseID)
	if err != nil || enr != nil {
		t.Errorf("Enrollment() = (%v, %v), want (nil, nil)", enr, err)
	}

	deadline := time.Now().UTC().Add(48 * time.Hour)
	if _, err = enrRepo.SaveEnrollment(ctx, Enrollment{ID: "e1", UserID: usr.ID, CourseID: courseID, Mode: ModeAudit, IsActive: true, UpgradeDeadline: &deadline}); err != nil {
		t.Fatal(err)
	}

	if enr, err = svc.Enrollment(ctx, usr, courseID); err != nil || enr == nil {
		t.Fatalf("Enrollment() = (%v, %v), want enrollment", enr, err)
	}
	if !CanShowVerifiedUpgrade(usr, enr) {
		t.Error("CanShowVerifiedUpgrade() = false, want true")
	}

	link, err := svc.VerifiedUpgradeDeadlineLink(ctx, usr, courseID)
	if err != nil {
		t.Fatalf("VerifiedUpgradeDeadlineLink() error = %v", err)
	}
	if want := "https://ecommerce.darasa.io/basket/add/?sku=8CF08E5"; link != want {
		t.Errorf("VerifiedUpgradeDeadlineLink() = %q, want %q", link, want)
	}

	if _, err = svc.VerifiedUpgradeDeadlineLink(ctx, usr, "course-v1:edX+NoVerified+2020"); err != ErrModeNotFound {
		t.Errorf("VerifiedUpgradeDeadlineLink() error = %v, want ErrModeNotFound", err)
	}

	modes, err := svc.Modes(ctx, courseID)
	if err != nil || len(modes) != 2 {
		t.Errorf("Modes() = (%d modes, %v), want (2, nil)", len(modes), err)
	}
}
