package tests

import (
	"log"
	"os"
	"testing"

	echoapi "github.com/trezcool/darasa/apps/api/echo"
	"github.com/trezcool/darasa/core"
	"github.com/trezcool/darasa/core/content"
	"github.com/trezcool/darasa/core/course"
	"github.com/trezcool/darasa/core/finaid"
	"github.com/trezcool/darasa/core/register"
	"github.com/trezcool/darasa/core/user"
	emailsvc "github.com/trezcool/darasa/services/email"
	logsvc "github.com/trezcool/darasa/services/logger"
	"github.com/trezcool/darasa/storage/blob"
	inmemdb "github.com/trezcool/darasa/storage/database/inmem"
)

var (
	db  *inmemdb.DB
	app echoapi.Server

	usrRepo    user.Repository
	courseRepo *inmemdb.CourseRepository
	contentSvc *content.Service

	errMissingToken = httpErr{Error: "missing or malformed jwt"}
)

func TestMain(m *testing.M) {
	core.Conf.TestMode = true
	core.Conf.Debug = false
	core.Conf.Ecommerce.PublicURLRoot = "https://ecommerce.test"
	core.Conf.Registration = core.RegistrationConfig{
		ExtraFields: map[string]string{
			"name":             "required",
			"country":          "required",
			"honor_code":       "required",
			"gender":           "optional",
			"terms_of_service": "hidden",
		},
	}

	logger := logsvc.NewRollbarLogger(log.New(os.Stdout, "TEST : ", log.LstdFlags), core.Conf)
	logger.Enable(false)

	// set up DB & repos
	var err error
	if db, err = inmemdb.Open(); err != nil {
		logger.Fatal("inmemdb.Open()", err)
	}
	usrRepo = inmemdb.NewUserRepository(db)
	assetRepo := inmemdb.NewAssetRepository(db)
	crsRepo := inmemdb.NewCourseRepository(db)
	courseRepo = crsRepo

	// set up services
	mailSvc := emailsvc.NewConsoleServiceMock()
	usrSvc := user.NewService(usrRepo, mailSvc)
	contentSvc = content.NewService(blob.NewMemoryStore(), assetRepo, logger, nil)
	courseSvc := course.NewService(crsRepo, crsRepo)
	finAidSvc := finaid.NewService(mailSvc)
	registerSvc := register.NewService(core.Conf.Registration)

	// set up server
	app = echoapi.NewServer(
		"",  /* addr */
		nil, /* shutdown */
		&echoapi.Deps{
			Logger:      logger,
			UserSvc:     usrSvc,
			ContentSvc:  contentSvc,
			CourseSvc:   courseSvc,
			FinAidSvc:   finAidSvc,
			RegisterSvc: registerSvc,
		},
	)

	os.Exit(m.Run())
}
