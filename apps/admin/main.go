package main

import (
	"log"
	"os"

	"github.com/elimuhub/elimu/core"
	"github.com/elimuhub/elimu/core/account"
	"github.com/elimuhub/elimu/core/request"
	"github.com/elimuhub/elimu/core/student"
	emailsvc "github.com/elimuhub/elimu/services/email"
	logsvc "github.com/elimuhub/elimu/services/logger"
	"github.com/elimuhub/elimu/storage/database"
	sqlxrepos "github.com/elimuhub/elimu/storage/database/sqlx"
)

var logger *log.Logger

func main() {
	defer os.Exit(0)

	logger = log.New(os.Stdout, "ADMIN : ", log.LstdFlags|log.Lmicroseconds|log.Lshortfile)

	errAndDie(core.SetupConf())

	// set up DB
	db, err := database.Open(core.Conf)
	errAndDie(err)
	defer db.Close()
	errAndDie(db.Ping())

	appLogger := logsvc.NewRollbarLogger(logger, core.Conf)
	appLogger.Enable(!core.Conf.Debug)

	var mailSvc core.EmailService
	if core.Conf.Debug {
		mailSvc = emailsvc.NewConsoleService()
	} else {
		mailSvc = emailsvc.NewSendgridService(appLogger)
	}

	contentRepo := sqlxrepos.NewContentRepository(db)
	studentRepo := sqlxrepos.NewStudentRepository(db)
	requestRepo := sqlxrepos.NewRequestRepository(db)
	accountRepo := sqlxrepos.NewAccountRepository(db)

	accountSvc := account.NewService(accountRepo)
	studentSvc := student.NewService(studentRepo, contentRepo, mailSvc)
	requestSvc := request.NewService(
		&database.TxRunner{DB: db},
		requestRepo,
		studentRepo,
		contentRepo,
		account.NewIdentityProvider(accountSvc),
		mailSvc,
		appLogger,
	)

	// start CLI
	cli := commandLine{
		db:         db.DB,
		studentSvc: studentSvc,
		requestSvc: requestSvc,
		out:        os.Stdout,
	}
	if err := cli.run(os.Args); err != nil {
		if err != errHelp {
			logger.Printf("\nerror: %s\n", err)
		}
		os.Exit(1)
	}
}

func errAndDie(err error) {
	if err != nil {
		logger.Fatal(err)
	}
}
