package main

import (
	"context"
	"log"
	"os"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"

	"github.com/volonteri/evidencija/core"
	"github.com/volonteri/evidencija/core/attendance"
	logsvc "github.com/volonteri/evidencija/services/logger"
	"github.com/volonteri/evidencija/storage/spreadsheet/gsheets"
)

var logger *log.Logger

func main() {
	logger = log.New(os.Stdout, "ADMIN : ", log.LstdFlags|log.Lmicroseconds|log.Lshortfile)

	conf := core.NewConfig()
	appLogger := logsvc.NewRollbarLogger(logger, conf)
	appLogger.Enable(false)

	// set up the spreadsheet, commands that need it fail without credentials
	var store core.SheetStore
	if conf.HasGoogleCredentials() {
		s, err := gsheets.NewStore(context.Background(), conf)
		errAndDie(err)
		store = s
	}

	_en := en.New()
	translator, _ := ut.New(_en, _en).GetTranslator("en")
	validate := validator.New()
	core.InitValidators(validate, translator)
	attendance.InitValidators(validate, translator)

	// start CLI
	cli := commandLine{
		conf:       conf,
		store:      store,
		validate:   validate,
		translator: translator,
		logger:     appLogger,
		out:        os.Stdout,
		outFd:      int(os.Stdout.Fd()),
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
