package main

import (
	"context"
	"expvar"
	"fmt"
	"log"
	"net/http"
	_ "net/http/pprof"
	"os"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"

	echoapi "github.com/volonteri/evidencija/apps/api/echo"
	"github.com/volonteri/evidencija/core"
	"github.com/volonteri/evidencija/core/attendance"
	"github.com/volonteri/evidencija/core/stats"
	"github.com/volonteri/evidencija/core/volunteer"
	emailsvc "github.com/volonteri/evidencija/services/email"
	exportsvc "github.com/volonteri/evidencija/services/export"
	logsvc "github.com/volonteri/evidencija/services/logger"
	"github.com/volonteri/evidencija/storage/spreadsheet/gsheets"
	inmemsheets "github.com/volonteri/evidencija/storage/spreadsheet/inmem"
)

func main() {
	// =========================================================================
	// Set up Dependencies

	conf := core.NewConfig()

	// set up loggers
	logger := logsvc.NewRollbarLogger(
		log.New(os.Stdout, "API : ", log.LstdFlags|log.Lmicroseconds|log.Lshortfile),
		conf,
	)
	logger.Enable(!conf.Debug)

	if err := conf.Validate(); err != nil {
		logger.Fatal(fmt.Sprintf("invalid configuration: %v", err), err)
	}

	// set up the spreadsheet
	store, err := newSheetStore(conf, logger)
	if err != nil {
		logger.Fatal(fmt.Sprintf("setting up spreadsheet: %v", err), err)
	}

	// set up services
	var mailSvc core.EmailService
	if conf.Debug {
		mailSvc = emailsvc.NewConsoleService(conf)
	} else {
		mailSvc = emailsvc.NewSendgridService(conf, logger)
	}

	// =========================================================================
	// Initialize App

	logger.Info(fmt.Sprintf("Application initializing : version %q", conf.Build))
	defer logger.Info("Application stopped")

	validate := validator.New()
	translator := newTranslator()
	core.InitValidators(validate, translator)
	attendance.InitValidators(validate, translator)

	volunteerSvc := volunteer.NewService(store, conf.Sheets.Roster)
	attendanceSvc := attendance.NewService(store, validate, mailSvc, logger, attendance.Options{
		Sheet:     conf.Sheets.AttendanceSheet,
		Header:    conf.Sheets.AttendanceHeader,
		ReadRange: conf.Sheets.Attendance,
		NotifyTo:  core.ParseAddresses(conf.Notify.Emails),
	})
	statsSvc := stats.NewService(
		exportsvc.NewHTTPSource(conf.Stats.ExportURL, conf.Stats.FetchTimeout),
		conf.Stats.ExportFormat,
	)

	verifier := echoapi.NewTokenVerifier(conf)
	if verifier == nil {
		logger.Warn("auth.googleClientId is not set: attendance can be recorded without a token")
	}

	// =========================================================================
	// Start Debug Service
	//
	// /debug/pprof - Added to the default mux by importing the net/http/pprof package.
	// /debug/vars - Added to the default mux by importing the expvar package.

	// Expose important info under /debug/vars.
	expvar.NewString("build").Set(conf.Build)
	expvar.NewString("env").Set(conf.Env)

	go func() {
		if err := http.ListenAndServe(conf.Server.DebugHost, http.DefaultServeMux); err != nil {
			logger.Error(fmt.Sprintf("debug server closed: %v", err), err)
		}
	}()

	// =========================================================================
	// Start API Service

	server := echoapi.NewServer(
		echoapi.ServerDeps{
			Conf:          conf,
			Logger:        logger,
			VolunteerSvc:  volunteerSvc,
			AttendanceSvc: attendanceSvc,
			StatsSvc:      statsSvc,
			Translator:    translator,
			Verifier:      verifier,
		},
	)

	go func() {
		server.Start()
	}()

	// =========================================================================
	// Shutdown

	select {
	case err = <-server.Errors():
		logger.Fatal(fmt.Sprintf("server error: %v", err), err)

	case sig := <-server.ShutdownSignal():
		logger.Info(fmt.Sprintf("%v: Start shutdown...", sig))

		// give outstanding requests a deadline for completion
		ctx, cancel := context.WithTimeout(context.Background(), conf.Server.ShutdownTimeout)
		defer cancel()

		// asking listener to shutdown and shed load
		if err = server.Shutdown(ctx); err != nil {
			logger.Error(fmt.Sprintf("could not stop server gracefully: %v", err), err)

			if err = server.Close(); err != nil {
				logger.Fatal(fmt.Sprintf("could not force stop server: %v", err), err)
			}
		}
	}
}

// newSheetStore connects to the configured spreadsheet.
// Debug runs without credentials get an empty in-memory spreadsheet.
func newSheetStore(conf *core.Config, logger core.Logger) (core.SheetStore, error) {
	if conf.HasGoogleCredentials() {
		return gsheets.NewStore(context.Background(), conf)
	}

	logger.Warn("google credentials are not set: using an in-memory spreadsheet")
	store := inmemsheets.NewStore()
	rng, err := core.ParseRange(conf.Sheets.Roster)
	if err != nil {
		return nil, err
	}
	store.Seed(rng.Sheet)
	return store, nil
}

func newTranslator() ut.Translator {
	_en := en.New()
	uni := ut.New(_en, _en)
	translator, _ := uni.GetTranslator("en")
	return translator
}
