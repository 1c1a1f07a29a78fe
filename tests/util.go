package testutil

import (
	"io"
	"log"
	"testing"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"

	"github.com/volonteri/evidencija/core"
	logsvc "github.com/volonteri/evidencija/services/logger"
	inmemsheets "github.com/volonteri/evidencija/storage/spreadsheet/inmem"
)

const (
	RosterSheet     = "BAZA"
	RosterRange     = "BAZA!A2:F"
	AttendanceSheet = "Evidencija"
	AttendanceRange = "Evidencija!A2:E"
)

var (
	AttendanceHeader = []string{"DATUM", "LOKACIJA", "BROJ DJECE", "BROJ VOLONTERA", "VOLONTERI"}
	rosterHeader     = []string{"IME I PREZIME", "ŠKOLA", "RAZRED", "LOKACIJA", "TELEFON", "SATI"}
)

// Config returns a debug configuration pointing at the test sheets.
func Config() *core.Config {
	conf := &core.Config{AppName: "Evidencija", Env: "TEST", Build: "test", Debug: true}
	conf.Sheets.Roster = RosterRange
	conf.Sheets.Attendance = AttendanceRange
	conf.Sheets.AttendanceSheet = AttendanceSheet
	conf.Sheets.AttendanceHeader = AttendanceHeader
	conf.Stats.ExportFormat = "tsv"
	conf.Notify.FromEmail = "noreply@example.com"
	conf.Notify.FromName = "Evidencija"
	return conf
}

// NewValidator returns a validator with the global translations registered.
func NewValidator() (*validator.Validate, ut.Translator) {
	_en := en.New()
	uni := ut.New(_en, _en)
	translator, _ := uni.GetTranslator("en")

	validate := validator.New()
	core.InitValidators(validate, translator)
	return validate, translator
}

// NewLogger returns a logger that discards everything and never reports to Rollbar.
func NewLogger() core.Logger {
	logger := logsvc.NewRollbarLogger(log.New(io.Discard, "", 0), Config())
	logger.Enable(false)
	return logger
}

// SeedRoster writes the roster header and rows (name, school, grade, locations, phone, hours).
func SeedRoster(t *testing.T, store *inmemsheets.Store, rows ...[]string) {
	t.Helper()
	store.Seed(RosterSheet, rosterHeader)
	store.Seed(RosterSheet, rows...)
}

// SeedAttendance creates the attendance sheet and writes rows after its header.
func SeedAttendance(t *testing.T, store *inmemsheets.Store, rows ...[]string) {
	t.Helper()
	if !store.HasSheet(AttendanceSheet) {
		store.Seed(AttendanceSheet, AttendanceHeader)
	}
	store.Seed(AttendanceSheet, rows...)
}

// Roster is a small roster used across packages.
func Roster() [][]string {
	return [][]string{
		{"Ivana Horvat", "XV. gimnazija", "3", "Dubrava, Centar", "091 111 1111", "12,5"},
		{"Ana Kovač", "Klasična gimnazija", "2", "Dugave", "091 222 2222", "40"},
		{"Čedo Babić", "XV. gimnazija", "10", "Centar", "091 333 3333", "7"},
		{"", "skipped: no name"},
		{"Željka Šarić", "Gimnazija Lucijana Vranjanina", "1", "", "", "n/a"},
	}
}
