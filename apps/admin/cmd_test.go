package main

import (
	"bytes"
	"encoding/json"
	"io"
	"os"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"

	"github.com/volonteri/evidencija/core/attendance"
	"github.com/volonteri/evidencija/core/stats"
	"github.com/volonteri/evidencija/storage/spreadsheet/inmem"
	"github.com/volonteri/evidencija/tests"
)

const exportTSV = "LOKACIJA\tDJECA\tVOLONTERI\n" +
	"Dubrava\t120\t30\n" +
	"Centar\t45\t9\n"

func setup(t *testing.T) (*commandLine, *inmemsheets.Store, *bytes.Buffer) {
	isTerminalFunc = func(int) bool { return false }
	openFileFunc = func(name string) (io.ReadCloser, error) {
		if name != "export.tsv" {
			return nil, os.ErrNotExist
		}
		return io.NopCloser(strings.NewReader(exportTSV)), nil
	}

	validate, translator := testutil.NewValidator()
	attendance.InitValidators(validate, translator)

	store := inmemsheets.NewStore()
	testutil.SeedRoster(t, store, testutil.Roster()...)

	out := new(bytes.Buffer)
	return &commandLine{
		conf:       testutil.Config(),
		store:      store,
		validate:   validate,
		translator: translator,
		logger:     testutil.NewLogger(),
		out:        out,
	}, store, out
}

type cliTest struct {
	name       string
	args       []string // without program name
	wantErr    error
	wantErrStr string
	extra      interface{}
}

func runTests(t *testing.T, cli *commandLine, out *bytes.Buffer, tests []cliTest, check func(t *testing.T, tt cliTest, out string)) {
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out.Reset()
			err := cli.run(append([]string{"admin"}, tt.args...))
			switch {
			case tt.wantErr != nil:
				assert.Equal(t, tt.wantErr, err)
			case tt.wantErrStr != "":
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErrStr)
			default:
				require.NoError(t, err)
				if check != nil {
					check(t, tt, out.String())
				}
			}
		})
	}
}

func Test_commandLine_run(t *testing.T) {
	cli, _, out := setup(t)

	tests := []cliTest{
		{name: "no command", args: nil, wantErr: errHelp},
		{name: "unknown command", args: []string{"migrate"}, wantErr: errHelp},
		{name: "help flag", args: []string{"names", "-h"}, wantErr: errHelp},
		{name: "unknown flag", args: []string{"names", "-age", "3"}, wantErrStr: "flag provided but not defined"},
	}
	runTests(t, cli, out, tests, nil)
}

func Test_commandLine_stats(t *testing.T) {
	cli, _, out := setup(t)

	want, ok := stats.Parse(exportTSV)
	require.True(t, ok)
	wantJSON, err := json.Marshal(want)
	require.NoError(t, err)

	tests := []cliTest{
		{name: "no source", args: []string{"stats"}, wantErr: errHelp},
		{name: "missing file", args: []string{"stats", "-file", "nope.tsv"}, wantErrStr: "opening export"},
		{name: "unknown format", args: []string{"stats", "-file", "export.tsv", "-format", "csv"}, wantErrStr: `unknown export format "csv"`},
		{name: "xlsx decode failure", args: []string{"stats", "-file", "export.tsv", "-format", "xlsx"}, wantErrStr: "failed to decode statistics export"},
		{name: "tsv file", args: []string{"stats", "-file", "export.tsv"}},
	}
	runTests(t, cli, out, tests, func(t *testing.T, tt cliTest, out string) {
		var got map[string]interface{}
		require.NoError(t, json.Unmarshal([]byte(out), &got))
		assert.NotEmpty(t, got["fetchedAt"])
		delete(got, "fetchedAt")

		var wantMap map[string]interface{}
		require.NoError(t, json.Unmarshal(wantJSON, &wantMap))
		assert.Equal(t, wantMap, got)
	})
}

func Test_commandLine_names(t *testing.T) {
	cli, _, out := setup(t)

	tests := []cliTest{
		{name: "all", args: []string{"names"}, extra: []string{"Ana Kovač", "Čedo Babić", "Ivana Horvat", "Željka Šarić"}},
		{name: "location", args: []string{"names", "-location", "centar"}, extra: []string{"Čedo Babić", "Ivana Horvat"}},
		{name: "ordering", args: []string{"names", "-ordering", "-hours"}, extra: []string{"Ana Kovač", "Ivana Horvat", "Čedo Babić", "Željka Šarić"}},
		{name: "search", args: []string{"names", "-search", "gimnazija lucijana"}, extra: []string{"Željka Šarić"}},
		{name: "bad ordering", args: []string{"names", "-ordering", "age"}, wantErrStr: `unknown field "age"`},
	}
	runTests(t, cli, out, tests, func(t *testing.T, tt cliTest, out string) {
		var got []string
		for _, n := range gjson.Get(out, "#.name").Array() {
			got = append(got, n.String())
		}
		assert.Equal(t, tt.extra, got)
	})
}

func Test_commandLine_record(t *testing.T) {
	cli, store, out := setup(t)

	tests := []cliTest{
		{name: "missing flags", args: []string{"record", "-date", "01/03/2025"}, wantErr: errHelp},
		{name: "invalid date", args: []string{"record", "-date", "32/03/2025", "-location", "Centar"}, wantErrStr: "invalid session: selectedDate: enter a valid date"},
		{
			name:  "valid",
			args:  []string{"record", "-date", "2025-03-01", "-location", "Centar", "-children", "7", "-volunteers", "2", "-names", "Ana Kovač, Čedo Babić"},
			extra: []string{"01/03/2025", "Centar", "7", "2", "Ana Kovač, Čedo Babić"},
		},
	}
	runTests(t, cli, out, tests, func(t *testing.T, tt cliTest, out string) {
		assert.Equal(t, "01/03/2025", gjson.Get(out, "date").String())
		rows := store.Rows(testutil.AttendanceSheet)
		require.Len(t, rows, 2)
		assert.Equal(t, testutil.AttendanceHeader, rows[0])
		assert.Equal(t, tt.extra, rows[1])
	})

	t.Run("listed afterwards", func(t *testing.T) {
		out.Reset()
		require.NoError(t, cli.run([]string{"admin", "evidencija", "-year", "2025"}))
		assert.Equal(t, []interface{}{"Centar"}, gjsonStrings(out.String(), "#.location"))

		out.Reset()
		require.NoError(t, cli.run([]string{"admin", "evidencija", "-location", "Dubrava"}))
		assert.JSONEq(t, `[]`, out.String())
	})
}

func Test_commandLine_noStore(t *testing.T) {
	cli, _, out := setup(t)
	cli.store = nil

	tests := []cliTest{
		{name: "names", args: []string{"names"}, wantErr: errNoStore},
		{name: "evidencija", args: []string{"evidencija"}, wantErr: errNoStore},
		{name: "record", args: []string{"record", "-date", "01/03/2025", "-location", "Centar"}, wantErr: errNoStore},
	}
	runTests(t, cli, out, tests, nil)
}

func Test_commandLine_prettyPrint(t *testing.T) {
	cli, _, out := setup(t)
	isTerminalFunc = func(int) bool { return true }

	require.NoError(t, cli.run([]string{"admin", "names", "-search", "ivana"}))
	assert.Contains(t, out.String(), "\n  {\n")
}

func gjsonStrings(body, path string) []interface{} {
	var out []interface{}
	for _, r := range gjson.Get(body, path).Array() {
		out = append(out, r.String())
	}
	return out
}
