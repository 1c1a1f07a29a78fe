package tests

import (
	"errors"
	"net/http"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/tidwall/gjson"

	"github.com/volonteri/evidencija/core/volunteer"
	"github.com/volonteri/evidencija/tests"
)

func names(body string) []string {
	var out []string
	for _, n := range gjson.Get(body, "#.name").Array() {
		out = append(out, n.String())
	}
	return out
}

func Test_health(t *testing.T) {
	env := setup(t)

	req, rec := newRequest(http.MethodGet, "/health")
	env.app.ServeHTTP(rec, req)
	checkCodeAndData(t, httpTest{wantCode: http.StatusOK, wantData: []byte(`{"status":"ok"}`)}, rec)
}

func Test_volunteerApi_query(t *testing.T) {
	env := setup(t)
	testutil.SeedRoster(t, env.store, testutil.Roster()...)

	path := func(params map[string]string) string {
		v := make(url.Values)
		for k, val := range params {
			v.Set(k, val)
		}
		return "/api/names?" + v.Encode()
	}

	tests := []struct {
		name      string
		path      string
		wantCode  int
		wantNames []string
	}{
		{"default name ordering", "/api/names", http.StatusOK, []string{"Ana Kovač", "Čedo Babić", "Ivana Horvat", "Željka Šarić"}},
		{"trailing slash", "/api/names/", http.StatusOK, []string{"Ana Kovač", "Čedo Babić", "Ivana Horvat", "Željka Šarić"}},
		{"by location", path(map[string]string{"location": "centar"}), http.StatusOK, []string{"Čedo Babić", "Ivana Horvat"}},
		{"by school", path(map[string]string{"school": "xv. gimnazija"}), http.StatusOK, []string{"Čedo Babić", "Ivana Horvat"}},
		{"search", path(map[string]string{"search": "KOVAČ"}), http.StatusOK, []string{"Ana Kovač"}},
		{"search phone", path(map[string]string{"search": "333"}), http.StatusOK, []string{"Čedo Babić"}},
		{"hours desc", path(map[string]string{"ordering": "-hours"}), http.StatusOK, []string{"Ana Kovač", "Ivana Horvat", "Čedo Babić", "Željka Šarić"}},
		{"grade numeric", path(map[string]string{"ordering": "grade"}), http.StatusOK, []string{"Željka Šarić", "Ana Kovač", "Ivana Horvat", "Čedo Babić"}},
		{"no match", path(map[string]string{"search": "nobody"}), http.StatusOK, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, rec := newRequest(http.MethodGet, tt.path)
			env.app.ServeHTTP(rec, req)

			assert.Equal(t, tt.wantCode, rec.Code)
			assert.Equal(t, tt.wantNames, names(rec.Body.String()))
		})
	}

	t.Run("empty list is an array", func(t *testing.T) {
		req, rec := newRequest(http.MethodGet, path(map[string]string{"search": "nobody"}))
		env.app.ServeHTTP(rec, req)
		checkCodeAndData(t, httpTest{wantCode: http.StatusOK, wantData: []byte(`[]`)}, rec)
	})

	t.Run("unknown ordering", func(t *testing.T) {
		req, rec := newRequest(http.MethodGet, path(map[string]string{"ordering": "age"}))
		env.app.ServeHTTP(rec, req)
		checkCodeAndData(t, httpTest{
			wantCode: http.StatusBadRequest,
			wantData: []byte(`{"ordering":"unknown field \"age\""}`),
		}, rec)
	})

	t.Run("volunteer shape", func(t *testing.T) {
		req, rec := newRequest(http.MethodGet, path(map[string]string{"search": "ivana"}))
		env.app.ServeHTTP(rec, req)
		assertJSONEqual(t, []volunteer.Volunteer{{
			Name:       "Ivana Horvat",
			School:     "XV. gimnazija",
			Grade:      "3",
			Location:   "Dubrava, Centar",
			Locations:  []string{"Dubrava", "Centar"},
			Phone:      "091 111 1111",
			Hours:      "12,5",
			HoursValue: 12.5,
		}}, rec)
	})
}

func Test_volunteerApi_emptyRoster(t *testing.T) {
	env := setup(t)
	env.store.Seed(testutil.RosterSheet)

	req, rec := newRequest(http.MethodGet, "/api/names")
	env.app.ServeHTTP(rec, req)
	checkCodeAndData(t, httpTest{wantCode: http.StatusOK, wantData: []byte(`[]`)}, rec)

	req, rec = newRequest(http.MethodGet, "/api/locations")
	env.app.ServeHTTP(rec, req)
	checkCodeAndData(t, httpTest{wantCode: http.StatusOK, wantData: marchallObj(t, volunteer.DefaultLocations)}, rec)
}

func Test_volunteerApi_summary(t *testing.T) {
	env := setup(t)
	testutil.SeedRoster(t, env.store, testutil.Roster()...)

	tests := []httpTest{
		{
			name:     "whole roster",
			path:     "/api/names/summary",
			wantCode: http.StatusOK,
			wantData: marchallObj(t, volunteer.Summary{Count: 4, TotalHours: 59.5, MeanHours: 14.88, MedianHours: 9.75, MaxHours: 40}),
		},
		{
			name:     "filtered",
			path:     "/api/names/summary?location=Centar",
			wantCode: http.StatusOK,
			wantData: marchallObj(t, volunteer.Summary{Count: 2, TotalHours: 19.5, MeanHours: 9.75, MedianHours: 9.75, MaxHours: 12.5}),
		},
		{
			name:     "nothing matches",
			path:     "/api/names/summary?search=nobody",
			wantCode: http.StatusOK,
			wantData: marchallObj(t, volunteer.Summary{}),
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, rec := newRequest(http.MethodGet, tt.path)
			env.app.ServeHTTP(rec, req)
			checkCodeAndData(t, tt, rec)
		})
	}
}

func Test_volunteerApi_locations(t *testing.T) {
	env := setup(t)
	testutil.SeedRoster(t, env.store, testutil.Roster()...)

	req, rec := newRequest(http.MethodGet, "/api/locations")
	env.app.ServeHTTP(rec, req)
	checkCodeAndData(t, httpTest{wantCode: http.StatusOK, wantData: []byte(`["Centar","Dubrava","Dugave"]`)}, rec)
}

func Test_volunteerApi_storeFailure(t *testing.T) {
	env := setup(t)
	testutil.SeedRoster(t, env.store, testutil.Roster()...)
	env.store.SetError(errors.New("quota exceeded"))

	for _, path := range []string{"/api/names", "/api/names/summary", "/api/locations"} {
		t.Run(path, func(t *testing.T) {
			req, rec := newRequest(http.MethodGet, path)
			env.app.ServeHTTP(rec, req)
			checkCodeAndData(t, httpTest{
				wantCode: http.StatusInternalServerError,
				wantData: marchallObj(t, httpErr{Error: "Failed to fetch names"}),
			}, rec)
		})
	}
}
