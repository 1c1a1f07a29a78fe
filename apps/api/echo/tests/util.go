package tests

import (
	"bytes"
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"encoding/json"
	"encoding/pem"
	"net/http"
	"net/http/httptest"
	"reflect"
	"testing"
	"time"

	"github.com/dgrijalva/jwt-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	. "github.com/volonteri/evidencija/apps/api/echo"
	"github.com/volonteri/evidencija/core"
	"github.com/volonteri/evidencija/core/attendance"
	"github.com/volonteri/evidencija/core/stats"
	"github.com/volonteri/evidencija/core/volunteer"
	"github.com/volonteri/evidencija/services/email"
	"github.com/volonteri/evidencija/services/export"
	"github.com/volonteri/evidencija/storage/spreadsheet/inmem"
	"github.com/volonteri/evidencija/tests"
)

const (
	testClientID = "client-123.apps.googleusercontent.com"
	testKeyID    = "test-kid"
)

var errMissingToken = httpErr{Error: "missing or malformed token"}

type testEnv struct {
	app     Server
	store   *inmemsheets.Store
	mailSvc *emailsvc.ConsoleServiceMock
}

type envOption func(conf *core.Config)

// withAuth turns on bearer verification against a local certs endpoint.
func withAuth(certsURL string, allowedEmails ...string) envOption {
	return func(conf *core.Config) {
		conf.Auth.GoogleClientID = testClientID
		conf.Auth.CertsURL = certsURL
		conf.Auth.AllowedEmails = allowedEmails
		conf.Auth.CertsTTL = time.Hour
	}
}

func withExport(url string) envOption {
	return func(conf *core.Config) {
		conf.Stats.ExportURL = url
	}
}

func withNotify(emails ...string) envOption {
	return func(conf *core.Config) {
		conf.Notify.Emails = emails
	}
}

func setup(t *testing.T, opts ...envOption) *testEnv {
	conf := testutil.Config()
	conf.Debug = false
	conf.Server.CORSOrigins = []string{"*"}
	conf.Stats.FetchTimeout = 5 * time.Second
	for _, opt := range opts {
		opt(conf)
	}

	logger := testutil.NewLogger()
	validate, translator := testutil.NewValidator()
	attendance.InitValidators(validate, translator)

	store := inmemsheets.NewStore()
	mailSvc := emailsvc.NewConsoleServiceMock(conf)

	app := NewServer(ServerDeps{
		Conf:         conf,
		Logger:       logger,
		VolunteerSvc: volunteer.NewService(store, conf.Sheets.Roster),
		AttendanceSvc: attendance.NewService(store, validate, mailSvc, logger, attendance.Options{
			Sheet:     conf.Sheets.AttendanceSheet,
			Header:    conf.Sheets.AttendanceHeader,
			ReadRange: conf.Sheets.Attendance,
			NotifyTo:  core.ParseAddresses(conf.Notify.Emails),
		}),
		StatsSvc:       stats.NewService(exportsvc.NewHTTPSource(conf.Stats.ExportURL, conf.Stats.FetchTimeout), conf.Stats.ExportFormat),
		Translator:     translator,
		Verifier:       NewTokenVerifier(conf),
		DisableReqLogs: true,
	})

	return &testEnv{app: app, store: store, mailSvc: mailSvc}
}

// newCertsServer publishes the public half of a fresh key as {"kid": "PEM"}.
func newCertsServer(t *testing.T) (*httptest.Server, *rsa.PrivateKey) {
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)

	der, err := x509.MarshalPKIXPublicKey(&key.PublicKey)
	require.NoError(t, err)
	pub := pem.EncodeToMemory(&pem.Block{Type: "PUBLIC KEY", Bytes: der})

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]string{testKeyID: string(pub)})
	}))
	t.Cleanup(srv.Close)
	return srv, key
}

func getToken(t *testing.T, key *rsa.PrivateKey, mutate ...func(c *GoogleClaims)) string {
	now := time.Now()
	claims := &GoogleClaims{
		StandardClaims: jwt.StandardClaims{
			Issuer:    "https://accounts.google.com",
			Subject:   "1234567890",
			Audience:  testClientID,
			ExpiresAt: now.Add(time.Hour).Unix(),
			IssuedAt:  now.Add(-time.Minute).Unix(),
		},
		Email:         "coordinator@example.com",
		EmailVerified: true,
		Name:          "Koordinatorica",
	}
	for _, m := range mutate {
		m(claims)
	}

	token := jwt.NewWithClaims(jwt.SigningMethodRS256, claims)
	token.Header["kid"] = testKeyID
	ss, err := token.SignedString(key)
	if err != nil {
		t.Fatalf("getToken(): %v", err)
	}
	return ss
}

type httpErr struct {
	Error string `json:"error"`
}

type httpTest struct {
	name     string
	method   string
	path     string
	body     []byte
	token    string
	wantCode int
	wantData []byte
	extra    interface{}
}

func newAuthRequest(method, path, token string, data ...[]byte) (*http.Request, *httptest.ResponseRecorder) {
	var body bytes.Buffer
	if len(data) > 0 {
		body.Write(data[0])
	}
	req := httptest.NewRequest(method, path, &body)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	return req, rec
}

func newRequest(method, path string, data ...[]byte) (*http.Request, *httptest.ResponseRecorder) {
	return newAuthRequest(method, path, "", data...)
}

func marchallObj(t *testing.T, obj interface{}) []byte {
	data, err := json.Marshal(obj)
	if err != nil {
		t.Fatalf("marchallObj(): %v", err)
	}
	return data
}

func jsonBytesEqual(b1, b2 []byte) (bool, error) {
	var j1, j2 interface{}
	if err := json.Unmarshal(b1, &j1); err != nil {
		return false, err
	}
	if err := json.Unmarshal(b2, &j2); err != nil {
		return false, err
	}
	return reflect.DeepEqual(j1, j2), nil
}

func checkCodeAndData(t *testing.T, tt httpTest, rec *httptest.ResponseRecorder) {
	t.Helper()
	if rec.Code != tt.wantCode {
		t.Errorf("failed! code = %v; wantCode %v", rec.Code, tt.wantCode)
	}
	if tt.wantData == nil {
		return
	}
	ok, err := jsonBytesEqual(rec.Body.Bytes(), tt.wantData)
	if err != nil {
		t.Errorf("jsonBytesEqual() failed to compare; err %v", err)
	}
	if !ok {
		t.Errorf("failed! data = %v; wantData %v", rec.Body.String(), string(tt.wantData))
	}
}

func assertJSONEqual(t *testing.T, want interface{}, rec *httptest.ResponseRecorder) {
	t.Helper()
	assert.JSONEq(t, string(marchallObj(t, want)), rec.Body.String())
}
