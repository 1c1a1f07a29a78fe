package core

import (
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/pkg/errors"
	"github.com/spf13/viper"
)

type (
	Config struct {
		AppName string
		Env     string // DEV (local; default), TEST, QA, PROD
		Build   string
		Debug   bool
		WorkDir string

		RollbarToken string

		Server struct {
			Host            string
			Address         string
			DebugHost       string
			StaticDir       string
			CORSOrigins     []string
			ShutdownTimeout time.Duration
		}

		Google struct {
			ClientEmail   string
			PrivateKey    string
			SpreadsheetID string
		}

		Sheets struct {
			Roster           string
			Attendance       string
			AttendanceSheet  string
			AttendanceHeader []string
		}

		Stats struct {
			ExportURL    string
			ExportFormat string // tsv | xlsx
			FetchTimeout time.Duration
		}

		Auth struct {
			GoogleClientID string
			CertsURL       string
			AllowedEmails  []string
			CertsTTL       time.Duration
		}

		Notify struct {
			Emails         []string
			SendgridAPIKey string
			FromEmail      string
			FromName       string
		}
	}
)

// envAliases binds the flat variable names the service has always been deployed with.
var envAliases = map[string]string{
	"server.address":        "PORT",
	"google.spreadsheetId":  "SPREADSHEET_ID",
	"google.clientEmail":    "GOOGLE_CLIENT_EMAIL",
	"google.privateKey":     "GOOGLE_PRIVATE_KEY",
	"stats.exportUrl":       "STATS_EXPORT_URL",
	"auth.googleClientId":   "GOOGLE_CLIENT_ID",
	"rollbarToken":          "ROLLBAR_TOKEN",
	"notify.sendgridApiKey": "SENDGRID_API_KEY",
}

func NewConfig() *Config {
	conf := viper.New()

	// defaults
	conf.SetTypeByDefaultValue(true)
	conf.SetDefault("appName", "Evidencija")
	conf.SetDefault("build", "dev")
	conf.SetDefault("debug", true)
	conf.SetDefault("server.host", "localhost")
	conf.SetDefault("server.address", ":3000")
	conf.SetDefault("server.debugHost", ":4000")
	conf.SetDefault("server.staticDir", "")
	conf.SetDefault("server.corsOrigins", []string{"*"})
	conf.SetDefault("server.shutdownTimeout", 5*time.Second)
	conf.SetDefault("sheets.roster", "BAZA!A2:F")
	conf.SetDefault("sheets.attendance", "Evidencija!A2:E")
	conf.SetDefault("sheets.attendanceSheet", "Evidencija")
	conf.SetDefault("sheets.attendanceHeader", []string{"DATUM", "LOKACIJA", "BROJ DJECE", "BROJ VOLONTERA", "VOLONTERI"})
	conf.SetDefault("stats.exportFormat", "tsv")
	conf.SetDefault("stats.fetchTimeout", 15*time.Second)
	conf.SetDefault("auth.certsUrl", "https://www.googleapis.com/oauth2/v1/certs")
	conf.SetDefault("auth.allowedEmails", []string{})
	conf.SetDefault("auth.certsTTL", time.Hour)
	conf.SetDefault("notify.emails", []string{})
	conf.SetDefault("notify.fromEmail", "noreply@localhost")
	conf.SetDefault("notify.fromName", "Evidencija")

	env := strings.ToUpper(os.Getenv("ENV"))
	switch env {
	case "":
		env = "DEV"
	case "PROD":
		conf.SetDefault("debug", false)
	}
	conf.SetEnvPrefix(env)

	wd, err := os.Getwd()
	if err != nil {
		log.Fatalf("config.os.Getwd(): %v", err)
	}

	// load .env if it exists (ignore if it does not)
	dotEnvPath := filepath.Join(wd, "config", ".env."+strings.ToLower(env))
	if _, err := os.Stat(dotEnvPath); err == nil {
		if err := godotenv.Load(dotEnvPath); err != nil {
			log.Fatalf("config.godotenv(%s): %v", dotEnvPath, err)
		}
	} else if !os.IsNotExist(err) {
		log.Fatalf("config.os.Stat(%s): %v", dotEnvPath, err)
	}

	// optional config file: config/app.{yaml,toml,json}
	conf.SetConfigName("app")
	conf.AddConfigPath(filepath.Join(wd, "config"))
	if err := conf.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			log.Fatalf("config.ReadInConfig(): %v", err)
		}
	}

	conf.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	conf.AutomaticEnv()
	for key, name := range envAliases {
		_ = conf.BindEnv(key, env+"_"+strings.ToUpper(strings.ReplaceAll(key, ".", "_")), name)
	}

	c := &Config{
		AppName:      conf.GetString("appName"),
		Env:          env,
		Build:        conf.GetString("build"),
		Debug:        conf.GetBool("debug"),
		WorkDir:      wd,
		RollbarToken: conf.GetString("rollbarToken"),
	}

	c.Server.Host = conf.GetString("server.host")
	c.Server.Address = normalizeAddress(conf.GetString("server.address"))
	c.Server.DebugHost = conf.GetString("server.debugHost")
	c.Server.StaticDir = conf.GetString("server.staticDir")
	c.Server.CORSOrigins = conf.GetStringSlice("server.corsOrigins")
	c.Server.ShutdownTimeout = conf.GetDuration("server.shutdownTimeout")

	c.Google.ClientEmail = conf.GetString("google.clientEmail")
	c.Google.PrivateKey = unescapeKey(conf.GetString("google.privateKey"))
	c.Google.SpreadsheetID = conf.GetString("google.spreadsheetId")

	c.Sheets.Roster = conf.GetString("sheets.roster")
	c.Sheets.Attendance = conf.GetString("sheets.attendance")
	c.Sheets.AttendanceSheet = conf.GetString("sheets.attendanceSheet")
	c.Sheets.AttendanceHeader = conf.GetStringSlice("sheets.attendanceHeader")

	c.Stats.ExportURL = conf.GetString("stats.exportUrl")
	c.Stats.ExportFormat = strings.ToLower(conf.GetString("stats.exportFormat"))
	c.Stats.FetchTimeout = conf.GetDuration("stats.fetchTimeout")

	c.Auth.GoogleClientID = conf.GetString("auth.googleClientId")
	c.Auth.CertsURL = conf.GetString("auth.certsUrl")
	c.Auth.AllowedEmails = conf.GetStringSlice("auth.allowedEmails")
	c.Auth.CertsTTL = conf.GetDuration("auth.certsTTL")

	c.Notify.Emails = conf.GetStringSlice("notify.emails")
	c.Notify.SendgridAPIKey = conf.GetString("notify.sendgridApiKey")
	c.Notify.FromEmail = conf.GetString("notify.fromEmail")
	c.Notify.FromName = conf.GetString("notify.fromName")

	return c
}

// HasGoogleCredentials reports whether a service account is configured for the spreadsheet store.
func (c *Config) HasGoogleCredentials() bool {
	return c.Google.ClientEmail != "" && c.Google.PrivateKey != ""
}

// Validate reports the settings required outside of debug mode.
func (c *Config) Validate() error {
	var missing []string
	if !c.Debug {
		if !c.HasGoogleCredentials() {
			missing = append(missing, "GOOGLE_CLIENT_EMAIL/GOOGLE_PRIVATE_KEY")
		}
		if c.Google.SpreadsheetID == "" {
			missing = append(missing, "SPREADSHEET_ID")
		}
	}
	switch c.Stats.ExportFormat {
	case "tsv", "xlsx":
	default:
		return errors.Errorf("config: unknown stats export format %q", c.Stats.ExportFormat)
	}
	if len(missing) > 0 {
		return errors.Errorf("config: missing %s", strings.Join(missing, ", "))
	}
	return nil
}

// unescapeKey handles keys stored on a single line with literal "\n" sequences.
func unescapeKey(key string) string {
	return strings.ReplaceAll(key, `\n`, "\n")
}

// normalizeAddress turns a bare port ("3000") into a listen address.
func normalizeAddress(addr string) string {
	if addr != "" && !strings.Contains(addr, ":") {
		return ":" + addr
	}
	return addr
}
