package core

import (
	"net/mail"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Conf is the app-wide configuration; set it up once at startup with SetupConf.
var Conf *Config

type (
	Config struct {
		Debug    bool
		TestMode bool
		Env      string // DEV (default), TEST, QA, PROD
		AppName  string
		Build    string

		FrontendBaseURL  string
		DefaultFromEmail mail.Address
		AdminEmail       mail.Address

		// DefaultStudentPassword is the initial password of accounts provisioned on
		// request approval; the approval email instructs the student to change it.
		DefaultStudentPassword string

		SendgridAPIKey string
		RollbarToken   string

		Server   ServerConfig
		Database DatabaseConfig
	}

	ServerConfig struct {
		Host string
	}

	DatabaseConfig struct {
		Engine        string
		Name          string
		Host          string
		Port          string
		User          string
		Password      string
		AdminUser     string
		AdminPassword string
		DisableTLS    bool
	}
)

func (c DatabaseConfig) Address() string {
	return c.Host + ":" + c.Port
}

func SetupConf(roots ...string) error {
	v := viper.New()

	// defaults
	v.SetTypeByDefaultValue(true)
	v.SetDefault("debug", true)
	v.SetDefault("appName", "Elimu")
	v.SetDefault("frontendBaseURL", "http://localhost:3000")
	v.SetDefault("defaultFromEmail", "noreply@localhost")
	v.SetDefault("adminEmail", "admin@localhost")
	v.SetDefault("defaultStudentPassword", "Password123")
	v.SetDefault("serverHost", "localhost")
	v.SetDefault("databaseEngine", "postgres")
	v.SetDefault("databaseName", "elimu")
	v.SetDefault("databaseHost", "localhost")
	v.SetDefault("databasePort", "5432")
	v.SetDefault("databaseAdminUser", "postgres")
	v.SetDefault("databaseDisableTLS", true)

	env := os.Getenv("ENV")
	if env == "" {
		env = "DEV"
	}
	v.SetEnvPrefix(env)

	// load .env.<env> if it exists (ignore if it does not)
	if len(roots) > 0 {
		dotEnvPath := filepath.Join(roots[0], "config", ".env."+strings.ToLower(env))
		if _, err := os.Stat(dotEnvPath); err == nil {
			if err := godotenv.Load(dotEnvPath); err != nil {
				return err
			}
		} else if !os.IsNotExist(err) {
			return err
		}
	}
	v.AutomaticEnv()

	appName := v.GetString("appName")
	Conf = &Config{
		Debug:                  v.GetBool("debug"),
		TestMode:               env == "TEST",
		Env:                    env,
		AppName:                appName,
		Build:                  v.GetString("build"),
		FrontendBaseURL:        v.GetString("frontendBaseURL"),
		DefaultFromEmail:       mail.Address{Name: appName, Address: v.GetString("defaultFromEmail")},
		AdminEmail:             mail.Address{Address: v.GetString("adminEmail")},
		DefaultStudentPassword: v.GetString("defaultStudentPassword"),
		SendgridAPIKey:         v.GetString("sendgridApiKey"),
		RollbarToken:           v.GetString("rollbarToken"),
		Server: ServerConfig{
			Host: v.GetString("serverHost"),
		},
		Database: DatabaseConfig{
			Engine:        v.GetString("databaseEngine"),
			Name:          v.GetString("databaseName"),
			Host:          v.GetString("databaseHost"),
			Port:          v.GetString("databasePort"),
			User:          v.GetString("databaseUser"),
			Password:      v.GetString("databasePassword"),
			AdminUser:     v.GetString("databaseAdminUser"),
			AdminPassword: v.GetString("databaseAdminPassword"),
			DisableTLS:    v.GetBool("databaseDisableTLS"),
		},
	}
	return nil
}

// NowFunc returns the current UTC time; swap it out in tests that need a fixed clock.
var NowFunc = func() time.Time { return time.Now().UTC() }
