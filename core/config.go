package core

import (
	"log"
	"net/mail"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	Env              string
	Build            string
	AppName          string
	Debug            bool
	TestMode         bool
	SecretKey        string
	RollbarToken     string
	SendgridAPIKey   string
	DefaultFromEmail string
	SchoolName       string

	API struct {
		BaseURL string
		Token   string
		Timeout time.Duration
	}

	Server struct {
		Address            string
		DebugAddress       string
		ShutdownTimeout    time.Duration
		JWTExpirationDelta time.Duration
		SeedPassword       string
	}

	Database struct {
		Engine string // memory, postgres, sqlite
		DSN    string
	}
}

// NewConfig loads the configuration for the current ENV (DEV by default).
// Values come from defaults, then `config/.env.<env>` if it exists, then environment variables
// prefixed with the env name (eg. DEV_API_BASEURL).
func NewConfig() *Config {
	v := viper.New()

	// defaults
	v.SetTypeByDefaultValue(true)
	v.SetDefault("debug", true)
	v.SetDefault("testMode", false)
	v.SetDefault("build", "develop")
	v.SetDefault("appName", "Masomo")
	v.SetDefault("schoolName", "Masomo Academy")
	v.SetDefault("secretKey", "poq5-wer)enb$+57=dz&uoxh2(h!x)#*c2(#yg4h^$cegm2emy")
	v.SetDefault("rollbarToken", "")
	v.SetDefault("sendgridApiKey", "")
	v.SetDefault("defaultFromEmail", "noreply@localhost")
	v.SetDefault("api.baseUrl", "http://localhost:8000/v1")
	v.SetDefault("api.token", "")
	v.SetDefault("api.timeout", 15*time.Second)
	v.SetDefault("server.address", ":8000")
	v.SetDefault("server.debugAddress", ":4000")
	v.SetDefault("server.shutdownTimeout", 5*time.Second)
	v.SetDefault("server.jwtExpirationDelta", 7*24*time.Hour)
	v.SetDefault("server.seedPassword", "Masomo@2024!")
	v.SetDefault("database.engine", "memory")
	v.SetDefault("database.dsn", "")

	env := strings.ToUpper(strings.TrimSpace(os.Getenv("ENV"))) // DEV (local; default), TEST, QA, PROD
	switch env {
	case "":
		env = "DEV"
	case "TEST":
		v.SetDefault("testMode", true)
	}
	v.SetEnvPrefix(env)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// load .env if it exists (ignore if it does not)
	dotEnvPath := filepath.Join("config", ".env."+strings.ToLower(env))
	if _, err := os.Stat(dotEnvPath); err == nil {
		if err := godotenv.Load(dotEnvPath); err != nil {
			log.Fatalf("config.godotenv(%s): %v", dotEnvPath, err)
		}
	} else if !os.IsNotExist(err) {
		log.Fatalf("config.os.Stat(%s): %v", dotEnvPath, err)
	}
	v.AutomaticEnv()

	conf := &Config{
		Env:              env,
		Build:            v.GetString("build"),
		AppName:          v.GetString("appName"),
		Debug:            v.GetBool("debug"),
		TestMode:         v.GetBool("testMode"),
		SecretKey:        v.GetString("secretKey"),
		RollbarToken:     v.GetString("rollbarToken"),
		SendgridAPIKey:   v.GetString("sendgridApiKey"),
		DefaultFromEmail: v.GetString("defaultFromEmail"),
		SchoolName:       v.GetString("schoolName"),
	}
	conf.API.BaseURL = v.GetString("api.baseUrl")
	conf.API.Token = v.GetString("api.token")
	conf.API.Timeout = v.GetDuration("api.timeout")
	conf.Server.Address = v.GetString("server.address")
	conf.Server.DebugAddress = v.GetString("server.debugAddress")
	conf.Server.ShutdownTimeout = v.GetDuration("server.shutdownTimeout")
	conf.Server.JWTExpirationDelta = v.GetDuration("server.jwtExpirationDelta")
	conf.Server.SeedPassword = v.GetString("server.seedPassword")
	conf.Database.Engine = strings.ToLower(v.GetString("database.engine"))
	conf.Database.DSN = v.GetString("database.dsn")
	return conf
}

func (conf *Config) FromAddress() mail.Address {
	return mail.Address{Name: conf.AppName, Address: conf.DefaultFromEmail}
}
