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

var Conf *Config

type (
	ServerConfig struct {
		Host                      string
		Addr                      string
		DebugAddr                 string
		ShutdownTimeout           time.Duration
		JWTExpirationDelta        time.Duration
		JWTRefreshExpirationDelta time.Duration
	}

	DatabaseConfig struct {
		Engine        string
		Name          string
		User          string
		Password      string
		AdminUser     string
		AdminPassword string
		Host          string
		Port          string
		DisableTLS    bool
	}

	// ContentConfig configures the static asset store.
	ContentConfig struct {
		Backend       string // memory | fs | s3
		FSRoot        string
		ChunkSize     int // 0 -> package default
		MaxUploadSize int64
	}

	S3Config struct {
		Endpoint     string
		Region       string
		Bucket       string
		AccessKey    string
		AccessSecret string
	}

	EcommerceConfig struct {
		PublicURLRoot string
	}

	// FinAidConfig configures the proxy to the standalone financial assistance service.
	FinAidConfig struct {
		Enabled                  bool
		APIURL                   string
		TokenURL                 string
		ClientID                 string
		ClientSecret             string
		EnabledCoursesPercentage int
	}

	CatalogConfig struct {
		DiscoveryAPIURL string
		CacheTTL        time.Duration
	}

	// RegistrationConfig drives the progressive profiling form.
	// ExtraFields maps a field name to one of "required", "optional" or "hidden".
	RegistrationConfig struct {
		ExtraFields           map[string]string
		ExtendedProfileFields []string
	}

	Config struct {
		Debug            bool
		TestMode         bool
		Env              string
		Build            string
		AppName          string
		SecretKey        string
		WorkDir          string
		FrontendBaseURL  string
		SiteDomain       string
		defaultFromEmail string
		SendgridApiKey   string
		RollbarToken     string

		PasswordResetTimeoutDelta time.Duration

		Server       ServerConfig
		Database     DatabaseConfig
		Content      ContentConfig
		S3           S3Config
		Ecommerce    EcommerceConfig
		FinAid       FinAidConfig
		Catalog      CatalogConfig
		Registration RegistrationConfig
	}
)

func init() {
	Conf = NewConfig()
}

func NewConfig() *Config {
	v := viper.New()
	v.SetTypeByDefaultValue(true)

	// defaults
	v.SetDefault("debug", true)
	v.SetDefault("appName", "Darasa")
	v.SetDefault("build", "dev")
	v.SetDefault("secretKey", "w#05e=0zebl^q2imf$4=rx0-d3kyp10^+sz649=@yh+la_=!pq")
	v.SetDefault("frontendBaseURL", "http://localhost:8080")
	v.SetDefault("siteDomain", "localhost")
	v.SetDefault("defaultFromEmail", "noreply@localhost")
	v.SetDefault("sendgridApiKey", "")
	v.SetDefault("rollbarToken", "")
	v.SetDefault("passwordResetTimeoutDelta", 3*24*time.Hour)

	v.SetDefault("server.host", "localhost")
	v.SetDefault("server.addr", ":8000")
	v.SetDefault("server.debugAddr", ":4000")
	v.SetDefault("server.shutdownTimeout", 5*time.Second)
	v.SetDefault("server.jwtExpirationDelta", 7*24*time.Hour)
	v.SetDefault("server.jwtRefreshExpirationDelta", 4*time.Hour)

	v.SetDefault("database.engine", "postgres")
	v.SetDefault("database.name", "darasa")
	v.SetDefault("database.user", "darasa")
	v.SetDefault("database.password", "darasa")
	v.SetDefault("database.adminUser", "")
	v.SetDefault("database.adminPassword", "")
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", "5432")
	v.SetDefault("database.disableTLS", true)

	v.SetDefault("content.backend", "fs")
	v.SetDefault("content.fsRoot", "")
	v.SetDefault("content.chunkSize", 0)
	v.SetDefault("content.maxUploadSize", int64(50<<20))

	v.SetDefault("s3.endpoint", "")
	v.SetDefault("s3.region", "us-east-1")
	v.SetDefault("s3.bucket", "darasa-assets")
	v.SetDefault("s3.accessKey", "")
	v.SetDefault("s3.accessSecret", "")

	v.SetDefault("ecommerce.publicURLRoot", "http://localhost:18130")

	v.SetDefault("finaid.enabled", false)
	v.SetDefault("finaid.apiURL", "")
	v.SetDefault("finaid.tokenURL", "")
	v.SetDefault("finaid.clientID", "")
	v.SetDefault("finaid.clientSecret", "")
	v.SetDefault("finaid.enabledCoursesPercentage", 0)

	v.SetDefault("catalog.discoveryAPIURL", "")
	v.SetDefault("catalog.cacheTTL", time.Hour)

	v.SetDefault("registration.extraFields", map[string]string{
		"honor_code":         "required",
		"country":            "required",
		"terms_of_service":   "hidden",
		"gender":             "optional",
		"year_of_birth":      "optional",
		"level_of_education": "optional",
		"goals":              "optional",
		"profession":         "hidden",
		"specialty":          "hidden",
	})
	v.SetDefault("registration.extendedProfileFields", []string{})

	env := os.Getenv("ENV") // DEV (local; default), TEST, QA, PROD
	if env == "" {
		env = "DEV"
	}
	v.SetDefault("env", strings.ToLower(env))
	v.SetDefault("testMode", env == "TEST")
	v.SetEnvPrefix(env)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	workDir := Getwd()
	v.SetDefault("workDir", workDir)

	// load .env if it exists (ignore if it does not)
	dotEnvPath := filepath.Join(workDir, "config", ".env."+strings.ToLower(env))
	if _, err := os.Stat(dotEnvPath); err == nil {
		if err := godotenv.Load(dotEnvPath); err != nil {
			log.Fatalf("config.godotenv(%s): %v", dotEnvPath, err)
		}
	} else if !os.IsNotExist(err) {
		log.Fatalf("config.os.Stat(%s): %v", dotEnvPath, err)
	}
	v.AutomaticEnv()

	return &Config{
		Debug:            v.GetBool("debug"),
		TestMode:         v.GetBool("testMode"),
		Env:              v.GetString("env"),
		Build:            v.GetString("build"),
		AppName:          v.GetString("appName"),
		SecretKey:        v.GetString("secretKey"),
		WorkDir:          v.GetString("workDir"),
		FrontendBaseURL:  v.GetString("frontendBaseURL"),
		SiteDomain:       v.GetString("siteDomain"),
		defaultFromEmail: v.GetString("defaultFromEmail"),
		SendgridApiKey:   v.GetString("sendgridApiKey"),
		RollbarToken:     v.GetString("rollbarToken"),

		PasswordResetTimeoutDelta: v.GetDuration("passwordResetTimeoutDelta"),
		Server: ServerConfig{
			Host:                      v.GetString("server.host"),
			Addr:                      v.GetString("server.addr"),
			DebugAddr:                 v.GetString("server.debugAddr"),
			ShutdownTimeout:           v.GetDuration("server.shutdownTimeout"),
			JWTExpirationDelta:        v.GetDuration("server.jwtExpirationDelta"),
			JWTRefreshExpirationDelta: v.GetDuration("server.jwtRefreshExpirationDelta"),
		},
		Database: DatabaseConfig{
			Engine:        v.GetString("database.engine"),
			Name:          v.GetString("database.name"),
			User:          v.GetString("database.user"),
			Password:      v.GetString("database.password"),
			AdminUser:     v.GetString("database.adminUser"),
			AdminPassword: v.GetString("database.adminPassword"),
			Host:          v.GetString("database.host"),
			Port:          v.GetString("database.port"),
			DisableTLS:    v.GetBool("database.disableTLS"),
		},
		Content: ContentConfig{
			Backend:       v.GetString("content.backend"),
			FSRoot:        v.GetString("content.fsRoot"),
			ChunkSize:     v.GetInt("content.chunkSize"),
			MaxUploadSize: v.GetInt64("content.maxUploadSize"),
		},
		S3: S3Config{
			Endpoint:     v.GetString("s3.endpoint"),
			Region:       v.GetString("s3.region"),
			Bucket:       v.GetString("s3.bucket"),
			AccessKey:    v.GetString("s3.accessKey"),
			AccessSecret: v.GetString("s3.accessSecret"),
		},
		Ecommerce: EcommerceConfig{
			PublicURLRoot: v.GetString("ecommerce.publicURLRoot"),
		},
		FinAid: FinAidConfig{
			Enabled:                  v.GetBool("finaid.enabled"),
			APIURL:                   v.GetString("finaid.apiURL"),
			TokenURL:                 v.GetString("finaid.tokenURL"),
			ClientID:                 v.GetString("finaid.clientID"),
			ClientSecret:             v.GetString("finaid.clientSecret"),
			EnabledCoursesPercentage: v.GetInt("finaid.enabledCoursesPercentage"),
		},
		Catalog: CatalogConfig{
			DiscoveryAPIURL: v.GetString("catalog.discoveryAPIURL"),
			CacheTTL:        v.GetDuration("catalog.cacheTTL"),
		},
		Registration: RegistrationConfig{
			ExtraFields:           v.GetStringMapString("registration.extraFields"),
			ExtendedProfileFields: v.GetStringSlice("registration.extendedProfileFields"),
		},
	}
}

// DefaultFromEmail returns the default sender address for outgoing mail.
func (c *Config) DefaultFromEmail() mail.Address {
	if addr, err := mail.ParseAddress(c.defaultFromEmail); err == nil {
		return *addr
	}
	return mail.Address{Name: c.AppName, Address: c.defaultFromEmail}
}

// Address returns the host:port the database listens on.
func (dc DatabaseConfig) Address() string {
	return dc.Host + ":" + dc.Port
}
