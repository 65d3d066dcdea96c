package config

import (
	"errors"
	"flag"
	"net"
	"os"
	"regexp"
	"strconv"

	"github.com/joho/godotenv"
)

type Config struct {
	Addr          string
	DBUrl         string
	AdminUsername string
	AdminPassword string
	AdminToken    string
	MaxBodyBytes  int64
	Debug         bool
}

// ParseFlags builds the configuration from command line flags, falling back
// to environment variables (optionally loaded from a .env file) for any flag
// left at its default.
func ParseFlags() (cfg Config, err error) {
	godotenv.Load()

	var host string
	flag.StringVar(&host, "host", envOr("HOST", "0.0.0.0"), "listen host name")
	var port uint
	flag.UintVar(&port, "port", envUintOr("PORT", 5000), "listen port number")
	flag.StringVar(&cfg.DBUrl, "db-url", envOr("DB_URL", "dynaform.sqlite"), "path to SQLite3 DB file")
	flag.StringVar(&cfg.AdminUsername, "admin-username", envOr("ADMIN_USERNAME", "admin"), "admin login username")
	flag.StringVar(&cfg.AdminPassword, "admin-password", envOr("ADMIN_PASSWORD", ""), "admin login password, plain or bcrypt hash")
	flag.StringVar(&cfg.AdminToken, "admin-token", envOr("ADMIN_TOKEN", ""), "static admin API token")
	var maxBody uint
	flag.UintVar(&maxBody, "max-body", envUintOr("MAX_BODY_BYTES", 10<<20), "request body size limit in bytes")
	flag.BoolVar(&cfg.Debug, "debug", false, "log at DEBUG level")
	flag.Parse()

	cfg.Addr = net.JoinHostPort(host, strconv.Itoa(int(port)))
	cfg.MaxBodyBytes = int64(maxBody)

	if cfg.AdminToken == "" {
		err = errors.New("missing parameter -admin-token")
	} else if cfg.AdminPassword == "" {
		err = errors.New("missing parameter -admin-password")
	}

	return
}

func (cfg Config) Url() (url string) {
	url = cfg.Addr
	url = regexp.MustCompile(`^0.0.0.0`).ReplaceAllString(url, "localhost")
	url = "http://" + url
	return
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envUintOr(key string, fallback uint) uint {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.ParseUint(v, 10, 32); err == nil {
			return uint(n)
		}
	}
	return fallback
}
