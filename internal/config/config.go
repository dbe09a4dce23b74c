// Package config loads application configuration from environment
// variables.  Each concern gets its own file: this one covers the core
// service settings, redis.go the Redis client, ratelimit.go and
// cache.go their respective middleware.
package config

import (
    "log"
    "os"
    "strconv"
    "time"
)

// Config holds all runtime configuration values.  Each field corresponds
// to an environment variable.  Lock TTL and sweep interval are protocol
// parameters in spirit but implementation parameters in practice: both
// are tunable so operators can balance checkout time against
// seat-starvation risk.
type Config struct {
    Env           string        // application environment (e.g. "dev", "prod")
    Port          string        // HTTP port to listen on
    StoreDriver   string        // seat registry backend: "memory" or "mysql"
    DBUser        string        // database username (mysql driver only)
    DBPass        string        // database password (optional)
    DBHost        string        // database host address
    DBPort        string        // database port number
    DBName        string        // database name
    SessionSecret string        // secret used to sign holder session tokens
    LockTTL       time.Duration // seat lock time-to-live
    SweepInterval time.Duration // expiry sweep period; keep well below LockTTL
    Debug         bool          // surface debug logs (lock contention, sweeps)
}

// Load reads configuration values from environment variables and returns
// a Config.  Required variables are enforced by must() and missing
// values cause the program to exit with a fatal log message.  Database
// variables are only required when the MySQL store driver is selected.
func Load() Config {
    cfg := Config{
        Env:           must("APP_ENV"),
        Port:          must("APP_PORT"),
        StoreDriver:   envStr("STORE_DRIVER", "memory"),
        SessionSecret: must("SESSION_SECRET"),
        LockTTL:       envDur("LOCK_TTL", 90*time.Second),
        SweepInterval: envDur("LOCK_SWEEP_INTERVAL", 5*time.Second),
        Debug:         envBool("APP_DEBUG", false),
    }
    if cfg.StoreDriver == "mysql" {
        cfg.DBUser = must("DB_USER")
        cfg.DBPass = os.Getenv("DB_PASS") // empty allowed
        cfg.DBHost = must("DB_HOST")
        cfg.DBPort = must("DB_PORT")
        cfg.DBName = must("DB_NAME")
    }
    if cfg.SweepInterval >= cfg.LockTTL {
        log.Fatalf("LOCK_SWEEP_INTERVAL (%s) must be shorter than LOCK_TTL (%s)", cfg.SweepInterval, cfg.LockTTL)
    }
    return cfg
}

// must retrieves the value of a required environment variable.  If the
// variable is unset or empty, the application logs a fatal error and
// exits.
func must(key string) string {
    v, ok := os.LookupEnv(key)
    if !ok || v == "" {
        log.Fatalf("missing required env var: %s", key)
    }
    return v
}

func envStr(k, d string) string {
    if v := os.Getenv(k); v != "" {
        return v
    }
    return d
}

func envBool(k string, d bool) bool {
    v := os.Getenv(k)
    if v == "" {
        return d
    }
    switch v {
    case "1", "true", "TRUE", "True", "yes", "YES", "on", "ON":
        return true
    case "0", "false", "FALSE", "False", "no", "NO", "off", "OFF":
        return false
    }
    return d
}

func envInt(k string, d int) int {
    v := os.Getenv(k)
    if v == "" {
        return d
    }
    if n, err := strconv.Atoi(v); err == nil {
        return n
    }
    return d
}

func envDur(k string, d time.Duration) time.Duration {
    v := os.Getenv(k)
    if v == "" {
        return d
    }
    if dur, err := time.ParseDuration(v); err == nil {
        return dur
    }
    return d
}
