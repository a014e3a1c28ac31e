package config // package config loads application configuration from environment variables

import (
    "log"     // log is used to report configuration errors and halt execution
    "os"      // os provides access to environment variables
    "strconv" // strconv converts strings to other types
    "time"    // time expresses the scheduler cadences

    "github.com/joho/godotenv" // godotenv loads a local .env file in development
)

// Config holds all runtime configuration values.  Each field corresponds to
// an environment variable.  The types reflect how the values are used in
// the application: strings for identifiers and secrets, ints and durations
// for limits and cadences.
type Config struct {
    Env             string        // application environment (e.g. "dev", "prod")
    Port            string        // HTTP port to listen on
    DBUser          string        // database username
    DBPass          string        // database password (optional)
    DBHost          string        // database host address
    DBPort          string        // database port number
    DBName          string        // database name
    JWTSecret       string        // secret used to verify operator JWTs
    MaxPartySize    int           // per-booking ceiling on reserved seats
    OrgTimezone     string        // IANA zone id the lifecycle scheduler evaluates dates in
    PublishInterval time.Duration // cadence of the scheduler's auto-publish pass
    ArchiveInterval time.Duration // cadence of the scheduler's auto-archive pass
    CheckInCorrect  bool          // whether differing re-check-ins are applied as corrections
}

// Load reads configuration values from environment variables and returns a
// Config.  A .env file is loaded first when present so local development
// does not need exported variables.  Required variables are enforced by
// must() and missing values cause the program to exit with a fatal log
// message.
func Load() Config {
    _ = godotenv.Load() // absent .env is fine; real environments export vars

    return Config{
        Env:             must("APP_ENV"),      // environment (dev/test/prod)
        Port:            must("APP_PORT"),     // port to bind the HTTP server
        DBUser:          must("DB_USER"),      // database user
        DBPass:          os.Getenv("DB_PASS"), // database password (empty allowed)
        DBHost:          must("DB_HOST"),      // database host
        DBPort:          must("DB_PORT"),      // database port
        DBName:          must("DB_NAME"),      // database name
        JWTSecret:       must("JWT_SECRET"),   // secret used for verifying JWTs
        MaxPartySize:    mustInt("MAX_PARTY_SIZE"),
        OrgTimezone:     must("ORG_TIMEZONE"),
        PublishInterval: minutes("PUBLISH_INTERVAL_MIN", 2),
        ArchiveInterval: minutes("ARCHIVE_INTERVAL_MIN", 60),
        CheckInCorrect:  boolDefault("CHECKIN_CORRECTIONS", true),
    }
}

// must retrieves the value of a required environment variable.  If the
// variable is unset or empty, the application logs a fatal error and exits.
func must(key string) string {
    v, ok := os.LookupEnv(key)
    if !ok || v == "" {
        log.Fatalf("missing required env var: %s", key)
    }
    return v
}

// mustInt is like must() but converts the retrieved string into an integer.
// If conversion fails, the application logs a fatal error and exits.
func mustInt(key string) int {
    s := must(key)
    n, err := strconv.Atoi(s)
    if err != nil {
        log.Fatalf("invalid int for %s: %q", key, s)
    }
    return n
}

// minutes reads an optional integer variable expressed in minutes and
// returns it as a duration, falling back to def when unset.
func minutes(key string, def int) time.Duration {
    v := os.Getenv(key)
    if v == "" {
        return time.Duration(def) * time.Minute
    }
    n, err := strconv.Atoi(v)
    if err != nil || n < 1 {
        log.Fatalf("invalid minutes for %s: %q", key, v)
    }
    return time.Duration(n) * time.Minute
}

// boolDefault reads an optional boolean variable, falling back to def
// when unset or unrecognized.
func boolDefault(key string, def bool) bool {
    switch os.Getenv(key) {
    case "1", "true", "TRUE", "True", "yes", "on":
        return true
    case "0", "false", "FALSE", "False", "no", "off":
        return false
    }
    return def
}
