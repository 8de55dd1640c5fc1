package config // package config loads application configuration from environment variables

import (
    "log"     // log is used to report configuration errors and halt execution
    "os"      // os provides access to environment variables
    "strconv" // strconv converts strings to other types
)

// Config holds all runtime configuration values.  Each field corresponds to
// an environment variable.  The types reflect how the values are used in
// the application: strings for identifiers and secrets, ints for durations and costs.
type Config struct {
    Env          string // application environment (e.g. "dev", "prod")
    Port         string // HTTP port to listen on
    DBUser       string // database username
    DBPass       string // database password (optional)
    DBHost       string // database host address
    DBPort       string // database port number
    DBName       string // database name
    JWTSecret    string // secret used to sign JWTs
    AccessTTLMin int    // access token time‑to‑live in minutes
    BcryptCost   int    // bcrypt cost for password hashing

    // Object storage settings.  The service stores appeal and chat
    // attachments in an S3‑compatible bucket and serves them back as
    // public URLs of the form {PublicBaseURL}/{Bucket}/{key}.
    S3Endpoint      string // S3 endpoint URL (e.g. https://storage.yandexcloud.net)
    S3Region        string // region passed to the SDK (provider specific)
    S3AccessKey     string // static access key id
    S3SecretKey     string // static secret access key
    S3Bucket        string // bucket holding all attachments
    S3PublicBaseURL string // base URL for public object links

    // FirebaseCredentialsPath points at a service account JSON file for the
    // FCM Admin SDK.  It is optional: when unset or unreadable the push
    // notification layer degrades to a no‑op so the API keeps working.
    FirebaseCredentialsPath string
}

// Load reads configuration values from environment variables and returns a
// Config.  Required variables are enforced by must() and missing values
// cause the program to exit with a fatal log message.
func Load() Config {
    return Config{
        Env:          must("APP_ENV"),      // environment (dev/test/prod)
        Port:         must("APP_PORT"),     // port to bind the HTTP server
        DBUser:       must("DB_USER"),      // database user
        DBPass:       os.Getenv("DB_PASS"), // database password (empty allowed)
        DBHost:       must("DB_HOST"),      // database host
        DBPort:       must("DB_PORT"),      // database port
        DBName:       must("DB_NAME"),      // database name
        JWTSecret:    must("JWT_SECRET"),   // secret used for signing JWTs
        AccessTTLMin: mustInt("ACCESS_TOKEN_TTL_MIN"), // TTL for access tokens in minutes
        BcryptCost:   mustInt("BCRYPT_COST"),          // bcrypt cost factor

        S3Endpoint:      must("S3_ENDPOINT"),   // object storage endpoint
        S3Region:        getenv("S3_REGION", "ru-central1"), // provider region
        S3AccessKey:     must("S3_ACCESS_KEY_ID"),
        S3SecretKey:     must("S3_SECRET_ACCESS_KEY"),
        S3Bucket:        must("S3_BUCKET"),
        S3PublicBaseURL: getenv("S3_PUBLIC_BASE_URL", "https://storage.yandexcloud.net"),

        FirebaseCredentialsPath: os.Getenv("FIREBASE_CREDENTIALS_PATH"), // optional
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
