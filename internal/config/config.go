package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	redis "github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

type Config struct {
	Env string

	DataDir  string
	CacheDir string

	DBDriver string // sqlite or postgres
	DBDSN    string

	RedisAddr     string
	RedisPassword string
	RedisDB       int

	WorkspaceRetentionDays int
	DocumentRetentionDays  int
	ForkRetentionDays      int

	CacheGracePeriod   time.Duration
	CleanupCachePeriod time.Duration
	TrashSchedule      string

	LockLease time.Duration

	S3Bucket          string
	S3Region          string
	S3Endpoint        string
	S3AccessKeyID     string
	S3SecretAccessKey string
	S3Prefix          string
	S3PathStyle       bool
}

// Load reads the configuration from the environment, with a .env file as a
// fallback for local runs.
func Load() *Config {
	_ = godotenv.Load()

	cfg := &Config{
		Env: getEnv("ENV", "development"),

		DataDir:  getEnv("DATA_DIR", "./data/docs"),
		CacheDir: getEnv("CACHE_DIR", "./data/cache"),

		DBDriver: getEnv("DB_DRIVER", "sqlite"),
		DBDSN:    getEnv("DB_DSN", "./data/grist.db"),

		RedisAddr:     getEnv("REDIS_ADDR", "localhost:6379"),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisDB:       parseInt(getEnv("REDIS_DB", "0")),

		WorkspaceRetentionDays: parseInt(getEnv("WORKSPACE_RETENTION_DAYS", "30")),
		DocumentRetentionDays:  parseInt(getEnv("DOCUMENT_RETENTION_DAYS", "30")),
		ForkRetentionDays:      parseInt(getEnv("FORK_RETENTION_DAYS", "30")),

		CacheGracePeriod:   parseMillis(getEnv("CACHE_GRACE_PERIOD_MS", "3600000")),
		CleanupCachePeriod: parseMillis(getEnv("CLEANUP_CACHE_PERIOD_MS", "300000")),
		TrashSchedule:      getEnv("TRASH_COLLECT_SCHEDULE", "@daily"),

		LockLease: parseMillis(getEnv("LOCK_LEASE_MS", "600000")),

		S3Bucket:          getEnv("ATTACH_S3_BUCKET", ""),
		S3Region:          getEnv("ATTACH_S3_REGION", ""),
		S3Endpoint:        getEnv("ATTACH_S3_ENDPOINT", ""),
		S3AccessKeyID:     getEnv("ATTACH_S3_ACCESS_KEY_ID", ""),
		S3SecretAccessKey: getEnv("ATTACH_S3_SECRET_ACCESS_KEY", ""),
		S3Prefix:          getEnv("ATTACH_S3_PREFIX", "attachments"),
		S3PathStyle:       getEnv("ATTACH_S3_PATH_STYLE", "false") == "true",
	}

	cfg.log()
	return cfg
}

// CacheCleanupSchedule renders the cache cleanup interval as a cron spec.
func (c *Config) CacheCleanupSchedule() string {
	return "@every " + c.CleanupCachePeriod.String()
}

// OpenDB opens the configured resource database.
func (c *Config) OpenDB() (*gorm.DB, error) {
	switch c.DBDriver {
	case "postgres":
		return gorm.Open(postgres.Open(c.DBDSN), &gorm.Config{})
	default:
		return gorm.Open(sqlite.Open(c.DBDSN), &gorm.Config{})
	}
}

// Redis returns a client for the shared lock store.
func (c *Config) Redis() *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:     c.RedisAddr,
		Password: c.RedisPassword,
		DB:       c.RedisDB,
	})
}

func (c *Config) log() {
	logrus.Info("configuration loaded:")
	logrus.Infof("  env: %s", c.Env)
	logrus.Infof("  data dir: %s, cache dir: %s", c.DataDir, c.CacheDir)
	logrus.Infof("  db: %s", c.DBDriver)
	logrus.Infof("  redis: %s", c.RedisAddr)
	logrus.Infof("  retention days: workspace=%d document=%d fork=%d",
		c.WorkspaceRetentionDays, c.DocumentRetentionDays, c.ForkRetentionDays)
	logrus.Infof("  cache grace: %s, cleanup every: %s", c.CacheGracePeriod, c.CleanupCachePeriod)
	logrus.Infof("  trash schedule: %s, lock lease: %s", c.TrashSchedule, c.LockLease)
	if c.S3Bucket != "" {
		logrus.Infof("  s3 bucket: %s, key id: %s", c.S3Bucket, maskSecret(c.S3AccessKeyID))
	}
}

func maskSecret(secret string) string {
	if secret == "" {
		return "[NOT SET]"
	}
	if len(secret) <= 8 {
		return "[HIDDEN]"
	}
	return secret[:4] + "***" + secret[len(secret)-4:]
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func parseInt(s string) int {
	i, err := strconv.Atoi(s)
	if err != nil {
		logrus.Fatalf("failed to parse int: %s", s)
	}
	return i
}

func parseMillis(s string) time.Duration {
	ms, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		logrus.Fatalf("failed to parse milliseconds: %s", s)
	}
	return time.Duration(ms) * time.Millisecond
}
