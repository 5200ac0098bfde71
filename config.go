package jobmarket

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"strings"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/nats-io/nats.go"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
	"gorm.io/gorm/schema"

	"log"
	"os"
	"time"

	"github.com/joho/godotenv"
)

type AppConfig struct {
	Mode         string
	ApiPort      string
	RealtimePort string
	MainDatabase struct {
		Host         string
		Port         string
		User         string
		Password     string
		DatabaseName string
		SSLMode      string
	}
	JWTConfig struct {
		Secret            string
		Expiration        int // in minutes
		RefreshExpiration int // in days
	}
	RedisConfig struct {
		Host     string
		Port     string
		Password string
		DB       int
	}
	NatsConfig struct {
		URL      string
		TenantID string
		Stream   string
	}
	MediaConfig struct {
		Endpoint  string
		AccessKey string
		SecretKey string
		Bucket    string
		UseSSL    bool
		PublicURL string
	}
	SmtpConfig struct {
		Host     string
		Port     int
		Username string
		Password string
		From     string
		UseTLS   bool
	}
	Timeouts struct {
		MediaUpload time.Duration
		Notify      time.Duration
	}
	OtpTTL time.Duration
}

var config AppConfig

func InitConfig(envfile string) {
	err := godotenv.Load(envfile)
	if err != nil {
		log.Fatal(fmt.Sprintf("Error loading %s file: %s", envfile, err))
	}
	config = AppConfig{
		Mode:         getEnvOrPanic("RUN_MODE"),
		ApiPort:      getEnvOrPanic("API_PORT"),
		RealtimePort: GetEnv("REALTIME_PORT", ":8081"),
		OtpTTL:       getDurationEnvOrDefault("OTP_TTL", 10*time.Minute),
	}
	config.MainDatabase.Host = getEnvOrPanic("DB_HOSTNAME")
	config.MainDatabase.Port = getEnvOrPanic("DB_PORT")
	config.MainDatabase.User = getEnvOrPanic("DB_USERNAME")
	config.MainDatabase.Password = getEnvOrPanic("DB_PASSWORD")
	config.MainDatabase.DatabaseName = getEnvOrPanic("DB_NAME")
	config.MainDatabase.SSLMode = getEnvOrPanic("DB_SSL_MODE")

	config.JWTConfig.Secret = getEnvOrPanic("JWT_SECRET")
	config.JWTConfig.Expiration = getIntEnvOrPanic("JWT_EXPIRATION_MINUTES")
	config.JWTConfig.RefreshExpiration = getIntEnvOrPanic("JWT_REFRESH_EXPIRATION_DAYS")

	config.RedisConfig.Host = GetEnv("REDIS_HOST", "localhost")
	config.RedisConfig.Port = GetEnv("REDIS_PORT", "6379")
	config.RedisConfig.Password = GetEnv("REDIS_PASSWORD", "")
	config.RedisConfig.DB = getIntEnvOrDefault("REDIS_DB", 0)

	config.NatsConfig.URL = GetEnv("NATS_URL", nats.DefaultURL)
	config.NatsConfig.TenantID = GetEnv("TENANT_ID", "default")
	config.NatsConfig.Stream = GetEnv("NATS_STREAM", "JOBMARKET")

	config.MediaConfig.Endpoint = getEnvOrPanic("MEDIA_ENDPOINT")
	config.MediaConfig.AccessKey = getEnvOrPanic("MEDIA_ACCESS_KEY")
	config.MediaConfig.SecretKey = getEnvOrPanic("MEDIA_SECRET_KEY")
	config.MediaConfig.Bucket = GetEnv("MEDIA_BUCKET", "job-media")
	config.MediaConfig.UseSSL = getBoolEnvOrDefault("MEDIA_USE_SSL", false)
	config.MediaConfig.PublicURL = GetEnv("MEDIA_PUBLIC_URL", defaultPublicURL(config.MediaConfig.Endpoint, config.MediaConfig.UseSSL))

	config.SmtpConfig.Host = GetEnv("SMTP_HOST", "")
	config.SmtpConfig.Port = getIntEnvOrDefault("SMTP_PORT", 587)
	config.SmtpConfig.Username = GetEnv("SMTP_USERNAME", "")
	config.SmtpConfig.Password = GetEnv("SMTP_PASSWORD", "")
	config.SmtpConfig.From = GetEnv("SMTP_FROM", "")
	config.SmtpConfig.UseTLS = getBoolEnvOrDefault("SMTP_USE_TLS", false)

	config.Timeouts.MediaUpload = getDurationEnvOrDefault("MEDIA_UPLOAD_TIMEOUT", 30*time.Second)
	config.Timeouts.Notify = getDurationEnvOrDefault("NOTIFY_TIMEOUT", 5*time.Second)

	Logger = initLogger()
	DB = connectToPostgres(config.MainDatabase.Host, config.MainDatabase.User, config.MainDatabase.Password, config.MainDatabase.DatabaseName, config.MainDatabase.Port, config.MainDatabase.SSLMode)
	Redis = connectToRedis(config.RedisConfig.Host, config.RedisConfig.Port, config.RedisConfig.Password, config.RedisConfig.DB)
	Nats = connectToNats(config.NatsConfig.URL)
	Media = connectToMedia(config.MediaConfig.Endpoint, config.MediaConfig.AccessKey, config.MediaConfig.SecretKey, config.MediaConfig.Bucket, config.MediaConfig.UseSSL)
}

func GetConfig() AppConfig {
	return config
}

func getEnvOrPanic(key string) string {
	value := os.Getenv(key)
	if value == "" {
		log.Fatalf("%s must be set", key)
	}
	return value
}

func GetEnv(key string, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

func getIntEnvOrPanic(key string) int {
	value, err := strconv.Atoi(os.Getenv(key))
	if err != nil {
		log.Fatalf("%s must be an integer", key)
	}
	return value
}

func getIntEnvOrDefault(key string, defaultValue int) int {
	raw := os.Getenv(key)
	if raw == "" {
		return defaultValue
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		return defaultValue
	}
	return value
}

func getBoolEnvOrDefault(key string, defaultValue bool) bool {
	raw := os.Getenv(key)
	if raw == "" {
		return defaultValue
	}
	value, err := strconv.ParseBool(raw)
	if err != nil {
		return defaultValue
	}
	return value
}

// getDurationEnvOrDefault accepts Go duration strings ("30s", "10m").
func getDurationEnvOrDefault(key string, defaultValue time.Duration) time.Duration {
	raw := os.Getenv(key)
	if raw == "" {
		return defaultValue
	}
	value, err := time.ParseDuration(raw)
	if err != nil || value <= 0 {
		return defaultValue
	}
	return value
}

func defaultPublicURL(endpoint string, useSSL bool) string {
	if useSSL {
		return "https://" + endpoint
	}
	return "http://" + endpoint
}

func connectToPostgres(host string, username string, password string, dbname string, port string, ssl string) *gorm.DB {
	var err error
	var db *gorm.DB
	var conn *sql.DB

	dsn := fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%s sslmode=%s",
		host, username, password, dbname, port, ssl)
	if db, err = gorm.Open(postgres.Open(dsn), GormConfig()); err != nil {
		panic(err)
	}
	if conn, err = db.DB(); err != nil {
		panic(err)
	}
	conn.SetMaxIdleConns(10)
	conn.SetMaxOpenConns(10)
	conn.SetConnMaxLifetime(time.Hour)
	return db
}

// GormConfig is shared by the application database and test databases so
// naming and error translation behave the same everywhere.
func GormConfig() *gorm.Config {
	return &gorm.Config{
		Logger: logger.New(
			log.New(os.Stdout, "\r\n", log.LstdFlags),
			logger.Config{
				SlowThreshold:             0,
				LogLevel:                  logger.Error,
				IgnoreRecordNotFoundError: true,
			},
		),
		CreateBatchSize: 1000,
		TranslateError:  true,
		NowFunc: func() time.Time {
			return time.Now()
		},
		NamingStrategy: schema.NamingStrategy{
			TablePrefix:         "",
			SingularTable:       true,
			NameReplacer:        nil,
			NoLowerCase:         false,
			IdentifierMaxLength: 0,
		},
	}
}

func initLogger() zerolog.Logger {
	output := zerolog.ConsoleWriter{
		Out:        os.Stdout,
		TimeFormat: "15:04:05",
		NoColor:    false,
		FormatLevel: func(i interface{}) string {
			return strings.ToUpper(fmt.Sprintf("| %-6s|", i))
		},
		FormatMessage: func(i interface{}) string {
			return fmt.Sprintf("  %s  ", i)
		},
		FormatFieldName: func(i interface{}) string {
			return fmt.Sprintf("%s=", i)
		},
		FormatFieldValue: func(i interface{}) string {
			return fmt.Sprintf("%s", i)
		},
	}

	return zerolog.New(output).With().Timestamp().Caller().Logger()
}

func connectToRedis(host string, port string, password string, db int) *redis.Client {
	client := redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%s", host, port),
		Password: password,
		DB:       db,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		panic(fmt.Sprintf("Failed to connect to Redis: %v", err))
	}

	return client
}

func connectToNats(url string) *nats.Conn {
	nc, err := nats.Connect(url,
		nats.Name("jobmarket-api"),
		nats.MaxReconnects(-1),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			if err != nil {
				Logger.Warn().Err(err).Msg("NATS disconnected")
			}
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			Logger.Info().Str("url", nc.ConnectedUrl()).Msg("NATS reconnected")
		}),
	)
	if err != nil {
		panic(fmt.Sprintf("Failed to connect to NATS: %v", err))
	}
	return nc
}

func connectToMedia(endpoint, accessKey, secretKey, bucket string, useSSL bool) *minio.Client {
	client, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(accessKey, secretKey, ""),
		Secure: useSSL,
	})
	if err != nil {
		panic(fmt.Sprintf("Failed to create media store client: %v", err))
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	exists, err := client.BucketExists(ctx, bucket)
	if err != nil {
		panic(fmt.Sprintf("Failed to reach media store: %v", err))
	}
	if !exists {
		if err := client.MakeBucket(ctx, bucket, minio.MakeBucketOptions{}); err != nil {
			panic(fmt.Sprintf("Failed to create media bucket %s: %v", bucket, err))
		}
	}
	return client
}
