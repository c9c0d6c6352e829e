package config

import (
	"os"
	"path/filepath"

	_ "github.com/joho/godotenv/autoload"
	"github.com/sirupsen/logrus"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

type Config struct {
	DBType            string // sqlite or postgres
	DBDSN             string
	HTTPPort          string
	RedisAddr         string
	KafkaBrokers      string
	Compression       string // nop, gzip, brotli or lz4
	AIBaseURL         string
	AIKey             string
	AIModel           string
	ReconcileSchedule string
}

func LoadConfig() *Config {
	return &Config{
		DBType:            env("DB_TYPE", "sqlite"),
		DBDSN:             env("DB_DSN", ".db/knowledgehub.db"),
		HTTPPort:          env("HTTP_PORT", "8080"),
		RedisAddr:         env("REDIS_ADDR", ""),
		KafkaBrokers:      env("KAFKA_BROKERS", ""),
		Compression:       env("CONTENT_COMPRESSION", "nop"),
		AIBaseURL:         env("AI_BASE_URL", ""),
		AIKey:             env("AI_API_KEY", ""),
		AIModel:           env("AI_MODEL", ""),
		ReconcileSchedule: env("ACTIVITY_RECONCILE_CRON", "@every 10m"),
	}
}

func GetDb(cnf *Config) *gorm.DB {
	var db *gorm.DB
	var err error

	switch cnf.DBType {
	case "postgres":
		db, err = gorm.Open(postgres.Open(cnf.DBDSN), &gorm.Config{})
	default:
		if dir := filepath.Dir(cnf.DBDSN); dir != "" && dir != "." {
			if err := os.MkdirAll(dir, os.ModePerm); err != nil {
				logrus.Fatalf("failed to create database directory: %v", err)
			}
		}
		db, err = gorm.Open(sqlite.Open(cnf.DBDSN), &gorm.Config{})
	}
	if err != nil {
		logrus.Fatalf("failed to connect to %s database: %v", cnf.DBType, err)
	}

	return db
}

func env(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}
