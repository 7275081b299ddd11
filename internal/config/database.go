package config

import (
	"os"
	"sync"
)

type DBConfig struct {
	Driver     string
	Host       string
	Port       string
	User       string
	Password   string
	Name       string
	SSLMode    string
	SQLitePath string
}

var (
	dbConfig *DBConfig
	dbOnce   sync.Once
)

func LoadDBConfig() *DBConfig {
	dbOnce.Do(func() {
		driver := os.Getenv("DB_DRIVER")
		if driver == "" {
			driver = "sqlite"
		}
		sqlitePath := os.Getenv("DB_SQLITE_PATH")
		if sqlitePath == "" {
			sqlitePath = "data/settings.db"
		}
		dbConfig = &DBConfig{
			Driver:     driver,
			Host:       os.Getenv("DB_HOST"),
			Port:       os.Getenv("DB_PORT"),
			User:       os.Getenv("DB_USER"),
			Password:   os.Getenv("DB_PASSWORD"),
			Name:       os.Getenv("DB_NAME"),
			SSLMode:    os.Getenv("DB_SSLMODE"),
			SQLitePath: sqlitePath,
		}
	})
	return dbConfig
}
