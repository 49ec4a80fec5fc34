package database

import (
	"log"

	"consultbot/config"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// DB is the global relational handle, set only when STORE_DRIVER=postgres.
var DB *gorm.DB

// InitPostgres opens the Postgres connection used by the relational booking store.
func InitPostgres() {
	var err error
	DB, err = gorm.Open(postgres.Open(config.AppConfig.PostgresDSN), &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(logger.Warn),
	})
	if err != nil {
		log.Fatalf("failed to connect to Postgres: %v", err)
	}
	log.Println("Connected to Postgres successfully!")
}
