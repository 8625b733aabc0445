package config

import (
	"log"
	"os"

	"github.com/joho/godotenv"
)

func Load() {
	/*
		.env-local for a local setup, .env.docker inside docker;
		START points at whichever env file the launch script picked.
	*/
	if err := godotenv.Load(os.Getenv("START")); err != nil {
		log.Fatalf("Env file not found")
	}

	if os.Getenv("JWT_SECRET") == "" {
		log.Fatalf("JWT_SECRET is not set in environment")
	}
	if os.Getenv("MYSQL_DSN") == "" {
		log.Fatalf("MySQLDSN is not set in environment")
	}
	if os.Getenv("MONGO_URI") == "" {
		log.Fatalf("MongoURI is not set in environment")
	}
	if os.Getenv("MONGO_DB_NAME") == "" {
		log.Fatalf("MongoDB is not set in environment")
	}
	// REDIS_ADDR is optional: when set, revoked tokens are kept in redis
	// instead of the revoked_tokens table.
}
