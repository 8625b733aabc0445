package main

import (
	"os"

	"github.com/gorilla/mux"
	"github.com/redis/go-redis/v9"

	"diarychat/internal/config"
	"diarychat/internal/logger"
	"diarychat/internal/mongo"
	"diarychat/internal/mysql"
	"diarychat/internal/routing"
	"diarychat/pkg/middleware"
	"diarychat/pkg/revocation"
	"diarychat/pkg/token"
)

func main() {
	config.Load() // load env var from .env

	db := mysql.LoadDB()
	defer db.Close()

	mongoDB := mongo.LoadDB()

	logger := logger.Load()

	var revoked revocation.Store
	if addr := os.Getenv("REDIS_ADDR"); addr != "" {
		revoked = revocation.NewRedisStore(redis.NewClient(&redis.Options{Addr: addr}))
	} else {
		revoked = revocation.NewMySQLStore(db)
	}

	authority := token.NewAuthority([]byte(os.Getenv("JWT_SECRET")), revoked)

	r := mux.NewRouter()
	api := r.PathPrefix("/api").Subrouter()
	api.Use(middleware.Panic)
	api.Use(middleware.CheckJWT(authority))

	routing.InitRoutes(api, db, mongoDB, authority, logger)
	routing.StartServer(r) // start server on localhost:8080
}
