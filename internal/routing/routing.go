package routing

import (
	"database/sql"
	"fmt"
	"log"
	"log/slog"
	"net/http"

	"github.com/gorilla/mux"
	"go.mongodb.org/mongo-driver/mongo"

	"diarychat/pkg/chat"
	"diarychat/pkg/friend"
	"diarychat/pkg/handlers"
	"diarychat/pkg/message"
	"diarychat/pkg/token"
	"diarychat/pkg/user"
)

const friendIDPattern = "{friend_id:[a-zA-Z0-9]+}"

func InitRoutes(api *mux.Router, db *sql.DB, mongoDB *mongo.Database, authority *token.Authority, logger *slog.Logger) {

	userService := user.NewService(user.NewMySQLRepo(db))
	friendRepo := friend.NewMySQLRepo(db)
	messageStore := message.NewMongoRepo(mongoDB)
	registry := chat.NewRegistry(logger)

	authHandler := handlers.NewAuthHandler(userService, authority, logger)
	friendHandler := handlers.NewFriendHandler(friendRepo, logger)
	chatHandler := handlers.NewChatHandler(registry, messageStore, authority, friendRepo, userService, logger)

	/* -+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+ */

	authRouter := api.PathPrefix("").Subrouter()
	friendRouter := api.PathPrefix("/friends").Subrouter()
	chatRouter := api.PathPrefix("/chat").Subrouter()
	messagesRouter := api.PathPrefix("/messages").Subrouter()

	/* auth routers */
	authRouter.HandleFunc("/register", authHandler.Register).Methods("POST").Name("register")
	authRouter.HandleFunc("/login", authHandler.Login).Methods("POST").Name("login")
	authRouter.HandleFunc("/token/refresh", authHandler.Refresh).Methods("POST").Name("refresh")
	authRouter.HandleFunc("/logout", authHandler.Logout).Methods("POST").Name("logout")

	/* friend routers */
	friendRouter.HandleFunc("/"+friendIDPattern, friendHandler.Request).Methods("POST")
	friendRouter.HandleFunc("/"+friendIDPattern, friendHandler.Accept).Methods("PUT")
	friendRouter.HandleFunc("/"+friendIDPattern, friendHandler.Remove).Methods("DELETE")

	/* chat routers */
	chatRouter.HandleFunc("/"+friendIDPattern, chatHandler.Connect).Methods("GET")

	/* message routers */
	messagesRouter.HandleFunc("", chatHandler.SendMessage).Methods("POST")
	messagesRouter.HandleFunc("/"+friendIDPattern, chatHandler.History).Methods("GET")
}

func StartServer(r *mux.Router) {
	fmt.Println("\n\033[32m", "The server is running on http://localhost:8080", "\033[0m")
	if err := http.ListenAndServe(":8080", r); err != nil {
		log.Fatal("Server failed:", err)
	}
}
