package main

import (
	"fmt"
	"net/http"
	"os"

	"github.com/joho/godotenv"

	"github.com/blogware/blog-backend/db"
	"github.com/blogware/blog-backend/log"
	"github.com/blogware/blog-backend/router"
)

func main() {
	log.Info.Printf("Starting blog backend...\n")

	if err := godotenv.Load(); err == nil {
		log.Debug.Printf("loaded .env\n")
	}

	port := os.Getenv("PORT")
	if port == "" {
		log.Error.Fatalln("$PORT not set")
	}
	secret := os.Getenv("JWT_SECRET")
	if secret == "" {
		log.Error.Fatalln("$JWT_SECRET not set")
	}

	dbs, err := db.Init()
	if err != nil {
		log.Error.Fatalf("%v: %s", err, err)
	}

	r := router.Init(dbs, []byte(secret))

	log.Info.Printf("Listening on :%s\n", port)
	err = http.ListenAndServe(fmt.Sprintf(":%s", port), r)
	if err != nil {
		log.Error.Fatalln(err)
	}
}
