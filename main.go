package main

import (
	"errors"
	"io/fs"
	"log"

	"github.com/joho/godotenv"

	"ticket-review-gate/cmd"
)

func main() {
	// .env があれば読み込む (なくてもよい)
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		log.Fatalf("loading .env: %v", err)
	}

	cmd.Execute()
}
