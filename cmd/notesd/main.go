package main

import (
	"log"

	"github.com/JatinVashisht1/clean-notes-backend/cmd/internal/app"
)

func main() {
	if err := app.Run(); err != nil {
		log.Fatal(err)
	}
}
