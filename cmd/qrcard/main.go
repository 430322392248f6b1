package main

import (
	"log"

	"github.com/MrSnakeDoc/qrcard/internal/app"
)

func main() {
	if err := app.New().Run(); err != nil {
		log.Fatalf("❌ qrcard failed: %v", err)
	}
}
