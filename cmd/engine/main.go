package main

import (
	"log"
	"os"

	"github.com/gin-gonic/gin"
	"github.com/muletrace/mule-engine/internal/api"
)

func main() {
	log.Println("Starting MuleTrace Detection Engine...")

	if mode := os.Getenv("GIN_MODE"); mode != "" {
		gin.SetMode(mode)
	}

	// Setup WebSocket Hub for run notifications
	wsHub := api.NewHub()
	go wsHub.Run()

	// Setup the Gin Router
	r := api.SetupRouter(wsHub)

	port := getEnvOrDefault("PORT", "5000")

	log.Printf("Engine running on :%s", port)
	if err := r.Run(":" + port); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}

// getEnvOrDefault returns the env var value or a safe default for
// non-secret settings.
func getEnvOrDefault(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}
