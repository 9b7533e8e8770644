// main.go
package main

import (
	"encoding/json"
	"log"
	"net/http"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/cors"

	"github.com/kaitak/fehdwatch/config"
	"github.com/kaitak/fehdwatch/database"
	"github.com/kaitak/fehdwatch/handlers"
)

func main() {
	// Load .env file if present (local development).
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, relying on environment variables")
	}

	configPath := "config/config.yaml"
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		configPath = "config.yaml"
	}
	if err := config.LoadConfig(configPath); err != nil {
		log.Fatalf("FATAL: Could not load configuration: %v", err)
	}

	if err := database.InitDB(config.AppConfig.Database); err != nil {
		log.Fatalf("FATAL: Could not initialize database: %v", err)
	}
	defer database.CloseDB()

	mux := http.NewServeMux()

	mux.HandleFunc("/health", healthCheckHandler)
	mux.HandleFunc("/api/restaurants", handlers.GetRestaurantsHandler)
	mux.HandleFunc("/api/districts", handlers.GetDistrictsHandler)
	mux.HandleFunc("/jobs/crawl", handlers.TriggerCrawlHandler)
	mux.HandleFunc("/jobs/status", handlers.GetJobStatusHandler)
	mux.HandleFunc("/test/load-sample-data", handlers.LoadSampleDataHandler)
	mux.HandleFunc("/debug/fehd-probe", handlers.ProbeUpstreamHandler)

	handler := cors.New(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{http.MethodGet, http.MethodPost},
		AllowedHeaders: []string{"Content-Type"},
	}).Handler(mux)

	port := config.AppConfig.Server.Port
	log.Printf("Server starting on port %s...\n", port)
	if err := http.ListenAndServe(":"+port, handler); err != nil {
		log.Fatalf("FATAL: Could not start server: %v", err)
	}
}

func healthCheckHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	if err := database.DB.Ping(); err != nil {
		w.WriteHeader(http.StatusServiceUnavailable)
		json.NewEncoder(w).Encode(map[string]string{"status": "unhealthy", "error": err.Error()})
		return
	}
	json.NewEncoder(w).Encode(map[string]string{
		"status":    "ok",
		"timestamp": time.Now().Format(time.RFC3339),
	})
}
