// cmd/cronrunner/main.go
//
// Weekly refresh entry point. Intended to be invoked by the platform
// scheduler against an already running server: it checks the ingestion
// status directly, then triggers a full crawl over HTTP so the run shares
// the server's politeness pacing and logging.
package main

import (
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"time"

	"github.com/joho/godotenv"

	"github.com/kaitak/fehdwatch/config"
	"github.com/kaitak/fehdwatch/database"
	"github.com/kaitak/fehdwatch/models"
)

func main() {
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

	status, err := database.GetSystemStatus()
	if err != nil {
		log.Fatalf("FATAL: Could not read system status: %v", err)
	}
	if status == nil || status.Value != models.StatusSeeded {
		log.Println("System not seeded yet. Skipping cron job.")
		return
	}

	backendURL := os.Getenv("BACKEND_URL")
	if backendURL == "" {
		backendURL = "http://localhost:" + config.AppConfig.Server.Port
	}

	// A full pass over the dataset takes minutes with the page delay.
	client := &http.Client{Timeout: 10 * time.Minute}
	url := fmt.Sprintf("%s/jobs/crawl?full=true", backendURL)

	log.Printf("Cron: Triggering weekly crawl via %s\n", url)
	resp, err := client.Post(url, "application/json", nil)
	if err != nil {
		log.Fatalf("FATAL: Crawl request failed: %v", err)
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)
	if resp.StatusCode != http.StatusOK {
		log.Fatalf("FATAL: Crawl request returned status %d: %s", resp.StatusCode, string(body))
	}
	log.Printf("Cron: Weekly crawl finished: %s\n", string(body))
}
