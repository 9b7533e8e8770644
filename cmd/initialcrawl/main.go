// cmd/initialcrawl/main.go
//
// One-off seeding helper. Runs a preview crawl directly against the live
// site without going through the HTTP surface. Follow it with a full crawl
// (POST /jobs/crawl?full=true) to finish seeding.
package main

import (
	"fmt"
	"log"
	"os"

	"github.com/joho/godotenv"

	"github.com/kaitak/fehdwatch/config"
	"github.com/kaitak/fehdwatch/database"
	"github.com/kaitak/fehdwatch/models"
	"github.com/kaitak/fehdwatch/services"
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
	currentStatus := models.StatusNotStarted
	if status != nil {
		currentStatus = status.Value
	}
	if currentStatus == models.StatusSeeded {
		log.Println("Database already seeded. Nothing to do.")
		return
	}

	crawler, err := services.NewFEHDCrawler()
	if err != nil {
		log.Fatalf("FATAL: Could not build crawler: %v", err)
	}

	result, newStatus, err := crawler.Run(currentStatus, models.CrawlOptions{})
	if err != nil {
		log.Fatalf("FATAL: Preview crawl failed: %v", err)
	}

	fmt.Printf("Preview crawl complete.\n")
	fmt.Printf("  processed: %d\n", result.TotalRecords)
	fmt.Printf("  new:       %d\n", result.NewRecords)
	fmt.Printf("  updated:   %d\n", result.UpdatedRecords)
	fmt.Printf("  errors:    %d\n", result.Errors)
	fmt.Printf("  status:    %s\n", newStatus)
}
