package initializers

import (
	"log"
	"os"

	"github.com/joho/godotenv"
)

// LoadEnv reads .env into the process environment. A missing file is fine;
// deployed environments inject configuration directly.
func LoadEnv() error {
	if _, err := os.Stat(".env"); os.IsNotExist(err) {
		log.Println("No .env file found, using process environment")
		return nil
	}
	if err := godotenv.Load(); err != nil {
		log.Printf("Failed to load .env: %v", err)
		return err
	}
	log.Println("Env loaded successfully")
	return nil
}
