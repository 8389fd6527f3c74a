package utils

import (
	"path/filepath"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
	"github.com/spf13/viper"
)

// LoadConfig reads a .env file from the given directory if present and
// wires viper to the process environment. Real environment variables
// always win over the file.
func LoadConfig(path string) {
	if err := godotenv.Load(filepath.Join(path, ".env")); err != nil {
		logrus.Debug("No .env file found, relying on environment variables")
	}
	viper.AutomaticEnv()
}
