package config

import (
	"os"
	"strconv"
	"strings"
)

// Config is read once at startup; the composition root passes the relevant
// pieces down to each component.
type Config struct {
	Port           string
	PostgresURL    string
	DataDir        string
	KafkaBrokers   []string
	Currency       string
	OrderPrefix    string
	MaxQuantity    int
	CartExpiryDays int

	FreeShippingThreshold float64
	BaseShippingCost      float64
	WeightThresholdKg     float64
	CostPerKg             float64
}

func Load() *Config {
	return &Config{
		Port:           getEnv("PORT", "8080"),
		PostgresURL:    getEnv("POSTGRES_URL", ""),
		DataDir:        getEnv("DATA_DIR", "data"),
		KafkaBrokers:   getEnvAsList("KAFKA_BROKERS"),
		Currency:       getEnv("CURRENCY", "EUR"),
		OrderPrefix:    getEnv("ORDER_PREFIX", "VR"),
		MaxQuantity:    getEnvAsInt("MAX_QUANTITY_PER_ITEM", 99),
		CartExpiryDays: getEnvAsInt("CART_EXPIRY_DAYS", 7),

		FreeShippingThreshold: getEnvAsFloat("FREE_SHIPPING_THRESHOLD", 100),
		BaseShippingCost:      getEnvAsFloat("BASE_SHIPPING_COST", 5),
		WeightThresholdKg:     getEnvAsFloat("SHIPPING_WEIGHT_THRESHOLD_KG", 5),
		CostPerKg:             getEnvAsFloat("SHIPPING_COST_PER_KG", 2),
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.ParseFloat(valueStr, 64)
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvAsList(key string) []string {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return nil
	}
	parts := strings.Split(valueStr, ",")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
