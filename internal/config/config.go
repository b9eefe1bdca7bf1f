package config

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	DBUser     string
	DBPassword string
	DBName     string
	DBHost     string
	DBPort     string

	RedisHost     string
	RedisPort     string
	RedisPassword string

	BotToken  string
	BotDomain string
	HTTPPort  string

	AdminAPIToken string
	AdminIDs      []int64

	StarsEnabled        bool
	CryptomusEnabled    bool
	CryptomusAPIKey     string
	CryptomusMerchantID string
	CryptomusAllowedIPs []string

	DefaultCurrency    string
	TrialEnabled       bool
	TrialDurationDays  int
	ReferralEnabled    bool
	ReferralRewardDays int

	OrderTTL      time.Duration
	SweepInterval time.Duration

	ProductsFile string
}

func LoadConfig() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using system environment variables")
	}

	return &Config{
		DBUser:     getEnv("DB_USER", "postgres"),
		DBPassword: getEnv("DB_PASSWORD", "postgres"),
		DBName:     getEnv("DB_NAME", "digistore_bot"),
		DBHost:     getEnv("DB_HOST", "localhost"),
		DBPort:     getEnv("DB_PORT", "5432"),

		RedisHost:     getEnv("REDIS_HOST", "localhost"),
		RedisPort:     getEnv("REDIS_PORT", "6379"),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),

		BotToken:  getEnv("TELEGRAM_BOT_TOKEN", ""),
		BotDomain: getEnv("BOT_DOMAIN", ""),
		HTTPPort:  getEnv("HTTP_PORT", "8000"),

		AdminAPIToken: getEnv("ADMIN_API_TOKEN", ""),
		AdminIDs:      getEnvInt64List("ADMIN_IDS"),

		StarsEnabled:        getEnvBool("TELEGRAM_STARS_ENABLED", true),
		CryptomusEnabled:    getEnvBool("CRYPTOMUS_ENABLED", false),
		CryptomusAPIKey:     getEnv("CRYPTOMUS_API_KEY", ""),
		CryptomusMerchantID: getEnv("CRYPTOMUS_MERCHANT_ID", ""),
		CryptomusAllowedIPs: getEnvList("CRYPTOMUS_ALLOWED_IPS"),

		DefaultCurrency:    getEnv("DEFAULT_CURRENCY", "RUB"),
		TrialEnabled:       getEnvBool("TRIAL_ENABLED", true),
		TrialDurationDays:  getEnvInt("TRIAL_DURATION_DAYS", 3),
		ReferralEnabled:    getEnvBool("REFERRAL_ENABLED", true),
		ReferralRewardDays: getEnvInt("REFERRAL_REWARD_DAYS", 7),

		OrderTTL:      time.Duration(getEnvInt("ORDER_TTL_MINUTES", 15)) * time.Minute,
		SweepInterval: time.Duration(getEnvInt("SWEEP_INTERVAL_MINUTES", 5)) * time.Minute,

		ProductsFile: getEnv("PRODUCTS_FILE", "data/products.json"),
	}
}

// WebhookBase returns the public base URL for payment callbacks, empty when no
// domain is configured.
func (c *Config) WebhookBase() string {
	if c.BotDomain == "" {
		return ""
	}
	return "https://" + c.BotDomain
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if value, exists := os.LookupEnv(key); exists {
		if parsed, err := strconv.ParseBool(value); err == nil {
			return parsed
		}
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if value, exists := os.LookupEnv(key); exists {
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		}
	}
	return fallback
}

func getEnvList(key string) []string {
	value := os.Getenv(key)
	if value == "" {
		return nil
	}
	parts := strings.Split(value, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func getEnvInt64List(key string) []int64 {
	var ids []int64
	for _, p := range getEnvList(key) {
		if id, err := strconv.ParseInt(p, 10, 64); err == nil {
			ids = append(ids, id)
		}
	}
	return ids
}
