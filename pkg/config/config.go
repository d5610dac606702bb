package config

import "os"

type Config struct {
	Port                    string
	Env                     string
	JWTSecret               string
	FirebaseCredentialsPath string
	PostgresConnStr         string
	MongoURI                string
	MongoDatabase           string
	RedisHost               string
	RedisPort               string
	RedisPassword           string
}

func Load() *Config {
	return &Config{
		Port:                    getEnv("PORT", "8080"),
		Env:                     getEnv("ENV", "development"),
		JWTSecret:               getEnv("JWT_SECRET", "supersecretjwtkey"),
		FirebaseCredentialsPath: getEnv("FIREBASE_CREDENTIALS_PATH", ""),
		PostgresConnStr:         getEnv("POSTGRES_CONN_STR", ""),
		MongoURI:                getEnv("MONGO_URI", ""),
		MongoDatabase:           getEnv("MONGO_DB", "unilink"),
		RedisHost:               getEnv("REDIS_HOST", "localhost"),
		RedisPort:               getEnv("REDIS_PORT", "6379"),
		RedisPassword:           getEnv("REDIS_PASSWORD", ""),
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
