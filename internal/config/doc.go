// Package config manages application configuration for the club portal API.
//
// Configuration is read from environment variables, after applying a .env
// file from the working directory when one exists:
//
//	cfg, err := config.Load()
//	if err := cfg.Validate(); err != nil { ... }
//
// # Configuration Groups
//
//   - ServerConfig: HTTP server settings (port, env, timeouts, CORS)
//   - DatabaseConfig: SurrealDB connection settings
//   - RedisConfig: TTL cache connection
//   - JWTConfig: HMAC secret and token lifetimes
//   - MailConfig: SMTP relay
//   - CloudinaryConfig: image CDN credentials
//   - CodeforcesConfig: judge API endpoint
//   - AuthConfig: account policy (allowed email domain)
//
// # Environment Variables
//
//	SERVER_PORT, SERVER_ENV, CORS_ALLOWED_ORIGINS
//	DB_HOST, DB_PORT, DB_NAMESPACE, DB_DATABASE, DB_USER, DB_PASSWORD
//	REDIS_ADDR, REDIS_PASSWORD, REDIS_DB
//	JWT_SECRET, JWT_ISSUER, JWT_ACCESS_TTL, JWT_OTP_TTL
//	SMTP_HOST, SMTP_PORT, SMTP_USER, SMTP_PASSWORD, SMTP_FROM, SMTP_FROM_NAME
//	CLOUDINARY_CLOUD_NAME, CLOUDINARY_API_KEY, CLOUDINARY_API_SECRET
//	CODEFORCES_BASE_URL, CODEFORCES_TIMEOUT
//	AUTH_EMAIL_DOMAIN
package config
