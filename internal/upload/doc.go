// Package upload publishes optimized campaign images to S3 (or an
// S3-compatible service) and rewrites image references in rendered HTML to
// the public URLs.
//
// Credentials and bucket settings come from the environment, optionally
// seeded from a .env file:
//
//	MAILSMITH_S3_BUCKET, MAILSMITH_S3_REGION
//	MAILSMITH_S3_ACCESS_KEY_ID, MAILSMITH_S3_SECRET_KEY
//	MAILSMITH_S3_ENDPOINT, MAILSMITH_S3_BASE_URL
//	MAILSMITH_S3_PREFIX, MAILSMITH_S3_FORCE_PATH_STYLE
//
// Upload failures never block local output: callers log them and keep the
// local image and relative URL.
package upload
