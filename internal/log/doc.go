// Package log provides the slog loggers used by mdlinkcheck.
//
// Loggers write to stderr so that they never mix with the report on stdout.
// By default only warnings (unreadable documents, skipped directories) are
// shown; verbose mode adds per-document and per-link debug records.
//
// # Redaction
//
// Link targets are copied straight out of documents and may contain
// credentials, for example a pasted presigned URL. The SecureHandler masks:
//   - attributes whose key names a secret (password, token, cookie)
//   - values that look like credentials (JWTs, bearer tokens, AWS keys)
//   - secret query parameters and URL userinfo inside any string value
//
// # Usage
//
//	logger := log.NewSecureLogger(os.Stderr, verbose)
//	logger.Debug("link checked", "target", "setup.md?token=abc")
//	// target=setup.md?token=***REDACTED***
package log
