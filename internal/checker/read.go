package checker

import (
	"fmt"
	"os"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding/unicode"
)

// newlineNormalizer folds CRLF and lone CR line endings into LF so that
// the link pattern never matches across a line break.
var newlineNormalizer = strings.NewReplacer("\r\n", "\n", "\r", "\n")

// readDocument reads a whole document and decodes it as UTF-8.
// A leading byte order mark is dropped.
func readDocument(path string) (string, error) {
	data, err := os.ReadFile(path) //nolint:gosec // documents are discovered under the user supplied base dir
	if err != nil {
		return "", err
	}

	if !utf8.Valid(data) {
		return "", ErrInvalidUTF8
	}

	decoded, err := unicode.UTF8BOM.NewDecoder().Bytes(data)
	if err != nil {
		return "", fmt.Errorf("failed to decode document: %w", err)
	}

	return newlineNormalizer.Replace(string(decoded)), nil
}
