package cli

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"golang.org/x/term"

	"github.com/parkit-app/parkit-go/internal/common"
	"github.com/parkit-app/parkit-go/internal/models"
)

// readPassword is a test seam for term.ReadPassword.
// In tests you can replace it with a stub to avoid touching the terminal.
var readPassword = term.ReadPassword

// Indirections over the input helpers used by the command handlers,
// swappable in tests.
var (
	getSimpleText  = GetSimpleText
	getSecretText  = GetSecretText
	getCoordinates = GetCoordinates
	getPositiveInt = GetPositiveInt
)

// GetSimpleText prints a prompt to w and reads a single line of input from reader.
// The trailing newline is trimmed. If EOF occurs after some input was read,
// the partial line is returned.
//
// Example prompt format:
//
//	Prompt text
//	> _
func GetSimpleText(reader *bufio.Reader, prompt string, w io.Writer) (string, error) {
	if _, err := fmt.Fprint(w, prompt+"\n> "); err != nil {
		return "", err
	}
	line, err := reader.ReadString('\n')
	if err != nil {
		if errors.Is(err, io.EOF) && len(line) > 0 {
			return strings.TrimSpace(line), nil
		}
		return "", err
	}
	return strings.TrimSpace(line), nil
}

// GetSecretText prints a prompt to w and reads a value from the user's
// terminal without echo. Provider identity tokens are credentials and should
// not end up in terminal scrollback. A newline is printed after the read to
// keep the UI tidy.
//
// The returned byte slice should be wiped by the caller when no longer needed.
func GetSecretText(w io.Writer, prompt string) ([]byte, error) {
	if _, err := fmt.Fprint(w, prompt+": "); err != nil {
		return nil, err
	}
	secret, err := readPassword(int(os.Stdin.Fd()))
	fmt.Fprintln(w)
	if err != nil {
		return nil, err
	}
	return secret, nil
}

// GetCoordinates prompts for a "latitude, longitude" pair and parses it.
// Both a comma and plain whitespace work as separators. The parsed pair is
// range-checked before being returned.
func GetCoordinates(reader *bufio.Reader, prompt string, w io.Writer) (models.Coordinates, error) {
	var zero models.Coordinates

	line, err := GetSimpleText(reader, prompt, w)
	if err != nil {
		return zero, err
	}

	parts := strings.Fields(strings.ReplaceAll(line, ",", " "))
	if len(parts) != 2 {
		return zero, fmt.Errorf("%w: expected \"latitude, longitude\"", common.ErrValidation)
	}

	lat, err := strconv.ParseFloat(parts[0], 64)
	if err != nil {
		return zero, fmt.Errorf("%w: latitude %q", common.ErrValidation, parts[0])
	}
	lng, err := strconv.ParseFloat(parts[1], 64)
	if err != nil {
		return zero, fmt.Errorf("%w: longitude %q", common.ErrValidation, parts[1])
	}

	coords := models.Coordinates{Latitude: lat, Longitude: lng}
	if err := coords.Validate(); err != nil {
		return zero, err
	}
	return coords, nil
}

// GetPositiveInt prompts for a positive integer.
func GetPositiveInt(reader *bufio.Reader, prompt string, w io.Writer) (int, error) {
	line, err := GetSimpleText(reader, prompt, w)
	if err != nil {
		return 0, err
	}
	n, err := strconv.Atoi(line)
	if err != nil || n <= 0 {
		return 0, fmt.Errorf("%w: expected a positive number, got %q", common.ErrValidation, line)
	}
	return n, nil
}
