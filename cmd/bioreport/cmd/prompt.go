package cmd

import (
	"bufio"
	"fmt"
	"net/http"
	"os"
	"strings"

	"github.com/awnumar/memguard"

	"github.com/bioreport/bioreport-go/jar"
)

// promptPassword reads a password from stdin into a locked memguard
// buffer. The caller must Destroy the buffer as soon as the password
// has been sent; the raw credential never lives anywhere else.
func promptPassword(label string) (*memguard.LockedBuffer, error) {
	fmt.Fprintf(os.Stderr, "%s: ", label)
	buf, err := memguard.NewBufferFromReaderUntil(os.Stdin, '\n')
	if err != nil {
		return nil, fmt.Errorf("reading password: %w", err)
	}
	fmt.Fprintln(os.Stderr)
	return buf, nil
}

// passwordString trims the line ending without copying the secret into
// additional heap allocations beyond the one the request encoder makes.
func passwordString(buf *memguard.LockedBuffer) string {
	return strings.TrimRight(buf.String(), "\r\n")
}

func promptLine(label string) (string, error) {
	fmt.Fprintf(os.Stderr, "%s: ", label)
	line, err := bufio.NewReader(os.Stdin).ReadString('\n')
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(line), nil
}

func httpClientWithJar(cookies *jar.Bolt) *http.Client {
	return &http.Client{Jar: cookies}
}
