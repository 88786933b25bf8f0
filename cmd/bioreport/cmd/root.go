package cmd

import (
	"log/slog"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/bioreport/bioreport-go/client"
	"github.com/bioreport/bioreport-go/jar"
	"github.com/bioreport/bioreport-go/session"
)

var (
	apiURL  string
	dataDir string
	verbose bool
)

var rootCmd = &cobra.Command{
	Use:   "bioreport",
	Short: "BioReport is a personal lab-report tracker",
	Long: `Command-line client for the BioReport API. The session lives in
server-issued cookies persisted under the data directory; no token or
password is ever stored locally.`,
}

func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}

func init() {
	defaultURL := os.Getenv("BIOREPORT_URL")
	if defaultURL == "" {
		defaultURL = "http://localhost:8080/api"
	}
	rootCmd.PersistentFlags().StringVar(&apiURL, "api-url", defaultURL, "base URL of the BioReport API (env BIOREPORT_URL)")
	rootCmd.PersistentFlags().StringVar(&dataDir, "data-dir", defaultDataDir(), "directory for the persisted cookie jar")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
}

func defaultDataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".bioreport"
	}
	return filepath.Join(home, ".bioreport")
}

// newClient builds the SDK client backed by the persistent cookie jar.
// The returned cleanup closes the jar database.
func newClient() (*client.Client, *jar.Bolt, func(), error) {
	if err := os.MkdirAll(dataDir, 0o700); err != nil {
		return nil, nil, nil, err
	}
	cookies, err := jar.Open(filepath.Join(dataDir, "cookies.db"))
	if err != nil {
		return nil, nil, nil, err
	}

	level := slog.LevelWarn
	if verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	api, err := client.New(apiURL,
		client.WithHTTPClient(httpClientWithJar(cookies)),
		client.WithLogger(logger),
	)
	if err != nil {
		cookies.Close()
		return nil, nil, nil, err
	}
	return api, cookies, func() { cookies.Close() }, nil
}

// newStore builds the session store on top of the SDK client.
func newStore() (*session.Store, *jar.Bolt, func(), error) {
	api, cookies, cleanup, err := newClient()
	if err != nil {
		return nil, nil, nil, err
	}
	return session.NewStore(api), cookies, cleanup, nil
}
