/*
main.go - Application entry point

PURPOSE:
  Command-line entry for the FOCEP collection commission engine.

COMMANDS:
  serve     Start the HTTP API with graceful shutdown; when
            scheduler.enabled is set, the last closed month is processed
            for every collecteur on each scheduler.interval tick
  migrate   Create or upgrade the SQLite schema
  process   Run the commission pipeline for one collecteur and period

CONFIGURATION:
  --config   YAML file (optional, default config.yaml)
  COLLECT_*  Environment overrides, e.g. COLLECT_DATABASE_PATH=":memory:"
  .env       Loaded when present

GRACEFUL SHUTDOWN:
  On SIGINT/SIGTERM the server stops accepting connections, waits for
  active requests (--shutdown-timeout) and closes the database.

EXAMPLES:
  ./server serve --config=./config.yaml
  COLLECT_SERVER_PORT=3000 ./server serve
  ./server process --collecteur col-002 --from 2024-01-01 --to 2024-01-31

SEE ALSO:
  - api/server.go: Router configuration
  - config/config.go: Configuration keys and defaults
*/
package main

import (
	"fmt"
	"os"
)

func main() {
	if err := newRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
