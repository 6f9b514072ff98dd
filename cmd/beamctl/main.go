package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/beamit-app/beamit-server/internal/client"
	"github.com/beamit-app/beamit-server/internal/client/cli"
)

func main() {
	defaultCreds, err := client.DefaultCredentialsPath()
	if err != nil {
		log.Fatalf("%v", err)
	}

	server := flag.String("s", "http://localhost:8080", "server base URL")
	credsPath := flag.String("creds", defaultCreds, "credentials cache file")
	flag.Parse()

	app := cli.NewApp(os.Stdout, *server, *credsPath)
	if err := app.Run(context.Background(), flag.Args()); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
