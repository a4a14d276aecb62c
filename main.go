package main

import (
	"os"

	"github.com/ligouras/locize-backup-docker/cmd"
)

func main() {
	os.Exit(cmd.Execute())
}
