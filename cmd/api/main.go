package main

import (
	_ "time/tzdata"

	"github.com/almuerzo-cl/almuerzo/backend/internal/cmd"
)

// Version is set at build time via -ldflags "-X main.Version=...".
var Version = "dev"

func main() {
	cmd.SetVersion(Version)
	cmd.Execute()
}
