package main

import (
	"newsdigest/cmd/cmd"
	"newsdigest/internal/logger"
)

func main() {
	logger.Init()
	cmd.Execute()
}
