package main

import (
	"fmt"
	"os"

	"github.com/pckassistant/graph-engine/internal/app"
)

func main() {
	a, err := app.New()
	if err != nil {
		fmt.Printf("failed to init app: %v\n", err)
		os.Exit(1)
	}
	defer a.Close()

	a.Start()

	fmt.Printf("server listening on :%s\n", a.Cfg.Port)
	if err := a.Run(":" + a.Cfg.Port); err != nil {
		a.Log.Warn("server failed", "error", err)
	}
}
