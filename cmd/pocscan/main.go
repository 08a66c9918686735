package main

import (
	"os"
	_ "time/tzdata" // CRON_TZ=Asia/Seoul

	"github.com/wonny/pocscan/cmd/pocscan/commands"
)

// main is the entry point for the POC scanner CLI
// ⭐ 통합 CLI 진입점: go run ./cmd/pocscan [command]
func main() {
	if err := commands.Execute(); err != nil {
		os.Exit(1)
	}
}
