package commands

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/wonny/pocscan/internal/storage"
	"github.com/wonny/pocscan/pkg/database"
)

// historyCmd represents the history command
var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "저장된 스캔 이력 조회",
	Long: `PostgreSQL에 저장된 최근 스캔 실행 목록을 출력합니다 (DATABASE_URL 필요).

Example:
  go run ./cmd/pocscan history
  go run ./cmd/pocscan history --limit 50`,
	RunE: runHistory,
}

var historyLimit int

func init() {
	rootCmd.AddCommand(historyCmd)
	historyCmd.Flags().IntVar(&historyLimit, "limit", 20, "조회 개수")
}

func runHistory(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig("warn")
	if err != nil {
		return err
	}

	db, err := database.New(cfg)
	if err != nil {
		return fmt.Errorf("connect to database: %w", err)
	}
	defer db.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	runs, err := storage.NewRepository(db.Pool).RecentRuns(ctx, historyLimit)
	if err != nil {
		return err
	}

	PrintHeader(fmt.Sprintf("Scan History (%d)", len(runs)))
	if len(runs) == 0 {
		PrintInfo("저장된 스캔이 없습니다")
		return nil
	}

	widths := []int{6, 20, 28, 6, 4, 4}
	PrintTableHeader([]string{"ID", "Time", "Source", "Total", "BUY", "SELL"}, widths)
	for _, r := range runs {
		PrintTableRow([]string{
			fmt.Sprintf("%d", r.ID),
			r.ScannedAt.Local().Format("2006-01-02 15:04:05"),
			r.DataSource,
			fmt.Sprintf("%d", r.TotalScanned),
			fmt.Sprintf("%d", r.BuyCount),
			fmt.Sprintf("%d", r.SellCount),
		}, widths)
	}
	return nil
}

