package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/wonny/pocscan/internal/contracts"
)

// scanCmd represents the scan command
var scanCmd = &cobra.Command{
	Use:   "scan",
	Short: "1회 스캔 실행",
	Long: `유니버스 전체를 한 번 스캔하고 추천 종목을 출력합니다.

조건은 프리셋에서 시작하며 플래그로 개별 값을 덮어쓸 수 있습니다.

Example:
  go run ./cmd/pocscan scan
  go run ./cmd/pocscan scan --preset conservative --json
  go run ./cmd/pocscan scan --source kis --volume-mult 2 --min-price 10000`,
	RunE: runScan,
}

var (
	scanPreset  string
	scanJSON    bool
	scanTimeout time.Duration

	scanPOCTolerance  float64
	scanBounce        float64
	scanVolumeMult    float64
	scanMinPrice      float64
	scanMaxPrice      float64
	scanMinTradeValue float64
)

func init() {
	rootCmd.AddCommand(scanCmd)

	f := scanCmd.Flags()
	f.StringVar(&scanPreset, "preset", "", "조건 프리셋 이름 (기본값: 프리셋 파일의 default)")
	f.BoolVar(&scanJSON, "json", false, "결과를 JSON으로 출력")
	f.DurationVar(&scanTimeout, "timeout", 5*time.Minute, "스캔 제한 시간")

	def := contracts.DefaultScanConditions()
	f.Float64Var(&scanPOCTolerance, "poc-tolerance", def.POCTolerancePct, "POC 허용 범위 (%)")
	f.Float64Var(&scanBounce, "bounce", def.BounceStrengthPct, "최소 반등 강도 (%)")
	f.Float64Var(&scanVolumeMult, "volume-mult", def.VolumeMultiplier, "평균 거래량 대비 배수")
	f.Float64Var(&scanMinPrice, "min-price", def.MinPrice, "최저가 (원)")
	f.Float64Var(&scanMaxPrice, "max-price", def.MaxPrice, "최고가 (원)")
	f.Float64Var(&scanMinTradeValue, "min-trade-value", def.MinTradeValueMillions, "최소 거래대금 (백만원)")
}

// overrideConditions applies only the flags the user actually set
func overrideConditions(cmd *cobra.Command, cond contracts.ScanConditions) contracts.ScanConditions {
	f := cmd.Flags()
	overrides := []struct {
		flag  string
		value float64
		field *float64
	}{
		{"poc-tolerance", scanPOCTolerance, &cond.POCTolerancePct},
		{"bounce", scanBounce, &cond.BounceStrengthPct},
		{"volume-mult", scanVolumeMult, &cond.VolumeMultiplier},
		{"min-price", scanMinPrice, &cond.MinPrice},
		{"max-price", scanMaxPrice, &cond.MaxPrice},
		{"min-trade-value", scanMinTradeValue, &cond.MinTradeValueMillions},
	}
	for _, o := range overrides {
		if f.Changed(o.flag) {
			*o.field = o.value
		}
	}
	return cond
}

func runScan(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx, cancel := context.WithTimeout(ctx, scanTimeout)
	defer cancel()

	// 콘솔 출력과 섞이지 않도록 경고 이상만 로그
	a, err := newApp(ctx, "warn")
	if err != nil {
		return err
	}
	defer a.Close()

	cond, err := a.conditions(scanPreset)
	if err != nil {
		return err
	}
	cond = overrideConditions(cmd, cond)

	if !scanJSON {
		PrintHeader("POC Scan")
		PrintKeyValue("Source", a.service.SourceName(), 10)
		PrintKeyValue("Universe", fmt.Sprintf("%d종목", a.service.Registry().Len()), 10)
		PrintKeyValue("Delay", a.cfg.Scan.RequestDelay.String(), 10)
		PrintKeyValue("Conditions", formatConditions(cond), 10)
		PrintSeparator()
	}

	start := time.Now()
	result, err := a.service.Run(ctx, cond)
	if err != nil {
		if !scanJSON {
			PrintError(err.Error())
		}
		return err
	}

	if scanJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(result)
	}

	printScanResult(result)
	fmt.Println()
	PrintSuccess(fmt.Sprintf("Scan completed in %.2fs", time.Since(start).Seconds()))
	return nil
}

func formatConditions(c contracts.ScanConditions) string {
	return fmt.Sprintf("POC ±%.1f%% · 반등 %.1f%% · 거래량 %.1f배 · %s~%s · 거래대금 %s백만",
		c.POCTolerancePct, c.BounceStrengthPct, c.VolumeMultiplier,
		won(c.MinPrice), won(c.MaxPrice), humanize.Comma(int64(c.MinTradeValueMillions)))
}

func printScanResult(result *contracts.ScanResult) {
	buy, sell := result.Count()

	fmt.Println()
	if len(result.Recommendations) == 0 {
		PrintInfo("조건에 맞는 종목이 없습니다")
	} else {
		widths := []int{4, 14, 8, 10, 10, 8, 8, 6}
		PrintTableHeader([]string{"신호", "종목", "코드", "현재가", "POC", "등락", "거래량", "강도"}, widths)
		for _, r := range result.Recommendations {
			PrintTableRow([]string{
				string(r.Signal),
				r.Name,
				r.Symbol,
				humanize.Comma(int64(r.CurrentPrice)),
				humanize.Comma(r.POC),
				fmt.Sprintf("%+.2f%%", r.PriceChangePct),
				fmt.Sprintf("%.2fx", r.VolumeRatio),
				fmt.Sprintf("%.1f", r.SignalStrength),
			}, widths)
		}

		fmt.Println()
		for _, r := range result.Recommendations {
			fmt.Printf("  %s %s\n", r.Signal, r.Name)
			PrintList(r.Reasons)
		}
	}

	fmt.Println()
	PrintSeparator()
	PrintKeyValue("Scanned", fmt.Sprintf("%d", result.TotalScanned), 10)
	PrintKeyValue("Signals", fmt.Sprintf("BUY %d / SELL %d", buy, sell), 10)
	PrintKeyValue("Stats", fmt.Sprintf("evaluated %d · skipped %d · failed %d",
		result.Stats.Evaluated, result.Stats.Skipped, result.Stats.Failed), 10)
	PrintKeyValue("Time", result.Timestamp.Local().Format(time.RFC3339), 10)

	if result.Stats.Failed > 0 {
		PrintWarning(fmt.Sprintf("%d종목 처리 중 오류 발생 (로그 확인)", result.Stats.Failed))
	}
}
