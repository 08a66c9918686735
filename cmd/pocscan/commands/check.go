package commands

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"time"

	"github.com/spf13/cobra"

	"github.com/wonny/pocscan/internal/contracts"
	"github.com/wonny/pocscan/internal/external"
	"github.com/wonny/pocscan/internal/universe"
	"github.com/wonny/pocscan/pkg/database"
	"github.com/wonny/pocscan/pkg/logger"
	"github.com/wonny/pocscan/pkg/redis"
)

// checkCmd represents the check command
var checkCmd = &cobra.Command{
	Use:   "check [symbol]",
	Short: "연결 상태 점검",
	Long: `설정, Redis, PostgreSQL, 데이터 소스 연결을 순서대로 점검합니다.

데이터 소스는 지정한 종목(기본: 첫 번째 종목 삼성전자)의 시세와 일봉을
한 번 조회합니다. 종목은 스캔 대상 유니버스 안에서만 지정할 수 있습니다.

Example:
  go run ./cmd/pocscan check
  go run ./cmd/pocscan check 000660 --source kis`,
	Args: cobra.MaximumNArgs(1),
	RunE: runCheck,
}

func init() {
	rootCmd.AddCommand(checkCmd)
}

func runCheck(cmd *cobra.Command, args []string) error {
	fmt.Println("=== POC Scanner Connection Check ===")

	inst, err := checkInstrument(universe.Default(), args)
	if err != nil {
		PrintError(err.Error())
		return err
	}

	cfg, err := loadConfig("warn")
	if err != nil {
		PrintError(err.Error())
		return err
	}
	PrintSuccess(fmt.Sprintf("Config loaded (ENV: %s, SOURCE: %s)", cfg.Env, cfg.Scan.Source))
	log := logger.New(cfg)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	// Redis
	rdb, err := redis.New(cfg)
	switch {
	case err != nil:
		PrintError(fmt.Sprintf("Redis: %v", err))
		rdb = redis.Disabled()
	case !rdb.Enabled():
		PrintInfo("Redis disabled (REDIS_ENABLED=false)")
	default:
		rtt, err := rdb.Ping(ctx)
		if err != nil {
			PrintError(fmt.Sprintf("Redis ping: %v", err))
		} else {
			PrintSuccess(fmt.Sprintf("Redis connected (%s, %s)", rdb.Addr(), rtt))
		}
	}
	defer rdb.Close()

	// PostgreSQL
	db, err := database.New(cfg)
	switch {
	case errors.Is(err, database.ErrDisabled):
		PrintInfo("PostgreSQL disabled (DATABASE_URL not set)")
	case err != nil:
		PrintError(fmt.Sprintf("PostgreSQL: %v", err))
	default:
		defer db.Close()
		status, err := db.HealthCheck(ctx)
		if err != nil {
			PrintError(fmt.Sprintf("PostgreSQL health check: %v", err))
		} else {
			PrintSuccess(fmt.Sprintf("PostgreSQL connected (%s, %s)", maskURL(cfg.Database.URL), status.ResponseTime))
			PrintKeyValue("Connections", fmt.Sprintf("total %d · idle %d · acquired %d",
				status.TotalConns, status.IdleConns, status.AcquiredConns), 12)
		}
	}

	// Data source
	src, err := external.NewSource(cfg.Scan.Source, cfg, rdb, log)
	if err != nil {
		PrintError(err.Error())
		return err
	}
	if pf, ok := src.(contracts.Preflighter); ok {
		if err := pf.Preflight(ctx); err != nil {
			PrintError(fmt.Sprintf("%s preflight: %v", src.Name(), err))
			return err
		}
	}

	quote, err := src.GetQuote(ctx, inst.Symbol)
	if err != nil {
		PrintError(fmt.Sprintf("%s quote %s: %v", src.Name(), inst.Symbol, err))
		return err
	}
	bars, err := src.GetDailyBars(ctx, inst.Symbol, cfg.Scan.LookbackDays)
	if err != nil {
		PrintError(fmt.Sprintf("%s daily bars %s: %v", src.Name(), inst.Symbol, err))
		return err
	}

	PrintSuccess(fmt.Sprintf("%s reachable", src.Name()))
	PrintKeyValue(inst.Name, fmt.Sprintf("%s (%+.2f%%), %d bars", won(quote.CurrentPrice), quote.PriceChangePct, len(bars)), 12)

	fmt.Println("\n✅ All checks passed!")
	return nil
}

// checkInstrument resolves the optional symbol argument against the universe
func checkInstrument(reg *universe.Registry, args []string) (contracts.Instrument, error) {
	if len(args) == 0 {
		return reg.Instruments()[0], nil
	}
	inst, ok := reg.Lookup(args[0])
	if !ok {
		return contracts.Instrument{}, fmt.Errorf("symbol %s is not in the scan universe", args[0])
	}
	return inst, nil
}

// maskURL hides the password of a connection URL
func maskURL(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return "***"
	}
	return u.Redacted()
}
