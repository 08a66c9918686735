package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/wonny/pocscan/internal/contracts"
	"github.com/wonny/pocscan/internal/scanconfig"
)

// universeCmd represents the universe command
var universeCmd = &cobra.Command{
	Use:   "universe",
	Short: "스캔 대상 종목 조회",
	Long: `스캔 대상 종목을 출력합니다.

프리셋 파일에 universe가 있으면 그 목록을, 없으면 기본 20종목을 사용합니다.

Example:
  go run ./cmd/pocscan universe
  go run ./cmd/pocscan universe --sector 전기전자`,
	RunE: runUniverse,
}

var universeSector string

func init() {
	rootCmd.AddCommand(universeCmd)
	universeCmd.Flags().StringVar(&universeSector, "sector", "", "업종 필터")
}

func runUniverse(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig("warn")
	if err != nil {
		return err
	}

	presets, err := scanconfig.LoadOrBuiltin(cfg.Scan.PresetsFile)
	if err != nil {
		return fmt.Errorf("load presets: %w", err)
	}
	registry, err := presets.Registry()
	if err != nil {
		return err
	}

	instruments := registry.Instruments()
	if universeSector != "" {
		filtered := make([]contracts.Instrument, 0, len(instruments))
		for _, inst := range instruments {
			if inst.Sector == universeSector {
				filtered = append(filtered, inst)
			}
		}
		instruments = filtered
	}

	PrintHeader(fmt.Sprintf("Universe (%d/%d)", len(instruments), registry.Len()))
	widths := []int{4, 8, 16, 10, 6}
	PrintTableHeader([]string{"#", "코드", "종목명", "업종", "시장"}, widths)
	for i, inst := range instruments {
		PrintTableRow([]string{fmt.Sprintf("%d", i+1), inst.Symbol, inst.Name, inst.Sector, inst.Market}, widths)
	}

	fmt.Println()
	PrintKeyValue("Sectors", fmt.Sprintf("%v", registry.Sectors()), 8)
	return nil
}
