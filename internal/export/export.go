package export

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"math/big"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/rovshanmuradov/solana-profit/internal/snapshot"
)

// ExportFormat represents the export file format
type ExportFormat string

const (
	FormatCSV  ExportFormat = "csv"
	FormatJSON ExportFormat = "json"
)

// Kind of a recorded profit window
const (
	KindMeasure = "measure"
	KindWatch   = "watch"
)

// ParseFormat проверяет формат экспорта из конфигурации.
func ParseFormat(s string) (ExportFormat, error) {
	switch ExportFormat(s) {
	case FormatCSV, FormatJSON:
		return ExportFormat(s), nil
	default:
		return "", fmt.Errorf("unsupported format: %s", s)
	}
}

// Record одна запись профита: замер операции или тик наблюдения.
type Record struct {
	Timestamp time.Time               `json:"timestamp"`
	Kind      string                  `json:"kind"`
	Wallet    string                  `json:"wallet"`
	Before    snapshot.WalletSnapshot `json:"before"`
	After     snapshot.WalletSnapshot `json:"after"`
	Profit    *big.Int                `json:"profit_lamports"`
	Success   bool                    `json:"success"`
	Error     string                  `json:"error,omitempty"`
}

// CSVHeaders returns headers for CSV export
func CSVHeaders() []string {
	return []string{
		"timestamp", "kind", "wallet",
		"sol_before", "wsol_before", "usdc_before",
		"sol_after", "wsol_after", "usdc_after",
		"profit_lamports", "profit_sol", "success", "error",
	}
}

// ToCSV converts a record to a CSV row
func (r Record) ToCSV() []string {
	u := func(v uint64) string { return strconv.FormatUint(v, 10) }
	profit := r.Profit
	if profit == nil {
		profit = new(big.Int)
	}
	return []string{
		r.Timestamp.UTC().Format(time.RFC3339),
		r.Kind,
		r.Wallet,
		u(r.Before.NativeBalance), u(r.Before.WrappedBalance), u(r.Before.StableBalance),
		u(r.After.NativeBalance), u(r.After.WrappedBalance), u(r.After.StableBalance),
		profit.String(),
		snapshot.FormatLamportsAsSOL(profit),
		strconv.FormatBool(r.Success),
		r.Error,
	}
}

// ExportOptions configures the export behavior
type ExportOptions struct {
	Format      ExportFormat
	StartTime   time.Time
	EndTime     time.Time
	KindFilter  string // measure или watch
	OnlySuccess bool
	OutputDir   string
}

// Exporter пишет записи профита в файл.
type Exporter struct {
	logger *zap.Logger
}

// NewExporter creates a new exporter
func NewExporter(logger *zap.Logger) *Exporter {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Exporter{logger: logger.Named("export")}
}

// Export выгружает записи по опциям и возвращает путь к файлу.
func (e *Exporter) Export(records []Record, options ExportOptions) (string, error) {
	filtered := filterRecords(records, options)
	if len(filtered) == 0 {
		return "", fmt.Errorf("no records match the export criteria")
	}

	sort.SliceStable(filtered, func(i, j int) bool {
		return filtered[i].Timestamp.Before(filtered[j].Timestamp)
	})

	if err := os.MkdirAll(options.OutputDir, 0755); err != nil {
		return "", fmt.Errorf("failed to create output directory: %w", err)
	}
	outputPath := filepath.Join(options.OutputDir, generateFilename(options))

	var err error
	switch options.Format {
	case FormatCSV:
		err = exportToCSV(filtered, outputPath)
	case FormatJSON:
		err = exportToJSON(filtered, outputPath)
	default:
		err = fmt.Errorf("unsupported format: %s", options.Format)
	}
	if err != nil {
		return "", err
	}

	e.logger.Info("Records exported",
		zap.String("file", outputPath),
		zap.Int("count", len(filtered)),
		zap.String("format", string(options.Format)))

	return outputPath, nil
}

func filterRecords(records []Record, options ExportOptions) []Record {
	var filtered []Record
	for _, r := range records {
		if !options.StartTime.IsZero() && r.Timestamp.Before(options.StartTime) {
			continue
		}
		if !options.EndTime.IsZero() && r.Timestamp.After(options.EndTime) {
			continue
		}
		if options.KindFilter != "" && r.Kind != options.KindFilter {
			continue
		}
		if options.OnlySuccess && !r.Success {
			continue
		}
		filtered = append(filtered, r)
	}
	return filtered
}

func generateFilename(options ExportOptions) string {
	prefix := "profit_all"
	if options.KindFilter != "" {
		prefix = "profit_" + options.KindFilter
	}
	return fmt.Sprintf("%s_%s.%s", prefix, time.Now().Format("20060102_150405.000"), options.Format)
}

func exportToCSV(records []Record, outputPath string) error {
	file, err := os.Create(outputPath)
	if err != nil {
		return fmt.Errorf("failed to create CSV file: %w", err)
	}
	defer file.Close()

	writer := csv.NewWriter(file)
	if err := writer.Write(CSVHeaders()); err != nil {
		return fmt.Errorf("failed to write CSV headers: %w", err)
	}
	for _, r := range records {
		if err := writer.Write(r.ToCSV()); err != nil {
			return fmt.Errorf("failed to write record: %w", err)
		}
	}
	writer.Flush()
	return writer.Error()
}

func exportToJSON(records []Record, outputPath string) error {
	file, err := os.Create(outputPath)
	if err != nil {
		return fmt.Errorf("failed to create JSON file: %w", err)
	}
	defer file.Close()

	encoder := json.NewEncoder(file)
	encoder.SetIndent("", "  ")

	exportData := struct {
		ExportTime  time.Time `json:"export_time"`
		RecordCount int       `json:"record_count"`
		Summary     Summary   `json:"summary"`
		Records     []Record  `json:"records"`
	}{
		ExportTime:  time.Now(),
		RecordCount: len(records),
		Summary:     Summarize(records),
		Records:     records,
	}

	if err := encoder.Encode(exportData); err != nil {
		return fmt.Errorf("failed to encode JSON: %w", err)
	}
	return nil
}

// Summary содержит агрегаты по выгруженным записям.
type Summary struct {
	TotalRecords int       `json:"total_records"`
	Successful   int       `json:"successful"`
	Measurements int       `json:"measurements"`
	TotalProfit  *big.Int  `json:"total_profit_lamports"`
	WinCount     int       `json:"win_count"`
	LossCount    int       `json:"loss_count"`
	StartDate    time.Time `json:"start_date"`
	EndDate      time.Time `json:"end_date"`
}

// Summarize считает агрегаты по записям. Окна записей не пересекаются,
// поэтому профит суммируется напрямую.
func Summarize(records []Record) Summary {
	summary := Summary{
		TotalRecords: len(records),
		TotalProfit:  new(big.Int),
	}
	if len(records) == 0 {
		return summary
	}

	summary.StartDate = records[0].Timestamp
	summary.EndDate = records[0].Timestamp
	for _, r := range records {
		if r.Timestamp.Before(summary.StartDate) {
			summary.StartDate = r.Timestamp
		}
		if r.Timestamp.After(summary.EndDate) {
			summary.EndDate = r.Timestamp
		}
		if r.Success {
			summary.Successful++
		}
		if r.Kind == KindMeasure {
			summary.Measurements++
		}
		if r.Profit == nil {
			continue
		}
		summary.TotalProfit.Add(summary.TotalProfit, r.Profit)
		switch r.Profit.Sign() {
		case 1:
			summary.WinCount++
		case -1:
			summary.LossCount++
		}
	}
	return summary
}
