// Package cleanup provides ascii reporter
package cleanup

import (
	"fmt"
	"strings"
	"time"

	"github.com/caseboardhq/caseboard-go/internal/infrastructure/caching/interfaces"
)

const (
	cyan       = "\033[38;2;86;182;194m"  // One Dark Cyan: #56B6C2
	cyanBright = "\033[38;2;97;228;240m"  // Brighter Cyan: #61E4F0
	dimCyan    = "\033[38;2;47;91;102m"   // Dim Cyan: #2F5B66
	grey       = "\033[38;2;110;118;129m" // Brighter Grey: #6E7681
	dimGrey    = "\033[38;2;75;82;99m"    // Darker Grey: #4B5263
	success    = "\033[38;2;62;130;144m"  // Dim Cyan: #3E8290
	warning    = "\033[38;2;229;192;123m" // One Dark Yellow: #E5C07B
	errorRed   = "\033[38;2;224;108;117m" // One Dark Red: #E06C75
	white      = "\033[38;2;171;178;191m" // One Dark Foreground: #ABB2BF
	reset      = "\033[0m"
	bold       = "\033[1m"
)

type Reporter struct {
	cache interfaces.Cache
}

func NewReporter(cache interfaces.Cache) *Reporter {
	return &Reporter{cache: cache}
}

func (r *Reporter) LogStage(message string, args ...any) {
	formattedMsg := fmt.Sprintf(message, args...)
	fmt.Printf("%s%s✦ %s%s%s\n", success, bold, grey, formattedMsg, reset)
}

func (r *Reporter) LogSuccess(message string, args ...any) {
	formattedMsg := fmt.Sprintf(message, args...)
	fmt.Printf("%s%s✦ %s%s%s\n", success, bold, white, formattedMsg, reset)
}

func (r *Reporter) LogError(message string, err error) {
	fmt.Printf("%s%s✖ ERROR: %s%s: %v%s\n", bold, errorRed, grey, message, err, reset)
}

func (r *Reporter) LogWarning(message string, args ...any) {
	formattedMsg := fmt.Sprintf(message, args...)
	fmt.Printf("%s%s⚠ WARNING: %s%s%s\n", bold, warning, grey, formattedMsg, reset)
}

func (r *Reporter) LogInfo(message string, args ...any) {
	formattedMsg := fmt.Sprintf(message, args...)
	fmt.Printf("%s▶ %s%s%s\n", dimGrey, grey, formattedMsg, reset)
}

// GenerateReport builds the per-sweep cache summary shown in verbose mode.
func (r *Reporter) GenerateReport() string {
	var report strings.Builder
	timestamp := time.Now().UTC().Format("2006-01-02 15:04:05 MST")
	stats := r.cache.Stats()

	report.WriteString(fmt.Sprintf("%s%s▓ %s | Cache status%s\n", bold, dimCyan, timestamp, reset))

	var countsLine strings.Builder
	countsLine.WriteString(fmt.Sprintf("%s✦ cached:%s", cyanBright, reset))
	countsLine.WriteString(formatCount("records", stats.Records))
	countsLine.WriteString(formatCount("lists", stats.Lists))
	report.WriteString(countsLine.String() + "\n")

	var staleLine strings.Builder
	staleLine.WriteString(fmt.Sprintf("%s✦ stale:%s", warning, reset))
	staleLine.WriteString(formatCount("records", stats.StaleRecords))
	staleLine.WriteString(formatCount("lists", stats.StaleLists))
	report.WriteString(staleLine.String() + "\n")

	return report.String()
}

func formatCount(label string, count int) string {
	if count > 0 {
		return fmt.Sprintf(" %s%s:%s%d%s", dimCyan, label, cyan, count, reset)
	}
	return fmt.Sprintf(" %s%s:--%s", dimGrey, label, reset)
}
