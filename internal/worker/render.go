package worker

import (
	"fmt"
	"strings"

	"panen/internal/core"
)

// User-facing wording, kept verbatim from the Telegram bot this service
// replaces.
const (
	startText = `Hai! Kirim pesan dengan jumlah telur ikan dalam butir, ex: "Saya panen 10000 butir telur ikan" dan saya akan mencatatnya. Gunakan /report untuk melihat laporan.`

	helpText = "Help! Perintah yang tersedia: /start, /help, /report, /export"

	thanksTextFmt = "Terima kasih! Anda telah melaporkan %d butir telur ikan."

	reportHeader   = "Laporan jumlah telur ikan hari ini:"
	reportLineFmt  = "%d. @%s: %d butir telur ikan pada %s"
	reportTotalFmt = "Total hari ini: %d butir telur ikan"

	exportReadyTextFmt = "Laporan periode %s siap diunduh."
	exportFailedText   = "Maaf, ekspor laporan gagal. Coba lagi nanti."

	noGroupText = "Anda belum memilih kelompok."

	quantityTooLargeText = "Maaf, jumlah tersebut terlalu besar untuk dicatat."
)

// RenderDailyReport renders a report the way the original bot wrote it:
// numbered lines, then a blank line and the daily total.
func RenderDailyReport(report core.Report) string {
	var sb strings.Builder
	sb.WriteString(reportHeader)
	sb.WriteByte('\n')
	for _, line := range report.Lines {
		fmt.Fprintf(&sb, reportLineFmt, line.Seq, line.Label, line.Quantity, line.At.Format(core.TimestampLayout))
		sb.WriteByte('\n')
	}
	sb.WriteByte('\n')
	fmt.Fprintf(&sb, reportTotalFmt, report.Total)
	return sb.String()
}
