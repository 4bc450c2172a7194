package analyzer

import (
	"encoding/csv"
	"io"
	"strconv"

	"bitget-ma-scanner/pkg/types"
)

// CSVHeader CSV导出表头，每个信号占一行
var CSVHeader = []string{"symbol", "direction", "bars_since_cross", "change24h_pct", "ma_distance_pct", "current_price", "volume"}

// CSVRows 把信号记录压平成表格行，顺序与输入一致
func CSVRows(records []types.SignalRecord) [][]string {
	rows := make([][]string, 0, len(records))
	for _, r := range records {
		bars := ""
		if r.BarsSinceCross != nil {
			bars = strconv.Itoa(*r.BarsSinceCross)
		}
		rows = append(rows, []string{
			r.Symbol,
			string(r.Direction),
			bars,
			strconv.FormatFloat(r.ChangePct24h, 'f', 2, 64),
			strconv.FormatFloat(r.MADistancePct, 'f', 2, 64),
			strconv.FormatFloat(r.CurrentPrice, 'f', -1, 64),
			strconv.FormatFloat(r.Volume, 'f', -1, 64),
		})
	}
	return rows
}

// WriteCSV 将信号记录以CSV格式写入writer
func WriteCSV(w io.Writer, records []types.SignalRecord) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(CSVHeader); err != nil {
		return err
	}
	for _, row := range CSVRows(records) {
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}
