package sheet

import (
	"bufio"
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/xuri/excelize/v2"
)

// ErrEmptySheet 檔案中沒有任何資料列
var ErrEmptySheet = errors.New("sheet kosong")

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// ReadXLSX 讀取第一個工作表的所有資料列 (略過空白列)
//
// 回傳:
//
//	[][]string: 各列儲存格文字
//	string: 工作表名稱
//	error: 檔案無法解析或沒有資料
func ReadXLSX(r io.Reader) ([][]string, string, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, "", fmt.Errorf("open xlsx: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, "", ErrEmptySheet
	}
	name := sheets[0]
	rows, err := f.GetRows(name)
	if err != nil {
		return nil, name, fmt.Errorf("read sheet %s: %w", name, err)
	}
	rows = dropBlank(rows)
	if len(rows) == 0 {
		return nil, name, ErrEmptySheet
	}
	return rows, name, nil
}

// ReadCSV 讀取 CSV (容許欄數不一致、UTF-8 BOM、分號分隔)
func ReadCSV(r io.Reader) ([][]string, error) {
	br := bufio.NewReader(r)
	if head, err := br.Peek(len(utf8BOM)); err == nil && bytes.Equal(head, utf8BOM) {
		br.Discard(len(utf8BOM))
	}
	first, _ := br.Peek(4096)
	cr := csv.NewReader(br)
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true
	cr.Comma = sniffDelimiter(first)
	rows, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read csv: %w", err)
	}
	rows = dropBlank(rows)
	if len(rows) == 0 {
		return nil, ErrEmptySheet
	}
	return rows, nil
}

// sniffDelimiter 以第一行判斷是逗號或分號
func sniffDelimiter(sample []byte) rune {
	line := sample
	if i := bytes.IndexByte(sample, '\n'); i >= 0 {
		line = sample[:i]
	}
	if bytes.Count(line, []byte{';'}) > bytes.Count(line, []byte{','}) {
		return ';'
	}
	return ','
}

func dropBlank(rows [][]string) [][]string {
	out := rows[:0]
	for _, row := range rows {
		for _, cell := range row {
			if strings.TrimSpace(cell) != "" {
				out = append(out, row)
				break
			}
		}
	}
	return out
}
