package importer

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/xuri/excelize/v2"
	"golang.org/x/text/encoding/charmap"

	"aerokpi/internal/model"
)

var (
	// ErrUnsupportedFormat 不支持的文件格式
	ErrUnsupportedFormat = errors.New("unsupported file format")
	// ErrEmptyInput 文件中没有表头行
	ErrEmptyInput = errors.New("input contains no table")
)

// csvSeparators 候选分隔符（按优先级）
var csvSeparators = []rune{',', ';', '\t', '|'}

// Reader 把上传文件解析为原始表：xlsx 取指定或第一个工作表，csv 自动识别分隔符与编码
type Reader struct {
	SheetName string
}

// NewReader 创建读取器
func NewReader() *Reader {
	return &Reader{}
}

// ReadFile 读取本地文件
func (r *Reader) ReadFile(path string) (*model.SourceTable, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return r.Read(filepath.Base(path), f)
}

// Read 按文件名扩展名解析
func (r *Reader) Read(name string, data io.Reader) (*model.SourceTable, error) {
	var (
		rows [][]string
		err  error
	)
	switch strings.ToLower(filepath.Ext(name)) {
	case ".xlsx", ".xlsm":
		rows, err = r.readXLSX(data)
	case ".csv", ".txt", ".tsv":
		rows, err = readCSV(data)
	default:
		return nil, fmt.Errorf("%s: %w", name, ErrUnsupportedFormat)
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", name, err)
	}

	table, ok := toTable(name, rows)
	if !ok {
		return nil, fmt.Errorf("%s: %w", name, ErrEmptyInput)
	}
	return table, nil
}

func (r *Reader) readXLSX(data io.Reader) ([][]string, error) {
	file, err := excelize.OpenReader(data)
	if err != nil {
		return nil, fmt.Errorf("open workbook: %w", err)
	}
	defer file.Close()

	sheet := r.SheetName
	if sheet == "" {
		sheets := file.GetSheetList()
		if len(sheets) == 0 {
			return nil, ErrEmptyInput
		}
		sheet = sheets[0]
	}

	// 日期单元格以序列号读出，交给日期解析器处理
	rows, err := file.GetRows(sheet, excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, fmt.Errorf("read sheet %q: %w", sheet, err)
	}
	return rows, nil
}

// readCSV UTF-8（去 BOM）优先，非法 UTF-8 时按 Latin-1 解码
func readCSV(data io.Reader) ([][]string, error) {
	raw, err := io.ReadAll(data)
	if err != nil {
		return nil, err
	}
	raw = bytes.TrimPrefix(raw, []byte("\xef\xbb\xbf"))
	if !utf8.Valid(raw) {
		decoded, err := charmap.ISO8859_1.NewDecoder().Bytes(raw)
		if err != nil {
			return nil, fmt.Errorf("decode latin-1: %w", err)
		}
		raw = decoded
	}

	reader := csv.NewReader(bytes.NewReader(raw))
	reader.Comma = sniffSeparator(raw)
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	rows, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("parse csv: %w", err)
	}
	return rows, nil
}

// sniffSeparator 统计首个非空行（引号外）各候选分隔符出现次数，取最多者；都没有时用逗号
func sniffSeparator(raw []byte) rune {
	var line string
	for _, l := range strings.Split(string(raw), "\n") {
		if strings.TrimSpace(l) != "" {
			line = l
			break
		}
	}

	counts := make(map[rune]int, len(csvSeparators))
	quoted := false
	for _, ch := range line {
		if ch == '"' {
			quoted = !quoted
			continue
		}
		if !quoted {
			counts[ch]++
		}
	}

	best, bestCount := ',', 0
	for _, sep := range csvSeparators {
		if counts[sep] > bestCount {
			best, bestCount = sep, counts[sep]
		}
	}
	return best
}

// toTable 第一行非空行为表头，跳过全空行
func toTable(name string, rows [][]string) (*model.SourceTable, bool) {
	header := -1
	for i, row := range rows {
		if !blank(row) {
			header = i
			break
		}
	}
	if header < 0 {
		return nil, false
	}

	table := &model.SourceTable{Name: name, Headers: rows[header], Rows: [][]string{}}
	for _, row := range rows[header+1:] {
		if blank(row) {
			continue
		}
		table.Rows = append(table.Rows, row)
	}
	return table, true
}

func blank(row []string) bool {
	for _, c := range row {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}
