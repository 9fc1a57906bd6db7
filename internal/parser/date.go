package parser

import (
	"strconv"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	"aerokpi/internal/model"
)

// DefaultDateFormats 优先尝试的显式日期格式（按顺序）
var DefaultDateFormats = []string{
	"2006/01/02", // YYYY/MM/DD
	"02-01-2006", // DD-MM-YYYY
	"01/02/2006", // MM/DD/YYYY
}

// genericLayouts 显式格式都失败后的通用解析
var genericLayouts = []string{
	"2006-01-02",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02 15:04",
	"2006-01-02T15:04:05",
	"2006-01-02T15:04:05.999999999",
	time.RFC3339,
	time.RFC3339Nano,
	"2006-01-02 15:04:05 -0700",
	"2006-01-02 15:04:05 -0700 MST",
	"2006-01-02 15:04:05 MST",
	"2006/01/02 15:04:05",
	"2006/01/02 15:04",
	"2006/1/2",
	"01/02/2006 15:04:05",
	"01/02/2006 15:04",
	"1/2/2006",
	"1/2/2006 15:04",
	"1/2/2006 15:04:05",
	"1/2/2006 3:04:05 PM",
	"1/2/06",
	"02-01-2006 15:04:05",
	"02-01-2006 15:04",
	"2-1-2006",
	"02.01.2006",
	"2 Jan 2006",
	"02 Jan 2006 15:04",
	"Jan 2, 2006",
	"January 2, 2006",
	"Mon Jan 2 15:04:05 2006",
	"20060102",
	// 日在前（月份 > 12 时 MM/DD 会失败）
	"02/01/2006",
	"2/1/2006",
	"02/01/2006 15:04:05",
	"02/01/2006 15:04",
}

// DateParser 日期解析器：先按显式格式依次尝试，再通用解析，最后尝试 Excel 序列号
type DateParser struct {
	formats []string
}

// NewDateParser 创建日期解析器；formats 为空时使用默认显式格式
func NewDateParser(formats ...string) *DateParser {
	if len(formats) == 0 {
		formats = DefaultDateFormats
	}
	f := make([]string, len(formats))
	copy(f, formats)
	return &DateParser{formats: f}
}

// WithExtraFormats 在显式格式之后追加格式
func (p *DateParser) WithExtraFormats(extra ...string) *DateParser {
	f := make([]string, 0, len(p.formats)+len(extra))
	f = append(f, p.formats...)
	f = append(f, extra...)
	return &DateParser{formats: f}
}

// Parse 解析为自然日；无法解析返回 false
func (p *DateParser) Parse(s string) (time.Time, bool) {
	s = strings.TrimSpace(strings.ReplaceAll(s, "\u00a0", " "))
	if s == "" {
		return time.Time{}, false
	}

	for _, layout := range p.formats {
		if t, err := time.Parse(layout, s); err == nil {
			return model.Day(t), true
		}
	}
	for _, layout := range genericLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return model.Day(t), true
		}
	}

	// Excel 序列号（xlsx 单元格未格式化为日期时）
	if serial, err := strconv.ParseFloat(s, 64); err == nil && serial >= 1 && serial < 200000 {
		if t, err := excelize.ExcelDateToTime(serial, false); err == nil {
			return model.Day(t), true
		}
	}

	return time.Time{}, false
}
