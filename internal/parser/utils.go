package parser

import (
	"regexp"
	"strings"

	"github.com/shopspring/decimal"
)

var spacesRe = regexp.MustCompile(`\s+`)

// NormalizeColumnName 规范化列名
// 去除 BOM、引号、不换行空格、制表符与换行，压缩连续空格并去除首尾空白。
func NormalizeColumnName(name string) string {
	name = strings.ReplaceAll(name, "\ufeff", "")
	name = strings.ReplaceAll(name, "\u00ef\u00bb\u00bf", "") // 按 latin-1 误解码的 BOM
	name = strings.ReplaceAll(name, `"`, "")
	name = strings.ReplaceAll(name, "\u00a0", " ")
	name = strings.ReplaceAll(name, "\t", " ")
	name = strings.ReplaceAll(name, "\r", "")
	name = strings.ReplaceAll(name, "\n", "")
	name = spacesRe.ReplaceAllString(name, " ")
	return strings.TrimSpace(name)
}

// NormalizeHeaders 规范化整行表头
func NormalizeHeaders(headers []string) []string {
	out := make([]string, len(headers))
	for i, h := range headers {
		out[i] = NormalizeColumnName(h)
	}
	return out
}

// NormalizeToken 规范化分类值用于比较（去空白、小写）
func NormalizeToken(s string) string {
	s = strings.ReplaceAll(s, "\u00a0", " ")
	return strings.ToLower(strings.TrimSpace(s))
}

// numberRe 去掉符号后的数值主体：数字与分隔符交替，或以分隔符开头的小数
var numberRe = regexp.MustCompile(`^(?:\d+(?:[.,]\d+)*|[.,]\d+)$`)

// scientificRe xlsx 原始值中的科学计数法
var scientificRe = regexp.MustCompile(`^-?\d+(?:\.\d+)?[eE][-+]?\d+$`)

// numberMarks 数值前后允许出现的货币与百分号标记
var numberMarks = []string{"US$", "CLP", "USD", "$", "%"}

// ParseNumber 严格解析数值文本（比率、评分、时长等非金额字段）
//
// 只允许前后的货币符号、百分号与空白；'.' 与 ',' 同时出现时后者为小数点，
// 只出现一个 ',' 时为小数点，同一分隔符出现多次视为无法解析。
func ParseNumber(s string) (decimal.Decimal, bool) {
	if d, ok := parseScientific(s); ok {
		return d, true
	}
	body, ok := cleanNumber(s)
	if !ok {
		return decimal.Zero, false
	}

	digits := strings.TrimPrefix(body, "-")
	lastDot := strings.LastIndex(digits, ".")
	lastComma := strings.LastIndex(digits, ",")
	switch {
	case lastDot >= 0 && lastComma >= 0:
		sep, other := ".", ","
		if lastComma > lastDot {
			sep, other = ",", "."
		}
		if strings.Count(digits, sep) > 1 {
			return decimal.Zero, false
		}
		body = strings.ReplaceAll(body, other, "")
		body = strings.Replace(body, sep, ".", 1)
	case strings.Count(digits, ".") > 1, strings.Count(digits, ",") > 1:
		return decimal.Zero, false
	default:
		body = strings.Replace(body, ",", ".", 1)
	}
	return toDecimal(body)
}

// ParseMoney 解析金额文本（"11.990"、"$11,990"、"CLP 1.234.567"）
//
// 在 ParseNumber 的基础上按比索习惯识别千分位：只出现一个分隔符且其后恰好三位数字时视为千分位。
func ParseMoney(s string) (decimal.Decimal, bool) {
	if d, ok := parseScientific(s); ok {
		return d, true
	}
	body, ok := cleanNumber(s)
	if !ok {
		return decimal.Zero, false
	}
	return toDecimal(normalizeSeparators(body))
}

// ParseFloat 严格解析数值文本为 float64
func ParseFloat(s string) (float64, bool) {
	d, ok := ParseNumber(s)
	if !ok {
		return 0, false
	}
	f, _ := d.Float64()
	return f, true
}

// ParseFloatPtr 严格解析数值文本，失败返回 nil
func ParseFloatPtr(s string) *float64 {
	f, ok := ParseFloat(s)
	if !ok {
		return nil
	}
	return &f
}

func parseScientific(s string) (decimal.Decimal, bool) {
	s = strings.TrimSpace(s)
	if !scientificRe.MatchString(s) {
		return decimal.Zero, false
	}
	return toDecimal(s)
}

func toDecimal(s string) (decimal.Decimal, bool) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, false
	}
	return d, true
}

// cleanNumber 去掉前后的货币与百分号标记，返回带可选负号的数值主体；含其他字符时失败
func cleanNumber(s string) (string, bool) {
	s = strings.TrimSpace(strings.ReplaceAll(s, "\u00a0", " "))
	neg := false
	if strings.HasPrefix(s, "-") {
		neg = true
		s = strings.TrimSpace(s[1:])
	}
	s = trimMarks(s)
	if !neg && strings.HasPrefix(s, "-") {
		neg = true
		s = strings.TrimSpace(s[1:])
	}
	if !numberRe.MatchString(s) {
		return "", false
	}
	if s[0] == '.' || s[0] == ',' {
		s = "0" + s
	}
	if neg {
		s = "-" + s
	}
	return s, true
}

func trimMarks(s string) string {
	for trimmed := true; trimmed; {
		trimmed = false
		for _, m := range numberMarks {
			if len(s) >= len(m) && strings.EqualFold(s[:len(m)], m) {
				s = strings.TrimSpace(s[len(m):])
				trimmed = true
			}
			if len(s) >= len(m) && strings.EqualFold(s[len(s)-len(m):], m) {
				s = strings.TrimSpace(s[:len(s)-len(m)])
				trimmed = true
			}
		}
	}
	return s
}

// normalizeSeparators 识别千分位与小数分隔符，输出以 '.' 为小数点的文本
//
// 同时出现 '.' 与 ',' 时，后出现者为小数点；只出现一种且出现多次时为千分位；
// 只出现一次且其后恰好三位数字（整数部分非 0）时视为千分位，否则为小数点。
func normalizeSeparators(s string) string {
	lastDot := strings.LastIndex(s, ".")
	lastComma := strings.LastIndex(s, ",")

	switch {
	case lastDot >= 0 && lastComma >= 0:
		if lastDot > lastComma {
			return strings.ReplaceAll(s, ",", "")
		}
		s = strings.ReplaceAll(s, ".", "")
		return strings.Replace(s, ",", ".", 1)
	case lastDot < 0 && lastComma < 0:
		return s
	}

	sep := "."
	idx := lastDot
	if lastComma >= 0 {
		sep = ","
		idx = lastComma
	}

	if strings.Count(s, sep) > 1 {
		return strings.ReplaceAll(s, sep, "")
	}

	intPart := strings.TrimPrefix(s[:idx], "-")
	fracPart := s[idx+1:]
	if len(fracPart) == 3 && intPart != "" && intPart != "0" {
		return strings.Replace(s, sep, "", 1)
	}
	return strings.Replace(s, sep, ".", 1)
}

// ContainsAny 检查字符串是否包含任意一个关键词
func ContainsAny(text string, keywords []string) bool {
	for _, kw := range keywords {
		if strings.Contains(text, kw) {
			return true
		}
	}
	return false
}
