package service

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
	"golang.org/x/text/currency"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// CurrencyFormatter 按区域设置格式化金额
type CurrencyFormatter struct {
	unit    currency.Unit
	printer *message.Printer
	form    currency.Formatter
}

// NewCurrencyFormatter 创建格式化器，display 可选 iso / symbol / narrow
func NewCurrencyFormatter(code, locale, display string) (*CurrencyFormatter, error) {
	unit, err := currency.ParseISO(code)
	if err != nil {
		return nil, fmt.Errorf("无效的货币代码 %q: %w", code, err)
	}
	tag, err := language.Parse(locale)
	if err != nil {
		return nil, fmt.Errorf("无效的区域设置 %q: %w", locale, err)
	}

	f := &CurrencyFormatter{unit: unit, printer: message.NewPrinter(tag)}
	switch strings.ToLower(display) {
	case "", "symbol":
		f.form = currency.Symbol
	case "narrow":
		f.form = currency.NarrowSymbol
	case "iso":
		f.form = currency.ISO
	default:
		return nil, fmt.Errorf("无效的货币显示方式: %q", display)
	}
	return f, nil
}

// Code 货币 ISO 代码
func (f *CurrencyFormatter) Code() string {
	return f.unit.String()
}

// Format 格式化金额，小数位数由货币决定
func (f *CurrencyFormatter) Format(amount decimal.Decimal) string {
	scale, _ := currency.Standard.Rounding(f.unit)
	v, _ := amount.Round(int32(scale)).Float64()
	return f.printer.Sprint(f.form(f.unit.Amount(v)))
}

// Plain 不带货币符号的金额，用于导出
func (f *CurrencyFormatter) Plain(amount decimal.Decimal) string {
	scale, _ := currency.Standard.Rounding(f.unit)
	return amount.StringFixed(int32(scale))
}
