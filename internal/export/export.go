package export

import (
	"bytes"
	"fmt"
	"time"

	"github.com/jung-kurt/gofpdf"
	"github.com/xuri/excelize/v2"

	"benritz/giltmonitor/internal/monitor"
)

const (
	ContentTypeXLSX = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	ContentTypePDF  = "application/pdf"
)

var columns = []string{"Name", "ISIN", "Maturity", "Time to maturity", "Coupon %", "Clean", "Dirty", "Gross YTM %", "Net YTM %", "Source"}

func yield(y *float64) string {
	if y == nil {
		return "-"
	}
	return fmt.Sprintf("%.3f", *y)
}

func lastUpdated(resp *monitor.QuoteResponse) string {
	if resp.LastUpdated == nil {
		return "never"
	}
	return resp.LastUpdated.UTC().Format(time.RFC3339)
}

// BuildQuotesXLSX renders the quote rows as a workbook with a summary and a gilts sheet.
func BuildQuotesXLSX(resp *monitor.QuoteResponse) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	summarySheet := "summary"
	giltsSheet := "gilts"
	if err := f.SetSheetName("Sheet1", summarySheet); err != nil {
		return nil, err
	}
	if _, err := f.NewSheet(giltsSheet); err != nil {
		return nil, err
	}

	_ = f.SetCellValue(summarySheet, "A1", "UK Gilts")
	_ = f.SetCellValue(summarySheet, "A3", "Prices updated")
	_ = f.SetCellValue(summarySheet, "B3", lastUpdated(resp))
	_ = f.SetCellValue(summarySheet, "A4", "Tax rate")
	_ = f.SetCellValue(summarySheet, "B4", resp.TaxRate)
	_ = f.SetCellValue(summarySheet, "A5", "Gilts")
	_ = f.SetCellValue(summarySheet, "B5", resp.Count)

	for i, name := range columns {
		cell, err := excelize.CoordinatesToCellName(i+1, 1)
		if err != nil {
			return nil, err
		}
		_ = f.SetCellValue(giltsSheet, cell, name)
	}

	for i, g := range resp.Gilts {
		row := i + 2
		values := []any{
			g.Name,
			g.ISIN,
			g.Maturity,
			g.TimeToMaturity,
			g.CouponRate * 100,
			g.CleanPrice,
			g.DirtyPrice,
			nil,
			nil,
			g.PriceSource,
		}
		if g.GrossYTM != nil {
			values[7] = *g.GrossYTM
		}
		if g.NetYTM != nil {
			values[8] = *g.NetYTM
		}
		for col, v := range values {
			if v == nil {
				continue
			}
			cell, err := excelize.CoordinatesToCellName(col+1, row)
			if err != nil {
				return nil, err
			}
			_ = f.SetCellValue(giltsSheet, cell, v)
		}
	}

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// BuildQuotesPDF renders the quote rows as a landscape A4 table.
func BuildQuotesPDF(resp *monitor.QuoteResponse) ([]byte, error) {
	pdf := gofpdf.New("L", "mm", "A4", "")
	pdf.SetFont("Arial", "", 12)
	pdf.AddPage()

	pdf.Cell(0, 8, "UK Gilts")
	pdf.Ln(10)
	pdf.SetFont("Arial", "", 10)
	pdf.Cell(0, 6, fmt.Sprintf("Prices updated: %s", lastUpdated(resp)))
	pdf.Ln(5)
	pdf.Cell(0, 6, fmt.Sprintf("Tax rate: %.0f%%", resp.TaxRate*100))
	pdf.Ln(8)

	widths := []float64{70, 28, 22, 24, 18, 18, 18, 20, 20, 32}

	pdf.SetFont("Arial", "B", 8)
	for i, name := range columns {
		pdf.CellFormat(widths[i], 6, name, "1", 0, "C", false, 0, "")
	}
	pdf.Ln(-1)

	pdf.SetFont("Arial", "", 8)
	for _, g := range resp.Gilts {
		cells := []string{
			g.Name,
			g.ISIN,
			g.MaturityDisplay,
			g.TimeToMaturity,
			fmt.Sprintf("%.3f", g.CouponRate*100),
			fmt.Sprintf("%.3f", g.CleanPrice),
			fmt.Sprintf("%.3f", g.DirtyPrice),
			yield(g.GrossYTM),
			yield(g.NetYTM),
			g.PriceSource,
		}
		for i, text := range cells {
			align := "R"
			if i < 4 || i == len(cells)-1 {
				align = "L"
			}
			pdf.CellFormat(widths[i], 6, text, "1", 0, align, false, 0, "")
		}
		pdf.Ln(-1)
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
