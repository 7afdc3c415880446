package efficiency

import (
	"time"

	"github.com/andresuchdata/fulfillment-efficiency/backend-go/internal/domain"
	"github.com/shopspring/decimal"
)

func day(value string) time.Time {
	t, err := time.ParseInLocation(domain.DateLayout, value, time.UTC)
	if err != nil {
		panic(err)
	}
	return t
}

func dec(value string) decimal.Decimal {
	return decimal.RequireFromString(value)
}

func order(id, number int64, date, client string) domain.Order {
	return domain.Order{ID: id, Number: number, Date: day(date), ClientName: client}
}

func orderLine(orderID int64, code string, qty float64, price string) domain.OrderLine {
	return domain.OrderLine{
		OrderID:     orderID,
		ItemCode:    code,
		Description: "Item " + code,
		Quantity:    qty,
		UnitPrice:   dec(price),
	}
}

func invoice(id, orderNumber int64, date string, lines ...domain.InvoiceLine) domain.Invoice {
	for i := range lines {
		lines[i].InvoiceID = id
		lines[i].ID = id*100 + int64(i)
	}
	return domain.Invoice{
		ID:           id,
		OrderNumber:  orderNumber,
		Date:         day(date),
		DocumentType: "FACTURA",
		Lines:        lines,
	}
}

func invoiceLine(code string, qty float64, price string) domain.InvoiceLine {
	return domain.InvoiceLine{ItemCode: code, Quantity: qty, UnitPrice: dec(price)}
}

// scenarioA is one order fulfilled by two staggered invoices.
func scenarioA() *Records {
	return &Records{
		Orders: []domain.Order{order(1, 100, "2024-01-01", "Acme")},
		OrderLines: []domain.OrderLine{
			orderLine(1, "A", 10, "5"),
			orderLine(1, "B", 5, "10"),
		},
		Invoices: []domain.Invoice{
			invoice(1, 100, "2024-01-05", invoiceLine("A", 6, "5")),
			invoice(2, 100, "2024-01-10", invoiceLine("A", 4, "5"), invoiceLine("B", 5, "10")),
		},
	}
}

// scenarioB is one order invoiced twice by a duplicate correction.
func scenarioB() *Records {
	return &Records{
		Orders:     []domain.Order{order(2, 200, "2024-01-02", "Beta")},
		OrderLines: []domain.OrderLine{orderLine(2, "C", 10, "2")},
		Invoices: []domain.Invoice{
			invoice(3, 200, "2024-01-03", invoiceLine("C", 10, "2")),
			invoice(4, 200, "2024-01-04", invoiceLine("C", 10, "2")),
		},
	}
}

// mixedRecords combines both scenarios with a half-fulfilled, delayed order.
func mixedRecords() *Records {
	a, b := scenarioA(), scenarioB()
	rec := &Records{
		Filter: domain.EfficiencyFilter{DateFrom: day("2024-01-01"), DateTo: day("2024-01-31")},
		Orders: append(append(a.Orders, b.Orders...), order(3, 300, "2024-01-01", "Gamma")),
		OrderLines: append(append(a.OrderLines, b.OrderLines...),
			orderLine(3, "D", 20, "1"),
		),
		Invoices: append(append(a.Invoices, b.Invoices...),
			invoice(5, 300, "2024-01-15", invoiceLine("D", 10, "1")),
		),
	}
	return rec
}

// staggeredRecords has an order whose invoices span two months.
func staggeredRecords() *Records {
	return &Records{
		Orders: []domain.Order{
			order(4, 400, "2024-01-20", "Delta"),
			order(5, 500, "2024-02-01", "Echo"),
		},
		OrderLines: []domain.OrderLine{
			orderLine(4, "E", 10, "3"),
			orderLine(5, "F", 5, "4"),
		},
		Invoices: []domain.Invoice{
			invoice(10, 400, "2024-01-25", invoiceLine("E", 4, "3")),
			invoice(11, 400, "2024-02-05", invoiceLine("E", 6, "3")),
			invoice(12, 500, "2024-02-10", invoiceLine("F", 5, "4")),
		},
	}
}
