// Package sheets persists quarter partitions in a Google Sheets
// spreadsheet, one worksheet per partition (Ingresos_1T ... Gastos_4T).
// Useful when the ledger should be reviewable from a browser.
package sheets

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"
	"google.golang.org/api/googleapi"
	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"

	"github.com/Bryangq/simulador-impuestos-3mes/internal/core"
	"github.com/Bryangq/simulador-impuestos-3mes/internal/store"
)

type Client struct {
	svc           *gsheet.Service
	spreadsheetID string
}

var _ store.Store = (*Client)(nil)

// NewFromEnv creates a Sheets-backed store using environment variables.
// Required: GOOGLE_SPREADSHEET_ID. Auth: GOOGLE_SERVICE_ACCOUNT_JSON,
// GOOGLE_SERVICE_ACCOUNT_FILE, or GOOGLE_APPLICATION_CREDENTIALS.
func NewFromEnv(ctx context.Context) (*Client, error) {
	spreadsheetID := strings.TrimSpace(os.Getenv("GOOGLE_SPREADSHEET_ID"))
	if spreadsheetID == "" {
		return nil, errors.New("missing GOOGLE_SPREADSHEET_ID")
	}

	svc, err := newSheetsService(ctx)
	if err != nil {
		return nil, fmt.Errorf("sheets service: %w", err)
	}

	return &Client{svc: svc, spreadsheetID: spreadsheetID}, nil
}

func newSheetsService(ctx context.Context) (*gsheet.Service, error) {
	serviceAccountJSON := strings.TrimSpace(os.Getenv("GOOGLE_SERVICE_ACCOUNT_JSON"))
	serviceAccountFile := strings.TrimSpace(os.Getenv("GOOGLE_SERVICE_ACCOUNT_FILE"))
	if serviceAccountJSON == "" && serviceAccountFile == "" {
		serviceAccountFile = strings.TrimSpace(os.Getenv("GOOGLE_APPLICATION_CREDENTIALS"))
	}

	var credentialsJSON []byte
	var err error
	switch {
	case serviceAccountJSON != "":
		credentialsJSON = []byte(serviceAccountJSON)
	case serviceAccountFile != "":
		credentialsJSON, err = os.ReadFile(serviceAccountFile)
		if err != nil {
			return nil, fmt.Errorf("read service account file: %w", err)
		}
	default:
		return nil, errors.New("missing service account credentials (set GOOGLE_SERVICE_ACCOUNT_JSON, GOOGLE_SERVICE_ACCOUNT_FILE, or GOOGLE_APPLICATION_CREDENTIALS)")
	}

	service, err := gsheet.NewService(ctx,
		goption.WithCredentialsJSON(credentialsJSON),
		goption.WithScopes(gsheet.SpreadsheetsScope))
	if err != nil {
		return nil, fmt.Errorf("create sheets service: %w", err)
	}
	return service, nil
}

func incomeSheet(q core.Quarter) string  { return "Ingresos_" + q.Suffix() }
func expenseSheet(q core.Quarter) string { return "Gastos_" + q.Suffix() }

func (c *Client) Load(ctx context.Context, q core.Quarter) ([]core.IncomeRecord, []core.ExpenseRecord, error) {
	if c.svc == nil {
		return nil, nil, errors.New("sheets service not initialized")
	}

	var (
		incomes  []core.IncomeRecord
		expenses []core.ExpenseRecord
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		incomes, err = c.loadIncomes(gctx, q)
		return err
	})
	g.Go(func() error {
		var err error
		expenses, err = c.loadExpenses(gctx, q)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, nil, err
	}
	return incomes, expenses, nil
}

func (c *Client) loadIncomes(ctx context.Context, q core.Quarter) ([]core.IncomeRecord, error) {
	rows, err := c.readRows(ctx, fmt.Sprintf("%s!A2:B", incomeSheet(q)))
	if err != nil {
		return nil, err
	}
	out := make([]core.IncomeRecord, 0, len(rows))
	for i, row := range rows {
		if len(row) < 2 {
			return nil, fmt.Errorf("%s row %d: expected Importe and IVA cells", incomeSheet(q), i+2)
		}
		amount, err := parseCell(row[0])
		if err != nil {
			return nil, fmt.Errorf("%s row %d: bad Importe %v", incomeSheet(q), i+2, row[0])
		}
		rate, err := parseCell(row[1])
		if err != nil || !core.ValidVATRate(rate) {
			return nil, fmt.Errorf("%s row %d: bad IVA %v", incomeSheet(q), i+2, row[1])
		}
		out = append(out, core.IncomeRecord{Amount: amount, VATRate: rate})
	}
	return out, nil
}

func (c *Client) loadExpenses(ctx context.Context, q core.Quarter) ([]core.ExpenseRecord, error) {
	rows, err := c.readRows(ctx, fmt.Sprintf("%s!A2:A", expenseSheet(q)))
	if err != nil {
		return nil, err
	}
	out := make([]core.ExpenseRecord, 0, len(rows))
	for i, row := range rows {
		if len(row) < 1 {
			return nil, fmt.Errorf("%s row %d: expected Importe cell", expenseSheet(q), i+2)
		}
		amount, err := parseCell(row[0])
		if err != nil {
			return nil, fmt.Errorf("%s row %d: bad Importe %v", expenseSheet(q), i+2, row[0])
		}
		out = append(out, core.ExpenseRecord{Amount: amount})
	}
	return out, nil
}

// readRows fetches a range. A worksheet that does not exist yet is a valid
// empty partition, not an error.
func (c *Client) readRows(ctx context.Context, rng string) ([][]any, error) {
	resp, err := c.svc.Spreadsheets.Values.Get(c.spreadsheetID, rng).Context(ctx).Do()
	if err != nil {
		var apiErr *googleapi.Error
		if errors.As(err, &apiErr) && apiErr.Code == 400 && strings.Contains(apiErr.Message, "Unable to parse range") {
			return nil, nil
		}
		return nil, fmt.Errorf("read %s: %w", rng, err)
	}
	return resp.Values, nil
}

func (c *Client) SaveIncomes(ctx context.Context, q core.Quarter, records []core.IncomeRecord) error {
	values := [][]any{{"Importe", "IVA"}}
	for _, r := range records {
		values = append(values, []any{r.Amount.String(), r.VATRate.String()})
	}
	return c.writeSheet(ctx, incomeSheet(q), "A1:B", values)
}

func (c *Client) SaveExpenses(ctx context.Context, q core.Quarter, records []core.ExpenseRecord) error {
	values := [][]any{{"Importe"}}
	for _, r := range records {
		values = append(values, []any{r.Amount.String()})
	}
	return c.writeSheet(ctx, expenseSheet(q), "A1:A", values)
}

// writeSheet clears the partition's columns and writes header plus rows.
// The Sheets API applies each call atomically, so a concurrent reader sees
// the old rows or the new rows, never a blend of both calls in one row.
func (c *Client) writeSheet(ctx context.Context, sheet, cols string, values [][]any) error {
	if c.svc == nil {
		return errors.New("sheets service not initialized")
	}

	if err := c.ensureSheet(ctx, sheet); err != nil {
		return err
	}

	clearRange := fmt.Sprintf("%s!%s", sheet, cols)
	if _, err := c.svc.Spreadsheets.Values.Clear(c.spreadsheetID, clearRange, &gsheet.ClearValuesRequest{}).Context(ctx).Do(); err != nil {
		return fmt.Errorf("clear %s: %w", clearRange, err)
	}

	writeRange := fmt.Sprintf("%s!A1", sheet)
	vr := &gsheet.ValueRange{Values: values}
	if _, err := c.svc.Spreadsheets.Values.Update(c.spreadsheetID, writeRange, vr).
		ValueInputOption("RAW").Context(ctx).Do(); err != nil {
		return fmt.Errorf("write %s: %w", writeRange, err)
	}
	return nil
}

// ensureSheet creates the worksheet on first save of a partition.
func (c *Client) ensureSheet(ctx context.Context, title string) error {
	meta, err := c.svc.Spreadsheets.Get(c.spreadsheetID).Fields("sheets.properties.title").Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("get spreadsheet: %w", err)
	}
	for _, sh := range meta.Sheets {
		if sh.Properties != nil && sh.Properties.Title == title {
			return nil
		}
	}

	req := &gsheet.BatchUpdateSpreadsheetRequest{
		Requests: []*gsheet.Request{{
			AddSheet: &gsheet.AddSheetRequest{
				Properties: &gsheet.SheetProperties{Title: title},
			},
		}},
	}
	if _, err := c.svc.Spreadsheets.BatchUpdate(c.spreadsheetID, req).Context(ctx).Do(); err != nil {
		return fmt.Errorf("add sheet %s: %w", title, err)
	}
	return nil
}

func parseCell(v any) (decimal.Decimal, error) {
	s := strings.TrimSpace(fmt.Sprint(v))
	s = strings.ReplaceAll(s, ",", ".")
	return decimal.NewFromString(s)
}
