// Command trimestral is a line-oriented session presenter over the
// quarterly ledger. All business rules live in internal/; this binary only
// parses commands, calls the ledger, and formats the results.
package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"

	"github.com/Bryangq/simulador-impuestos-3mes/internal/backend"
	"github.com/Bryangq/simulador-impuestos-3mes/internal/config"
	"github.com/Bryangq/simulador-impuestos-3mes/internal/core"
	"github.com/Bryangq/simulador-impuestos-3mes/internal/ledger"
	"github.com/Bryangq/simulador-impuestos-3mes/internal/log"
)

var hundred = decimal.NewFromInt(100)

func main() {
	// Load .env file for local development (ignore errors in production)
	_ = godotenv.Load()

	logCfg := log.DefaultConfig()
	logCfg.Component = "presenter"
	logger := log.New(logCfg)
	log.SetDefault(logger)

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		logger.Error("Configuration validation failed", "error", err)
		os.Exit(1)
	}

	ctx := context.Background()

	backendCfg, err := backend.FromAppConfig(cfg)
	if err != nil {
		logger.Error("Invalid backend configuration", "error", err)
		os.Exit(1)
	}
	result, err := backend.NewFactory(logger.Logger).Create(ctx, backendCfg)
	if err != nil {
		logger.Error("Failed to initialize backend", "error", err, "backend", cfg.DataBackend)
		os.Exit(1)
	}
	if result.Cleanup != nil {
		defer func() {
			if err := result.Cleanup(); err != nil {
				logger.Error("Cleanup failed", "error", err)
			}
		}()
	}

	book := ledger.New(result.Store, result.Notifier)

	quarter, err := core.ParseQuarter(cfg.Quarter)
	if err != nil {
		logger.Error("Invalid initial quarter", "error", err)
		os.Exit(1)
	}
	if err := book.SwitchQuarter(ctx, quarter); err != nil {
		logger.Error("Failed to load quarter", "error", err, "quarter", quarter.String())
		os.Exit(1)
	}

	fmt.Printf("Control de impuestos trimestrales — trimestre %s (backend %s)\n", quarter, cfg.DataBackend)
	fmt.Println(`Comandos: trimestre <1T-4T> | ingreso <importe> <iva> | gasto <importe> | lista | resumen | borrar <ingreso|gasto> <n> | si | no | salir`)

	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print("> ")
		if !scanner.Scan() {
			break
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		fields := strings.Fields(line)
		cmd, args := strings.ToLower(fields[0]), fields[1:]

		if cmd == "salir" || cmd == "quit" {
			break
		}
		if err := dispatch(ctx, book, cmd, args); err != nil {
			fmt.Println("error:", err)
		}
	}
	if err := scanner.Err(); err != nil {
		logger.Error("Input error", "error", err)
		os.Exit(1)
	}
}

func dispatch(ctx context.Context, book *ledger.Ledger, cmd string, args []string) error {
	switch cmd {
	case "trimestre", "t":
		if len(args) != 1 {
			return fmt.Errorf("uso: trimestre <1T-4T>")
		}
		q, err := core.ParseQuarter(args[0])
		if err != nil {
			return err
		}
		if err := book.SwitchQuarter(ctx, q); err != nil {
			return err
		}
		fmt.Printf("Trimestre activo: %s\n", q)
		return nil

	case "ingreso", "i":
		if len(args) != 2 {
			return fmt.Errorf("uso: ingreso <importe> <iva>")
		}
		amount, err := core.ParseAmount(args[0])
		if err != nil {
			return err
		}
		rate, err := core.ParseVATRate(args[1])
		if err != nil {
			return err
		}
		sum, err := book.AddIncome(ctx, amount, rate)
		if err != nil {
			return err
		}
		fmt.Printf("Ingreso de %s € añadido y guardado.\n", core.FormatEuros(amount))
		printSummary(sum)
		return nil

	case "gasto", "g":
		if len(args) != 1 {
			return fmt.Errorf("uso: gasto <importe>")
		}
		amount, err := core.ParseAmount(args[0])
		if err != nil {
			return err
		}
		sum, err := book.AddExpense(ctx, amount)
		if err != nil {
			return err
		}
		fmt.Printf("Gasto de %s € añadido y guardado.\n", core.FormatEuros(amount))
		printSummary(sum)
		return nil

	case "lista", "l":
		printRecords(book)
		return nil

	case "resumen", "r":
		printSummary(book.Summary())
		return nil

	case "borrar", "b":
		if len(args) != 2 {
			return fmt.Errorf("uso: borrar <ingreso|gasto> <n>")
		}
		kind := core.RecordKind(strings.ToLower(args[0]))
		index, err := strconv.Atoi(args[1])
		if err != nil {
			return fmt.Errorf("índice no válido: %s", args[1])
		}
		if err := book.RequestDelete(kind, index); err != nil {
			return err
		}
		fmt.Printf("¿Seguro que quieres eliminar el %s %d? (si/no)\n", kind, index)
		return nil

	case "si", "sí":
		if err := book.ConfirmDelete(ctx); err != nil {
			return err
		}
		fmt.Println("Registro eliminado.")
		printSummary(book.Summary())
		return nil

	case "no":
		book.CancelDelete()
		fmt.Println("Eliminación cancelada.")
		return nil
	}
	return fmt.Errorf("comando desconocido: %s", cmd)
}

func printRecords(book *ledger.Ledger) {
	fmt.Println("Ingresos registrados:")
	incomes := book.Incomes()
	if len(incomes) == 0 {
		fmt.Println("  (ninguno)")
	}
	for i, r := range incomes {
		fmt.Printf("  [%d] %s €  IVA %s%%  (repercutido %s €)\n",
			i,
			core.FormatEuros(r.Amount),
			r.VATRate.Mul(hundred).StringFixed(0),
			core.FormatEuros(r.Amount.Mul(r.VATRate)))
	}

	fmt.Println("Gastos registrados:")
	expenses := book.Expenses()
	if len(expenses) == 0 {
		fmt.Println("  (ninguno)")
	}
	for i, r := range expenses {
		fmt.Printf("  [%d] %s €  (IVA soportado %s €)\n",
			i,
			core.FormatEuros(r.Amount),
			core.FormatEuros(r.Amount.Mul(core.ExpenseVATRate)))
	}
}

func printSummary(s core.Summary) {
	fmt.Printf("Ingresos acumulados: %s €  |  IVA repercutido: %s €  |  IRPF: %s €\n",
		core.FormatEuros(s.TotalIncome),
		core.FormatEuros(s.TotalVATCharged),
		core.FormatEuros(s.IncomeTaxOnIncome))
	fmt.Printf("Gastos acumulados: %s €  |  IVA soportado: %s €  |  IRPF deducible: %s €\n",
		core.FormatEuros(s.TotalExpenses),
		core.FormatEuros(s.VATOnExpenses),
		core.FormatEuros(s.DeductibleIncomeTax))
	fmt.Printf("IVA a pagar: %s €  |  IRPF a pagar: %s €  |  TOTAL a pagar: %s €\n",
		core.FormatEuros(s.VATDue),
		core.FormatEuros(s.IncomeTaxDue),
		core.FormatEuros(s.TotalDue))
}
