package catalog

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"
	"gorm.io/gorm"

	"billing-backend/internal/apperr"
	"billing-backend/internal/audit"
	"billing-backend/internal/auth"
	"billing-backend/internal/logging"
	"billing-backend/internal/models"
)

// Column order of the import sheet. Only the name is required.
const (
	colName = iota
	colUnit
	colHSN
	colTaxRate
	colSelling
	colPurchase
	colWholesale
	colMRP
	colOpeningStock
)

type ImportRow struct {
	Line           int
	Name           string
	Unit           string
	HSNCode        string
	TaxRate        decimal.Decimal
	SellingPrice   decimal.Decimal
	PurchasePrice  decimal.Decimal
	WholesalePrice decimal.Decimal
	MRP            decimal.Decimal
	OpeningStock   int64
}

type RowError struct {
	Line    int    `json:"line"`
	Message string `json:"message"`
}

// normalizeName makes "  Copper  Wire 1MM" and "copper wire 1mm" compare equal.
func normalizeName(s string) string {
	return strings.ToLower(strings.Join(strings.Fields(s), " "))
}

func cell(row []string, i int) string {
	if i < len(row) {
		return strings.TrimSpace(row[i])
	}
	return ""
}

func decimalCell(row []string, i int, field string) (decimal.Decimal, error) {
	v := strings.ReplaceAll(cell(row, i), ",", "")
	if v == "" {
		return decimal.Zero, nil
	}
	d, err := decimal.NewFromString(v)
	if err != nil {
		return decimal.Zero, fmt.Errorf("%s %q is not a number", field, v)
	}
	if d.IsNegative() {
		return decimal.Zero, fmt.Errorf("%s cannot be negative", field)
	}
	return d, nil
}

// ParseProductSheet reads rows of the first sheet. A first row whose first
// cell says "name" or "product" is treated as the header. Bad rows are
// reported and skipped; the rest are returned.
func ParseProductSheet(rows [][]string) ([]ImportRow, []RowError) {
	start := 0
	if len(rows) > 0 {
		first := strings.ToLower(cell(rows[0], colName))
		if strings.Contains(first, "name") || strings.Contains(first, "product") {
			start = 1
		}
	}

	var out []ImportRow
	var errs []RowError
	seen := map[string]int{}
	for i := start; i < len(rows); i++ {
		row := rows[i]
		line := i + 1
		name := strings.Join(strings.Fields(cell(row, colName)), " ")
		if name == "" {
			continue
		}
		if prev, dup := seen[normalizeName(name)]; dup {
			errs = append(errs, RowError{line, fmt.Sprintf("duplicate of line %d", prev)})
			continue
		}

		r := ImportRow{Line: line, Name: name, Unit: cell(row, colUnit), HSNCode: cell(row, colHSN)}
		if r.Unit == "" {
			r.Unit = "pcs"
		}

		var err error
		fields := []struct {
			col  int
			name string
			dst  *decimal.Decimal
		}{
			{colTaxRate, "tax rate", &r.TaxRate},
			{colSelling, "selling price", &r.SellingPrice},
			{colPurchase, "purchase price", &r.PurchasePrice},
			{colWholesale, "wholesale price", &r.WholesalePrice},
			{colMRP, "mrp", &r.MRP},
		}
		for _, f := range fields {
			if *f.dst, err = decimalCell(row, f.col, f.name); err != nil {
				break
			}
		}
		if err == nil && r.TaxRate.GreaterThan(decimal.NewFromInt(100)) {
			err = fmt.Errorf("tax rate must be between 0 and 100")
		}
		if err == nil {
			if v := cell(row, colOpeningStock); v != "" {
				r.OpeningStock, err = strconv.ParseInt(v, 10, 64)
				if err != nil {
					err = fmt.Errorf("opening stock %q is not a whole number", v)
				}
			}
		}
		if err != nil {
			errs = append(errs, RowError{line, err.Error()})
			continue
		}

		seen[normalizeName(name)] = line
		out = append(out, r)
	}
	return out, errs
}

// POST /api/products/import (multipart, field "file", .xlsx)
//
// Rows matching an existing product by name update its catalog fields;
// stock is only set for new products.
func ImportProductsHandler(db *gorm.DB) fiber.Handler {
	return func(c *fiber.Ctx) error {
		userID, err := auth.UserID(c)
		if err != nil {
			return err
		}

		fileHeader, err := c.FormFile("file")
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "file is required")
		}
		if !strings.HasSuffix(strings.ToLower(fileHeader.Filename), ".xlsx") {
			return fiber.NewError(fiber.StatusBadRequest, "only .xlsx files can be imported")
		}

		file, err := fileHeader.Open()
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "could not open upload")
		}
		defer file.Close()

		xf, err := excelize.OpenReader(file)
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "could not read workbook: "+err.Error())
		}
		defer xf.Close()

		sheets := xf.GetSheetList()
		if len(sheets) == 0 {
			return fiber.NewError(fiber.StatusBadRequest, "workbook has no sheets")
		}
		rows, err := xf.GetRows(sheets[0])
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "could not read sheet "+sheets[0])
		}

		parsed, rowErrs := ParseProductSheet(rows)
		if len(parsed) == 0 {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error":  "no importable rows",
				"errors": rowErrs,
			})
		}

		created, updated := 0, 0
		err = db.WithContext(c.UserContext()).Transaction(func(tx *gorm.DB) error {
			var existing []models.Product
			if err := tx.Where("user_id = ?", userID).Find(&existing).Error; err != nil {
				return err
			}
			byName := make(map[string]models.Product, len(existing))
			for _, p := range existing {
				byName[normalizeName(p.Name)] = p
			}

			for _, r := range parsed {
				if p, ok := byName[normalizeName(r.Name)]; ok {
					if err := tx.Model(&p).Updates(map[string]any{
						"unit":            r.Unit,
						"hsn_code":        r.HSNCode,
						"tax_rate":        r.TaxRate,
						"selling_price":   r.SellingPrice,
						"purchase_price":  r.PurchasePrice,
						"wholesale_price": r.WholesalePrice,
						"mrp":             r.MRP,
					}).Error; err != nil {
						return err
					}
					updated++
					continue
				}

				p := models.Product{
					UserID:         userID,
					Name:           r.Name,
					Unit:           r.Unit,
					HSNCode:        r.HSNCode,
					TaxRate:        r.TaxRate,
					SellingPrice:   r.SellingPrice,
					PurchasePrice:  r.PurchasePrice,
					WholesalePrice: r.WholesalePrice,
					MRP:            r.MRP,
					StockQuantity:  r.OpeningStock,
				}
				if err := tx.Create(&p).Error; err != nil {
					return err
				}
				created++
			}

			return audit.WriteLog(tx, audit.LogOptions{
				UserID:      userID,
				EntityType:  "product",
				Action:      models.AuditActionCreate,
				Description: fmt.Sprintf("imported %s: %d created, %d updated, %d rejected", fileHeader.Filename, created, updated, len(rowErrs)),
			})
		})
		if err != nil {
			logging.LogError("catalog", "ImportProductsHandler", "import products", fileHeader.Filename, err)
			return apperr.ToFiber(err)
		}

		return c.JSON(fiber.Map{
			"created": created,
			"updated": updated,
			"errors":  rowErrs,
		})
	}
}
