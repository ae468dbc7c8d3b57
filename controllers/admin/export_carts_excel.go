package adminController

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/tealeg/xlsx"
	"go.uber.org/zap"

	"github.com/junaidrashid-git/storefront-api/cart"
	"github.com/junaidrashid-git/storefront-api/totals"
)

const defaultExportLimit = 5000

// ExportCartsToExcel downloads the active carts with freshly computed totals.
// Nothing is written back while exporting.
func ExportCartsToExcel(d Deps) gin.HandlerFunc {
	return func(c *gin.Context) {
		limit := defaultExportLimit
		if raw := c.Query("limit"); raw != "" {
			n, err := strconv.Atoi(raw)
			if err != nil || n <= 0 {
				c.JSON(http.StatusBadRequest, gin.H{"error": "limit must be a positive number"})
				return
			}
			limit = n
		}

		snaps, err := d.Service.Export(c.Request.Context(), limit)
		if err != nil {
			d.Logger.Error("admin: export carts", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch carts"})
			return
		}

		file, err := CartsWorkbook(snaps)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create Excel sheet"})
			return
		}

		c.Header("Content-Disposition", "attachment; filename=carts.xlsx")
		c.Header("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
		c.Header("Content-Transfer-Encoding", "binary")
		c.Header("Expires", "0")

		if err := file.Write(c.Writer); err != nil {
			d.Logger.Error("admin: write carts workbook", zap.Error(err))
		}
	}
}

// CartsWorkbook lays out one row per cart on a "Carts" sheet and one row per
// line on a "Lines" sheet.
func CartsWorkbook(snaps []*cart.Snapshot) (*xlsx.File, error) {
	file := xlsx.NewFile()
	carts, err := file.AddSheet("Carts")
	if err != nil {
		return nil, err
	}
	lines, err := file.AddSheet("Lines")
	if err != nil {
		return nil, err
	}

	header(carts, "CartID", "UserID", "Guest", "Status", "Currency", "Items",
		"Subtotal", "Discount", "Shipping", "Tax", "GrandTotal", "ShippingZone", "City", "UpdatedAt")
	header(lines, "CartID", "LineID", "VariantID", "SKU", "Quantity", "UnitPrice", "Subtotal", "AddedAt")

	for _, s := range snaps {
		if s == nil || s.Cart == nil {
			continue
		}
		ct := s.Cart
		row := carts.AddRow()
		row.AddCell().SetValue(ct.ID)
		row.AddCell().SetValue(ct.UserID)
		row.AddCell().SetValue(ct.UserID == "")
		row.AddCell().SetValue(string(ct.Status))
		row.AddCell().SetValue(ct.Currency)
		row.AddCell().SetValue(s.Count())
		row.AddCell().SetValue(totals.Fixed(s.Totals.Subtotal))
		row.AddCell().SetValue(totals.Fixed(s.Totals.Discount))
		row.AddCell().SetValue(totals.Fixed(s.Totals.Shipping))
		row.AddCell().SetValue(totals.Fixed(s.Totals.Tax))
		row.AddCell().SetValue(totals.Fixed(s.Totals.Grand))
		row.AddCell().SetValue(s.Totals.Zone)
		row.AddCell().SetValue(ct.Address.City)
		row.AddCell().SetValue(ct.UpdatedAt.Format("2006-01-02 15:04:05"))

		for _, it := range s.Items {
			if it.Quantity <= 0 {
				continue
			}
			sku := ""
			if it.Variant != nil {
				sku = strings.TrimSpace(it.Variant.SKU)
			}
			lr := lines.AddRow()
			lr.AddCell().SetValue(ct.ID)
			lr.AddCell().SetValue(it.ID)
			lr.AddCell().SetValue(it.VariantID)
			lr.AddCell().SetValue(sku)
			lr.AddCell().SetValue(it.Quantity)
			lr.AddCell().SetValue(totals.Fixed(it.UnitPrice))
			lr.AddCell().SetValue(totals.Fixed(it.Subtotal))
			lr.AddCell().SetValue(it.AddedAt.Format("2006-01-02 15:04:05"))
		}
	}
	return file, nil
}

func header(sheet *xlsx.Sheet, names ...string) {
	row := sheet.AddRow()
	for _, h := range names {
		row.AddCell().SetValue(h)
	}
}
