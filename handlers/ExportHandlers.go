package handlers

import (
	"database/sql"
	"encoding/csv"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"backend/models"
	"backend/repository"

	"github.com/gin-gonic/gin"
	"github.com/xuri/excelize/v2"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// ExportCSVBOM godoc
// @Summary      Export BOM material lines as CSV
// @Tags         export
// @Produce      text/csv
// @Param        id  path  int  true  "BOM ID"
// @Success      200  {file}  file  "CSV file"
// @Failure      404  {object}  models.ErrorResponse
// @Router       /api/export_csv_bom/{id} [get]
func ExportCSVBOM(db *sql.DB) gin.HandlerFunc {
	repo := repository.New(db)
	return func(c *gin.Context) {
		bomID, err := strconv.Atoi(c.Param("id"))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid BOM ID"})
			return
		}

		var code string
		err = db.QueryRow(`SELECT code FROM prod_bom WHERE id = $1 AND deleted_at IS NULL`, bomID).Scan(&code)
		if err == sql.ErrNoRows {
			c.JSON(http.StatusNotFound, gin.H{"error": "BOM not found"})
			return
		}
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}

		materials, err := repo.BOMMaterials(bomID)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}

		c.Header("Content-Type", "text/csv")
		c.Header("Content-Disposition", fmt.Sprintf("attachment;filename=%s.csv", code))

		writer := csv.NewWriter(c.Writer)
		defer writer.Flush()

		header := []string{"Line", "MaterialID", "Type", "Quantity", "ScrapRate", "AlternativeOf", "Priority"}
		if err := writer.Write(header); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Error writing CSV header"})
			return
		}

		for i, m := range materials {
			row := []string{
				strconv.Itoa(i + 1),
				strconv.Itoa(m.MaterialID),
				m.MaterialType,
				fmt.Sprintf("%.4f", m.Quantity),
				fmt.Sprintf("%.4f", m.ScrapRate),
				"", "",
			}
			if err := writer.Write(row); err != nil {
				c.JSON(http.StatusInternalServerError, gin.H{"error": "Error writing CSV row"})
				return
			}

			for _, alt := range m.Alternatives {
				altRow := []string{
					strconv.Itoa(i + 1),
					strconv.Itoa(alt.AlternativeMaterialID),
					"ALTERNATIVE",
					fmt.Sprintf("%.4f", alt.Quantity),
					fmt.Sprintf("%.4f", alt.ScrapRate),
					strconv.Itoa(m.MaterialID),
					strconv.Itoa(alt.Priority),
				}
				if err := writer.Write(altRow); err != nil {
					c.JSON(http.StatusInternalServerError, gin.H{"error": "Error writing CSV row"})
					return
				}
			}
		}
	}
}

// ExportOrdersExcel godoc
// @Summary      Export the order register as an Excel workbook
// @Tags         export
// @Param        status  query  string  false  "Filter by status"
// @Param        from    query  string  false  "Scheduled from (YYYY-MM-DD)"
// @Param        to      query  string  false  "Scheduled to (YYYY-MM-DD)"
// @Success      200  {file}  file  "XLSX file"
// @Router       /api/export_orders_excel [get]
func ExportOrdersExcel(db *sql.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		titleCaser := cases.Title(language.Und)

		query := `
			SELECT o.id, o.code, o.status, o.bom_id, COALESCE(p.name, ''), o.planned_qty,
			       o.produced_qty, o.scheduled_date, o.created_at
			FROM prod_order o
			LEFT JOIN product p ON o.product_id = p.id
			WHERE 1=1`
		args := []interface{}{}
		argIndex := 1

		if status := c.Query("status"); status != "" {
			query += fmt.Sprintf(" AND o.status = $%d", argIndex)
			args = append(args, status)
			argIndex++
		}
		if from := c.Query("from"); from != "" {
			query += fmt.Sprintf(" AND o.scheduled_date >= $%d", argIndex)
			args = append(args, from)
			argIndex++
		}
		if to := c.Query("to"); to != "" {
			query += fmt.Sprintf(" AND o.scheduled_date <= $%d", argIndex)
			args = append(args, to)
			argIndex++
		}
		query += " ORDER BY o.scheduled_date, o.id"

		rows, err := db.Query(query, args...)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Error querying orders"})
			return
		}
		defer rows.Close()

		f := excelize.NewFile()
		sheet := "Orders"
		f.SetSheetName("Sheet1", sheet)

		titleStyle, err := f.NewStyle(&excelize.Style{
			Font: &excelize.Font{Bold: true, Size: 11},
			Fill: excelize.Fill{Type: "pattern", Color: []string{"#F0F0F0"}, Pattern: 1},
		})
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Error creating style"})
			return
		}

		headers := []string{"ID", "Code", "Status", "BOM", "Product", "Planned Qty", "Produced Qty", "Scheduled", "Created"}
		for i, h := range headers {
			cell, _ := excelize.CoordinatesToCellName(i+1, 1)
			f.SetCellValue(sheet, cell, h)
		}
		endCell, _ := excelize.CoordinatesToCellName(len(headers), 1)
		f.SetCellStyle(sheet, "A1", endCell, titleStyle)

		rowNum := 2
		for rows.Next() {
			var o models.OrderSnapshot
			var productName string
			if err := rows.Scan(&o.ID, &o.Code, &o.Status, &o.BOMID, &productName,
				&o.PlannedQty, &o.ProducedQty, &o.ScheduledDate, &o.CreatedDate); err != nil {
				c.JSON(http.StatusInternalServerError, gin.H{"error": "Error scanning orders"})
				return
			}

			values := []interface{}{
				o.ID, o.Code, titleCaser.String(o.Status), o.BOMID, productName,
				o.PlannedQty, o.ProducedQty,
				o.ScheduledDate.Format("2006-01-02"),
				o.CreatedDate.Format("2006-01-02 15:04"),
			}
			for i, v := range values {
				cell, _ := excelize.CoordinatesToCellName(i+1, rowNum)
				f.SetCellValue(sheet, cell, v)
			}
			rowNum++
		}

		filename := fmt.Sprintf("orders_%s.xlsx", time.Now().Format("20060102"))
		c.Header("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
		c.Header("Content-Disposition", "attachment;filename="+filename)
		if err := f.Write(c.Writer); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Error writing workbook"})
		}
	}
}
