package handlers

import (
	"bytes"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/jpeg"
	"net/http"
	"strconv"

	"backend/models"
	"backend/repository"
	"backend/services"
	"backend/utils"
	"backend/validation"

	"github.com/gin-gonic/gin"
	"github.com/skip2/go-qrcode"
	"golang.org/x/image/font"
	"golang.org/x/image/font/inconsolata"
	"golang.org/x/image/math/fixed"
)

func newOrderService(db *sql.DB) (*services.OrderService, *repository.Repository) {
	repo := repository.New(db)
	return services.NewOrderService(validation.NewOrderValidator(repo), repo), repo
}

// respondBlocked translates a gate refusal into the 422 payload; any other
// error becomes a 500.
func respondBlocked(c *gin.Context, operation string, err error) {
	var blocked *services.BlockedError
	if errors.As(err, &blocked) {
		utils.BlockedResponse(c, operation, blocked.Results)
		return
	}
	if errorsIsNotFound(err) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Order not found"})
		return
	}
	c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
}

// CreateOrderHandler godoc
// @Summary      Create production order
// @Description  Runs the creation rules; blocks stop the insert, warnings
// @Description  stop it unless skip_warnings acknowledges them.
// @Tags         orders
// @Param        request  body  models.OrderCreateRequest  true  "Order"
// @Success      201  {object}  map[string]interface{}
// @Failure      422  {object}  map[string]interface{}
// @Router       /api/order [post]
func CreateOrderHandler(db *sql.DB) gin.HandlerFunc {
	svc, _ := newOrderService(db)
	return func(c *gin.Context) {
		var req models.OrderCreateRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid input"})
			return
		}

		order, results, err := svc.CreateOrder(c.Request.Context(), req)
		if err != nil {
			respondBlocked(c, "create order", err)
			return
		}

		logEvent(c, db, "ORDER", "Create",
			fmt.Sprintf("Created order %s for product %d", order.Code, order.ProductID))

		c.JSON(http.StatusCreated, gin.H{
			"message":  "Order created",
			"order":    order,
			"warnings": results.Warnings(),
		})
	}
}

// ValidateOrderHandler godoc
// @Summary      Dry-run order creation rules
// @Description  Returns the full rule outcome without writing anything, for
// @Description  live feedback while the form is being filled.
// @Tags         orders
// @Param        request  body  models.OrderCreateRequest  true  "Order"
// @Success      200  {object}  map[string]interface{}
// @Router       /api/order/validate [post]
func ValidateOrderHandler(db *sql.DB) gin.HandlerFunc {
	repo := repository.New(db)
	validator := validation.NewOrderValidator(repo)
	return func(c *gin.Context) {
		var req models.OrderCreateRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid input"})
			return
		}

		results, err := validator.ValidateCreate(req)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"valid":    results.IsValid(),
			"blocks":   results.Blocks(),
			"warnings": results.Warnings(),
		})
	}
}

// GetOrderHandler godoc
// @Summary      Get production order
// @Tags         orders
// @Param        id  path  int  true  "Order ID"
// @Success      200  {object}  models.OrderSnapshot
// @Failure      404  {object}  models.ErrorResponse
// @Router       /api/order/{id} [get]
func GetOrderHandler(db *sql.DB) gin.HandlerFunc {
	repo := repository.New(db)
	return func(c *gin.Context) {
		orderID, err := strconv.Atoi(c.Param("id"))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid order ID"})
			return
		}

		order, err := repo.OrderSnapshot(orderID)
		if err != nil {
			if errorsIsNotFound(err) {
				c.JSON(http.StatusNotFound, gin.H{"error": "Order not found"})
				return
			}
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}

		c.JSON(http.StatusOK, order)
	}
}

// UpdateOrderHandler godoc
// @Summary      Update production order
// @Description  Applies the edit rules to the changed fields only.
// @Tags         orders
// @Param        id       path  int  true  "Order ID"
// @Param        request  body  models.OrderUpdateRequest  true  "Changes"
// @Success      200  {object}  map[string]interface{}
// @Failure      422  {object}  map[string]interface{}
// @Router       /api/order/{id} [put]
func UpdateOrderHandler(db *sql.DB) gin.HandlerFunc {
	svc, _ := newOrderService(db)
	return func(c *gin.Context) {
		orderID, err := strconv.Atoi(c.Param("id"))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid order ID"})
			return
		}

		var upd models.OrderUpdateRequest
		if err := c.ShouldBindJSON(&upd); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid input"})
			return
		}

		order, results, err := svc.UpdateOrder(c.Request.Context(), orderID, upd)
		if err != nil {
			respondBlocked(c, "update order", err)
			return
		}

		logEvent(c, db, "ORDER", "Update", fmt.Sprintf("Updated order %d", orderID))

		c.JSON(http.StatusOK, gin.H{
			"message":  "Order updated",
			"order":    order,
			"warnings": results.Warnings(),
		})
	}
}

// ConfirmOrderHandler godoc
// @Summary      Confirm production order
// @Tags         orders
// @Param        id  path  int  true  "Order ID"
// @Success      200  {object}  map[string]interface{}
// @Failure      422  {object}  map[string]interface{}
// @Router       /api/order/{id}/confirm [post]
func ConfirmOrderHandler(db *sql.DB) gin.HandlerFunc {
	svc, _ := newOrderService(db)
	return func(c *gin.Context) {
		orderID, err := strconv.Atoi(c.Param("id"))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid order ID"})
			return
		}

		var body struct {
			SkipWarnings bool `json:"skip_warnings"`
		}
		_ = c.ShouldBindJSON(&body)

		results, err := svc.ConfirmOrder(c.Request.Context(), orderID, body.SkipWarnings)
		if err != nil {
			respondBlocked(c, "confirm order", err)
			return
		}

		logEvent(c, db, "ORDER", "Confirm", fmt.Sprintf("Confirmed order %d", orderID))

		c.JSON(http.StatusOK, gin.H{
			"message":  "Order confirmed",
			"order_id": orderID,
			"status":   models.OrderStatusConfirmed,
			"warnings": results.Warnings(),
		})
	}
}

// CancelOrderHandler godoc
// @Summary      Cancel production order
// @Tags         orders
// @Param        id  path  int  true  "Order ID"
// @Success      200  {object}  map[string]interface{}
// @Failure      422  {object}  map[string]interface{}
// @Router       /api/order/{id}/cancel [post]
func CancelOrderHandler(db *sql.DB) gin.HandlerFunc {
	svc, _ := newOrderService(db)
	return func(c *gin.Context) {
		orderID, err := strconv.Atoi(c.Param("id"))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid order ID"})
			return
		}

		var body struct {
			Reason       string `json:"reason"`
			SkipWarnings bool   `json:"skip_warnings"`
		}
		_ = c.ShouldBindJSON(&body)

		results, err := svc.CancelOrder(c.Request.Context(), orderID, body.Reason, body.SkipWarnings)
		if err != nil {
			respondBlocked(c, "cancel order", err)
			return
		}

		logEvent(c, db, "ORDER", "Cancel",
			fmt.Sprintf("Cancelled order %d: %s", orderID, body.Reason))

		c.JSON(http.StatusOK, gin.H{
			"message":  "Order cancelled",
			"order_id": orderID,
			"status":   models.OrderStatusCancelled,
			"warnings": results.Warnings(),
		})
	}
}

// DeleteOrderHandler godoc
// @Summary      Delete production order
// @Tags         orders
// @Param        id  path  int  true  "Order ID"
// @Success      200  {object}  map[string]interface{}
// @Failure      422  {object}  map[string]interface{}
// @Router       /api/order/{id} [delete]
func DeleteOrderHandler(db *sql.DB) gin.HandlerFunc {
	svc, _ := newOrderService(db)
	return func(c *gin.Context) {
		orderID, err := strconv.Atoi(c.Param("id"))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid order ID"})
			return
		}

		skipWarnings := c.DefaultQuery("skip_warnings", "false") == "true"

		results, err := svc.DeleteOrder(c.Request.Context(), orderID, skipWarnings)
		if err != nil {
			respondBlocked(c, "delete order", err)
			return
		}

		logEvent(c, db, "ORDER", "Delete", fmt.Sprintf("Deleted order %d", orderID))

		c.JSON(http.StatusOK, gin.H{
			"message":  "Order deleted",
			"order_id": orderID,
			"warnings": results.Warnings(),
		})
	}
}

// addLabel adds text to an image at the specified position
func addLabel(img *image.RGBA, x, y int, label string) {
	col := color.RGBA{0, 0, 0, 255}
	point := fixed.Point26_6{
		X: fixed.Int26_6(x * 64),
		Y: fixed.Int26_6(y * 64),
	}

	d := &font.Drawer{
		Dst:  img,
		Src:  image.NewUniform(col),
		Face: inconsolata.Regular8x16,
		Dot:  point,
	}
	d.DrawString(label)
}

// addLabelBold adds bold text for field labels
func addLabelBold(img *image.RGBA, x, y int, label string) {
	col := color.RGBA{30, 30, 30, 255}
	point := fixed.Point26_6{
		X: fixed.Int26_6(x * 64),
		Y: fixed.Int26_6(y * 64),
	}

	d := &font.Drawer{
		Dst:  img,
		Src:  image.NewUniform(col),
		Face: inconsolata.Bold8x16,
		Dot:  point,
	}
	d.DrawString(label)
}

// GenerateOrderQRCodeJPEG godoc
// @Summary      Generate order traveler label as JPEG
// @Description  QR payload carries the order identity so the shop floor can
// @Description  scan it back into the issue screens.
// @Tags         orders
// @Param        id   path      int  true  "Order ID"
// @Success      200  {file}    file  "JPEG image"
// @Failure      404  {object}  models.ErrorResponse
// @Router       /api/order_qr/{id} [get]
func GenerateOrderQRCodeJPEG(db *sql.DB) gin.HandlerFunc {
	repo := repository.New(db)
	return func(c *gin.Context) {
		orderID, err := strconv.Atoi(c.Param("id"))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid order ID"})
			return
		}

		order, err := repo.OrderSnapshot(orderID)
		if err != nil {
			if errorsIsNotFound(err) {
				c.JSON(http.StatusNotFound, gin.H{"error": "Order not found"})
				return
			}
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}

		var productName string
		_ = db.QueryRow(`SELECT COALESCE(name, '') FROM product WHERE id = $1`, order.ProductID).Scan(&productName)

		qrData := gin.H{
			"order_id":   order.ID,
			"code":       order.Code,
			"bom_id":     order.BOMID,
			"product_id": order.ProductID,
		}
		jsonData, err := json.Marshal(qrData)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to marshal order data"})
			return
		}

		qr, err := qrcode.New(string(jsonData), qrcode.Medium)
		if err != nil {
			c.String(http.StatusInternalServerError, "QR code generation failed")
			return
		}

		qrImg := qr.Image(512)

		qrSize := qrImg.Bounds().Dy()
		padding := 30
		lineHeight := 28
		textAreaHeight := 4*lineHeight + padding
		totalHeight := qrSize + padding + textAreaHeight

		combinedImg := image.NewRGBA(image.Rect(0, 0, qrSize, totalHeight))
		draw.Draw(combinedImg, combinedImg.Bounds(), &image.Uniform{color.White}, image.Point{}, draw.Src)

		qrRect := image.Rect(0, 0, qrSize, qrSize)
		draw.Draw(combinedImg, qrRect, qrImg, image.Point{}, draw.Src)

		separatorY := qrSize + padding/2
		for x := 0; x < qrSize; x++ {
			combinedImg.Set(x, separatorY, color.RGBA{200, 200, 200, 255})
		}

		startY := qrSize + padding + lineHeight
		xPos := 20

		addLabelBold(combinedImg, xPos, startY, "Order:")
		addLabel(combinedImg, xPos+120, startY, order.Code)

		addLabelBold(combinedImg, xPos, startY+lineHeight, "Product:")
		productDisplay := productName
		if len(productDisplay) > 30 {
			productDisplay = productDisplay[:27] + "..."
		}
		addLabel(combinedImg, xPos+120, startY+lineHeight, productDisplay)

		addLabelBold(combinedImg, xPos, startY+2*lineHeight, "Qty:")
		addLabel(combinedImg, xPos+120, startY+2*lineHeight, fmt.Sprintf("%.2f", order.PlannedQty))

		addLabelBold(combinedImg, xPos, startY+3*lineHeight, "Scheduled:")
		addLabel(combinedImg, xPos+120, startY+3*lineHeight, order.ScheduledDate.Format("2006-01-02"))

		var buf bytes.Buffer
		if err := jpeg.Encode(&buf, combinedImg, nil); err != nil {
			c.String(http.StatusInternalServerError, "JPEG encoding failed")
			return
		}

		c.Data(http.StatusOK, "image/jpeg", buf.Bytes())
	}
}
