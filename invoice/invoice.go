package invoice

import (
	"bytes"
	"fmt"
	"log"
	"net/http"

	"karigar/apperr"
	"karigar/models"
	"karigar/orders"
	"karigar/utils"

	"github.com/julienschmidt/httprouter"
	"github.com/phpdave11/gofpdf"
	"github.com/skip2/go-qrcode"
)

func rupees(paise int64) string {
	return fmt.Sprintf("Rs %d.%02d", paise/100, paise%100)
}

// PrintInvoice renders a PDF receipt for an order whose deposit has
// cleared. Either party may download it.
// GET /api/orders/order/:orderid/invoice
func PrintInvoice(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	ctx := r.Context()
	userID := utils.GetUserIDFromRequest(r)

	order, err := orders.FindByID(ctx, ps.ByName("orderid"))
	if err != nil {
		utils.RespondWithAppError(w, err)
		return
	}
	if order.RoleOf(userID) == "" {
		utils.RespondWithAppError(w, apperr.NotFound("order not found"))
		return
	}
	if !order.Payments.Initial.Paid {
		utils.RespondWithAppError(w, apperr.PaymentNotCaptured("receipt available once the deposit has cleared"))
		return
	}

	qrPayload := fmt.Sprintf("order|%s|%s", order.OrderID, order.Payments.Initial.RazorpayPaymentID)
	qrPNG, err := qrcode.Encode(qrPayload, qrcode.Medium, 256)
	if err != nil {
		log.Printf("PrintInvoice: QR generation failed for %s: %v", order.OrderID, err)
		utils.RespondWithAppError(w, apperr.Internal("failed to generate receipt"))
		return
	}

	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.AddPage()
	pdf.SetFont("Arial", "B", 16)
	pdf.Cell(40, 10, "Order Receipt")
	pdf.Ln(12)

	pdf.SetFont("Arial", "", 12)
	pdf.Cell(0, 10, fmt.Sprintf("Order ID: %s", order.OrderID))
	pdf.Ln(8)
	pdf.Cell(0, 10, fmt.Sprintf("Status: %s", order.Status))
	pdf.Ln(8)
	pdf.Cell(0, 10, fmt.Sprintf("Placed: %s", order.CreatedAt.Format("02 Jan 2006")))
	pdf.Ln(12)

	pdf.SetFont("Arial", "B", 12)
	pdf.Cell(0, 8, "Items")
	pdf.Ln(8)
	pdf.SetFont("Arial", "", 11)
	for _, it := range order.Items {
		pdf.Cell(0, 7, fmt.Sprintf("%s  x%d  %s", it.Name, it.Quantity, rupees(it.UnitPrice*int64(it.Quantity))))
		pdf.Ln(7)
	}
	pdf.Ln(5)

	pdf.Cell(0, 7, fmt.Sprintf("Subtotal: %s", rupees(order.Totals.Subtotal)))
	pdf.Ln(7)
	pdf.Cell(0, 7, fmt.Sprintf("Tax: %s", rupees(order.Totals.Tax)))
	pdf.Ln(7)
	pdf.Cell(0, 7, fmt.Sprintf("Shipping: %s", rupees(order.Totals.Shipping)))
	pdf.Ln(7)
	pdf.SetFont("Arial", "B", 11)
	pdf.Cell(0, 7, fmt.Sprintf("Total: %s", rupees(order.Totals.Total)))
	pdf.Ln(10)

	pdf.SetFont("Arial", "", 11)
	pdf.Cell(0, 7, paymentLine("Deposit", order.Payments.Initial))
	pdf.Ln(7)
	pdf.Cell(0, 7, paymentLine("Balance", order.Payments.Final))
	pdf.Ln(10)

	imageOpts := gofpdf.ImageOptions{ImageType: "PNG"}
	pdf.RegisterImageOptionsReader("qr", imageOpts, bytes.NewReader(qrPNG))
	pdf.ImageOptions("qr", 150, 40, 40, 40, false, imageOpts, 0, "")

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		log.Printf("PrintInvoice: PDF output failed for %s: %v", order.OrderID, err)
		utils.RespondWithAppError(w, apperr.Internal("failed to generate receipt"))
		return
	}

	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", "attachment; filename=receipt-"+order.OrderID+".pdf")
	w.WriteHeader(http.StatusOK)
	w.Write(buf.Bytes())
}

func paymentLine(label string, rec models.PaymentRecord) string {
	state := "pending"
	if rec.Paid {
		state = "paid"
	}
	return fmt.Sprintf("%s: %s (%s)", label, rupees(rec.Amount), state)
}
