package model

import (
	"fmt"
	"strings"
	"time"
)

const (
	NotificationWelcome            = "welcome"
	NotificationOrderPlaced        = "order_placed"
	NotificationOrderCancelled     = "order_cancelled"
	NotificationOrderStatusChanged = "order_status_changed"
)

// ============================================================================
// KAFKA MESSAGE STRUCTURES
// ============================================================================

// NotificationRequest is the message carried on the notification topic
type NotificationRequest struct {
	Type           string                 `json:"type"`
	RecipientEmail string                 `json:"recipient_email"`
	RecipientName  string                 `json:"recipient_name"`
	Order          *NotificationOrderData `json:"order,omitempty"`
	Timestamp      time.Time              `json:"timestamp"`
}

// NotificationOrderData is the order snapshot rendered into order e-mails
type NotificationOrderData struct {
	OrderID         string              `json:"order_id"`
	Status          OrderStatus         `json:"status"`
	ShippingAddress string              `json:"shipping_address"`
	TotalAmount     float64             `json:"total_amount"`
	Items           []OrderItemResponse `json:"items"`
}

// NewOrderNotification builds an order e-mail request for user
func NewOrderNotification(kind string, user *User, order *Order) NotificationRequest {
	resp := order.ToOrderResponse()
	return NotificationRequest{
		Type:           kind,
		RecipientEmail: user.Email,
		RecipientName:  user.FullName(),
		Order: &NotificationOrderData{
			OrderID:         order.ID,
			Status:          order.Status,
			ShippingAddress: order.ShippingAddress,
			TotalAmount:     order.TotalAmount,
			Items:           resp.Items,
		},
		Timestamp: time.Now(),
	}
}

// ============================================================================
// EMAIL TEMPLATES
// ============================================================================

// EmailTemplate represents a rendered e-mail
type EmailTemplate struct {
	To      string
	Subject string
	Body    string
}

// RenderEmail produces the e-mail for the notification type. It returns nil
// for types it does not know.
func (nr *NotificationRequest) RenderEmail() *EmailTemplate {
	switch nr.Type {
	case NotificationWelcome:
		return nr.welcomeEmail()
	case NotificationOrderPlaced:
		return nr.orderEmail("Order Received", "Thank you! We have received your order.")
	case NotificationOrderCancelled:
		return nr.orderEmail("Order Cancelled", "Your order has been cancelled. Any payment will be refunded within 3-5 business days.")
	case NotificationOrderStatusChanged:
		if nr.Order == nil || nr.Order.Status == "" {
			return nil
		}
		status := string(nr.Order.Status)
		return nr.orderEmail("Order "+strings.ToUpper(status[:1])+status[1:], "The status of your order is now: "+status+".")
	default:
		return nil
	}
}

func (nr *NotificationRequest) welcomeEmail() *EmailTemplate {
	body := "Dear " + nr.RecipientName + ",\n\n" +
		"Welcome to the Bookstore! Your account is ready.\n\n" +
		"Happy reading,\n" +
		"The Bookstore Team"

	return &EmailTemplate{
		To:      nr.RecipientEmail,
		Subject: "Welcome to the Bookstore",
		Body:    body,
	}
}

func (nr *NotificationRequest) orderEmail(subject, lead string) *EmailTemplate {
	if nr.Order == nil {
		return nil
	}

	var b strings.Builder
	b.WriteString("Dear " + nr.RecipientName + ",\n\n")
	b.WriteString(lead + "\n\n")
	b.WriteString("Order ID: " + nr.Order.OrderID + "\n")
	for _, item := range nr.Order.Items {
		fmt.Fprintf(&b, "  %d x %s @ $%.2f\n", item.Quantity, item.Title, item.UnitPrice)
	}
	fmt.Fprintf(&b, "Total: $%.2f\n", nr.Order.TotalAmount)
	b.WriteString("Ship to: " + nr.Order.ShippingAddress + "\n\n")
	b.WriteString("The Bookstore Team")

	return &EmailTemplate{
		To:      nr.RecipientEmail,
		Subject: subject + " - " + nr.Order.OrderID,
		Body:    b.String(),
	}
}
