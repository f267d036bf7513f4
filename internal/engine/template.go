package engine

import (
	"fmt"
	"strconv"
	"strings"
)

// orderIDPlaceholder — плейсхолдер номера заказа в шаблонах настроек.
const orderIDPlaceholder = "#{order_id}"

// RenderTitle подставляет номер заказа в шаблон заголовка задачи.
func RenderTitle(template string, orderID int64) string {
	return strings.ReplaceAll(template, orderIDPlaceholder, strconv.FormatInt(orderID, 10))
}

// RenderDescription собирает описание задачи: шаблон плюс название заказа.
// Если название пустое, подставляется номер заказа.
func RenderDescription(template string, orderID int64, orderTitle string) string {
	rendered := strings.ReplaceAll(template, orderIDPlaceholder, strconv.FormatInt(orderID, 10))
	if orderTitle == "" {
		orderTitle = strconv.FormatInt(orderID, 10)
	}
	return fmt.Sprintf("%s (Заказ: %s)", rendered, orderTitle)
}
