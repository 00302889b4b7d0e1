package notification

import (
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/yosbany/NRDOperaciones-sub000/internal/dedup"
	"github.com/yosbany/NRDOperaciones-sub000/internal/model"
	"github.com/yosbany/NRDOperaciones-sub000/internal/notification/config"
	"github.com/yosbany/NRDOperaciones-sub000/internal/notification/pushclient"
)

// Tipos de evento que generan aviso
const (
	EventOrderPending = "order_pending"
	EventTrendWarning = "trend_warning"
)

type Notifier interface {
	OrderPending(order model.Order, contact model.Contact)
	TrendWarning(contactID string, product model.Product, quantity float64, average int, cycleDays *int)
}

type notifier struct {
	client pushclient.PushClient
	dedup  *dedup.Deduper
	zaplog *zap.Logger
}

func NewNotifier(cfg config.Config, zaplog *zap.Logger) Notifier {
	cooldown := cfg.Cooldown
	if cooldown == 0 {
		cooldown = 6 * time.Hour
	}
	return &notifier{
		client: pushclient.NewPushClient(cfg.PushAddr),
		dedup:  dedup.NewDeduper(cooldown, nil),
		zaplog: zaplog,
	}
}

// OrderPending recuerda un pedido que sigue pendiente. El supresor
// evita martillar al usuario con el mismo pedido.
func (n *notifier) OrderPending(order model.Order, contact model.Contact) {
	key := dedup.Key{EventType: EventOrderPending, EntityID: order.ID}
	if !n.dedup.ShouldFire(key) {
		return
	}
	n.dedup.MarkFired(key)

	go n.send(pushclient.PushMessage{
		Topic: EventOrderPending,
		Title: "Pedido pendiente",
		Body:  fmt.Sprintf("El pedido de %s sigue pendiente", contact.Data.Name),
	})
}

// TrendWarning avisa una cantidad atipica ya confirmada por el motor.
func (n *notifier) TrendWarning(contactID string, product model.Product, quantity float64, average int, cycleDays *int) {
	key := dedup.Key{EventType: EventTrendWarning, EntityID: contactID + "/" + product.ID}
	if !n.dedup.ShouldFire(key) {
		return
	}
	n.dedup.MarkFired(key)

	body := fmt.Sprintf("%s: %.0f %s difiere del promedio de ~%d %s",
		product.Data.Name, quantity, product.Data.Unit, average, product.Data.Unit)
	if cycleDays != nil {
		body += fmt.Sprintf(" (ciclo de ~%d dias)", *cycleDays)
	}

	go n.send(pushclient.PushMessage{
		Topic: EventTrendWarning,
		Title: "Cantidad fuera de tendencia",
		Body:  body,
	})
}

func (n *notifier) send(message pushclient.PushMessage) {
	if err := n.client.Send(message); err != nil {
		// el aviso es mejor-esfuerzo: se registra y seguimos
		n.zaplog.Warn("push send failed",
			zap.String("topic", message.Topic),
			zap.Error(err))
	}
}
