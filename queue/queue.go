package queue

import (
	"context"
	"encoding/json"

	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	"github.com/sksmith/bunnyq"
	"github.com/sksmith/reservation-engine/core/order"
	"github.com/sksmith/reservation-engine/core/reservation"
	"github.com/sksmith/reservation-engine/core/stock"
	"github.com/streadway/amqp"
)

type engineQueue struct {
	queue               *bunnyq.BunnyQ
	stockExchange       string
	reservationExchange string
	orderExchange       string
}

// New returns a publisher for every exchange the engine writes to. The one
// value satisfies stock.Queue, reservation.Queue and order.Queue.
func New(bq *bunnyq.BunnyQ, stockExchange, reservationExchange, orderExchange string) *engineQueue {
	return &engineQueue{
		queue:               bq,
		stockExchange:       stockExchange,
		reservationExchange: reservationExchange,
		orderExchange:       orderExchange,
	}
}

func (q *engineQueue) PublishStock(ctx context.Context, rec stock.StockRecord) error {
	body, err := json.Marshal(rec)
	if err != nil {
		return errors.WithMessage(err, "failed to serialize stock record for queue")
	}
	if err = q.queue.Publish(ctx, q.stockExchange, body); err != nil {
		return errors.WithMessage(err, "failed to send stock update to queue")
	}
	return nil
}

func (q *engineQueue) PublishReservation(ctx context.Context, res reservation.Reservation) error {
	body, err := json.Marshal(res)
	if err != nil {
		return errors.WithMessage(err, "error marshalling reservation to send to queue")
	}
	err = q.queue.Publish(ctx, q.reservationExchange, body)
	if err != nil {
		return errors.WithMessage(err, "error publishing reservation")
	}
	return nil
}

func (q *engineQueue) PublishOrder(ctx context.Context, o order.Order) error {
	body, err := json.Marshal(o)
	if err != nil {
		return errors.WithMessage(err, "error marshalling order to send to queue")
	}
	err = q.queue.Publish(ctx, q.orderExchange, body)
	if err != nil {
		return errors.WithMessage(err, "error publishing order")
	}
	return nil
}

// DeliveryEvent is what the courier system publishes as a package moves: the
// order and the lifecycle status it has reached.
type DeliveryEvent struct {
	OrderID string `json:"orderId"`
	Status  string `json:"status"`
}

type DeliveryQueue struct {
	queue               *bunnyq.BunnyQ
	deliveryQueue       string
	deliveryDltExchange string
}

func NewDeliveryQueue(bq *bunnyq.BunnyQ, deliveryQueue, deliveryDltExchange string) *DeliveryQueue {
	return &DeliveryQueue{queue: bq, deliveryQueue: deliveryQueue, deliveryDltExchange: deliveryDltExchange}
}

type DeliveryHandler interface {
	Transition(ctx context.Context, orderID string, to order.Status) (order.Order, error)
}

// ConsumeDeliveryEvents drives the order state machine from courier updates.
// Malformed or unappliable events go to the dead letter exchange rather than
// blocking the stream.
func (d *DeliveryQueue) ConsumeDeliveryEvents(ctx context.Context, handler DeliveryHandler) {
	d.queue.Stream(ctx, d.deliveryQueue, func(delivery amqp.Delivery) {
		event := DeliveryEvent{}
		err := json.Unmarshal(delivery.Body, &event)
		if err != nil {
			log.Error().Err(err).Msg("error unmarshalling delivery event, writing to dlt")
			d.sendToDlt(ctx, delivery.Body)
			return
		}

		status, err := order.ParseStatus(event.Status)
		if err != nil {
			log.Error().Err(err).Str("status", event.Status).Msg("unknown delivery status, writing to dlt")
			d.sendToDlt(ctx, delivery.Body)
			return
		}

		_, err = handler.Transition(ctx, event.OrderID, status)
		if err != nil {
			log.Error().Err(err).Str("orderId", event.OrderID).Msg("error handling delivery event, writing to dlt")
			d.sendToDlt(ctx, delivery.Body)
		}
	}, bunnyq.StreamOpAutoAck)
}

func (d *DeliveryQueue) sendToDlt(ctx context.Context, data []byte) {
	err := d.queue.Publish(ctx, d.deliveryDltExchange, data)
	if err != nil {
		log.Error().Err(err).Msg("error writing to dlt")
	}
}
