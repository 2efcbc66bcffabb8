package services

// EventPublisher delivers stock events to interested consumers. The RabbitMQ
// client in pkg/rabbitmq satisfies it.
type EventPublisher interface {
	Publish(routingKey string, payload interface{}) error
}
