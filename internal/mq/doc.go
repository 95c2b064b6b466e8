// Package mq предоставляет инфраструктуру для работы с RabbitMQ.
//
// Структура:
//   - connection.go — управление соединением с RabbitMQ (reconnect, graceful shutdown)
//   - topology.go   — объявление exchanges, queues, bindings
//   - publisher.go  — публикация сообщений в очереди
//   - consumer.go   — потребление сообщений из очередей
//
// Типы сообщений:
//   - run.locked     — run административно заблокирован
//   - run.cancelled  — run отменён
//   - run.completed  — все обязательные слоты run закрыты
//   - item.skipped   — item пропущен с указанием причины
//   - form.submitted — Form Service сообщил об отправке формы
//
// Exchanges:
//   - formflow.events — исходящие lifecycle-события (потребитель: Notification/Audit)
//   - formflow.forms  — входящие события Form Service
//   - formflow.dlq    — dead letter queue
package mq
