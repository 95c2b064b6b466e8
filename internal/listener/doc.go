// Package listener содержит AMQP-вход для callback Form Service.
//
// Form Service сообщает об отправке формы двумя путями: синхронным
// HTTP callback (POST /workflow-items/mark-submitted) и событием в
// очереди forms.submitted. Listener обслуживает второй путь: один
// consumer, переходы применяет тот же lifecycle-сервис, что и HTTP.
//
// Политика подтверждения: отказ guard-правил — warn + ack (повтор
// исход не изменит), транзиентные ошибки — nack с requeue.
package listener
