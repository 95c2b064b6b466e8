// Package api содержит HTTP API сервер.
//
// Структура:
//   - handler.go          — Handler с DI (репозитории, lifecycle-сервис, logger)
//   - routes.go           — регистрация маршрутов
//   - middleware.go       — middleware (logging, recovery)
//   - response.go         — унифицированные JSON-ответы и маппинг ошибок
//   - dto.go              — Data Transfer Objects (request/response)
//   - workflow_handler.go — обработчики для /workflows
//   - run_handler.go      — обработчики для /workflow-runs
//   - item_handler.go     — обработчики для /workflow-items
//
// Все мутирующие ответы несут агрегатный блок run (status,
// required_total, required_done), чтобы клиент обновлял дашборд без
// второго запроса. Ответы об ошибках перехода несут объект state с
// текущими статусами run/item — клиент по нему сверяет своё
// устаревшее представление.
package api
