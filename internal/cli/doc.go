// Package cli реализует инструмент командной строки Formflow.
//
// # Обзор
//
// CLI — клиентская утилита для взаимодействия с Formflow API.
// Работает через HTTP, не импортирует внутренние пакеты системы.
// CLI используется для управления шаблонами, runs и items.
//
// # Ключевые компоненты
//
// ## Client
//
// HTTP-клиент для Formflow API. Инкапсулирует все HTTP-запросы,
// парсинг ответов (DataResponse, ListResponse, ErrorResponse)
// и обработку ошибок. Каждый запрос несёт заголовок X-Actor-Id.
//
//	client := cli.NewClient("http://localhost:8080", actorID)
//	workflows, err := client.ListWorkflows()
//
// ## Output
//
// Форматирование вывода. Поддерживает два режима:
//   - Таблицы (text/tabwriter) — по умолчанию
//   - JSON (json.MarshalIndent) — с флагом --json
//
// Данные выводятся в stdout, сообщения (Success/Error) — в stderr.
// Это позволяет использовать pipe: formflow run list --json | jq .
//
// ## Commands
//
// Cobra-команды организованы по ресурсам:
//   - workflow: list, create, show, update, forms, add-form
//   - run: list, create, show, lock, cancel
//   - item: assign, start, skip, add, mark-submitted
//
// Каждая группа создаётся через фабричную функцию (NewWorkflowCmd
// и т.д.), принимающую clientFn и outputFn — замыкания для ленивого
// создания Client и Output после парсинга PersistentFlags.
package cli
