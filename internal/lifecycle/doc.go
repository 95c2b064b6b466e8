// Package lifecycle реализует переходы жизненного цикла run/item.
//
// Lifecycle — центральный компонент системы, который:
//   - Создаёт runs из шаблонов (фабрика: run + item на каждый слот, атомарно)
//   - Применяет переходы items (start, skip, assign, addRepeat, markSubmitted)
//   - Применяет административные операции run (lock, cancel)
//   - Пересчитывает агрегат run после каждой мутации
//   - Публикует lifecycle-события для Notification/Audit
//
// Модель конкурентности: run — единица сериализации. Каждый переход
// выполняется в одной транзакции, которая первым делом берёт
// блокировку строки run (SELECT ... FOR UPDATE) с ограниченным
// lock_timeout. Переход и пересчёт агрегата атомарны: либо
// применяются целиком, либо не применяются вовсе. Конкуренция
// (таймаут блокировки, serialization failure, несовпадение version)
// повторяется ограниченное число раз и затем всплывает как Conflict.
//
// Правила самих переходов — чистые функции пакета engine.
package lifecycle
