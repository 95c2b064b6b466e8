// Package engine содержит чистую логику жизненного цикла run/item.
//
// Включает:
//   - guards.go — проверки допустимости переходов (start, skip, assign, ...)
//   - derive.go — вывод агрегатных счётчиков и статуса run из items
//   - errors.go — ошибки отклонённых переходов
//
// Engine не знает про БД и HTTP: все функции работают на
// domain-структурах в памяти, поэтому правила переходов
// тестируются без базы. Персистентность и сериализация
// конкурентных переходов — забота пакета lifecycle.
package engine
