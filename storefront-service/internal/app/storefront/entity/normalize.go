package entity

import (
	"bytes"
	"encoding/json"
	"math"
	"strconv"
	"strings"
)

// FieldState - результат нормализации слабо типизированного поля
type FieldState int

const (
	FieldAbsent  FieldState = iota // поле отсутствует или "ложное" (null, 0, "", false)
	FieldInvalid                   // значение есть, но не приводится к положительному целому
	FieldValid
)

// maxSafeInteger - целые за этой границей клиент в браузере уже не различает
const maxSafeInteger = 1<<53 - 1

// LooseValue хранит исходное JSON значение поля, присланного гостевым клиентом.
// Гость может прислать число, строку или объект {"id": n}, поэтому значение
// сохраняется как есть и приводится к типу только при слиянии
type LooseValue struct {
	raw json.RawMessage
}

// LooseInt создает LooseValue из обычного числа
func LooseInt(n int64) LooseValue {
	return LooseValue{raw: json.RawMessage(strconv.FormatInt(n, 10))}
}

// LooseRaw создает LooseValue из произвольного JSON
func LooseRaw(raw string) LooseValue {
	return LooseValue{raw: json.RawMessage(raw)}
}

func (v *LooseValue) UnmarshalJSON(data []byte) error {
	v.raw = append(v.raw[:0], data...)
	return nil
}

func (v LooseValue) MarshalJSON() ([]byte, error) {
	if len(v.raw) == 0 {
		return []byte("null"), nil
	}
	return v.raw, nil
}

// ProductID приводит значение к идентификатору товара
// Принимает число, числовую строку или объект {"id": ...}
func (v LooseValue) ProductID() (int64, FieldState) {
	value, ok := v.decode()
	if !ok {
		return 0, FieldInvalid
	}
	if obj, isObj := value.(map[string]interface{}); isObj {
		inner, has := obj["id"]
		if !has {
			return 0, FieldInvalid
		}
		value = inner
	}
	return positiveInt(value)
}

// Quantity приводит значение к количеству (целое от 1 до MaxLineQuantity)
// Отсутствующее количество считается некорректным, а не пропуском строки
func (v LooseValue) Quantity() (int, FieldState) {
	value, ok := v.decode()
	if !ok {
		return 0, FieldInvalid
	}
	if _, isObj := value.(map[string]interface{}); isObj {
		return 0, FieldInvalid
	}
	n, state := positiveInt(value)
	if state != FieldValid || n > MaxLineQuantity {
		return 0, FieldInvalid
	}
	return int(n), FieldValid
}

// decode разбирает сырое значение; пустое значение эквивалентно null
func (v LooseValue) decode() (interface{}, bool) {
	if len(bytes.TrimSpace(v.raw)) == 0 {
		return nil, true
	}
	dec := json.NewDecoder(bytes.NewReader(v.raw))
	dec.UseNumber()
	var value interface{}
	if err := dec.Decode(&value); err != nil {
		return nil, false
	}
	return value, true
}

func positiveInt(value interface{}) (int64, FieldState) {
	switch val := value.(type) {
	case nil:
		return 0, FieldAbsent
	case bool:
		if !val {
			return 0, FieldAbsent
		}
		return 0, FieldInvalid
	case json.Number:
		n, ok := parseInteger(val.String())
		if !ok {
			return 0, FieldInvalid
		}
		if n == 0 {
			return 0, FieldAbsent
		}
		if n < 0 {
			return 0, FieldInvalid
		}
		return n, FieldValid
	case string:
		if val == "" {
			return 0, FieldAbsent
		}
		n, ok := parseInteger(strings.TrimSpace(val))
		if !ok || n <= 0 {
			return 0, FieldInvalid
		}
		return n, FieldValid
	default:
		return 0, FieldInvalid
	}
}

// parseInteger принимает целые в любой числовой записи ("5", "5.0", "5e0")
func parseInteger(s string) (int64, bool) {
	if n, err := strconv.ParseInt(s, 10, 64); err == nil {
		return n, n >= -maxSafeInteger && n <= maxSafeInteger
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) || f != math.Trunc(f) {
		return 0, false
	}
	if math.Abs(f) > maxSafeInteger {
		return 0, false
	}
	return int64(f), true
}
