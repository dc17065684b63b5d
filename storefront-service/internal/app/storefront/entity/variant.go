package entity

import (
	"strconv"
	"strings"
)

// absentMarker - каноническое значение "вариант не выбран"
// nil и отсутствующее поле дают один и тот же маркер
const absentMarker = "\x00"

// VariantKey вычисляет ключ идентичности строки корзины
// Две строки считаются одной позицией тогда и только тогда, когда ключи равны.
// Присутствующие значения кодируются с префиксом длины, поэтому разные значения
// (включая пустую строку) никогда не совпадают друг с другом и с маркером отсутствия
func VariantKey(productID int64, color, width, length *string) string {
	var b strings.Builder
	b.WriteString(strconv.FormatInt(productID, 10))
	for _, v := range []*string{color, width, length} {
		b.WriteByte('|')
		writeVariantPart(&b, v)
	}
	return b.String()
}

func writeVariantPart(b *strings.Builder, v *string) {
	if v == nil {
		b.WriteString(absentMarker)
		return
	}
	b.WriteString(strconv.Itoa(len(*v)))
	b.WriteByte(':')
	b.WriteString(*v)
}

// Variant - выбранные пользователем параметры товара
type Variant struct {
	Color  *string `json:"color"`
	Width  *string `json:"width"`
	Length *string `json:"length"`
}
