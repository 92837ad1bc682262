package inventory

import (
	"fmt"
	"strconv"
)

// DefaultSerialWidth ancho por defecto del número de serie (000001).
const DefaultSerialWidth = 6

// ParseSerial extrae el valor numérico del prefijo de dígitos de un serial.
// Retorna false si el serial no empieza con un dígito.
func ParseSerial(serial string) (int64, bool) {
	end := 0
	for end < len(serial) && serial[end] >= '0' && serial[end] <= '9' {
		end++
	}
	if end == 0 {
		return 0, false
	}
	n, err := strconv.ParseInt(serial[:end], 10, 64)
	if err != nil {
		return 0, false
	}
	return n, true
}

// FormatSerial formatea n con ceros a la izquierda hasta width dígitos.
func FormatSerial(n int64, width int) string {
	if width <= 0 {
		width = DefaultSerialWidth
	}
	return fmt.Sprintf("%0*d", width, n)
}

// NextSerial calcula el siguiente serial: máximo numérico existente + 1.
// Los seriales no numéricos se ignoran.
func NextSerial(existing []string, width int) string {
	var highest int64
	for _, s := range existing {
		if n, ok := ParseSerial(s); ok && n > highest {
			highest = n
		}
	}
	return FormatSerial(highest+1, width)
}
