package utils

import (
	"regexp"
	"strings"
)

var nonDigitRegexp = regexp.MustCompile(`\D`)

// NormalizePhone приводит номер к виду +<цифры>, чтобы "+996 700 12-34-56" и "996700123456" совпадали.
func NormalizePhone(phone string) string {
	digitsOnly := nonDigitRegexp.ReplaceAllString(phone, "")
	if digitsOnly == "" {
		return ""
	}
	return "+" + digitsOnly
}

// IsEmail - грубая проверка, чтобы понять, чем пользователь пытается войти.
func IsEmail(login string) bool {
	return strings.Contains(login, "@")
}
