package validation

import (
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"
)

// Константы валидации
const (
	MinDisplayNameLength   = 2
	MaxDisplayNameLength   = 100
	MinAddressLength       = 5
	MaxAddressLength       = 300
	MinServiceTypeLength   = 3
	MaxServiceTypeLength   = 100
	MinMessageLength       = 1
	MaxMessageLength       = 5000
	MaxReviewTextLength    = 3000
	MaxVacationReason      = 200
	MaxReviewPhotos        = 5
	MinOrderPrice          = 0.0
	MaxOrderPrice          = 1000000.0
	MaxVoiceDurationSec    = 600
	MaxNotificationTitle   = 200
	MaxNotificationDescLen = 1000
)

// ValidateLength проверяет длину строки.
func ValidateLength(fieldName, value string, min, max int) error {
	length := utf8.RuneCountInString(value)
	if min > 0 && length < min {
		return fmt.Errorf("%s должен быть не менее %d символов", fieldName, min)
	}
	if max > 0 && length > max {
		return fmt.Errorf("%s должен быть не более %d символов", fieldName, max)
	}
	return nil
}

// ValidateNonEmpty проверяет, что строка не пустая.
func ValidateNonEmpty(fieldName, value string) error {
	if strings.TrimSpace(value) == "" {
		return fmt.Errorf("%s не может быть пустым", fieldName)
	}
	return nil
}

// ValidateEmail проверяет формат email.
func ValidateEmail(email string) error {
	if email == "" {
		return fmt.Errorf("email обязателен")
	}

	email = strings.ToLower(strings.TrimSpace(email))

	parts := strings.Split(email, "@")
	if len(parts) != 2 {
		return fmt.Errorf("некорректный формат email")
	}

	localPart := parts[0]
	domainPart := parts[1]

	if len(localPart) == 0 || len(localPart) > 64 {
		return fmt.Errorf("локальная часть email должна быть от 1 до 64 символов")
	}
	if len(domainPart) == 0 || len(domainPart) > 255 {
		return fmt.Errorf("доменная часть email должна быть от 1 до 255 символов")
	}
	if !strings.Contains(domainPart, ".") {
		return fmt.Errorf("некорректный домен email")
	}

	return nil
}

var phoneRegex = regexp.MustCompile(`^\+?[0-9][0-9\s\-()]{9,17}$`)

// ValidatePhone проверяет формат телефона.
func ValidatePhone(phone string) error {
	phone = strings.TrimSpace(phone)
	if phone == "" {
		return fmt.Errorf("телефон обязателен")
	}
	if !phoneRegex.MatchString(phone) {
		return fmt.Errorf("некорректный формат телефона")
	}
	return nil
}

// ValidateDisplayName проверяет отображаемое имя.
func ValidateDisplayName(displayName string) error {
	if displayName == "" {
		return fmt.Errorf("отображаемое имя обязательно")
	}

	displayName = strings.TrimSpace(displayName)

	if err := ValidateLength("отображаемое имя", displayName, MinDisplayNameLength, MaxDisplayNameLength); err != nil {
		return err
	}

	displayNameRegex := regexp.MustCompile(`^[a-zA-Zа-яА-ЯёЁ0-9\s\-_.,!?()]+$`)
	if !displayNameRegex.MatchString(displayName) {
		return fmt.Errorf("отображаемое имя содержит недопустимые символы")
	}

	return nil
}

// ValidateAddress проверяет адрес заказа.
func ValidateAddress(address string) error {
	address = strings.TrimSpace(address)
	if address == "" {
		return fmt.Errorf("адрес обязателен")
	}
	return ValidateLength("адрес", address, MinAddressLength, MaxAddressLength)
}

// ValidateServiceType проверяет название услуги.
func ValidateServiceType(serviceType string) error {
	serviceType = strings.TrimSpace(serviceType)
	if serviceType == "" {
		return fmt.Errorf("тип услуги обязателен")
	}
	return ValidateLength("тип услуги", serviceType, MinServiceTypeLength, MaxServiceTypeLength)
}

// ValidatePrice проверяет стоимость заказа.
func ValidatePrice(price float64) error {
	if price <= MinOrderPrice {
		return fmt.Errorf("стоимость заказа должна быть положительной")
	}
	if price > MaxOrderPrice {
		return fmt.Errorf("стоимость заказа не может превышать %.0f", MaxOrderPrice)
	}
	return nil
}

// ValidateMessageContent проверяет текст сообщения в чате.
func ValidateMessageContent(content string) error {
	if strings.TrimSpace(content) == "" {
		return fmt.Errorf("сообщение не может быть пустым")
	}
	return ValidateLength("сообщение", content, MinMessageLength, MaxMessageLength)
}

// ValidateRating проверяет оценку по пятибалльной шкале.
func ValidateRating(fieldName string, rating int) error {
	if rating < 1 || rating > 5 {
		return fmt.Errorf("%s должна быть от 1 до 5", fieldName)
	}
	return nil
}

// ValidateOptionalRating проверяет необязательную оценку (0 значит не выставлена).
func ValidateOptionalRating(fieldName string, rating int) error {
	if rating == 0 {
		return nil
	}
	return ValidateRating(fieldName, rating)
}
